// Package browser opens links in the user's browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config selects the command used to open links.
type Config struct {
	// Command is run with the link as its only argument.
	Command string `env:"BROWSER" envDefault:"xdg-open"`
}

// ParseEnv loads Config from the environment.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Opener runs the configured browser command.
type Opener struct {
	command string
}

// New creates an Opener for cfg.
func New(cfg Config) (*Opener, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, errors.New("browser command is empty")
	}
	return &Opener{command: command}, nil
}

// Open runs the browser command on url and waits for it to exit.
func (o *Opener) Open(url string) error {
	if url == "" {
		return errors.New("no url to open")
	}
	// BROWSER may hold a colon-separated list; the first entry is used.
	command, _, _ := strings.Cut(o.command, ":")
	if err := exec.Command(command, url).Run(); err != nil {
		return fmt.Errorf("running %s: %w", command, err)
	}
	return nil
}
