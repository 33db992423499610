// Package main starts mastodon-notify in setup, daemon or history mode.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nhle/mastodon-notify/internal/model"
)

func main() {
	log.SetPrefix("[mastodon-notify] ")

	fs := model.NewFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	configPath, err := fs.GetString("config")
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := model.LoadEnvFile(model.EnvFilePath(configPath)); err != nil {
		log.Fatalf("%v", err)
	}
	cfg, err := model.LoadConfig(configPath, fs)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case model.ModeConfig:
		err = runConfig(ctx, cfg, configPath)
	case model.ModeDaemon:
		err = runDaemon(ctx, cfg)
	case model.ModeHistory:
		err = runHistory(ctx, cfg)
	}
	if err != nil {
		stop()
		log.Fatalf("%s: %v", cfg.Mode, err)
	}
}
