package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName is the application name shown by the notification daemon and used
// as the keyring service.
const AppName = "mastodon-notify"

// Run modes.
const (
	ModeConfig  = "config"
	ModeDaemon  = "daemon"
	ModeHistory = "history"
)

// NotifyConfig holds desktop notification preferences.
type NotifyConfig struct {
	// TimeoutMs is how long a notification stays on screen, in milliseconds.
	TimeoutMs int `mapstructure:"timeout" yaml:"timeout"`

	// GraceMs is added to the timeout before a pending notification is
	// forgotten.
	GraceMs int `mapstructure:"grace" yaml:"grace"`

	// Icon is a freedesktop icon name (e.g. dialog-information) or path.
	Icon string `mapstructure:"icon" yaml:"icon"`
}

// HistoryConfig holds settings for the delivery journal.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `mapstructure:"path" yaml:"path"`

	// Limit is how many rows --mode history prints.
	Limit int `mapstructure:"limit" yaml:"limit"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Host    string        `mapstructure:"host" yaml:"host"`
	User    string        `mapstructure:"user" yaml:"user"`
	Mode    string        `mapstructure:"mode" yaml:"mode"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// Account returns the keyring key for the configured user, e.g.
// alice@mastodon.social.
func (c *AppConfig) Account() string {
	return c.User + "@" + c.Host
}

// Timeout returns the notification timeout as a duration.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.Notify.TimeoutMs) * time.Millisecond
}

// Grace returns the expiry grace period as a duration.
func (c *AppConfig) Grace() time.Duration {
	return time.Duration(c.Notify.GraceMs) * time.Millisecond
}

// Validate checks that the fields needed by every mode are present.
func (c *AppConfig) Validate() error {
	switch c.Mode {
	case ModeConfig, ModeDaemon:
		if c.Host == "" {
			return errors.New("host is required")
		}
		if c.User == "" {
			return errors.New("user is required")
		}
	case ModeHistory:
		if c.History.Path == "" {
			return errors.New("history.path is required for history mode")
		}
	default:
		return fmt.Errorf("unknown mode %q (want config, daemon or history)", c.Mode)
	}
	if c.Notify.TimeoutMs < 0 || c.Notify.TimeoutMs > math.MaxInt32 {
		return fmt.Errorf("timeout must be between 0 and %d ms, got %d", math.MaxInt32, c.Notify.TimeoutMs)
	}
	if c.Notify.GraceMs < 0 {
		return fmt.Errorf("grace must not be negative, got %d", c.Notify.GraceMs)
	}
	return nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mastodon-notify/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// EnvFilePath returns the optional .env file next to the config file.
func EnvFilePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// LoadEnvFile exports the variables in the .env file at path, without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mode: ModeDaemon,
		Notify: NotifyConfig{
			TimeoutMs: 5000,
			GraceMs:   200,
		},
		History: HistoryConfig{
			Limit: 20,
		},
	}
}

// NewFlagSet declares the command-line flags understood by LoadConfig.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.String("config", DefaultConfigPath(), "path to the YAML configuration file")
	fs.String("host", "", "Mastodon instance host, e.g. hachyderm.io")
	fs.String("user", "", "Mastodon username on the instance")
	fs.String("mode", ModeDaemon, "run mode: config, daemon or history")
	fs.Int("timeout", 5000, "expiration timeout of the notification in milliseconds")
	fs.Int("grace", 200, "extra milliseconds before a displayed notification is forgotten")
	fs.String("icon", "", "freedesktop.org compliant icon, e.g. dialog-information")
	fs.String("history", "", "SQLite file recording delivered notifications")
	return fs
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"host":    "host",
	"user":    "user",
	"mode":    "mode",
	"timeout": "notify.timeout",
	"grace":   "notify.grace",
	"icon":    "notify.icon",
	"history": "history.path",
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// then applies MASTODON_NOTIFY_* environment variables and any flags that
// were set explicitly. If the file does not exist, defaults are used.
func LoadConfig(path string, fs *pflag.FlagSet) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MASTODON_NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mode", ModeDaemon)
	v.SetDefault("host", "")
	v.SetDefault("user", "")
	v.SetDefault("notify.timeout", 5000)
	v.SetDefault("notify.grace", 200)
	v.SetDefault("notify.icon", "")
	v.SetDefault("history.path", "")
	v.SetDefault("history.limit", 20)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Mode = strings.ToLower(cfg.Mode)

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("host", cfg.Host)
	v.Set("user", cfg.User)
	v.Set("notify", map[string]any{
		"timeout": cfg.Notify.TimeoutMs,
		"grace":   cfg.Notify.GraceMs,
		"icon":    cfg.Notify.Icon,
	})
	if cfg.History.Path != "" {
		v.Set("history", map[string]any{
			"path":  cfg.History.Path,
			"limit": cfg.History.Limit,
		})
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
