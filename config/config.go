// Package config resolves the client settings.
//
// Sources, lowest precedence first:
//   - built-in defaults
//   - a TOML file (~/.config/mega/config.toml unless -config says otherwise)
//   - MEGA_* environment variables, optionally seeded from a .env file
//   - command-line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultWebhookURL  = "https://n8n.davidvmayer.com/webhook/mega-agent"
	DefaultLocale      = "he"
	DefaultTimeout     = 2 * time.Minute
	DefaultTypingDelay = 30 * time.Millisecond
)

// Locales lists the UI languages the chat has strings for.
var Locales = []string{"he", "en"}

type Config struct {
	WebhookURL  string   `toml:"webhook_url"`
	Locale      string   `toml:"locale"`
	Device      string   `toml:"device"`
	Timeout     Duration `toml:"timeout"`
	TypingDelay Duration `toml:"typing_delay"`
}

// Duration reads "30ms"-style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		WebhookURL:  DefaultWebhookURL,
		Locale:      DefaultLocale,
		Timeout:     Duration{DefaultTimeout},
		TypingDelay: Duration{DefaultTypingDelay},
	}
}

// DefaultPath is where the config file lives when -config is not given.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mega", "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mega", "config.toml"), nil
}

// Load layers the file at path and the environment over the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file that are not already set.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("MEGA_WEBHOOK_URL")); v != "" {
		c.WebhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MEGA_LOCALE")); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("MEGA_DEVICE"); v != "" {
		c.Device = v
	}
	for name, dst := range map[string]*Duration{
		"MEGA_TIMEOUT":      &c.Timeout,
		"MEGA_TYPING_DELAY": &c.TypingDelay,
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s value %q: %w", name, v, err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL %q: %w", c.WebhookURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid webhook URL %q: must be http(s) with a host", c.WebhookURL)
	}
	known := false
	for _, l := range Locales {
		if c.Locale == l {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown locale %q (use %s)", c.Locale, strings.Join(Locales, " or "))
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout.Duration)
	}
	if c.TypingDelay.Duration <= 0 {
		return fmt.Errorf("typing delay must be positive, got %v", c.TypingDelay.Duration)
	}
	return nil
}
