package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for marksyncr.
type Config struct {
	// LocalMode runs against the local snapshot store instead of the
	// sync API. No credentials required.
	LocalMode bool `env:"MARKSYNCR_LOCAL_MODE" envDefault:"false"`

	// Sync API endpoint and session token (required unless LocalMode).
	APIURL   string `env:"MARKSYNCR_API_URL" envDefault:"https://marksyncr.com"`
	APIToken string `env:"MARKSYNCR_API_TOKEN"`

	// Account identifier scoping local state. Defaults to "default" in
	// local mode; required otherwise.
	AccountID string `env:"MARKSYNCR_ACCOUNT_ID"`

	// Browser selects the bookmark source. Only chrome is implemented.
	Browser string `env:"MARKSYNCR_BROWSER" envDefault:"chrome"`

	// BookmarksFile overrides the browser's bookmark store location.
	// Empty means the browser's default profile path.
	BookmarksFile string `env:"MARKSYNCR_BOOKMARKS_FILE"`

	// SyncInterval is the periodic sync cadence.
	SyncInterval time.Duration `env:"MARKSYNCR_SYNC_INTERVAL" envDefault:"5m"`

	// ExcludeFolders lists folder paths to keep out of sync, separated
	// by commas, e.g. "toolbar/Private,other/Drafts".
	ExcludeFolders []string `env:"MARKSYNCR_EXCLUDE_FOLDERS" envSeparator:","`

	// MirrorsFile is the mirrors YAML config path. Missing file means
	// no mirrors.
	MirrorsFile string `env:"MARKSYNCR_MIRRORS_FILE"`

	// StateFile overrides the state database path
	// (default ~/.marksyncr/state.db).
	StateFile string `env:"MARKSYNCR_STATE_FILE"`

	// DeviceName this client identifies as. Defaults to system hostname.
	DeviceName string `env:"DEVICE_NAME"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// LogLevel overrides the environment's default log level.
	LogLevel string `env:"MARKSYNCR_LOG_LEVEL"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DeviceName == "" {
		hostname, err := os.Hostname()
		if err != nil || hostname == "" {
			hostname = "marksyncr"
		}

		cfg.DeviceName = hostname
	}

	if cfg.AccountID == "" && cfg.LocalMode {
		cfg.AccountID = "default"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve file paths to absolute at startup so the directory watch
	// on the bookmarks file sees a stable path.
	for _, p := range []*string{&cfg.BookmarksFile, &cfg.MirrorsFile, &cfg.StateFile} {
		if *p == "" {
			continue
		}

		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", *p, err)
		}

		*p = abs
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !c.LocalMode {
		if c.APIToken == "" {
			return fmt.Errorf("MARKSYNCR_API_TOKEN is required unless MARKSYNCR_LOCAL_MODE is set")
		}

		if c.APIURL == "" {
			return fmt.Errorf("MARKSYNCR_API_URL must not be empty")
		}

		if c.AccountID == "" {
			return fmt.Errorf("MARKSYNCR_ACCOUNT_ID is required unless MARKSYNCR_LOCAL_MODE is set")
		}
	}

	if c.Browser != "chrome" {
		return fmt.Errorf("unsupported browser %q (only chrome is implemented)", c.Browser)
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("MARKSYNCR_SYNC_INTERVAL must be positive")
	}

	return nil
}

// ResolveBookmarksFile returns the bookmark store path, falling back to
// Chrome's default profile location for the current platform.
func (c *Config) ResolveBookmarksFile() (string, error) {
	if c.BookmarksFile != "" {
		return c.BookmarksFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default", "Bookmarks"), nil
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default", "Bookmarks"), nil
	}
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CleanExcludeFolders returns the exclude list with blanks trimmed out.
func (c *Config) CleanExcludeFolders() []string {
	var out []string

	for _, p := range c.ExcludeFolders {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
