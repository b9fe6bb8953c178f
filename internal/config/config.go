// ABOUTME: fitlog configuration management with remote store selection.
// ABOUTME: JSON file settings, FITLOG_* environment overrides and store factory functions.

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/fitlog/internal/charm"
	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/remote/postgres"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/joho/godotenv"
)

// Remote store kinds.
const (
	RemoteNone     = ""
	RemotePostgres = "postgres"
	RemoteCharm    = "charm"
)

// Config stores fitlog configuration.
type Config struct {
	// DataDir is the root directory for the local database.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/fitlog.
	DataDir string `json:"data_dir,omitempty"`

	// Remote selects the cloud store: "" (none), "postgres" or "charm".
	Remote string `json:"remote,omitempty"`

	// DatabaseURL is the Postgres connection string when Remote is "postgres".
	DatabaseURL string `json:"database_url,omitempty"`

	// UserID is the authenticated user. With the charm remote it defaults to
	// the Charm account id.
	UserID string `json:"user_id,omitempty"`

	// CharmHost overrides the Charm server.
	CharmHost string `json:"charm_host,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// RemoteStore is a cloud store that also answers subscription lookups.
type RemoteStore interface {
	storage.RemoteStore
	entitlement.Source
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// DBPath returns the local database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "fitlog.db")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks the remote kind and log level.
func (c *Config) Validate() error {
	switch c.Remote {
	case RemoteNone, RemoteCharm:
	case RemotePostgres:
		if c.DatabaseURL == "" {
			return errors.New("remote \"postgres\" needs database_url (or FITLOG_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("unknown remote: %q (want postgres or charm)", c.Remote)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// OpenLocal opens the local store under the data directory.
func (c *Config) OpenLocal() (*storage.DB, error) {
	return storage.Open(c.DBPath())
}

// OpenRemote opens the configured remote store. It returns nil and no error
// when no remote is configured.
func (c *Config) OpenRemote(ctx context.Context) (RemoteStore, error) {
	switch c.Remote {
	case RemoteNone:
		return nil, nil
	case RemotePostgres:
		store, err := postgres.Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate remote schema: %w", err)
		}
		return store, nil
	case RemoteCharm:
		client, err := charm.Open(c.CharmHost)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown remote: %q", c.Remote)
	}
}

type identifier interface {
	ID() (string, error)
}

// ResolveUserID returns the configured user id, falling back to the remote
// store's account identity when it has one.
func (c *Config) ResolveUserID(remote RemoteStore) (string, error) {
	if c.UserID != "" {
		return c.UserID, nil
	}
	if id, ok := remote.(identifier); ok {
		userID, err := id.ID()
		if err != nil {
			return "", fmt.Errorf("resolve user id: %w", err)
		}
		return userID, nil
	}
	return "", nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "fitlog", "config.json")
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from FITLOG_* environment variables.
func (c *Config) ApplyEnv() {
	c.DataDir = getEnv("FITLOG_DATA_DIR", c.DataDir)
	c.Remote = getEnv("FITLOG_REMOTE", c.Remote)
	c.DatabaseURL = getEnv("FITLOG_DATABASE_URL", c.DatabaseURL)
	c.UserID = getEnv("FITLOG_USER_ID", c.UserID)
	c.CharmHost = getEnv("FITLOG_CHARM_HOST", c.CharmHost)
	c.LogLevel = getEnv("FITLOG_LOG_LEVEL", c.LogLevel)
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
