// ABOUTME: Local configuration for the dashboard: endpoint, cache backend, refresh and logging
// ABOUTME: Stored as JSON under the XDG config dir with SALESDASH_* environment overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG subdirectories.
	AppName = "salesdash"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"

	// DefaultRefreshInterval matches the dashboard's auto-refresh cadence.
	DefaultRefreshInterval = 30 * time.Second

	// DefaultLogLevel keeps the log file quiet.
	DefaultLogLevel = "info"

	// DefaultCacheBackend stores the snapshot on local disk.
	DefaultCacheBackend = "badger"
)

// Config holds dashboard settings.
type Config struct {
	// Endpoint is the report endpoint URL (JSONP or JSON)
	Endpoint string `json:"endpoint"`

	// CacheBackend is "badger" or "redis"
	CacheBackend string `json:"cache_backend"`
	CacheDir     string `json:"cache_dir,omitempty"`
	RedisAddr    string `json:"redis_addr,omitempty"`
	RedisPrefix  string `json:"redis_prefix,omitempty"`

	// AutoRefresh starts the dashboard with the interval timer enabled
	AutoRefresh     bool          `json:"auto_refresh"`
	RefreshInterval time.Duration `json:"refresh_interval,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`

	// TokenFile holds an OAuth token used as a bearer credential, if present
	TokenFile string `json:"token_file,omitempty"`

	// JournalPath is the sqlite load journal
	JournalPath string `json:"journal_path,omitempty"`

	path string
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheBackend:    DefaultCacheBackend,
		CacheDir:        filepath.Join(xdg.CacheHome, AppName, "snapshot"),
		AutoRefresh:     true,
		RefreshInterval: DefaultRefreshInterval,
		LogLevel:        DefaultLogLevel,
		LogFile:         filepath.Join(xdg.StateHome, AppName, AppName+".log"),
		TokenFile:       filepath.Join(xdg.DataHome, AppName, "endpoint-token.json"),
		JournalPath:     filepath.Join(xdg.DataHome, AppName, "journal.db"),
	}
}

// DefaultPath returns the XDG location of the config file.
// SALESDASH_CONFIG overrides it.
func DefaultPath() string {
	if p := os.Getenv("SALESDASH_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// LoadConfig reads .env (if present) and the config file at DefaultPath.
func LoadConfig() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()
	return LoadFrom(DefaultPath())
}

// LoadFrom loads config from path, or returns defaults if not found.
// Environment variables override file values:
// - SALESDASH_ENDPOINT
// - SALESDASH_CACHE_BACKEND
// - SALESDASH_CACHE_DIR
// - SALESDASH_REDIS_ADDR
// - SALESDASH_REDIS_PREFIX
// - SALESDASH_AUTO_REFRESH
// - SALESDASH_REFRESH_INTERVAL
// - SALESDASH_LOG_LEVEL
// - SALESDASH_TOKEN_FILE.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := applyEnvOverrides(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	cfg.path = path
	cfg.applyDefaults()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields a partial config file left empty.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.CacheBackend == "" {
		c.CacheBackend = def.CacheBackend
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = def.RefreshInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.TokenFile == "" {
		c.TokenFile = def.TokenFile
	}
	if c.JournalPath == "" {
		c.JournalPath = def.JournalPath
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SALESDASH_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("SALESDASH_CACHE_BACKEND"); v != "" {
		cfg.CacheBackend = v
	}
	if v := os.Getenv("SALESDASH_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SALESDASH_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SALESDASH_REDIS_PREFIX"); v != "" {
		cfg.RedisPrefix = v
	}
	if v := os.Getenv("SALESDASH_AUTO_REFRESH"); v != "" {
		cfg.AutoRefresh = v == "true" || v == "1"
	}
	if v := os.Getenv("SALESDASH_REFRESH_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("invalid SALESDASH_REFRESH_INTERVAL: %w", err)
		}
		cfg.RefreshInterval = d
	}
	if v := os.Getenv("SALESDASH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SALESDASH_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	return nil
}

// parseInterval accepts a Go duration ("45s") or a bare number of seconds.
func parseInterval(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("interval must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return d, nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// SetEndpoint sets the report endpoint and saves.
func (c *Config) SetEndpoint(endpoint string) error {
	c.Endpoint = endpoint
	return c.Save()
}

// SetAutoRefresh enables or disables auto refresh and saves.
func (c *Config) SetAutoRefresh(enabled bool) error {
	c.AutoRefresh = enabled
	return c.Save()
}
