package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvConfigPath = "TABLERO_CONFIG"
	EnvDBPath     = "TABLERO_DB_PATH"
	EnvHTTPAddr   = "TABLERO_HTTP_ADDR"
	EnvJWTSecret  = "TABLERO_JWT_SECRET"
	EnvRedisURL   = "TABLERO_REDIS_URL"
	EnvLogLevel   = "TABLERO_LOG_LEVEL"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Ordering OrderingConfig `yaml:"ordering"`
	Lock     LockConfig     `yaml:"lock"`
	Board    BoardConfig    `yaml:"board"`
	Hub      HubConfig      `yaml:"hub"`
	Log      LogConfig      `yaml:"log"`
	Theme    Theme          `yaml:"theme"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	// Path of the database file; ":memory:" keeps everything in memory.
	Path string `yaml:"path"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig selects how callers are identified.
type AuthConfig struct {
	// Mode is "jwt" (HS256 bearer tokens) or "header" (trusted X-User-ID).
	Mode   string `yaml:"mode"`
	Secret string `yaml:"secret"`
}

// OrderingConfig tunes position allocation.
type OrderingConfig struct {
	Baseline    float64 `yaml:"baseline"`
	Precision   int     `yaml:"precision"`
	MaxAttempts int     `yaml:"max_attempts"`
}

// LockConfig selects the group lock backend.
type LockConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// BoardConfig tunes board behavior.
type BoardConfig struct {
	InviteCodeLength int `yaml:"invite_code_length"`
	PageSize         int `yaml:"page_size"`
}

// HubConfig sizes the notification queues.
type HubConfig struct {
	BroadcastBuffer int `yaml:"broadcast_buffer"`
	ClientBuffer    int `yaml:"client_buffer"`
}

// LogConfig configures logging. An empty File logs to stderr.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads config from TABLERO_CONFIG or the user's config directory and
// applies environment overrides. Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		// Fall back to defaults if we can't determine config path
		config := Default()
		config.applyEnv()
		return config, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads config from path. A missing file yields the defaults.
// The result is not validated; commands that need a complete server
// configuration call Validate.
func LoadFile(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// The file can hold the jwt secret.
	return os.WriteFile(configPath, data, 0o600)
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret (or %s) is required in jwt mode", EnvJWTSecret)
		}
	case "header":
	default:
		return fmt.Errorf("unsupported auth.mode %q", c.Auth.Mode)
	}
	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Lock.RedisURL == "" {
			return fmt.Errorf("lock.redis_url (or %s) is required for the redis backend", EnvRedisURL)
		}
	default:
		return fmt.Errorf("unsupported lock.backend %q", c.Lock.Backend)
	}
	if c.Ordering.Baseline <= 0 {
		return fmt.Errorf("ordering.baseline must be positive")
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "tablero", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "tablero", "config.yaml"), nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Lock.RedisURL = v
		if c.Lock.Backend == "" {
			c.Lock.Backend = LockRedis
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = defaultDataPath("tablero.db")
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	c.Auth.Mode = strings.ToLower(c.Auth.Mode)
	if c.Auth.Mode == "" {
		c.Auth.Mode = "jwt"
	}
	if c.Ordering.Baseline == 0 {
		c.Ordering.Baseline = 1024
	}
	if c.Ordering.Precision <= 0 {
		c.Ordering.Precision = 4
	}
	if c.Ordering.MaxAttempts <= 0 {
		c.Ordering.MaxAttempts = 2
	}
	c.Lock.Backend = strings.ToLower(c.Lock.Backend)
	if c.Lock.Backend == "" {
		c.Lock.Backend = LockMemory
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = 10 * time.Second
	}
	if c.Board.InviteCodeLength <= 0 {
		c.Board.InviteCodeLength = 8
	}
	if c.Board.PageSize <= 0 {
		c.Board.PageSize = 10
	}
	if c.Hub.BroadcastBuffer <= 0 {
		c.Hub.BroadcastBuffer = 100
	}
	if c.Hub.ClientBuffer <= 0 {
		c.Hub.ClientBuffer = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Theme.ApplyDefaults()
}

// defaultDataPath places name under ~/.tablero, or the working directory
// when the home directory is unknown.
func defaultDataPath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, ".tablero", name)
}
