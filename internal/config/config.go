// ABOUTME: Configuration loading and parsing for the verify-admin console
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "verify-console"

// Defaults applied before the file is read
const (
	DefaultBaseURL                = "https://backend-api.getnobis.com/api/v2"
	DefaultTimeout                = 30 * time.Second
	DefaultPageSize               = 25
	MaxPageSize                   = 100
	DefaultMaxFailedConfirmations = 5
	DefaultLockoutWindow          = 15 * time.Minute
)

// Config represents the complete console configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	Auth      AuthConfig      `yaml:"auth"`
	Directory DirectoryConfig `yaml:"directory"`
	Deletion  DeletionConfig  `yaml:"deletion"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig holds the admin backend location
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// AuthConfig holds where the bearer credential comes from. Token wins over
// TokenFile when both are set.
type AuthConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// DirectoryConfig holds client listing configuration
type DirectoryConfig struct {
	PageSize int `yaml:"page_size"`
}

// DeletionConfig holds the failed-confirmation lockout
type DeletionConfig struct {
	MaxFailedConfirmations int           `yaml:"max_failed_confirmations"`
	LockoutWindow          time.Duration `yaml:"-"`

	LockoutWindowRaw string `yaml:"lockout_window"`
}

// JournalConfig holds the local operator journal location
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration usable without any file
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Auth: AuthConfig{
			TokenFile: filepath.Join(DataDir(), "token"),
		},
		Directory: DirectoryConfig{PageSize: DefaultPageSize},
		Deletion: DeletionConfig{
			MaxFailedConfirmations: DefaultMaxFailedConfirmations,
			LockoutWindow:          DefaultLockoutWindow,
		},
		Journal: JournalConfig{Path: filepath.Join(DataDir(), "journal.db")},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
// Fields absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and otherwise falls back to
// Default. Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv reads a .env file from the working directory into the process
// environment. Variables already set are left alone.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
}

// applyEnv lets the environment override the API location and credential
func (c *Config) applyEnv() {
	if v := os.Getenv("VERIFY_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("VERIFY_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("VERIFY_JOURNAL"); v != "" {
		c.Journal.Path = v
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if c.Directory.PageSize < 1 || c.Directory.PageSize > MaxPageSize {
		return fmt.Errorf("directory.page_size must be between 1 and %d", MaxPageSize)
	}

	if c.Deletion.MaxFailedConfirmations < 1 {
		return fmt.Errorf("deletion.max_failed_confirmations must be at least 1")
	}
	if c.Deletion.LockoutWindow <= 0 {
		return fmt.Errorf("deletion.lockout_window must be positive")
	}

	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	if cfg.Deletion.LockoutWindowRaw != "" {
		cfg.Deletion.LockoutWindow, err = time.ParseDuration(cfg.Deletion.LockoutWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing lockout_window %q: %w", cfg.Deletion.LockoutWindowRaw, err)
		}
	}

	return nil
}

// Path returns the path to the config file.
// Priority: VERIFY_CONFIG env var > XDG_CONFIG_HOME/verify-console/config.yaml > ~/.config/verify-console/config.yaml
func Path() string {
	if envPath := os.Getenv("VERIFY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, appName, "config.yaml")
}

// DataDir returns the directory holding the token file and journal.
// Priority: XDG_DATA_HOME/verify-console > ~/.local/share/verify-console
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, appName)
}
