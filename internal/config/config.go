package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvAPIURL   = "INVOICER_API_URL"
	EnvLogLevel = "INVOICER_LOG_LEVEL"
	EnvCurrency = "INVOICER_CURRENCY"
)

type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api"`

	// Invoice defaults for new drafts
	Invoice InvoiceConfig `yaml:"invoice"`

	// Local encrypted cache
	Cache CacheConfig `yaml:"cache"`

	Log LogConfig `yaml:"log"`

	// User info printed in the "From" block of rendered invoices
	User UserConfig `yaml:"user"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"` // e.g. https://api.example.com (without /v1)
	Timeout time.Duration `yaml:"timeout"`
}

type InvoiceConfig struct {
	DefaultDueDays int     `yaml:"default_due_days"` // Days until invoice due
	DefaultTaxRate float64 `yaml:"default_tax_rate"` // Tax rate in percent (7.5 = 7.5%)
	Currency       string  `yaml:"currency"`         // ISO code used when the API does not send one
	OutputDir      string  `yaml:"output_dir"`       // Directory for exported PDFs
}

type CacheConfig struct {
	Path string        `yaml:"path"` // Path to the SQLCipher database
	TTL  time.Duration `yaml:"ttl"`  // How long cached lists are served without refetching
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type UserConfig struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "invoicer")
}

// DefaultConfigPath returns ~/.config/invoicer/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := configDir()

	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Invoice: InvoiceConfig{
			DefaultDueDays: 30,
			DefaultTaxRate: 0,
			Currency:       "NGN",
			OutputDir:      filepath.Join(dir, "invoices"),
		},
		Cache: CacheConfig{
			Path: filepath.Join(dir, "cache.db"),
			TTL:  5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dir, "invoicer.log"),
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// A .env file next to the config and the process environment are applied on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// Existing environment variables win over the .env file
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	cfg.applyEnv()

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCurrency)); v != "" {
		c.Invoice.Currency = strings.ToUpper(v)
	}
}

// Validate reports every problem at once
func (c *Config) Validate() error {
	var problems []string

	if c.API.BaseURL == "" {
		problems = append(problems, "api.base_url cannot be empty")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid api.base_url '%s': %v", c.API.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid api.base_url scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}
	if c.Invoice.DefaultDueDays < 0 {
		problems = append(problems, fmt.Sprintf("invalid invoice.default_due_days %d: must not be negative", c.Invoice.DefaultDueDays))
	}
	if c.Invoice.DefaultTaxRate < 0 || c.Invoice.DefaultTaxRate > 100 {
		problems = append(problems, fmt.Sprintf("invalid invoice.default_tax_rate %g: must be between 0 and 100", c.Invoice.DefaultTaxRate))
	}
	if len(c.Invoice.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid invoice.currency '%s': must be a 3-letter code", c.Invoice.Currency))
	}
	if c.Cache.Path == "" {
		problems = append(problems, "cache.path cannot be empty")
	}
	if c.Cache.TTL < 0 {
		problems = append(problems, "cache.ttl must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates the cache, log and export directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Cache.Path), c.Invoice.OutputDir}
	if c.Log.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Log.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
