package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `ponmo init`.
const FileName = "ponmo.yaml"

// Storage backends.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the top-level ponmo.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Storage  StorageConfig  `yaml:"storage"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Scope    string         `yaml:"scope"` // scope used by the CLI
}

// BusinessConfig identifies the business.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LedgerConfig holds posting rules.
type LedgerConfig struct {
	Tolerance string `yaml:"tolerance"` // absolute debit/credit tolerance, e.g. "0.01"
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// ServerConfig controls `ponmo serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a ponmo.yaml file from disk. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads path, when it exists, then applies the .env file next to
// it and PONMO_* environment variables on top. Variables already set in the
// environment win over .env.
func LoadEnv(path string) (*Config, error) {
	cfg := Default("")
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Storage.Backend, "PONMO_STORAGE_BACKEND")
	setFromEnv(&c.Storage.Path, "PONMO_STORAGE_PATH")
	setFromEnv(&c.Ledger.Tolerance, "PONMO_LEDGER_TOLERANCE")
	setFromEnv(&c.Logging.Level, "PONMO_LOG_LEVEL")
	setFromEnv(&c.Logging.Format, "PONMO_LOG_FORMAT")
	setFromEnv(&c.Server.Addr, "PONMO_SERVER_ADDR")
	setFromEnv(&c.Scope, "PONMO_SCOPE")
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBolt, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Scope) == "" {
		return fmt.Errorf("scope must not be empty")
	}
	return nil
}

// Tolerance parses the ledger tolerance.
func (c *Config) Tolerance() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(c.Ledger.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid ledger tolerance %q: %w", c.Ledger.Tolerance, err)
	}
	if tol.IsNegative() {
		return decimal.Zero, fmt.Errorf("ledger tolerance %s must not be negative", tol)
	}
	return tol, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{Name: businessName},
		Storage: StorageConfig{
			Backend: BackendBolt,
			Path:    "data/ponmo.db",
		},
		Ledger:  LedgerConfig{Tolerance: "0.01"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server:  ServerConfig{Addr: ":8080"},
		Scope:   "default",
	}
}
