package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Audit policies
const (
	AuditPolicyBestEffort = "best-effort" // audit failures are logged, the operation succeeds
	AuditPolicyStrict     = "strict"      // audit failures fail the operation
)

// Config represents the flat VISITA configuration.
// Values come from .visita/config.json and are overridden by VISITA_* environment variables.
type Config struct {
	Version     string `json:"version"`
	DBPath      string `json:"db_path,omitempty" env:"VISITA_DB_PATH"`
	AuditPolicy string `json:"audit_policy,omitempty" env:"VISITA_AUDIT_POLICY"`
	LogLevel    string `json:"log_level,omitempty" env:"VISITA_LOG_LEVEL"`
	LogFormat   string `json:"log_format,omitempty" env:"VISITA_LOG_FORMAT"` // "text" or "json"
	Diocese     string `json:"diocese,omitempty" env:"VISITA_DIOCESE"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Version:     "1",
		AuditPolicy: AuditPolicyBestEffort,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load resolves configuration for dir: defaults, then .visita/config.json if
// present, then a .env file in dir, then the process environment.
func Load(dir string) (*Config, error) {
	cfg := Default()

	fileCfg, err := LoadConfig(dir)
	switch {
	case err == nil:
		cfg.merge(fileCfg)
	case errors.Is(err, fs.ErrNotExist):
		// no config file
	default:
		return nil, err
	}

	dotenv := filepath.Join(dir, ".env")
	if _, statErr := os.Stat(dotenv); statErr == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads .visita/config.json from the specified directory.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".visita", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	visitaDir := filepath.Join(dir, ".visita")
	if err := os.MkdirAll(visitaDir, 0755); err != nil {
		return fmt.Errorf("failed to create .visita dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(visitaDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks option values.
func (c *Config) Validate() error {
	switch c.AuditPolicy {
	case AuditPolicyBestEffort, AuditPolicyStrict:
	default:
		return fmt.Errorf("invalid audit_policy %q (want %q or %q)", c.AuditPolicy, AuditPolicyBestEffort, AuditPolicyStrict)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want \"text\" or \"json\")", c.LogFormat)
	}
	return nil
}

// IsStrictAudit reports whether audit failures must fail the parent operation.
func (c *Config) IsStrictAudit() bool {
	return c.AuditPolicy == AuditPolicyStrict
}

// DefaultDBPath returns ~/.visita/visita.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".visita", "visita.db"), nil
}

func (c *Config) merge(other *Config) {
	if other.Version != "" {
		c.Version = other.Version
	}
	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
	if other.AuditPolicy != "" {
		c.AuditPolicy = other.AuditPolicy
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Diocese != "" {
		c.Diocese = other.Diocese
	}
}
