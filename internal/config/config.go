package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Records   RecordsConfig   `yaml:"records"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// RecordsConfig tunes personal-best detection. WeightTolerance is the
// absolute tolerance used to bucket weights for reps-at-weight records.
type RecordsConfig struct {
	WeightTolerance float64 `yaml:"weight_tolerance"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPSTACK_ and underscore-separated
// paths:
//
//	REPSTACK_SERVER_HOST, REPSTACK_SERVER_PORT,
//	REPSTACK_DB_HOST, REPSTACK_DB_PORT, REPSTACK_DB_NAME,
//	REPSTACK_DB_USER, REPSTACK_DB_PASSWORD, REPSTACK_DB_SSLMODE,
//	REPSTACK_DB_MIGRATIONS_PATH, REPSTACK_AUTH_API_KEY,
//	REPSTACK_RECORDS_WEIGHT_TOLERANCE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPSTACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPSTACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPSTACK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPSTACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPSTACK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPSTACK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPSTACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPSTACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPSTACK_DB_MIGRATIONS_PATH"); v != "" {
		cfg.Database.MigrationsPath = v
	}
	if v := os.Getenv("REPSTACK_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPSTACK_RECORDS_WEIGHT_TOLERANCE"); v != "" {
		if tol, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Records.WeightTolerance = tol
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Records.WeightTolerance < 0 {
		return fmt.Errorf("records.weight_tolerance must not be negative")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
