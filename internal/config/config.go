package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Panel     PanelConfig     `yaml:"panel"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// ReportRequiresAuth denies the report view to the anonymous tenant.
	ReportRequiresAuth bool `yaml:"report_requires_auth"`
}

// PanelConfig controls consultation pacing and content generation.
type PanelConfig struct {
	SystemTypingDelay      time.Duration `yaml:"system_typing_delay"`
	ParticipantTypingDelay time.Duration `yaml:"participant_typing_delay"`
	SystemEmitDelay        time.Duration `yaml:"system_emit_delay"`
	ThinkingMin            time.Duration `yaml:"thinking_min"`
	ThinkingMax            time.Duration `yaml:"thinking_max"`
	ExcerptLength          int           `yaml:"excerpt_length"`
	// Seed pins the content generator; 0 picks a random seed per run.
	Seed        uint64 `yaml:"seed"`
	ArchiveRuns bool   `yaml:"archive_runs"`
}

type CatalogConfig struct {
	// Path optionally replaces the embedded participant catalog.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "tumorboard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Panel: PanelConfig{
			SystemTypingDelay:      500 * time.Millisecond,
			ParticipantTypingDelay: 700 * time.Millisecond,
			SystemEmitDelay:        1500 * time.Millisecond,
			ThinkingMin:            1200 * time.Millisecond,
			ThinkingMax:            3000 * time.Millisecond,
			ExcerptLength:          100,
			ArchiveRuns:            true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TUMORBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TUMORBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TUMORBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TUMORBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("TUMORBOARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TUMORBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("TUMORBOARD_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if v := os.Getenv("TUMORBOARD_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TUMORBOARD_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("TUMORBOARD_REPORT_REQUIRES_AUTH"); v != "" {
		required, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TUMORBOARD_REPORT_REQUIRES_AUTH: %w", err)
		}
		cfg.Auth.ReportRequiresAuth = required
	}
	if v := os.Getenv("TUMORBOARD_PANEL_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TUMORBOARD_PANEL_SEED: %w", err)
		}
		cfg.Panel.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Transport.Mode != "stdio" && c.Transport.Mode != "http" {
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Panel.ThinkingMax < c.Panel.ThinkingMin {
		return fmt.Errorf("panel.thinking_max (%s) is below panel.thinking_min (%s)", c.Panel.ThinkingMax, c.Panel.ThinkingMin)
	}
	if c.Panel.SystemTypingDelay < 0 || c.Panel.ParticipantTypingDelay < 0 || c.Panel.SystemEmitDelay < 0 || c.Panel.ThinkingMin < 0 {
		return fmt.Errorf("panel delays must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
