// Package config loads service configuration from configs/config.yaml, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Lender criteria sources.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Lenders    LendersConfig    `mapstructure:"lenders"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	// URL is a lib/pq connection string. Empty disables Postgres.
	URL string `mapstructure:"url"`
}

type LendersConfig struct {
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
}

type AssessmentConfig struct {
	ReferenceRate float64 `mapstructure:"reference_rate"`
	DefaultBuffer float64 `mapstructure:"default_buffer"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the default locations.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFromFile reads configuration from path, still honouring environment
// overrides.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	// PORT is what most platforms inject.
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind server port: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Lenders.Source = strings.ToLower(strings.TrimSpace(cfg.Lenders.Source))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyDefaults registers every key so that AutomaticEnv can override keys
// absent from the config file.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("lenders.source", SourceEmbedded)
	v.SetDefault("lenders.file", "")
	v.SetDefault("assessment.reference_rate", 6.0)
	v.SetDefault("assessment.default_buffer", 2.5)
	v.SetDefault("log.level", "INFO")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}

	switch c.Lenders.Source {
	case SourceEmbedded:
	case SourceFile:
		if c.Lenders.File == "" {
			return errors.New("lenders.file is required when lenders.source is file")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required when lenders.source is postgres")
		}
	default:
		return fmt.Errorf("lenders.source must be one of embedded, file, postgres, got %q", c.Lenders.Source)
	}

	if c.Assessment.ReferenceRate <= 0 {
		return fmt.Errorf("assessment.reference_rate must be positive, got %v", c.Assessment.ReferenceRate)
	}
	if c.Assessment.DefaultBuffer < 0 {
		return fmt.Errorf("assessment.default_buffer cannot be negative, got %v", c.Assessment.DefaultBuffer)
	}
	return nil
}
