package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SES      SESConfig      `yaml:"ses"`
	Tracking TrackingConfig `yaml:"tracking"`
	Sending  SendingConfig  `yaml:"sending"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL settings. When URL is empty the server
// falls back to the in-memory repositories (dev mode).
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig holds the Redis connection used by the dispatch rate limiter.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// SESConfig holds AWS SES credentials for the mail transport.
type SESConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// TrackingConfig holds the tracking endpoint and callback queue settings.
type TrackingConfig struct {
	BaseURL  string `yaml:"base_url"`
	QueueURL string `yaml:"queue_url"`
}

// SendingConfig tunes the campaign dispatch worker pool.
type SendingConfig struct {
	Workers       int `yaml:"workers"`
	RatePerSecond int `yaml:"rate_per_second"`
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides. A missing file is not an error: everything can be
// configured from the environment alone.
func Load(path string) (*Config, error) {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{MaxOpenConns: 25},
		SES:      SESConfig{Region: "us-east-1"},
		Sending: SendingConfig{
			Workers:       10,
			RatePerSecond: 50,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
		cfg.SES.Enabled = true
	}
	if v := os.Getenv("SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("TRACKING_BASE_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("SQS_TRACKING_QUEUE_URL"); v != "" {
		cfg.Tracking.QueueURL = v
	}
	if v := os.Getenv("SEND_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sending.Workers = n
		}
	}
	if v := os.Getenv("SEND_RATE_PER_SECOND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sending.RatePerSecond = n
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Sending.Workers <= 0 {
		return fmt.Errorf("sending workers must be positive, got %d", c.Sending.Workers)
	}
	if c.SES.Enabled && c.SES.SecretKey == "" {
		return fmt.Errorf("ses enabled but secret key missing")
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
