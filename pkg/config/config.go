package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	LogLevel string         `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	PageSize   int           `yaml:"page_size"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // mysql://, mariadb:// or postgres://
}

type CacheConfig struct {
	Dir    string        `yaml:"dir"`
	TTL    time.Duration `yaml:"ttl"`     // how long Badger keeps a snapshot at all
	MaxAge time.Duration `yaml:"max_age"` // older snapshots are used with a staleness warning
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load builds the configuration from defaults, then the YAML file at path (if present), then the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:    "https://api.registrations.example.com/v1",
			PageSize:   100,
			MaxRetries: 4,
			Timeout:    30 * time.Second,
		},
		Cache: CacheConfig{
			Dir: ".cache/registrations",
			TTL:    7 * 24 * time.Hour,
			MaxAge: 6 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "warranty-analytics",
		},
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if v := os.Getenv("WARRANTY_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("WARRANTY_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("WARRANTY_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("WARRANTY_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.API.PageSize <= 0 {
		return nil, fmt.Errorf("api.page_size must be positive")
	}
	if cfg.API.MaxRetries < 0 {
		return nil, fmt.Errorf("api.max_retries must not be negative")
	}
	if cfg.Cache.TTL > 0 && cfg.Cache.MaxAge >= cfg.Cache.TTL {
		return nil, fmt.Errorf("cache.max_age must be shorter than cache.ttl")
	}
	return cfg, nil
}
