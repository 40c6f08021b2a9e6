// Package config provides unified configuration loading for the review
// engine. Supports YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the review engine binaries.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Status        StatusConfig        `yaml:"status"`
	Queue         QueueConfig         `yaml:"queue"`
	Model         ModelConfig         `yaml:"model"`
	Rasterizer    RasterizerConfig    `yaml:"rasterizer"`
	Worker        WorkerConfig        `yaml:"worker"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	// MaxUploadBytes bounds the decoded request body on the upload route.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Driver string   `yaml:"driver"` // fs or s3
	Bucket string   `yaml:"bucket"`
	FS     FSConfig `yaml:"fs"`
	S3     S3Config `yaml:"s3"`
}

// FSConfig holds filesystem storage settings.
type FSConfig struct {
	Root string `yaml:"root"`
}

// S3Config holds S3 storage settings.
type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// StatusConfig holds status store settings.
type StatusConfig struct {
	Driver string       `yaml:"driver"` // memory, redis, or sqlite
	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QueueConfig holds review-job queue settings.
type QueueConfig struct {
	Driver string      `yaml:"driver"` // memory, redis, or sqs
	Key    string      `yaml:"key"`
	SQSURL string      `yaml:"sqs_url"`
	Redis  RedisConfig `yaml:"redis"`
}

// ModelConfig holds generative model endpoint settings.
type ModelConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RasterizerConfig holds rendering service settings.
type RasterizerConfig struct {
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Format       string        `yaml:"format"`
	Width        int           `yaml:"width"`
	Height       int           `yaml:"height"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WorkerConfig holds review worker settings.
type WorkerConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   64 << 20,
		},
		Storage: StorageConfig{
			Driver: "fs",
			Bucket: "slide-review",
			FS:     FSConfig{Root: "./data/objects"},
			S3:     S3Config{Region: "us-east-1"},
		},
		Status: StatusConfig{
			Driver: "sqlite",
			Redis:  RedisConfig{Addr: "localhost:6379", PoolSize: 10},
			SQLite: SQLiteConfig{Path: "./data/review_status.db"},
		},
		Queue: QueueConfig{
			Driver: "redis",
			Key:    "review:jobs",
			Redis:  RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		},
		Model: ModelConfig{
			MaxTokens:   2000,
			Temperature: 0.1,
			Timeout:     120 * time.Second,
		},
		Rasterizer: RasterizerConfig{
			BaseURL:  "https://api.aspose.cloud/v3.0",
			TokenURL: "https://api.aspose.cloud/connect/token",
			Format:   "jpg",
			Width:    1920,
			Height:   1080,
			Timeout:  60 * time.Second,
		},
		Worker: WorkerConfig{
			MaxConcurrency: 5,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load reads configuration from the given YAML file (optional) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides secrets and deployment-specific settings from the
// environment.
func (c *Config) applyEnv() {
	setString(&c.Storage.Bucket, "REVIEW_BUCKET")
	setString(&c.Storage.Driver, "REVIEW_STORAGE_DRIVER")
	setString(&c.Storage.FS.Root, "REVIEW_STORAGE_ROOT")
	setString(&c.Storage.S3.Region, "AWS_REGION")

	setString(&c.Status.Driver, "REVIEW_STATUS_DRIVER")
	setString(&c.Status.Redis.Addr, "REVIEW_REDIS_ADDR")
	setString(&c.Status.Redis.Password, "REVIEW_REDIS_PASSWORD")
	setString(&c.Status.SQLite.Path, "REVIEW_SQLITE_PATH")

	setString(&c.Queue.Driver, "REVIEW_QUEUE_DRIVER")
	setString(&c.Queue.Key, "REVIEW_QUEUE_KEY")
	setString(&c.Queue.SQSURL, "REVIEW_QUEUE_SQS_URL")
	setString(&c.Queue.Redis.Addr, "REVIEW_REDIS_ADDR")
	setString(&c.Queue.Redis.Password, "REVIEW_REDIS_PASSWORD")

	setString(&c.Model.APIKey, "REVIEW_MODEL_API_KEY")
	setString(&c.Model.BaseURL, "REVIEW_MODEL_BASE_URL")
	setString(&c.Model.Model, "REVIEW_MODEL_ID")

	setString(&c.Rasterizer.ClientID, "RASTERIZER_CLIENT_ID")
	setString(&c.Rasterizer.ClientSecret, "RASTERIZER_CLIENT_SECRET")

	setString(&c.Observability.LogLevel, "REVIEW_LOG_LEVEL")
	setString(&c.Observability.LogFormat, "REVIEW_LOG_FORMAT")

	setInt(&c.Server.Port, "REVIEW_PORT")
	setInt(&c.Worker.MaxConcurrency, "REVIEW_WORKER_CONCURRENCY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
