package config

import (
	"github.com/vietddude/ara/internal/core/domain"
	redisclient "github.com/vietddude/ara/internal/infra/redis"
	"github.com/vietddude/ara/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Queue    QueueConfig     `yaml:"queue"`
	Research ResearchConfig  `yaml:"research"`
	Logging  LoggingConfig   `yaml:"logging"`
	Database postgres.Config `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// QueueConfig selects and configures the task queue backend.
type QueueConfig struct {
	Backend  string             `yaml:"backend"` // memory, file, redis
	FilePath string             `yaml:"file_path"`
	Redis    redisclient.Config `yaml:"redis"`
}

// ResearchConfig holds settings for the research pipeline.
type ResearchConfig struct {
	AdapterSequence []string           `yaml:"adapter_sequence"`
	ShadowAdapters  []string           `yaml:"shadow_adapters"`
	PortfolioPath   string             `yaml:"portfolio_path"`
	Retry           domain.RetryPolicy `yaml:"retry"`
}
