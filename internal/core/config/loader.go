package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/ara/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied and no file input.
func Default() *AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Queue.Backend == "" {
		cfg.Queue.Backend = "memory"
	}
	if cfg.Queue.FilePath == "" {
		cfg.Queue.FilePath = "./data/tasks.json"
	}
	if len(cfg.Research.AdapterSequence) == 0 {
		cfg.Research.AdapterSequence = []string{"grok", "perplexity", "deepseek"}
	}
	if cfg.Research.ShadowAdapters == nil {
		cfg.Research.ShadowAdapters = []string{"gemini", "claude"}
	}

	def := domain.DefaultRetryPolicy()
	if cfg.Research.Retry.MaxAttempts == 0 && cfg.Research.Retry.BaseDelayMs == 0 &&
		cfg.Research.Retry.RetryableErrorKinds == nil {
		// Whole retry section omitted; jitter defaults on.
		cfg.Research.Retry.Jitter = def.Jitter
	}
	if cfg.Research.Retry.MaxAttempts == 0 {
		cfg.Research.Retry.MaxAttempts = def.MaxAttempts
	}
	if cfg.Research.Retry.BaseDelayMs == 0 {
		cfg.Research.Retry.BaseDelayMs = def.BaseDelayMs
	}
	if cfg.Research.Retry.BackoffMultiplier == 0 {
		cfg.Research.Retry.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.Research.Retry.MaxDelayMs == 0 {
		cfg.Research.Retry.MaxDelayMs = def.MaxDelayMs
	}
	if cfg.Research.Retry.RetryableErrorKinds == nil {
		cfg.Research.Retry.RetryableErrorKinds = def.RetryableErrorKinds
	}
}
