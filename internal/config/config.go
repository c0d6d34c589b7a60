// Package config is the single source of truth for runtime configuration
// and filesystem paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Values load from an
// optional YAML file next to the executable, with CANON_* environment
// variables taking precedence.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/canonize.log"`
}

// PipelineConfig controls engine behavior.
type PipelineConfig struct {
	// ChunkSize is the bounded row window for large files.
	ChunkSize int `yaml:"chunk_size" envconfig:"CHUNK_SIZE" default:"25000"`
	// OutputBOM prefixes CSV outputs with a UTF-8 BOM for Excel.
	OutputBOM bool `yaml:"output_bom" envconfig:"OUTPUT_BOM" default:"true"`
}

// TelemetryConfig controls OpenTelemetry initialization.
type TelemetryConfig struct {
	EnableTracing bool `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	EnableMetrics bool `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
}

// Load reads the YAML config file if present, then applies environment
// overrides and defaults.
func Load() (*Config, error) {
	var cfg Config

	configFile := getConfigFilePath()
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("CANON", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output %q", c.Logging.Output)
	}
	if c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("pipeline chunk size must be positive, got %d", c.Pipeline.ChunkSize)
	}
	return nil
}

func getConfigFilePath() string {
	if path := os.Getenv("CANON_CONFIG_FILE"); path != "" {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml")
}
