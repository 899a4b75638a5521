// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Provider names accepted for the model engine backend.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
)

// Config is the full server configuration.
type Config struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	LogLevel string        `yaml:"log_level"`
	RunTTL   time.Duration `yaml:"run_ttl"`
	Model    Model         `yaml:"model"`
}

// Model configures the engine backend.
type Model struct {
	Provider    string  `yaml:"provider"`
	ID          string  `yaml:"id"`
	Region      string  `yaml:"region"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:     "0.0.0.0",
		Port:     8000,
		LogLevel: "info",
		RunTTL:   time.Hour,
		Model: Model{
			Provider:    ProviderBedrock,
			ID:          "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RUN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RUN_TTL %q: %w", v, err)
		}
		c.RunTTL = ttl
	}
	if v := os.Getenv("ENGINE_PROVIDER"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("MODEL_ID"); v != "" {
		c.Model.ID = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Model.Region = v
	}
	if v := os.Getenv("TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TEMPERATURE %q: %w", v, err)
		}
		c.Model.Temperature = temp
	}
	if v := os.Getenv("MAX_TOKENS"); v != "" {
		maxTokens, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_TOKENS %q: %w", v, err)
		}
		c.Model.MaxTokens = maxTokens
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Model.ID == "" {
		return fmt.Errorf("model id is required")
	}
	switch c.Model.Provider {
	case ProviderBedrock, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown engine provider %q", c.Model.Provider)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0, 1]", c.Model.Temperature)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
