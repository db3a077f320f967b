// Package config loads the seriesctl configuration from a YAML file,
// with environment-variable expansion and PLANTSERIES_* overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the CLI.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig selects the API deployment to talk to. Environment picks a
// built-in deployment (dev, test, prod); base_url and resource override
// it for custom gateways.
type APIConfig struct {
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	BaseURL     string `mapstructure:"base_url"`
	Resource    string `mapstructure:"resource"`
}

// AuthConfig carries the tenant's client-credentials registration.
// Secrets are normally injected through environment variables.
type AuthConfig struct {
	TokenURL     string `mapstructure:"token_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// ClientConfig tunes the HTTP client behavior.
type ClientConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	CacheSize      int     `mapstructure:"cache_size"`
	MaxAttempts    int     `mapstructure:"max_attempts"`
	BackoffBaseMS  int     `mapstructure:"backoff_base_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// $VAR references inside the file are expanded, and any key can be
// overridden with PLANTSERIES_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PLANTSERIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeConfigMap(raw); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "test")
	v.SetDefault("api.version", "1.7")
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.resource", "")

	v.SetDefault("auth.token_url", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")

	v.SetDefault("client.timeout_seconds", 30)
	v.SetDefault("client.rate_limit", 5.0)
	v.SetDefault("client.rate_limit_burst", 10)
	v.SetDefault("client.cache_size", 0)
	v.SetDefault("client.max_attempts", 3)
	v.SetDefault("client.backoff_base_ms", 500)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
