// Package config loads the configuration of the ajax CLI.
//
// Values are read from a YAML file, then from AJAX_* environment variables,
// for example AJAX_BASE_URL or AJAX_RETRY_COUNT.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/keboola/go-ajax/pkg/ajax"
)

const EnvPrefix = "AJAX"

type Config struct {
	BaseURL string            `mapstructure:"base_url"`
	Policy  string            `mapstructure:"policy"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Retry   RetryConfig       `mapstructure:"retry"`
	Logging LoggingConfig     `mapstructure:"logging"`
}

type RetryConfig struct {
	Count         int           `mapstructure:"count"`
	WaitTimeStart time.Duration `mapstructure:"wait_time_start"`
	WaitTimeMax   time.Duration `mapstructure:"wait_time_max"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// ParsedPolicy returns the concurrency policy, the value is checked by Load.
func (c *Config) ParsedPolicy() ajax.Policy {
	policy, _ := ajax.ParsePolicy(c.Policy)
	return policy
}

// Load loads the configuration from the file and the environment.
// If configPath is empty, the "ajax.yaml" file is searched in the working and home directory,
// a missing file is not an error then.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ajax")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ajax"))
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "")
	v.SetDefault("policy", ajax.PolicyLast.String())
	v.SetDefault("headers", map[string]string{})
	v.SetDefault("timeout", 30*time.Second)

	// Retries are disabled by default
	v.SetDefault("retry.count", 0)
	v.SetDefault("retry.wait_time_start", 100*time.Millisecond)
	v.SetDefault("retry.wait_time_max", 3*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.BaseURL != "" && !ajax.IsAbsoluteURL(cfg.BaseURL) {
		return fmt.Errorf(`base_url "%s" must be an absolute URL`, cfg.BaseURL)
	}

	if _, err := ajax.ParsePolicy(cfg.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, found %s", cfg.Timeout)
	}

	if cfg.Retry.Count < 0 {
		return fmt.Errorf("retry.count cannot be negative, found %d", cfg.Retry.Count)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
