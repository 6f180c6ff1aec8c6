// ABOUTME: YAML configuration loading for acs-agent-demo
// ABOUTME: Env var expansion, duration parsing, and required-field validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete acs-agent-demo configuration.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Transport  TransportConfig  `yaml:"transport"`
	Retry      RetryConfig      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig identifies the agent to the control plane.
type ConnectionConfig struct {
	ResourceID string `yaml:"resource_id"`
	ChannelID  string `yaml:"channel_id"`
}

// TransportConfig configures the gRPC dial.
type TransportConfig struct {
	Target   string `yaml:"target"`
	Insecure bool   `yaml:"insecure"`

	KeepaliveTime        time.Duration `yaml:"-"`
	KeepaliveTimeout     time.Duration `yaml:"-"`
	KeepaliveTimeRaw     string        `yaml:"keepalive_time"`
	KeepaliveTimeoutRaw  string        `yaml:"keepalive_timeout"`
}

// RetryConfig configures SendMessage's retry-on-timeout behavior.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`

	AckTimeout          time.Duration `yaml:"-"`
	RegistrationTimeout time.Duration `yaml:"-"`
	AckTimeoutRaw       string        `yaml:"ack_timeout"`
	RegistrationTimeoutRaw string     `yaml:"registration_timeout"`
}

// LoggingConfig controls the injected *slog.Logger's verbosity.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path, expands ${VAR_NAME} environment references, parses
// duration fields, and validates required settings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the corresponding environment
// variable's value (empty string if unset).
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Validate checks required fields, returning the first failure found.
func (c *Config) Validate() error {
	if c.Transport.Target == "" {
		return fmt.Errorf("transport.target is required")
	}
	if c.Connection.ResourceID == "" {
		return fmt.Errorf("connection.resource_id is required")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	return nil
}

func parseDurations(cfg *Config) error {
	var err error

	if cfg.Transport.KeepaliveTimeRaw != "" {
		cfg.Transport.KeepaliveTime, err = time.ParseDuration(cfg.Transport.KeepaliveTimeRaw)
		if err != nil {
			return fmt.Errorf("parsing keepalive_time %q: %w", cfg.Transport.KeepaliveTimeRaw, err)
		}
	}
	if cfg.Transport.KeepaliveTimeoutRaw != "" {
		cfg.Transport.KeepaliveTimeout, err = time.ParseDuration(cfg.Transport.KeepaliveTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing keepalive_timeout %q: %w", cfg.Transport.KeepaliveTimeoutRaw, err)
		}
	}
	if cfg.Retry.AckTimeoutRaw != "" {
		cfg.Retry.AckTimeout, err = time.ParseDuration(cfg.Retry.AckTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing ack_timeout %q: %w", cfg.Retry.AckTimeoutRaw, err)
		}
	}
	if cfg.Retry.RegistrationTimeoutRaw != "" {
		cfg.Retry.RegistrationTimeout, err = time.ParseDuration(cfg.Retry.RegistrationTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing registration_timeout %q: %w", cfg.Retry.RegistrationTimeoutRaw, err)
		}
	}

	return nil
}
