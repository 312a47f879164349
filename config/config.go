// Package config defines the crewdeck application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level crewdeck configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Throttle ThrottleConfig `json:"throttle" yaml:"throttle"`
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	LogLevel string         `json:"log_level" yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":8790"
}

// AuthConfig controls login and session tokens.
type AuthConfig struct {
	JWTSecret    string `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTLMins int    `json:"token_ttl_minutes" yaml:"token_ttl_minutes"`
	AdminUser    string `json:"admin_user" yaml:"admin_user"`
	AdminPass    string `json:"admin_pass" yaml:"admin_pass"` // bcrypt hash
}

// ThrottleConfig controls the login attempt limiter.
type ThrottleConfig struct {
	MaxAttempts   int `json:"max_attempts" yaml:"max_attempts"`
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8790",
		},
		Auth: AuthConfig{
			AdminUser:    "admin",
			TokenTTLMins: 24 * 60,
		},
		Throttle: ThrottleConfig{
			MaxAttempts:   5,
			WindowSeconds: 300,
		},
		DataDir:  "./data",
		LogLevel: "info",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
