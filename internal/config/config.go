// Package config loads runtime configuration from defaults, an optional
// config file, and RTA_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Worker  WorkerConfig  `mapstructure:"worker"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// SandboxConfig locates the permitted storage root.
type SandboxConfig struct {
	Root string `mapstructure:"root"`
}

// WorkerConfig selects and configures the external worker.
type WorkerConfig struct {
	// Kind is "http" or "command".
	Kind string `mapstructure:"kind"`

	// Endpoint is the worker URL when kind is "http".
	Endpoint string `mapstructure:"endpoint"`

	// Command and Args spawn a subprocess per item when kind is "command".
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`

	// Timeout bounds one invocation when the task manifest does not set
	// its own worker timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Sandbox.Root) == "" {
		return fmt.Errorf("sandbox.root is required")
	}
	switch c.Worker.Kind {
	case "http":
		if strings.TrimSpace(c.Worker.Endpoint) == "" {
			return fmt.Errorf("worker.endpoint is required when worker.kind is http")
		}
	case "command":
		if strings.TrimSpace(c.Worker.Command) == "" {
			return fmt.Errorf("worker.command is required when worker.kind is command")
		}
	default:
		return fmt.Errorf("unsupported worker.kind: %q", c.Worker.Kind)
	}
	return nil
}
