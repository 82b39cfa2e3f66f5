// Package config assembles the service configuration from an optional YAML
// file, an optional .env file, and the process environment. Secrets are
// environment-only and never read from the YAML file.
package config

import (
	"fmt"

	"github.com/skillsenselab/authgate/internal/logger"
	"github.com/skillsenselab/authgate/internal/password"
	"github.com/skillsenselab/authgate/internal/server"
	"github.com/skillsenselab/authgate/internal/session"
	"github.com/skillsenselab/authgate/internal/store"
)

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`

	Logging  logger.Config   `yaml:"logging" mapstructure:"logging"`
	Server   server.Config   `yaml:"server" mapstructure:"server"`
	Store    store.Config    `yaml:"store" mapstructure:"store"`
	Password password.Config `yaml:"password" mapstructure:"password"`
	Session  session.Config  `yaml:"session" mapstructure:"session"`

	// EncryptionKey is the master secret the field-encryption key is derived
	// from. Environment-only (ENCRYPTION_KEY); the process must not start
	// without it.
	EncryptionKey string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults applies default values to all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "authgate"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Session.ApplyDefaults()
}

// Validate checks the configuration. Missing secrets are startup failures,
// not runtime ones.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}

	if c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY not found in environment")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY not found in environment")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config.store: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("config.password: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("config.session: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
