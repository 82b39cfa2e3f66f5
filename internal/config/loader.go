package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skillsenselab/authgate/internal/session"
)

// LoaderOptions controls where configuration is read from.
type LoaderOptions struct {
	// ConfigFile is an explicit YAML config path. When empty, standard
	// locations are searched and a missing file is not an error.
	ConfigFile string
	// EnvFile is an explicit .env path. When empty, "./.env" is loaded if
	// it exists.
	EnvFile string
}

// Load builds the Config: .env first (so the process environment includes
// it), then the YAML file, then secrets from the environment. Defaults are
// applied but validation is left to the caller so it can decide how to fail.
func Load(opts LoaderOptions) (*Config, error) {
	loadEnvFile(opts.EnvFile)

	cfg := &Config{}

	v := viper.New()
	v.SetConfigType("yaml")

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", configFile, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyEnvOverrides reads secrets and operational overrides from the
// process environment. Environment always wins over the YAML file.
func applyEnvOverrides(cfg *Config) {
	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		cfg.Session.Method = session.SigningMethod(strings.ToUpper(v))
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
}

func loadEnvFile(explicit string) {
	if explicit != "" {
		_ = godotenv.Load(explicit)
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile() string {
	searchPaths := []string{
		"./cmd/authgate/config.yml",
		"./config/config.yml",
		"./config.yml",
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
