package session

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported token signing algorithms. Only symmetric
// HMAC methods are supported; the verify key is the sign key.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Config configures the session token codec.
type Config struct {
	// Secret is the HMAC signing key (required).
	Secret string `mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method"`

	// TTL is the token lifetime from issuance (default: 24h).
	TTL time.Duration `mapstructure:"ttl"`

	// Issuer is the "iss" claim (optional).
	Issuer string `mapstructure:"issuer"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("session: signing secret is required")
	}
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return errors.New("session: unsupported signing method: " + string(c.Method))
	}
	return nil
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}
