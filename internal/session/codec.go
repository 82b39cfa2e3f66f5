// Package session issues and verifies signed, expiring session tokens.
//
// Tokens are stateless: validity is determined entirely by the HMAC
// signature and the expiry claim, never by a server-side lookup. There is
// no revocation before expiry — logout is client-side discard.
package session

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the session claim set. UserID identifies the account the
// session belongs to; it duplicates the registered Subject claim for
// clients that read the raw payload.
type Claims struct {
	UserID string `json:"user_id"`
	gojwt.RegisteredClaims
}

// Codec signs and verifies session tokens.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec creates a session token codec from configuration.
func NewCodec(cfg Config) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// Issue creates a signed token for the given subject, expiring TTL from now.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID: subject,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(c.cfg.TTL)),
		},
	}

	token := gojwt.NewWithClaims(c.cfg.signingMethod(), claims)
	signed, err := token.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token string and returns its claims. The signature is
// checked before expiry; a tampered, foreign-key, malformed, or expired
// token all yield an error — callers treat every rejection uniformly.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, c.keyFunc, c.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("session: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("session: invalid token")
	}
	return claims, nil
}

// keyFunc is the jwt.Keyfunc used during token parsing. It rejects any
// token whose algorithm does not match the configured method, so an
// attacker cannot downgrade the signature scheme.
func (c *Codec) keyFunc(token *gojwt.Token) (interface{}, error) {
	expected := c.cfg.signingMethod()
	if token.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("session: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(c.cfg.Secret), nil
}

// parserOptions returns jwt.ParserOption based on config.
func (c *Codec) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{c.cfg.signingMethod().Alg()}),
		gojwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(c.cfg.Issuer))
	}
	return opts
}
