// Package auth composes the credential hasher, field cipher, session token
// codec, and user store into the signup, login, verify, and logout flows.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/skillsenselab/authgate/internal/apperrors"
	"github.com/skillsenselab/authgate/internal/fieldcrypt"
	"github.com/skillsenselab/authgate/internal/logger"
	"github.com/skillsenselab/authgate/internal/password"
	"github.com/skillsenselab/authgate/internal/session"
	"github.com/skillsenselab/authgate/internal/store"
	"github.com/skillsenselab/authgate/internal/validation"
)

const (
	authIDLength  = 10
	authIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// SignupInput is the validated signup request.
type SignupInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	NationalID string `json:"national_id" validate:"required,digits12"`
	Password   string `json:"password" validate:"required,min=8"`
}

// Profile is the non-sensitive view of a user returned to the caller.
// NationalID carries the decrypted value, never the stored ciphertext.
type Profile struct {
	AuthID     string `json:"auth_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
}

// Service orchestrates the auth flows. It holds no per-request state; the
// store is the only shared mutable resource.
type Service struct {
	store  store.Store
	hasher password.Hasher
	cipher *fieldcrypt.Cipher
	codec  *session.Codec
	log    *logger.Logger
}

// NewService creates the auth service from its collaborators.
func NewService(st store.Store, hasher password.Hasher, cipher *fieldcrypt.Cipher, codec *session.Codec, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		hasher: hasher,
		cipher: cipher,
		codec:  codec,
		log:    log.WithComponent("auth"),
	}
}

// Signup registers a new user and returns the generated auth id.
//
// The duplicate-email check is a linear scan over all records and is not
// serialized against concurrent signups: two simultaneous signups with the
// same email can both pass the check. Accepted at this scale.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	if err := validation.Validate(in); err != nil {
		return "", err
	}

	taken, err := s.emailExists(ctx, in.Email)
	if err != nil {
		return "", apperrors.Store(err)
	}
	if taken {
		return "", apperrors.EmailTaken()
	}

	authID, err := s.generateAuthID(ctx)
	if err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return "", apperrors.Validation(err.Error())
		}
		return "", apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	encryptedID, err := s.cipher.Encrypt(in.NationalID)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("encrypt national id: %w", err))
	}

	rec := &store.Record{
		Name:         in.Name,
		Email:        in.Email,
		NationalID:   encryptedID,
		PasswordHash: hash,
	}
	if err := s.store.SetByKey(ctx, authID, rec); err != nil {
		return "", apperrors.Store(err)
	}

	s.log.Info("User created", map[string]interface{}{
		logger.FieldUserID: authID,
	})
	return authID, nil
}

// Login checks credentials and, on success, returns the profile and a fresh
// session token. An unknown email and a wrong password produce the same
// error so callers cannot probe which emails are registered.
func (s *Service) Login(ctx context.Context, email, pass string) (*Profile, string, error) {
	if appErr := validation.New().
		Required("email", email).
		Required("password", pass).
		Validate(); appErr != nil {
		return nil, "", appErr
	}

	authID, rec, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Store(err)
	}
	if rec == nil {
		return nil, "", apperrors.InvalidCredentials()
	}

	if err := s.hasher.Verify(pass, rec.PasswordHash); err != nil {
		s.log.Warn("Login failed", map[string]interface{}{
			logger.FieldUserID: authID,
		})
		return nil, "", apperrors.InvalidCredentials()
	}

	profile, err := s.profileFor(authID, rec)
	if err != nil {
		return nil, "", err
	}

	token, err := s.codec.Issue(authID)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	s.log.Info("Login successful", map[string]interface{}{
		logger.FieldUserID: authID,
	})
	return profile, token, nil
}

// Verify validates a presented session token and returns the profile of the
// account it names. The codec rejection is reported uniformly regardless of
// reason (tampered, expired, malformed); a valid token naming a vanished
// account is reported as not found.
func (s *Service) Verify(ctx context.Context, token string) (*Profile, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	rec, err := s.store.GetByKey(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if rec == nil {
		return nil, apperrors.NotFound("user")
	}

	return s.profileFor(claims.UserID, rec)
}

// profileFor builds the caller-facing profile, decrypting the sensitive
// field. A decryption failure on a persisted record means corruption or
// tampering: it is logged distinctly and surfaced as an internal error,
// never folded into "not found" or "invalid".
func (s *Service) profileFor(authID string, rec *store.Record) (*Profile, error) {
	nationalID, err := s.cipher.Decrypt(rec.NationalID)
	if err != nil {
		if errors.Is(err, fieldcrypt.ErrDecryption) {
			s.log.Error("Stored field failed to decrypt", map[string]interface{}{
				logger.FieldUserID: authID,
				logger.FieldError:  err.Error(),
			})
		}
		return nil, apperrors.Internal(err)
	}

	return &Profile{
		AuthID:     authID,
		Name:       rec.Name,
		Email:      rec.Email,
		NationalID: nationalID,
	}, nil
}

// emailExists reports whether any record holds the email (exact match).
func (s *Service) emailExists(ctx context.Context, email string) (bool, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range all {
		if rec.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// findByEmail scans all records for an exact email match.
func (s *Service) findByEmail(ctx context.Context, email string) (string, *store.Record, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return "", nil, err
	}
	for authID, rec := range all {
		if rec.Email == email {
			return authID, rec, nil
		}
	}
	return "", nil, nil
}

// generateAuthID produces a random 10-character alphanumeric id, retrying
// until it does not collide with an existing record.
func (s *Service) generateAuthID(ctx context.Context) (string, error) {
	for {
		id, err := randomAuthID()
		if err != nil {
			return "", apperrors.Internal(err)
		}
		existing, err := s.store.GetByKey(ctx, id)
		if err != nil {
			return "", apperrors.Store(err)
		}
		if existing == nil {
			return id, nil
		}
	}
}

func randomAuthID() (string, error) {
	buf := make([]byte, authIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth id: %w", err)
	}
	for i, b := range buf {
		buf[i] = authIDCharset[int(b)%len(authIDCharset)]
	}
	return string(buf), nil
}
