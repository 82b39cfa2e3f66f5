package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/authgate/internal/apperrors"
	"github.com/skillsenselab/authgate/internal/fieldcrypt"
	"github.com/skillsenselab/authgate/internal/logger"
	"github.com/skillsenselab/authgate/internal/password"
	"github.com/skillsenselab/authgate/internal/session"
	"github.com/skillsenselab/authgate/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()

	cipher, err := fieldcrypt.New("test-master-secret")
	if err != nil {
		t.Fatalf("fieldcrypt.New failed: %v", err)
	}
	codec, err := session.NewCodec(session.Config{Secret: "test-signing-secret"})
	if err != nil {
		t.Fatalf("session.NewCodec failed: %v", err)
	}
	// Low-cost argon2 parameters keep the suite fast.
	hasher := password.NewArgon2Hasher(password.WithArgon2Memory(8 * 1024))
	st := store.NewMemoryStore()

	return NewService(st, hasher, cipher, codec, logger.NewDefault("test")), st
}

func validSignup() SignupInput {
	return SignupInput{
		Name:       "Asha Rao",
		Email:      "asha@example.com",
		NationalID: "123456789012",
		Password:   "a-strong-password",
	}
}

func TestSignup_Success(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	authID, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if len(authID) != authIDLength {
		t.Errorf("expected %d-character auth id, got %q", authIDLength, authID)
	}

	rec, err := st.GetByKey(ctx, authID)
	if err != nil || rec == nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.PasswordHash == "a-strong-password" {
		t.Error("password stored in plaintext")
	}
	if rec.NationalID == "123456789012" {
		t.Error("national id stored in plaintext")
	}
}

func TestSignup_InvalidNationalID(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name       string
		nationalID string
	}{
		{"too short", "12345"},
		{"letter in digits", "12345678901a"},
		{"too long", "1234567890123"},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validSignup()
			in.NationalID = tc.nationalID

			_, err := svc.Signup(context.Background(), in)
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.HTTPStatus != 400 {
				t.Errorf("expected 400, got %d", appErr.HTTPStatus)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	in := validSignup()
	in.Name = "Someone Else"
	_, err := svc.Signup(ctx, in)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrCodeEmailTaken {
		t.Errorf("expected %s, got %s", apperrors.ErrCodeEmailTaken, appErr.Code)
	}
	if appErr.HTTPStatus != 400 {
		t.Errorf("expected 400, got %d", appErr.HTTPStatus)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	authID, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	profile, token, err := svc.Login(ctx, "asha@example.com", "a-strong-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if profile.AuthID != authID {
		t.Errorf("expected auth id %q, got %q", authID, profile.AuthID)
	}
	if profile.NationalID != "123456789012" {
		t.Errorf("expected decrypted national id, got %q", profile.NationalID)
	}
	if token == "" {
		t.Error("expected a session token")
	}
}

func TestLogin_UniformFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	_, _, wrongPassErr := svc.Login(ctx, "asha@example.com", "wrong-password")
	_, _, noUserErr := svc.Login(ctx, "nobody@example.com", "a-strong-password")

	wrongPass, ok1 := apperrors.AsAppError(wrongPassErr)
	noUser, ok2 := apperrors.AsAppError(noUserErr)
	if !ok1 || !ok2 {
		t.Fatalf("expected AppErrors, got %v / %v", wrongPassErr, noUserErr)
	}
	if wrongPass.Message != noUser.Message || wrongPass.Code != noUser.Code {
		t.Error("wrong-password and unknown-email failures must be indistinguishable")
	}
	if wrongPass.HTTPStatus != 401 {
		t.Errorf("expected 401, got %d", wrongPass.HTTPStatus)
	}
}

func TestVerify_Success(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	authID, _ := svc.Signup(ctx, validSignup())
	_, token, err := svc.Login(ctx, "asha@example.com", "a-strong-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	profile, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if profile.AuthID != authID {
		t.Errorf("expected auth id %q, got %q", authID, profile.AuthID)
	}
	if profile.NationalID != "123456789012" {
		t.Errorf("expected decrypted national id, got %q", profile.NationalID)
	}
}

func TestVerify_InvalidToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Verify(context.Background(), "not-a-token")
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPStatus != 401 {
		t.Errorf("expected 401, got %d", appErr.HTTPStatus)
	}
}

func TestVerify_VanishedAccount(t *testing.T) {
	svc, _ := newTestService(t)

	// A token naming an account that was never (or is no longer) stored.
	codec, _ := session.NewCodec(session.Config{Secret: "test-signing-secret"})
	token, err := codec.Issue("gone000000")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = svc.Verify(context.Background(), token)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPStatus != 404 {
		t.Errorf("valid token for a vanished account maps to 404, got %d", appErr.HTTPStatus)
	}
}

func TestVerify_CorruptedStoredField(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	authID, _ := svc.Signup(ctx, validSignup())

	// Corrupt the persisted ciphertext behind the service's back.
	rec, _ := st.GetByKey(ctx, authID)
	rec.NationalID = "bm90IHZhbGlkIGNpcGhlcnRleHQ="
	_ = st.SetByKey(ctx, authID, rec)

	codec, _ := session.NewCodec(session.Config{Secret: "test-signing-secret"})
	token, _ := codec.Issue(authID)

	_, err := svc.Verify(ctx, token)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPStatus != 500 {
		t.Errorf("corruption surfaces as 500, got %d", appErr.HTTPStatus)
	}
	if appErr.Code == apperrors.ErrCodeNotFound {
		t.Error("decryption failure must not be folded into not-found")
	}
	if !errors.Is(err, fieldcrypt.ErrDecryption) {
		t.Error("cause chain should retain ErrDecryption")
	}
}

func TestGenerateAuthID_SkipsCollisions(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	// Pre-seed many records so a collision, if generated, is detected.
	for i := 0; i < 50; i++ {
		id, err := svc.generateAuthID(ctx)
		if err != nil {
			t.Fatalf("generateAuthID failed: %v", err)
		}
		if rec, _ := st.GetByKey(ctx, id); rec != nil {
			t.Fatalf("generated id %q collides with an existing record", id)
		}
		_ = st.SetByKey(ctx, id, &store.Record{Email: "x@example.com"})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"empty email", "", "a-strong-password"},
		{"empty password", "asha@example.com", ""},
		{"both empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tc.email, tc.pass)
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != apperrors.ErrCodeInvalidInput || appErr.HTTPStatus != 400 {
				t.Errorf("expected INVALID_INPUT/400, got %s/%d", appErr.Code, appErr.HTTPStatus)
			}
		})
	}
}

func TestSignup_ConfiguredPasswordMinimum(t *testing.T) {
	svc, _ := newTestService(t)
	svc.hasher = password.NewHasher(password.Config{
		Algorithm:    password.AlgorithmArgon2id,
		Argon2Memory: 8 * 1024,
		MinLength:    12,
	})

	in := validSignup()
	in.Password = "elevenchars"
	_, err := svc.Signup(context.Background(), in)

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrCodeInvalidInput || appErr.HTTPStatus != 400 {
		t.Errorf("expected INVALID_INPUT/400 below the configured minimum, got %s/%d", appErr.Code, appErr.HTTPStatus)
	}
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("entropy source unavailable") }
func (failingHasher) Verify(string, string) error { return errors.New("mismatch") }

func TestSignup_HasherFailureIsInternal(t *testing.T) {
	svc, _ := newTestService(t)
	svc.hasher = failingHasher{}

	_, err := svc.Signup(context.Background(), validSignup())

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrCodeInternal || appErr.HTTPStatus != 500 {
		t.Errorf("expected INTERNAL_ERROR/500 for a hashing failure, got %s/%d", appErr.Code, appErr.HTTPStatus)
	}
}
