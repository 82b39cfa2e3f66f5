package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad input", http.StatusBadRequest)

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("invalid input should not be retryable")
	}
}

func TestAppError_Store_Retryable(t *testing.T) {
	err := Store(errors.New("connection refused"))

	if !err.Retryable {
		t.Error("store errors should be retryable")
	}
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", err.HTTPStatus)
	}
}

func TestAppError_InvalidCredentials_Uniform(t *testing.T) {
	unknownEmail := InvalidCredentials()
	wrongPassword := InvalidCredentials()

	if unknownEmail.Message != wrongPassword.Message {
		t.Error("login failures must be indistinguishable")
	}
	if unknownEmail.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", unknownEmail.HTTPStatus)
	}
}

func TestAppError_EmailTaken_Status(t *testing.T) {
	err := EmailTaken()
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("email conflicts map to 400, got %d", err.HTTPStatus)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(nil).WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
	if err.Error() != fmt.Sprintf("%s: %s (cause: %v)", err.Code, err.Message, cause) {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := Validation("national_id: must be exactly 12 digits").WithDetail("field", "national_id")
	resp := err.ToResponse()

	if resp.Error.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, resp.Error.Code)
	}
	if resp.Error.Details["field"] != "national_id" {
		t.Errorf("expected field detail, got %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("user"))

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed on wrapped AppError")
	}
	if appErr.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, appErr.Code)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("plain errors should not convert to AppError")
	}
}
