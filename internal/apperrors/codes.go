package apperrors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid. Field-level
	// detail rides in the Details map rather than separate codes.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeEmailTaken indicates the email is already registered.
	ErrCodeEmailTaken ErrorCode = "EMAIL_TAKEN"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidCredentials indicates login failed. The same code covers
	// an unknown email and a wrong password so callers cannot tell which.
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStoreError indicates the backing store failed or was unreachable.
	ErrCodeStoreError ErrorCode = "STORE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStoreError: true,
	ErrCodeInternal:   false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
