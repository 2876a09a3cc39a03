package errors

import "net/http"

// Error types for authentication flow lifecycles. These cover the terminal
// outcomes every challenge, code, and request can reach besides success.
const (
	ErrorTypeExpired          ErrorType = "expired"
	ErrorTypeAlreadyUsed      ErrorType = "already_used"
	ErrorTypeRateLimited      ErrorType = "rate_limited"
	ErrorTypeAttemptsExceeded ErrorType = "attempts_exceeded"
	ErrorTypeNotReady         ErrorType = "not_ready"
)

// NewExpiredError creates an error for artifacts past their deadline
func NewExpiredError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeExpired, http.StatusGone, message, details...)
}

// NewAlreadyUsedError creates an error for single-use artifacts consumed twice
func NewAlreadyUsedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeAlreadyUsed, http.StatusConflict, message, details...)
}

// NewRateLimitedError creates an error for cooldown or quota violations
func NewRateLimitedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeRateLimited, http.StatusTooManyRequests, message, details...)
}

// NewAttemptsExceededError creates an error for exhausted verification attempts
func NewAttemptsExceededError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeAttemptsExceeded, http.StatusTooManyRequests, message, details...)
}

// NewNotReadyError creates an error for operations whose preconditions are unmet
func NewNotReadyError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotReady, http.StatusConflict, message, details...)
}

// IsExpiredError checks if the error is an expired error
func IsExpiredError(err error) bool {
	return IsType(err, ErrorTypeExpired)
}

// IsAlreadyUsedError checks if the error is an already used error
func IsAlreadyUsedError(err error) bool {
	return IsType(err, ErrorTypeAlreadyUsed)
}

// IsRateLimitedError checks if the error is a rate limited error
func IsRateLimitedError(err error) bool {
	return IsType(err, ErrorTypeRateLimited)
}

// IsAttemptsExceededError checks if the error is an attempts exceeded error
func IsAttemptsExceededError(err error) bool {
	return IsType(err, ErrorTypeAttemptsExceeded)
}

// IsNotReadyError checks if the error is a not ready error
func IsNotReadyError(err error) bool {
	return IsType(err, ErrorTypeNotReady)
}
