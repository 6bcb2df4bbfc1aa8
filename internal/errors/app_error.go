package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	// Authentication failures surfaced to the UI with kind-specific messages.
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailUnconfirmed    = "EMAIL_UNCONFIRMED"
	ErrCodeAccountDisabled     = "ACCOUNT_DISABLED"
	ErrCodeProfileNotFound     = "PROFILE_NOT_FOUND"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

func InvalidCredentialsError() *AppError {
	return NewAppError(ErrCodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
}

func EmailUnconfirmedError() *AppError {
	return NewAppError(ErrCodeEmailUnconfirmed, "Email address has not been confirmed", http.StatusUnauthorized)
}

func AccountDisabledError() *AppError {
	return NewAppError(ErrCodeAccountDisabled, "This account has been disabled", http.StatusForbidden)
}

func ProfileNotFoundError() *AppError {
	return NewAppError(ErrCodeProfileNotFound, "No profile exists for this identity", http.StatusNotFound)
}

func ProviderUnavailableError(err error) *AppError {
	return NewAppError(ErrCodeProviderUnavailable, "Identity provider is unreachable", http.StatusBadGateway).WithError(err)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
