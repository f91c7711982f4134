// Package apperrors defines the error taxonomy shared by services and
// handlers. Services return these (possibly wrapped with %w); the handler
// layer maps them to HTTP statuses in one place. Anything that does not
// match the taxonomy is treated as an internal error and surfaced with a
// generic message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or business-rule-violating input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing user, card, transaction or OTP record.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFoundf builds a NotFoundError from a format string.
func NotFoundf(format string, args ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// TooManyAttemptsError reports an OTP whose attempt budget is exhausted.
// The record is destroyed as a side effect of returning this.
type TooManyAttemptsError struct{}

func (e *TooManyAttemptsError) Error() string {
	return "Too many failed attempts. Please request a new OTP."
}

// InvalidCodeError reports a code mismatch while attempts remain.
type InvalidCodeError struct {
	RemainingAttempts int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("Invalid OTP. %d attempts remaining.", e.RemainingAttempts)
}

// GatewayError reports a failed SMS dispatch. The underlying cause is
// logged server-side and never leaks to the client.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return "Failed to send OTP" }
func (e *GatewayError) Unwrap() error { return e.Err }

// InsufficientPointsError reports a redemption exceeding the balance.
type InsufficientPointsError struct {
	Requested int
	Available int
}

func (e *InsufficientPointsError) Error() string { return "Insufficient points" }

// AuthError reports a missing, invalid or expired token.
type AuthError struct {
	Message string
	Expired bool
}

func (e *AuthError) Error() string { return e.Message }

// HTTPStatus resolves err to an HTTP status and client-facing message.
// Unrecognised errors map to 500 with a generic message; callers are
// expected to log the real error before responding.
func HTTPStatus(err error) (int, string) {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		tooMany      *TooManyAttemptsError
		invalidCode  *InvalidCodeError
		gateway      *GatewayError
		insufficient *InsufficientPointsError
		auth         *AuthError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Message
	case errors.As(err, &tooMany):
		return http.StatusBadRequest, tooMany.Error()
	case errors.As(err, &invalidCode):
		return http.StatusBadRequest, invalidCode.Error()
	case errors.As(err, &gateway):
		return http.StatusInternalServerError, gateway.Error()
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, insufficient.Error()
	case errors.As(err, &auth):
		return http.StatusUnauthorized, auth.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
