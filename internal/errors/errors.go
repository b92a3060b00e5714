package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailExists is returned when an email is already bound to an account.
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidActivationCode is returned when the submitted code does not match.
	ErrInvalidActivationCode = errors.New("invalid activation code")
	// ErrInvalidActivationToken is returned when the activation token fails verification.
	ErrInvalidActivationToken = errors.New("invalid activation token")
	// ErrActivationExpired is returned when the activation token has expired.
	ErrActivationExpired = errors.New("activation token has expired")
	// ErrUnauthenticated is returned when no valid token or session backs a request.
	ErrUnauthenticated = errors.New("please login to access this resource")
	// ErrRefreshFailed is returned when the refresh token or its session is gone.
	ErrRefreshFailed = errors.New("could not refresh access token, please login again")
	// ErrUserNotFound is returned when a user record does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch is returned when the old password does not match.
	ErrPasswordMismatch = errors.New("old password is incorrect")
	// ErrPasswordNotSet is returned for social accounts without a password.
	ErrPasswordNotSet = errors.New("password not set for this user")
	// ErrUpstream is returned when a collaborator (mail, asset store) fails.
	ErrUpstream = errors.New("upstream service failed")
)

// Envelope is the uniform response shape for every boundary response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Fail builds a failure envelope with the given message.
func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// StatusOf maps domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrInvalidActivationCode),
		errors.Is(err, ErrInvalidActivationToken),
		errors.Is(err, ErrActivationExpired),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrPasswordNotSet),
		errors.Is(err, ErrUpstream):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrRefreshFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the client-facing message for an error. Internal errors
// are collapsed to a generic message so no detail leaks across the boundary.
func MessageOf(err error) string {
	if StatusOf(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
