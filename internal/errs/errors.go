// Package errs defines the error taxonomy shared by every client package.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions callers match with errors.Is.
var (
	// ErrInvalidURL indicates a URL could not be composed or parsed.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNoLogin indicates an operation that requires a signed-in account
	// was attempted without one. This is a hard error, not a guest mode.
	ErrNoLogin = errors.New("not signed in")
)

// ConfigError indicates missing or malformed configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// NewConfigError creates a ConfigError with a formatted reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// UnexpectedResponseError indicates a transport-level success whose payload
// is semantically wrong or missing required fields.
type UnexpectedResponseError struct {
	Reason string
	Cause  error
}

func (e *UnexpectedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unexpected response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("unexpected response: %s", e.Reason)
}

func (e *UnexpectedResponseError) Unwrap() error { return e.Cause }

// NewUnexpectedResponse creates an UnexpectedResponseError.
func NewUnexpectedResponse(reason string, cause error) *UnexpectedResponseError {
	return &UnexpectedResponseError{Reason: reason, Cause: cause}
}

// BadInputError indicates a caller-supplied parameter is invalid.
type BadInputError struct {
	Field  string
	Reason string
}

func (e *BadInputError) Error() string {
	return fmt.Sprintf("bad input %q: %s", e.Field, e.Reason)
}

// NewBadInput creates a BadInputError for a named parameter.
func NewBadInput(field, reason string) *BadInputError {
	return &BadInputError{Field: field, Reason: reason}
}

// APIError carries an upstream HTTP or payload-level failure. A response is
// treated as an APIError when the transport fails, the HTTP status is an
// error, or a 2xx body carries a non-empty top-level "errors" array.
type APIError struct {
	StatusCode int
	Body       string
	Reasons    []string
	Cause      error
}

func (e *APIError) Error() string {
	if len(e.Reasons) > 0 {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, strings.Join(e.Reasons, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("api error (status %d): %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Cause }

// RequiresSignOut reports whether this error must trigger the centralized
// forced sign-out: any 4xx status, or an error reason mentioning an expired
// token regardless of status.
func (e *APIError) RequiresSignOut() bool {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return true
	}
	for _, r := range e.Reasons {
		if strings.Contains(strings.ToLower(r), "token expired") {
			return true
		}
	}
	return false
}

// AsAPIError unwraps err to an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
