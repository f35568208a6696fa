package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories surfaced by the API
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindUpstreamAuth       ErrorKind = "UpstreamAuthError"
	KindUpstreamStore      ErrorKind = "UpstreamStoreError"
	KindNotFound           ErrorKind = "NotFoundError"
	KindProfileCreationErr ErrorKind = "ProfileCreationFailed"
)

// Error is the tagged error returned by services. Name carries the upstream
// failure kind (for example UsernameExistsException) when one is known and
// StatusCode the upstream status, zero when unspecified.
type Error struct {
	Kind       ErrorKind
	Name       string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorName is the machine-readable value placed in the response "error" field
func (e *Error) ErrorName() string {
	if e.Name != "" {
		return e.Name
	}
	return string(e.Kind)
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message, StatusCode: 400}
}

// NewUpstreamAuthError wraps an identity-provider rejection
func NewUpstreamAuthError(name, message string, status int) *Error {
	return &Error{Kind: KindUpstreamAuth, Name: name, Message: message, StatusCode: status}
}

func NewUpstreamStoreError(message string, err error) *Error {
	return &Error{Kind: KindUpstreamStore, Message: message, Err: err}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, StatusCode: 404}
}

// NewProfileCreationError marks an identity account that exists without a profile record
func NewProfileCreationError(userID string, err error) *Error {
	return &Error{
		Kind:       KindProfileCreationErr,
		Message:    fmt.Sprintf("account created but profile %s could not be saved", userID),
		StatusCode: 500,
		Err:        err,
	}
}

// AsError extracts a tagged error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a tagged error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
