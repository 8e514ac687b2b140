// Package errors defines the error kinds surfaced by the auth client.
//
// Runtime failures (network trouble, rejected credentials, popup
// cancellation) are reported as result values, never as Go errors. The
// errors here cover the remaining cases: configuration mistakes detected
// at call time and internal sentinels the packages share.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an AuthError.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindNetwork        Kind = "network"
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
)

// AuthError is a classified error with a human-readable description.
type AuthError struct {
	Kind        Kind   `json:"kind"`
	Description string `json:"description,omitempty"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// NewConfiguration reports a setup mistake. This is the only error kind a
// caller should ever see propagate out of the SDK as a Go error.
func NewConfiguration(description string) *AuthError {
	return &AuthError{Kind: KindConfiguration, Description: description}
}

// NewAuthentication reports a failed or missing authentication state.
func NewAuthentication(description string) *AuthError {
	return &AuthError{Kind: KindAuthentication, Description: description}
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == KindConfiguration
}

var (
	// ErrNoServer is returned when no backend server can be resolved.
	ErrNoServer = NewConfiguration("no auth server could be resolved")
	// ErrUnknownServer is returned for a switch to an undeclared server name.
	ErrUnknownServer = NewConfiguration("unknown auth server name")
)
