// Package errors defines the error taxonomy for the vault engine.
//
// Lower-level components return the narrow typed errors below; the store
// and stack manager propagate them verbatim. Only the CLI boundary may
// translate them into exit codes, and it must never swallow one silently.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates that a requested secret or object does not exist.
type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret not found: %s", e.Name)
}

// AlreadyExistsError indicates a store without overwrite hit an existing name.
type AlreadyExistsError struct {
	Name string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("secret already exists: %s (use overwrite to replace it)", e.Name)
}

// IntegrityError indicates authentication of an envelope failed: the stored
// object was tampered with, corrupted, or moved to a different key. It is
// always fatal to the call and must never be masked by callers.
type IntegrityError struct {
	Name   string
	Reason string
}

func (e IntegrityError) Error() string {
	msg := "envelope integrity check failed"
	if e.Name != "" {
		msg += " for " + e.Name
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// KeyAccessError indicates the key management service denied access to the
// configured key, either for generating a data key or unwrapping one.
type KeyAccessError struct {
	KeyID string
	Err   error
}

func (e KeyAccessError) Error() string {
	return fmt.Sprintf("access denied to key %s: %v", e.KeyID, e.Err)
}

func (e KeyAccessError) Unwrap() error {
	return e.Err
}

// RemoteUnavailableError indicates a transient network or service fault.
// It is eligible for bounded retry on idempotent operations only.
type RemoteUnavailableError struct {
	Service string
	Err     error
}

func (e RemoteUnavailableError) Error() string {
	return fmt.Sprintf("%s temporarily unavailable: %v", e.Service, e.Err)
}

func (e RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// StackTimeoutError indicates polling for a terminal stack status exhausted
// its deadline. The remote operation is not rolled back and may still
// complete; callers should re-poll via status.
type StackTimeoutError struct {
	StackName string
	Operation string
}

func (e StackTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for stack %s to finish %s; the operation may still complete, check with 'strongbox status'",
		e.StackName, e.Operation)
}

// ConfigError represents a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// UserError represents an error that should be shown to the user with helpful context.
type UserError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// IsAlreadyExists reports whether err is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var target AlreadyExistsError
	return errors.As(err, &target)
}

// IsIntegrity reports whether err is an IntegrityError.
func IsIntegrity(err error) bool {
	var target IntegrityError
	return errors.As(err, &target)
}

// IsKeyAccess reports whether err is a KeyAccessError.
func IsKeyAccess(err error) bool {
	var target KeyAccessError
	return errors.As(err, &target)
}

// IsRemoteUnavailable reports whether err is a RemoteUnavailableError.
func IsRemoteUnavailable(err error) bool {
	var target RemoteUnavailableError
	return errors.As(err, &target)
}

// IsStackTimeout reports whether err is a StackTimeoutError.
func IsStackTimeout(err error) bool {
	var target StackTimeoutError
	return errors.As(err, &target)
}

// IsRetryable checks if an error is safe to retry. Only transient faults
// qualify; ambiguous failures of non-idempotent calls never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsRemoteUnavailable(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"rate exceeded",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
