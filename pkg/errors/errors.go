// Package errors provides structured error types for the cachekit infrastructure library.
// It defines error categories (Permanent, Temporary, NotFound, InvalidInput, NotOwner, Locked)
// that enable consistent error handling across all coordination components.
//
// Example usage:
//
//	if err := client.Get(ctx, key).Err(); err != nil {
//	    return errors.NewTemporary("redis unavailable", err)
//	}
//
//	if cached == nil {
//	    return errors.NewNotFound("cache key", key)
//	}
package errors

import (
	"fmt"
	"time"
)

// PermanentError represents an error that won't succeed even if retried.
// Examples: invalid configuration, unencodable values, data corruption.
type PermanentError struct {
	msg   string
	cause error
}

// NewPermanent creates a new permanent error with the given message and optional cause.
func NewPermanent(msg string, cause error) error {
	return &PermanentError{msg: msg, cause: cause}
}

func (e *PermanentError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *PermanentError) Unwrap() error {
	return e.cause
}

// TemporaryError represents an error that might succeed if retried.
// Examples: connection failures, timeouts, backend unavailability.
// Every "backend unavailable" condition in cachekit surfaces as this type.
type TemporaryError struct {
	msg   string
	cause error
}

// NewTemporary creates a new temporary error with the given message and optional cause.
func NewTemporary(msg string, cause error) error {
	return &TemporaryError{msg: msg, cause: cause}
}

func (e *TemporaryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *TemporaryError) Unwrap() error {
	return e.cause
}

// NotFoundError represents an error when a requested resource doesn't exist.
// Examples: cache miss on a direct Get, expired key, missing lock.
type NotFoundError struct {
	resource string
	id       string
	cause    error
}

// NewNotFound creates a new not found error for the given resource and ID.
func NewNotFound(resource, id string) error {
	return &NotFoundError{resource: resource, id: id}
}

// NewNotFoundWithCause creates a new not found error with an underlying cause.
func NewNotFoundWithCause(resource, id string, cause error) error {
	return &NotFoundError{resource: resource, id: id, cause: cause}
}

func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s not found: %s (%v)", e.resource, e.id, e.cause)
	}
	return fmt.Sprintf("%s not found: %s", e.resource, e.id)
}

func (e *NotFoundError) Unwrap() error {
	return e.cause
}

// Resource returns the type of resource that wasn't found.
func (e *NotFoundError) Resource() string {
	return e.resource
}

// ID returns the identifier of the resource that wasn't found.
func (e *NotFoundError) ID() string {
	return e.id
}

// InvalidInputError represents an error due to invalid caller input.
// Examples: validation failures, malformed keys, missing required fields.
type InvalidInputError struct {
	field string
	msg   string
	cause error
}

// NewInvalidInput creates a new invalid input error for the given field and message.
func NewInvalidInput(field, msg string) error {
	return &InvalidInputError{field: field, msg: msg}
}

// NewInvalidInputWithCause creates a new invalid input error with an underlying cause.
func NewInvalidInputWithCause(field, msg string, cause error) error {
	return &InvalidInputError{field: field, msg: msg, cause: cause}
}

func (e *InvalidInputError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid input for %s: %s (%v)", e.field, e.msg, e.cause)
	}
	return fmt.Sprintf("invalid input for %s: %s", e.field, e.msg)
}

func (e *InvalidInputError) Unwrap() error {
	return e.cause
}

// Field returns the field name that had invalid input.
func (e *InvalidInputError) Field() string {
	return e.field
}

// Message returns the validation error message.
func (e *InvalidInputError) Message() string {
	return e.msg
}

// NotOwnerError represents a refused lock release or extension because the
// caller's token does not match the current holder. A mismatched token always
// produces this error; it is never reported as success.
type NotOwnerError struct {
	resource string
}

// NewNotOwner creates a new not owner error for the given lock resource.
func NewNotOwner(resource string) error {
	return &NotOwnerError{resource: resource}
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("not the lock owner: %s", e.resource)
}

// Resource returns the contested lock resource.
func (e *NotOwnerError) Resource() string {
	return e.resource
}

// RateLimitedError represents a denied rate limit decision, for callers that
// prefer surfacing denials as errors instead of inspecting the decision.
type RateLimitedError struct {
	scope      string
	retryAfter time.Duration
}

// NewRateLimited creates a new rate limited error for the given scope.
func NewRateLimited(scope string, retryAfter time.Duration) error {
	return &RateLimitedError{scope: scope, retryAfter: retryAfter}
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %s (retry after %s)", e.scope, e.retryAfter)
}

// Scope returns the rate limit scope that denied the request.
func (e *RateLimitedError) Scope() string {
	return e.scope
}

// RetryAfter returns how long the caller should wait before retrying.
func (e *RateLimitedError) RetryAfter() time.Duration {
	return e.retryAfter
}

// LockedError represents a failed lock acquisition: the resource is held by
// another process, or the backend was unavailable and the acquisition failed
// closed. Cause is nil when the lock was genuinely contended.
type LockedError struct {
	resource string
	cause    error
}

// NewLocked creates a new locked error for the given resource.
func NewLocked(resource string) error {
	return &LockedError{resource: resource}
}

// NewLockedWithCause creates a locked error carrying the backend failure that
// forced the fail-closed decision.
func NewLockedWithCause(resource string, cause error) error {
	return &LockedError{resource: resource, cause: cause}
}

func (e *LockedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("resource locked: %s (%v)", e.resource, e.cause)
	}
	return fmt.Sprintf("resource locked: %s", e.resource)
}

func (e *LockedError) Unwrap() error {
	return e.cause
}

// Resource returns the contested lock resource.
func (e *LockedError) Resource() string {
	return e.resource
}
