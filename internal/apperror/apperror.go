// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package apperror defines the error taxonomy shared across the engine.
//
// Four failure classes exist, each with a different contract:
//
//   - ValidationError: bad input, rejected before any state change
//   - NotFoundError: the referenced donor/donation does not exist
//   - ExternalAPIError: a platform request failed; callers fall back to
//     last-known-good data and keep polling
//   - PersistenceError: the document store failed; fatal to that operation
package apperror

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrExternalAPI = errors.New("external api failure")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError describes rejected input. The state it would have touched
// is guaranteed unmodified.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation constructs a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError describes an operation referencing a donor or donation that
// does not exist. No state change occurred.
type NotFoundError struct {
	Kind string // "donor" or "donation"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound constructs a NotFoundError.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// ExternalAPIError describes a failed platform request: a non-success HTTP
// status, a transport failure, or an open circuit breaker.
type ExternalAPIError struct {
	Platform   string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api: status %d: %v", e.Platform, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s api: %v", e.Platform, e.Err)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

func (e *ExternalAPIError) Is(target error) bool { return target == ErrExternalAPI }

// ExternalAPI constructs an ExternalAPIError.
func ExternalAPI(platform string, status int, err error) error {
	return &ExternalAPIError{Platform: platform, StatusCode: status, Err: err}
}

// PersistenceError describes a document-store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence constructs a PersistenceError.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
