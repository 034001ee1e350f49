/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable is returned when the storage backend could not serve a call
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTranslation is returned when a stored document cannot be mapped back to a record
	ErrTranslation = errors.New("document translation failed")

	// ErrNoSchema is returned when no schema is registered under a name
	ErrNoSchema = errors.New("no schema registered")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// BackendUnavailableError wraps a fault raised by a storage client. It is
// never used for data-level absence.
type BackendUnavailableError struct {
	Backend   string
	Operation string
	Key       string
	Err       error
}

func (e *BackendUnavailableError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s %q: %v", e.Backend, e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// TranslationError reports a stored document that does not carry a usable
// native key field.
type TranslationError struct {
	Field   string
	Key     string
	Message string
}

func (e *TranslationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("translation of document %q failed on field %q: %s", e.Key, e.Field, e.Message)
	}
	return fmt.Sprintf("translation failed on field %q: %s", e.Field, e.Message)
}

func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslation
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewBackendUnavailableError creates a new BackendUnavailableError. A nil err
// yields nil so call sites can wrap unconditionally.
func NewBackendUnavailableError(backend, operation, key string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendUnavailableError{Backend: backend, Operation: operation, Key: key, Err: err}
}

// NewTranslationError creates a new TranslationError
func NewTranslationError(field, key, message string) error {
	return &TranslationError{Field: field, Key: key, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsBackendUnavailable checks if an error is an infrastructure fault
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsTranslationError checks if an error is a document translation error
func IsTranslationError(err error) bool {
	return errors.Is(err, ErrTranslation)
}
