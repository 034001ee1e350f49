/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("record", "foo")

	expected := `record with key "foo" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "data",
			message:  "nested values are not supported",
			expected: `validation failed for field "data": nested values are not supported`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing identifier",
			expected: "validation failed: missing identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestBackendUnavailableError(t *testing.T) {
	err := NewBackendUnavailableError("redis", "get", "foo", io.ErrUnexpectedEOF)

	expected := `redis: get "foo": unexpected EOF`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsBackendUnavailable(err) {
		t.Error("IsBackendUnavailable should return true for BackendUnavailableError")
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("BackendUnavailableError should unwrap to the client error")
	}

	if NewBackendUnavailableError("redis", "get", "foo", nil) != nil {
		t.Error("wrapping a nil error should yield nil")
	}

	noKey := NewBackendUnavailableError("dynamodb", "scan", "", io.EOF)
	if noKey.Error() != "dynamodb: scan: EOF" {
		t.Errorf("unexpected message %q", noKey.Error())
	}
}

func TestTranslationError(t *testing.T) {
	err := NewTranslationError("_id", "", "missing native key field")

	expected := `translation failed on field "_id": missing native key field`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsTranslationError(err) {
		t.Error("IsTranslationError should return true for TranslationError")
	}

	if IsNotFound(err) {
		t.Error("a translation error must never read as not found")
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewBackendUnavailableError("bolt", "delete", "foo", io.EOF)
	wrapped := fmt.Errorf("destroy_many aborted: %w", original)

	if !IsBackendUnavailable(wrapped) {
		t.Error("IsBackendUnavailable should work with wrapped errors")
	}

	var bue *BackendUnavailableError
	if !errors.As(wrapped, &bue) || bue.Backend != "bolt" {
		t.Errorf("errors.As should recover the typed error, got %#v", bue)
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrBackendUnavailable,
		ErrTranslation,
		ErrNoSchema,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
