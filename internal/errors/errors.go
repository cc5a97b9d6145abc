package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for fuzzyhash tooling
type ErrorType string

const (
	// Engine errors
	ErrorTypeHash ErrorType = "hash"

	// Manifest errors
	ErrorTypeManifest ErrorType = "manifest"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFile         ErrorType = "file"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// HashError wraps an engine failure with the operation that triggered it
type HashError struct {
	Type       ErrorType
	Operation  string
	Subject    string
	Underlying error
	Timestamp  time.Time
}

// NewHashError creates a new hash error
func NewHashError(op, subject string, err error) *HashError {
	return &HashError{
		Type:       ErrorTypeHash,
		Operation:  op,
		Subject:    subject,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *HashError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Subject, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *HashError) Unwrap() error {
	return e.Underlying
}

// ManifestError represents a malformed or unusable manifest
type ManifestError struct {
	Type       ErrorType
	Path       string
	Entry      string
	Underlying error
	Timestamp  time.Time
}

// NewManifestError creates a new manifest error
func NewManifestError(path string, err error) *ManifestError {
	return &ManifestError{
		Type:       ErrorTypeManifest,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithEntry records which manifest entry caused the error
func (e *ManifestError) WithEntry(entry string) *ManifestError {
	e.Entry = entry
	return e
}

// Error implements the error interface
func (e *ManifestError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("manifest %s: entry %s: %v", e.Path, e.Entry, e.Underlying)
	}
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ManifestError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error, classifying it from the underlying error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFile
	switch {
	case errors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewFileTooLargeError reports a file above the configured size limit
func NewFileTooLargeError(path string, size, limit int64) *FileError {
	return &FileError{
		Type:       ErrorTypeFileTooLarge,
		Path:       path,
		Operation:  "read",
		Underlying: fmt.Errorf("size %d exceeds limit %d", size, limit),
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for field %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
