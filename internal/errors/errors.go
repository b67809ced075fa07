package errors

import (
	"fmt"
	"time"
)

// Error types for the lightning-module-index system
type ErrorType string

const (
	// Indexing errors
	ErrorTypeIndexing ErrorType = "indexing"
	ErrorTypeLookup   ErrorType = "lookup"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// IndexingError represents an error during workspace indexing.
// There is no fatal category: the index degrades to missing entries,
// so every IndexingError is recoverable unless marked otherwise.
type IndexingError struct {
	Type        ErrorType
	Folder      string
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewIndexingError creates a new indexing error with context
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{
		Type:        ErrorTypeIndexing,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// WithFolder adds workspace folder information to the error
func (e *IndexingError) WithFolder(folder string) *IndexingError {
	e.Folder = folder
	return e
}

// WithFile adds file information to the error
func (e *IndexingError) WithFile(path string) *IndexingError {
	e.FilePath = path
	return e
}

// WithRecoverable marks the error as recoverable
func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	if e.Folder != "" {
		return fmt.Sprintf("%s %s failed for folder %s: %v", e.Type, e.Operation, e.Folder, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *IndexingError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be retried
func (e *IndexingError) IsRecoverable() bool {
	return e.Recoverable
}

// ConfigError represents a project or tool configuration error
type ConfigError struct {
	Path       string
	Field      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(path, field string, err error) *ConfigError {
	return &ConfigError{
		Path:       path,
		Field:      field,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s (field %s): %v", e.Path, e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
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

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
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

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// LookupError represents a failed workspace or owner lookup. Events carrying a
// path outside every tracked folder are logged and dropped with this error,
// never propagated to the query path.
type LookupError struct {
	Type      ErrorType
	Path      string
	What      string
	Timestamp time.Time
}

// NewLookupError creates a new lookup error
func NewLookupError(what, path string) *LookupError {
	return &LookupError{
		Type:      ErrorTypeLookup,
		Path:      path,
		What:      what,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *LookupError) Error() string {
	return fmt.Sprintf("no %s found for %s", e.What, e.Path)
}
