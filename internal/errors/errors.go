// Package errors provides a lightweight structured error type (LockSyncError)
// for category-based classification of failures during lockfile synchronization.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a locksync error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig    ErrorCategory = "config"
	CategoryWorkspace ErrorCategory = "workspace"

	// Lockfile processing errors
	CategoryLockfile   ErrorCategory = "lockfile"
	CategoryFileSystem ErrorCategory = "filesystem"

	// External package-manager invocation errors
	CategoryTool ErrorCategory = "tool"

	// Runtime and infrastructure errors
	CategoryJournal  ErrorCategory = "journal"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the release
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// LockSyncError is a structured error with category, severity, and context.
//
// Recoverable conditions (a package without a lockfile, a malformed lockfile,
// a misplaced pnpm lockfile) are never represented as errors at all: they are
// sentinel results so one package cannot abort a multi-package release. Only
// conditions that must halt the release (failed writes, failed tool
// invocations, invalid configuration) become LockSyncError values.
type LockSyncError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for LockSyncError
type ContextFields map[string]any

// Error implements the error interface
func (e *LockSyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *LockSyncError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *LockSyncError) WithContext(key string, value any) *LockSyncError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new LockSyncError
func New(category ErrorCategory, severity ErrorSeverity, message string) *LockSyncError {
	return &LockSyncError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new LockSyncError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *LockSyncError {
	return &LockSyncError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WriteError creates a fatal filesystem error for a failed lockfile persist.
func WriteError(err error, path string) *LockSyncError {
	return Wrap(err, CategoryFileSystem, SeverityFatal, "failed to write lockfile").
		WithContext("path", path)
}

// ToolError creates a fatal tool error for a failed package-manager invocation.
// The captured output is attached as context so the pipeline can surface it.
func ToolError(err error, tool string, output []byte) *LockSyncError {
	e := Wrap(err, CategoryTool, SeverityFatal, fmt.Sprintf("%s invocation failed", tool)).
		WithContext("tool", tool)
	if len(output) > 0 {
		e = e.WithContext("output", string(output))
	}
	return e
}

// ConfigError creates a new configuration error
func ConfigError(message string) *LockSyncError {
	return &LockSyncError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if lse, ok := err.(*LockSyncError); ok {
		return lse.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a LockSyncError
func GetCategory(err error) ErrorCategory {
	if lse, ok := err.(*LockSyncError); ok {
		return lse.Category
	}
	return CategoryInternal
}

// IsFatal reports whether the error should halt the release.
func IsFatal(err error) bool {
	if lse, ok := err.(*LockSyncError); ok {
		return lse.Severity == SeverityFatal
	}
	// Unclassified errors halt the release rather than falsely succeed.
	return err != nil
}
