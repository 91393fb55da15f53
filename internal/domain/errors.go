// Package domain defines core types, ports, and errors for the chunk streamer.
package domain

import "fmt"

// ValidationError indicates invalid configuration or input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SourceNotFoundError indicates the configured source file does not exist.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file not found at %s", e.Path)
}

// Preflight failure reasons.
const (
	ReasonBucketNotFound = "bucket not found"
	ReasonAccessDenied   = "access denied"
	ReasonUnreachable    = "unreachable"
)

// PreflightError indicates the destination failed its existence check.
type PreflightError struct {
	Destination string
	Reason      string
	Err         error
}

func (e *PreflightError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("preflight %s: %s", e.Destination, e.Reason)
	}
	return fmt.Sprintf("preflight %s: %s: %v", e.Destination, e.Reason, e.Err)
}

func (e *PreflightError) Unwrap() error { return e.Err }

// UploadError indicates a chunk could not be written to the destination.
type UploadError struct {
	Index int
	Key   string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload chunk %d as %q: %v", e.Index, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
