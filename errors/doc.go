// Package errors provides unified error handling for the pipeline engine.
// It implements structured error types with error codes, process exit code
// mapping, and retryable detection.
package errors
