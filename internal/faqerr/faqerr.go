// Package faqerr defines the error taxonomy shared across the retrieval core.
//
// Sentinel errors are matched with errors.Is; DimensionMismatchError carries
// the expected/got dimensions and is matched with errors.As.
package faqerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates bad input to a knowledge-base mutation,
	// such as an empty question or answer.
	ErrValidation = errors.New("validation failed")

	// ErrProvider indicates a failed remote call to the embedding provider
	// (non-2xx response or transport failure).
	ErrProvider = errors.New("embedding provider error")

	// ErrProviderTimeout indicates a remote embedding call exceeded its deadline.
	ErrProviderTimeout = errors.New("embedding provider timeout")

	// ErrReindexFailed indicates a rebuild aborted before publishing.
	// The previously published generation remains live.
	ErrReindexFailed = errors.New("reindex failed")

	// ErrNotInitialized indicates the coordinator has not built generation 0 yet.
	ErrNotInitialized = errors.New("retrieval service not initialized")
)

// DimensionMismatchError indicates the embedding count or dimensionality
// does not line up with the document set. This is a provider or chunking
// bug, never retried.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// PersistenceWarning wraps a post-publish durable-write failure. The in-memory
// generation stays authoritative; callers log this instead of failing.
type PersistenceWarning struct {
	Path  string
	Cause error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("knowledge base not persisted to %s: %v", w.Path, w.Cause)
}

func (w *PersistenceWarning) Unwrap() error { return w.Cause }
