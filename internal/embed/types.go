// Package embed converts text to dense vectors via a remote embedding
// provider. Calls are batched and parallelized; output order always matches
// input order.
package embed

import (
	"context"
	"time"
)

// Defaults for the remote provider client.
const (
	// DefaultBatchSize is the number of texts sent per provider request.
	DefaultBatchSize = 64

	// DefaultMaxParallel bounds concurrent provider requests during a rebuild.
	DefaultMaxParallel = 8

	// DefaultTimeout bounds each provider request.
	DefaultTimeout = 120 * time.Second

	// DefaultCacheSize is the query-embedding LRU capacity.
	DefaultCacheSize = 1000
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}
