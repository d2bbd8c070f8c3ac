package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder is an in-memory Embedder that records how many texts it was
// asked to embed.
type countingEmbedder struct {
	embedded atomic.Int64
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.embedded.Add(1)
	return vectorFor(text), nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.embedded.Add(int64(len(texts)))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorFor(text)
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Close() error      { return nil }

func TestCachedEmbedSkipsRepeatCalls(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16)

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.embedded.Load())
}

func TestCachedEmbedBatchOnlySendsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16)

	_, err := cached.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, int64(2), inner.embedded.Load())

	vecs, err := cached.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	// Only "c" was a miss.
	assert.Equal(t, int64(3), inner.embedded.Load())
	require.Len(t, vecs, 3)
	assert.Equal(t, vectorFor("a"), vecs[0])
	assert.Equal(t, vectorFor("b"), vecs[1])
	assert.Equal(t, vectorFor("c"), vecs[2])
}

func TestCachedEmbedBatchAllHits(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 16)

	_, err := cached.EmbedBatch(context.Background(), []string{"x", "y"})
	require.NoError(t, err)

	_, err = cached.EmbedBatch(context.Background(), []string{"y", "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.embedded.Load())
}

func TestCachedEmbedderEvictsAtCapacity(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 2)

	for _, text := range []string{"a", "b", "c"} {
		_, err := cached.Embed(context.Background(), text)
		require.NoError(t, err)
	}
	// "a" was evicted by "c"; embedding it again goes to the provider.
	_, err := cached.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), inner.embedded.Load())
}
