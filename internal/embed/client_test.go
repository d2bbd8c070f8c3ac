package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faqline/faqline/internal/faqerr"
)

// fakeProvider serves an OpenAI-style /embeddings endpoint that derives each
// vector from the text so order mixups are detectable.
func fakeProvider(t *testing.T, requestCount *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCount != nil {
			requestCount.Add(1)
		}
		require.Equal(t, "/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp embedResponse
		for i, text := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: vectorFor(text)})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

// vectorFor maps text to a small deterministic vector.
func vectorFor(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := fakeProvider(t, nil)
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:     srv.URL,
		Model:       "test-embed",
		BatchSize:   4,
		MaxParallel: 3,
		Timeout:     5 * time.Second,
	})
	defer func() { _ = client.Close() }()

	texts := make([]string, 19)
	for i := range texts {
		texts[i] = fmt.Sprintf("text number %d", i)
	}

	vecs, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, vectorFor(text), vecs[i], "vector %d out of order", i)
	}
}

func TestEmbedBatchSplitsIntoBatches(t *testing.T) {
	var requests atomic.Int64
	srv := fakeProvider(t, &requests)
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:   srv.URL,
		Model:     "test-embed",
		BatchSize: 5,
		Timeout:   5 * time.Second,
	})
	defer func() { _ = client.Close() }()

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}

	_, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), requests.Load())
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://unused", Model: "m"})
	vecs, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbedSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(embedResponse{Data: []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{{Index: 0, Embedding: []float32{1}}}})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "sekrit", Model: "m", Timeout: 5 * time.Second})
	_, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}

func TestEmbedProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "m", Timeout: 5 * time.Second})
	_, err := client.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, faqerr.ErrProvider))
	assert.Contains(t, err.Error(), "404")
}

func TestEmbedProviderTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	_, err := client.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, faqerr.ErrProviderTimeout))
}

func TestEmbedMissingEmbeddingInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Two inputs requested, only one embedding returned.
		_ = json.NewEncoder(w).Encode(embedResponse{Data: []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{{Index: 0, Embedding: []float32{1}}}})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Model: "m", Timeout: 5 * time.Second})
	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, faqerr.ErrProvider))
}
