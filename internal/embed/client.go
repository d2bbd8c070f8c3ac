package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faqline/faqline/internal/faqerr"
)

// ClientConfig configures the remote embedding client.
type ClientConfig struct {
	// BaseURL is the provider endpoint root, e.g. "https://llm.example.com/v1".
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Model is the embedding model name.
	Model string
	// BatchSize is the number of texts per request.
	BatchSize int
	// MaxParallel bounds concurrent batch requests.
	MaxParallel int
	// Timeout bounds each request.
	Timeout time.Duration
}

// Client calls an OpenAI-compatible /embeddings endpoint. Large inputs are
// split into batches dispatched concurrently; results are reassembled in
// input order.
type Client struct {
	http   *http.Client
	config ClientConfig
	url    string
}

var _ Embedder = (*Client)(nil)

// NewClient creates a remote embedding client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxParallel,
		MaxIdleConnsPerHost: cfg.MaxParallel,
		MaxConnsPerHost:     cfg.MaxParallel * 2,
		IdleConnTimeout:     30 * time.Second,
	}

	// Timeouts are applied per-request via context so a single slow batch
	// surfaces as ErrProviderTimeout, not a silent client-wide stall.
	return &Client{
		http:   &http.Client{Transport: transport},
		config: cfg,
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/embeddings",
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string { return c.config.Model }

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Embed generates an embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: empty response", faqerr.ErrProvider)
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for texts, same length and order as the
// input. Batches run concurrently up to MaxParallel; any batch failure fails
// the whole call.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxParallel)

	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			vecs, err := c.postBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: requested %d embeddings, got %d",
					faqerr.ErrProvider, end-start, len(vecs))
			}
			copy(results[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// embedRequest is the provider request body.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the provider response body.
type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// postBatch sends one batch and returns its embeddings in input order.
func (c *Client) postBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.config.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", faqerr.ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", faqerr.ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", faqerr.ErrProvider, resp.StatusCode, string(snippet))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", faqerr.ErrProvider, err)
	}

	vecs := make([][]float32, len(parsed.Data))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vecs) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", faqerr.ErrProvider, item.Index)
		}
		vecs[item.Index] = item.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("%w: missing embedding at index %d", faqerr.ErrProvider, i)
		}
	}
	return vecs, nil
}
