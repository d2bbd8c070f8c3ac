package index

import (
	"context"
	"math"

	"github.com/coder/hnsw"

	"github.com/faqline/faqline/internal/faqerr"
)

// VectorConfig holds HNSW build parameters.
type VectorConfig struct {
	// M is the max connections per graph layer.
	M int
	// EfSearch is the query-time search width.
	EfSearch int
}

// DefaultVectorConfig returns the HNSW defaults used for KB-sized corpora.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{M: 16, EfSearch: 64}
}

// VectorIndex ranks documents by cosine similarity of their dense embeddings.
// Graph keys are document ordinals, so identity mapping is free and ties
// resolve by indexing order. Immutable once built; queries are safe for
// concurrent use.
type VectorIndex struct {
	graph *hnsw.Graph[uint64]
	dims  int
	count int
}

// BuildVectorIndex builds the HNSW graph over one embedding per document, in
// document order. It fails with a DimensionMismatchError when the embedding
// count differs from the document count or vectors disagree on length.
func BuildVectorIndex(docs []Document, embeddings [][]float32, cfg VectorConfig) (*VectorIndex, error) {
	if len(embeddings) != len(docs) {
		return nil, &faqerr.DimensionMismatchError{Expected: len(docs), Got: len(embeddings)}
	}

	dims := 0
	if len(embeddings) > 0 {
		dims = len(embeddings[0])
	}
	for _, vec := range embeddings {
		if len(vec) != dims {
			return nil, &faqerr.DimensionMismatchError{Expected: dims, Got: len(vec)}
		}
	}

	if cfg.M == 0 {
		cfg = DefaultVectorConfig()
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch

	for i, doc := range docs {
		vec := make([]float32, dims)
		copy(vec, embeddings[i])
		normalizeInPlace(vec)
		graph.Add(hnsw.MakeNode(uint64(doc.Ordinal), vec))
	}

	return &VectorIndex{graph: graph, dims: dims, count: len(docs)}, nil
}

// Query returns up to k nearest documents by cosine similarity, scores
// strictly descending with ties broken by ordinal. An empty index yields an
// empty result.
func (v *VectorIndex) Query(ctx context.Context, queryVec []float32, k int) ([]Result, error) {
	if k <= 0 || v.count == 0 {
		return []Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(queryVec) != v.dims {
		return nil, &faqerr.DimensionMismatchError{Expected: v.dims, Got: len(queryVec)}
	}

	normalized := make([]float32, len(queryVec))
	copy(normalized, queryVec)
	normalizeInPlace(normalized)

	nodes := v.graph.Search(normalized, overFetch(k, v.count))

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		distance := v.graph.Distance(normalized, node.Value)
		results = append(results, Result{
			Ordinal: int(node.Key),
			Score:   cosineScore(distance),
		})
	}
	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Dimensions returns the embedding dimensionality of the index.
func (v *VectorIndex) Dimensions() int { return v.dims }

// Count returns the number of indexed documents.
func (v *VectorIndex) Count() int { return v.count }

// normalizeInPlace scales a vector to unit length. Zero vectors are left
// unchanged.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// cosineScore converts cosine distance (0..2) to a similarity score (0..1).
func cosineScore(distance float32) float64 {
	return 1.0 - float64(distance)/2.0
}
