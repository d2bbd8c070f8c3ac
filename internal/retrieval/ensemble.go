// Package retrieval merges lexical and dense results for one generation into
// a single ranking using weighted score fusion.
package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/faqline/faqline/internal/index"
)

// Weights configures the relative contribution of each retriever. Both must
// be non-negative; they are not required to sum to 1.
type Weights struct {
	Lexical float64
	Vector  float64
}

// DefaultWeights matches the corpus tuning: lexical 0.4, vector 0.6.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.4, Vector: 0.6}
}

// RankedResult is one fused result. LexScore and VecScore preserve the
// normalized per-retriever contributions for explainability; a zero rank
// means the document was absent from that retriever's list.
type RankedResult struct {
	Doc      index.Document
	Score    float64
	LexScore float64
	VecScore float64
	LexRank  int
	VecRank  int
}

// Retrieve queries both indexes of gen concurrently and fuses their rankings.
//
// Each retriever is asked for an over-fetch of k. Scores within each list are
// max-normalized to [0,1]; a document's fused score is
//
//	w.Lexical*normLex + w.Vector*normVec
//
// with absence from a list contributing zero. Documents are deduplicated by
// ordinal, sorted by fused score descending, ties broken by knowledge-base
// position (earlier record wins, then earlier chunk), and truncated to k.
// Results with a zero fused score are dropped, so a weight of zero
// degenerates cleanly to the other retriever's own ranking.
//
// queryVec may be nil, in which case the dense path is skipped entirely and
// the ranking is lexical-only. An empty generation yields an empty result.
func Retrieve(ctx context.Context, gen *index.Generation, query string, queryVec []float32, w Weights, k int) ([]RankedResult, error) {
	if k <= 0 || len(gen.Docs) == 0 {
		return []RankedResult{}, nil
	}

	fetch := k * 2
	if fetch < 10 {
		fetch = 10
	}

	var lexHits, vecHits []index.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexHits, err = gen.Lexical.Query(gctx, query, fetch)
		return err
	})
	if queryVec != nil {
		g.Go(func() error {
			var err error
			vecHits, err = gen.Vector.Query(gctx, queryVec, fetch)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuse(gen, lexHits, vecHits, w, k), nil
}

// fused accumulates per-document contributions during fusion.
type fused struct {
	ordinal  int
	lexScore float64
	vecScore float64
	lexRank  int
	vecRank  int
}

// fuse combines the two ranked lists into the final ranking.
func fuse(gen *index.Generation, lexHits, vecHits []index.Result, w Weights, k int) []RankedResult {
	lexMax := maxScore(lexHits)
	vecMax := maxScore(vecHits)

	byOrdinal := make(map[int]*fused, len(lexHits)+len(vecHits))
	get := func(ordinal int) *fused {
		if f, ok := byOrdinal[ordinal]; ok {
			return f
		}
		f := &fused{ordinal: ordinal}
		byOrdinal[ordinal] = f
		return f
	}

	for rank, hit := range lexHits {
		f := get(hit.Ordinal)
		f.lexScore = hit.Score / lexMax
		f.lexRank = rank + 1
	}
	for rank, hit := range vecHits {
		f := get(hit.Ordinal)
		f.vecScore = hit.Score / vecMax
		f.vecRank = rank + 1
	}

	results := make([]RankedResult, 0, len(byOrdinal))
	for _, f := range byOrdinal {
		score := w.Lexical*f.lexScore + w.Vector*f.vecScore
		if score <= 0 {
			continue
		}
		results = append(results, RankedResult{
			Doc:      gen.Doc(f.ordinal),
			Score:    score,
			LexScore: f.lexScore,
			VecScore: f.vecScore,
			LexRank:  f.lexRank,
			VecRank:  f.vecRank,
		})
	}

	// Ties never depend on map iteration order: knowledge-base position
	// decides, earlier record first, then earlier chunk.
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Doc.RecordOrdinal != b.Doc.RecordOrdinal {
			return a.Doc.RecordOrdinal < b.Doc.RecordOrdinal
		}
		return a.Doc.Ordinal < b.Doc.Ordinal
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// maxScore returns the maximum score in hits, or 1 when hits is empty or all
// scores are non-positive, so normalization never divides by zero.
func maxScore(hits []index.Result) float64 {
	max := 0.0
	for _, h := range hits {
		if h.Score > max {
			max = h.Score
		}
	}
	if max <= 0 {
		return 1
	}
	return max
}
