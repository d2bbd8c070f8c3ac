package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// faqAnalyzerName is the registered name of the lexical analyzer: unicode
// tokenization plus lowercasing, no stemming, so exact terms in any language
// match the way the corpus was written.
const faqAnalyzerName = "faq_analyzer"

// LexicalConfig holds the BM25 free parameters. The values document bleve's
// scoring defaults; they are the standard Robertson settings.
type LexicalConfig struct {
	// K1 is the term-frequency saturation parameter.
	K1 float64
	// B is the document-length normalization parameter.
	B float64
}

// DefaultLexicalConfig returns the standard BM25 parameters.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{K1: 1.2, B: 0.75}
}

// LexicalIndex ranks documents by BM25 over their chunk text. It is built
// once from a fixed document set and never mutated; queries are safe for
// concurrent use.
type LexicalIndex struct {
	idx    bleve.Index
	config LexicalConfig
	count  int
}

// bleveDocument is the shape handed to bleve for indexing.
type bleveDocument struct {
	Text string `json:"text"`
}

// BuildLexicalIndex tokenizes every document's text and builds the inverted
// index in one batch. Time is linear in total tokens.
func BuildLexicalIndex(docs []Document, config LexicalConfig) (*LexicalIndex, error) {
	mapping := bleve.NewIndexMapping()
	if err := mapping.AddCustomAnalyzer(faqAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("add analyzer: %w", err)
	}
	mapping.DefaultAnalyzer = faqAnalyzerName
	mapping.ScoringModel = "bm25"

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}

	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(strconv.Itoa(doc.Ordinal), bleveDocument{Text: doc.Text}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index document %d: %w", doc.Ordinal, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("execute index batch: %w", err)
	}

	return &LexicalIndex{idx: idx, config: config, count: len(docs)}, nil
}

// Query returns up to k documents matching the query text, scores strictly
// descending with ties broken by ordinal (first-indexed wins). An empty
// index, an empty query, or a query with no matching terms yields an empty
// result, not an error.
func (l *LexicalIndex) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if k <= 0 || l.count == 0 || strings.TrimSpace(text) == "" {
		return []Result{}, nil
	}

	query := bleve.NewMatchQuery(text)
	query.SetField("text")

	// Over-fetch so score ties at the k boundary are cut by ordinal order
	// after re-sorting, not by bleve's internal hit order.
	req := bleve.NewSearchRequest(query)
	req.Size = overFetch(k, l.count)

	res, err := l.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical query: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ordinal, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		results = append(results, Result{Ordinal: ordinal, Score: hit.Score})
	}
	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (l *LexicalIndex) Count() int { return l.count }

// Close releases the underlying bleve index.
func (l *LexicalIndex) Close() error {
	return l.idx.Close()
}

// overFetch widens a result window to absorb boundary ties, capped at the
// corpus size.
func overFetch(k, count int) int {
	n := k * 2
	if n < 10 {
		n = 10
	}
	if n > count {
		n = count
	}
	return n
}
