// Package index provides the two retrieval index structures built per
// knowledge-base generation: a BM25 lexical index (bleve) and a dense vector
// index (HNSW). Both are immutable once built; updates happen by building a
// fresh generation and swapping it into service.
package index

import (
	"sort"

	"github.com/faqline/faqline/internal/kb"
)

// Document is one indexed chunk of a knowledge-base answer. The ordinal is
// the document's position in the generation's chunk sequence and doubles as
// its identity within that generation; documents are never mutated in place.
type Document struct {
	// Ordinal is the document's position in the generation (0-based).
	Ordinal int
	// RecordOrdinal is the position of the source record in the knowledge base.
	RecordOrdinal int
	// Text is the chunk content, the field actually indexed and returned.
	Text string
	// Provenance metadata copied verbatim from the source record.
	Question    string
	Category    string
	Subcategory string
	TargetGroup string
}

// NewDocuments chunks every record's answer and carries the record metadata
// onto each resulting document. split is the chunking function applied to
// each answer (see internal/chunk).
func NewDocuments(records kb.KnowledgeBase, split func(string) []string) []Document {
	docs := make([]Document, 0, len(records))
	for ri, rec := range records {
		for _, text := range split(rec.Answer) {
			docs = append(docs, Document{
				Ordinal:       len(docs),
				RecordOrdinal: ri,
				Text:          text,
				Question:      rec.Question,
				Category:      rec.Category,
				Subcategory:   rec.Subcategory,
				TargetGroup:   rec.TargetGroup,
			})
		}
	}
	return docs
}

// Result is a single index hit. Ordinal identifies the document within the
// generation the query ran against.
type Result struct {
	Ordinal int
	Score   float64
}

// sortResults orders hits by score descending, breaking ties by ordinal
// ascending so the first-indexed document wins. Determinism here is what
// makes ensemble ranking reproducible.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Ordinal < results[j].Ordinal
	})
}
