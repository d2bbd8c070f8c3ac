package index

import (
	"github.com/faqline/faqline/internal/kb"
)

// Generation is one complete, immutable bundle of the knowledge base and the
// indexes derived from it. A search operates on exactly one generation for
// its whole duration; rebuilds produce a new generation and publish it
// atomically, so readers never see documents from one generation paired with
// an index from another.
type Generation struct {
	// Seq is the generation number, starting at 0 for the initial build.
	Seq uint64
	// Records is the knowledge-base snapshot this generation was built from.
	Records kb.KnowledgeBase
	// Docs are the chunked documents, ordered; a Result's Ordinal indexes
	// into this slice.
	Docs []Document
	// Lexical is the BM25 index over Docs.
	Lexical *LexicalIndex
	// Vector is the dense similarity index over Docs.
	Vector *VectorIndex
}

// Doc returns the document for a result ordinal.
func (g *Generation) Doc(ordinal int) Document {
	return g.Docs[ordinal]
}

// Close releases index resources. Called only after a generation has been
// unpublished and no in-flight search can hold it.
func (g *Generation) Close() error {
	if g.Lexical != nil {
		return g.Lexical.Close()
	}
	return nil
}
