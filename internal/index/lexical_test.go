package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLexical(t *testing.T, texts []string) *LexicalIndex {
	t.Helper()
	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = Document{Ordinal: i, RecordOrdinal: i, Text: text}
	}
	idx, err := BuildLexicalIndex(docs, DefaultLexicalConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestLexicalQueryRanksMatches(t *testing.T) {
	idx := buildLexical(t, []string{
		"Visit any branch with your ID to open an account.",
		"Transfers are free between own accounts.",
		"To open an account online use the mobile app, open it and register an account.",
	})

	results, err := idx.Query(context.Background(), "open account", 3)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	// Only documents mentioning the query terms appear.
	for _, r := range results {
		assert.NotEqual(t, 1, r.Ordinal)
	}
}

func TestLexicalQueryCaseInsensitive(t *testing.T) {
	idx := buildLexical(t, []string{"Blocked CARD replacement takes five days."})

	results, err := idx.Query(context.Background(), "blocked card", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Ordinal)
}

func TestLexicalQueryHonorsK(t *testing.T) {
	idx := buildLexical(t, []string{
		"password reset step one",
		"password reset step two",
		"password reset step three",
		"password reset step four",
	})

	results, err := idx.Query(context.Background(), "password reset", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestLexicalQueryEmptyCases(t *testing.T) {
	idx := buildLexical(t, []string{"some content"})

	empty, err := idx.Query(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	zero, err := idx.Query(context.Background(), "content", 0)
	require.NoError(t, err)
	assert.Empty(t, zero)

	miss, err := idx.Query(context.Background(), "zzzunknowntermzzz", 5)
	require.NoError(t, err)
	assert.Empty(t, miss)
}

func TestLexicalEmptyIndex(t *testing.T) {
	idx, err := BuildLexicalIndex(nil, DefaultLexicalConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	assert.Equal(t, 0, idx.Count())
	results, err := idx.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
