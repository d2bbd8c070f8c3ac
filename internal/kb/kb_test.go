package kb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faqline/faqline/internal/faqerr"
)

func TestLoadDropsIncompleteRows(t *testing.T) {
	rows := []Record{
		{Question: "How to open an account?", Answer: "Visit any branch with your ID."},
		{Question: "", Answer: "orphan answer"},
		{Question: "orphan question", Answer: ""},
		{Question: "How to close an account?", Answer: "Call support."},
	}

	base := Load(rows)

	require.Len(t, base, 2)
	assert.Equal(t, "How to open an account?", base[0].Question)
	assert.Equal(t, "How to close an account?", base[1].Question)
}

func TestApplyCorrectionUpdatesMatch(t *testing.T) {
	base := KnowledgeBase{
		{Question: "How to open an account?", Answer: "Visit any branch with your ID.", Category: "Onboarding"},
	}

	next, err := base.ApplyCorrection("How to open an account?", "Open an account online via the app.", Taxonomy{})
	require.NoError(t, err)

	require.Len(t, next, 1)
	assert.Equal(t, "Open an account online via the app.", next[0].Answer)
	// Empty taxonomy fields leave the record's values untouched.
	assert.Equal(t, "Onboarding", next[0].Category)
	// The receiver is never mutated.
	assert.Equal(t, "Visit any branch with your ID.", base[0].Answer)
}

func TestApplyCorrectionAppendsNewRecord(t *testing.T) {
	base := KnowledgeBase{
		{Question: "How to open an account?", Answer: "Visit any branch with your ID."},
	}

	next, err := base.ApplyCorrection("Totally new question?", "A new answer.", Taxonomy{Category: "X"})
	require.NoError(t, err)

	require.Len(t, next, 2)
	added := next[1]
	assert.Equal(t, "Totally new question?", added.Question)
	assert.Equal(t, "A new answer.", added.Answer)
	assert.Equal(t, "X", added.Category)
	assert.Equal(t, DefaultTargetGroup, added.TargetGroup)
}

func TestApplyCorrectionIsIdempotent(t *testing.T) {
	base := KnowledgeBase{
		{Question: "How to open an account?", Answer: "Visit any branch with your ID."},
	}

	once, err := base.ApplyCorrection("How to open an account?", "New answer.", Taxonomy{})
	require.NoError(t, err)
	twice, err := once.ApplyCorrection("How to open an account?", "New answer.", Taxonomy{})
	require.NoError(t, err)

	assert.Len(t, twice, len(once))
	assert.Equal(t, once, twice)
}

func TestApplyCorrectionExactMatchOnly(t *testing.T) {
	// Whitespace and case variants are distinct questions and append.
	base := KnowledgeBase{
		{Question: "How to open an account?", Answer: "Visit any branch."},
	}

	next, err := base.ApplyCorrection("how to open an account?", "Lowercase variant.", Taxonomy{})
	require.NoError(t, err)
	assert.Len(t, next, 2)
}

func TestApplyCorrectionTaxonomyOverrides(t *testing.T) {
	base := KnowledgeBase{
		{Question: "Q", Answer: "A", Category: "Old", Subcategory: "OldSub", TargetGroup: "students"},
	}

	next, err := base.ApplyCorrection("Q", "B", Taxonomy{Category: "New", TargetGroup: "everyone"})
	require.NoError(t, err)

	assert.Equal(t, "New", next[0].Category)
	assert.Equal(t, "OldSub", next[0].Subcategory)
	assert.Equal(t, "everyone", next[0].TargetGroup)
}

func TestApplyCorrectionValidation(t *testing.T) {
	base := KnowledgeBase{}

	tests := []struct {
		name     string
		question string
		answer   string
	}{
		{"empty question", "", "answer"},
		{"blank question", "   ", "answer"},
		{"empty answer", "question", ""},
		{"blank answer", "question", "\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := base.ApplyCorrection(tt.question, tt.answer, Taxonomy{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, faqerr.ErrValidation))
		})
	}
}
