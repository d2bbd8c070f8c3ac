package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("short answer", Config{Size: 500, Overlap: 50})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short answer", chunks[0])
}

func TestSplitEmptyTextNeverEmptyResult(t *testing.T) {
	chunks := Split("", DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestSplitBoundsAndOverlap(t *testing.T) {
	text := strings.Repeat("a", 23)
	cfg := Config{Size: 10, Overlap: 3}

	chunks := Split(text, cfg)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), cfg.Size)
	}
	// Consecutive chunks share exactly the overlap.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		want := prev[len(prev)-cfg.Overlap:]
		assert.Equal(t, string(want), string(cur[:cfg.Overlap]))
	}
}

func TestSplitCoversAllText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, repeatedly and at length."
	cfg := Config{Size: 16, Overlap: 4}

	chunks := Split(text, cfg)

	// Reassemble by stripping each chunk's leading overlap.
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		sb.WriteString(string(runes[cfg.Overlap:]))
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("deterministic boundaries ", 40)
	cfg := Config{Size: 64, Overlap: 16}

	first := Split(text, cfg)
	second := Split(text, cfg)

	assert.Equal(t, first, second)
}

func TestSplitMeasuresRunesNotBytes(t *testing.T) {
	// Multi-byte runes must not be cut mid-character.
	text := strings.Repeat("ü", 25)
	chunks := Split(text, Config{Size: 10, Overlap: 2})

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 10)
		assert.True(t, strings.HasPrefix(text, string([]rune(c)[:1])))
	}
}

func TestSplitInvalidConfigFallsBack(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero size", Config{Size: 0, Overlap: 0}},
		{"negative size", Config{Size: -5, Overlap: 0}},
		{"overlap >= size", Config{Size: 10, Overlap: 10}},
		{"negative overlap", Config{Size: 10, Overlap: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split("some text that is not very long", tt.cfg)
			require.NotEmpty(t, chunks)
		})
	}
}
