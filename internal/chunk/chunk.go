// Package chunk splits answer text into bounded, overlapping windows for
// indexing granularity. Splitting is deterministic: identical input and
// configuration always produce identical boundaries.
package chunk

// Config controls chunk boundaries.
type Config struct {
	// Size is the maximum chunk length in runes.
	Size int
	// Overlap is the number of runes shared between consecutive chunks.
	// Must be smaller than Size.
	Overlap int
}

// DefaultConfig matches the corpus ingestion defaults.
func DefaultConfig() Config {
	return Config{Size: 500, Overlap: 50}
}

// Split cuts text into chunks of at most cfg.Size runes, with consecutive
// chunks overlapping by cfg.Overlap runes. The result is never empty: text
// shorter than one window yields a single chunk containing the whole text.
func Split(text string, cfg Config) []string {
	if cfg.Size <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		cfg.Overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= cfg.Size {
		return []string{text}
	}

	step := cfg.Size - cfg.Overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
