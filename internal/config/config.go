// Package config loads and validates service configuration.
//
// Precedence, lowest to highest: built-in defaults, a YAML config file,
// FAQLINE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete faqline configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	LogLevel  string          `yaml:"log_level"`
}

// CorpusConfig locates the knowledge-base corpus file.
type CorpusConfig struct {
	// Path is the CSV file holding the knowledge base.
	Path string `yaml:"path"`
}

// ChunkingConfig controls how answers are split before indexing.
type ChunkingConfig struct {
	// Size is the maximum chunk length in runes.
	Size int `yaml:"size"`
	// Overlap is the number of runes shared by consecutive chunks.
	Overlap int `yaml:"overlap"`
}

// SearchConfig configures hybrid retrieval.
type SearchConfig struct {
	// LexicalWeight is the ensemble weight for BM25 results.
	LexicalWeight float64 `yaml:"lexical_weight"`
	// VectorWeight is the ensemble weight for dense vector results.
	VectorWeight float64 `yaml:"vector_weight"`
	// TopK is the default number of results returned by a search.
	TopK int `yaml:"top_k"`
}

// EmbeddingConfig configures the remote embedding provider.
type EmbeddingConfig struct {
	// BaseURL is the provider endpoint, e.g. "https://llm.example.com/v1".
	BaseURL string `yaml:"base_url"`
	// APIKey authenticates requests. Usually set via FAQLINE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// BatchSize is the number of texts per provider request.
	BatchSize int `yaml:"batch_size"`
	// MaxParallel bounds concurrent provider requests during a rebuild.
	MaxParallel int `yaml:"max_parallel"`
	// Timeout bounds each provider request.
	Timeout time.Duration `yaml:"timeout"`
	// CacheSize is the query-embedding LRU cache capacity. 0 disables caching.
	CacheSize int `yaml:"cache_size"`
}

// TicketsConfig configures the moderation ticket store.
type TicketsConfig struct {
	// DBPath is the SQLite database file for moderation tickets.
	DBPath string `yaml:"db_path"`
}

// WatcherConfig configures the corpus-file watcher used by the watch command.
type WatcherConfig struct {
	// Debounce coalesces rapid successive file events.
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Path: "data/knowledge_base.csv",
		},
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 50,
		},
		Search: SearchConfig{
			LexicalWeight: 0.4,
			VectorWeight:  0.6,
			TopK:          3,
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:11434/v1",
			Model:       "bge-m3",
			BatchSize:   64,
			MaxParallel: 8,
			Timeout:     120 * time.Second,
			CacheSize:   1000,
		},
		Tickets: TicketsConfig{
			DBPath: "data/tickets.db",
		},
		Watcher: WatcherConfig{
			Debounce: 2 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from path, layered over defaults and under
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies FAQLINE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FAQLINE_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("FAQLINE_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("FAQLINE_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("FAQLINE_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("FAQLINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FAQLINE_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("FAQLINE_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.VectorWeight = f
		}
	}
	if v := os.Getenv("FAQLINE_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap)
	}
	if c.Search.LexicalWeight < 0 || c.Search.VectorWeight < 0 {
		return fmt.Errorf("search weights must be non-negative, got lexical=%v vector=%v",
			c.Search.LexicalWeight, c.Search.VectorWeight)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be >= 1, got %d", c.Search.TopK)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxParallel <= 0 {
		return fmt.Errorf("embedding.max_parallel must be positive, got %d", c.Embedding.MaxParallel)
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding.timeout must be positive, got %v", c.Embedding.Timeout)
	}
	return nil
}
