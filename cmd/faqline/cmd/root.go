// Package cmd provides the CLI commands for faqline.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/faqline/faqline/internal/config"
	"github.com/faqline/faqline/internal/embed"
	"github.com/faqline/faqline/internal/kb"
	"github.com/faqline/faqline/internal/logging"
	"github.com/faqline/faqline/internal/reindex"
	"github.com/faqline/faqline/internal/retrieval"
	"github.com/faqline/faqline/internal/service"
	"github.com/faqline/faqline/pkg/version"
)

var (
	configPath string
	logLevel   string

	loggingCleanup func()
)

// NewRootCmd creates the root command for the faqline CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faqline",
		Short: "Hybrid-search support knowledge base with moderated corrections",
		Long: `Faqline answers support questions from a CSV knowledge base using
hybrid retrieval (BM25 + dense vectors) and keeps the base current through
moderator-approved corrections that rebuild the indexes atomically.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("faqline version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCorrectCmd())
	cmd.AddCommand(newModerateCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, cleanup, err := logging.Setup(logging.Config{Level: level, WriteToStderr: true})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app bundles the wired service for one CLI invocation.
type app struct {
	cfg         *config.Config
	store       *kb.Store
	embedder    embed.Embedder
	coordinator *reindex.Coordinator
	service     *service.RetrievalService
}

// newApp loads the corpus, builds the initial generation, and wires the
// service facade. A missing corpus file starts the service on an empty
// knowledge base.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	store := kb.NewStore(cfg.Corpus.Path)
	rows, err := store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		rows = nil
	}

	var embedder embed.Embedder = embed.NewClient(embed.ClientConfig{
		BaseURL:     cfg.Embedding.BaseURL,
		APIKey:      cfg.Embedding.APIKey,
		Model:       cfg.Embedding.Model,
		BatchSize:   cfg.Embedding.BatchSize,
		MaxParallel: cfg.Embedding.MaxParallel,
		Timeout:     cfg.Embedding.Timeout,
	})
	if cfg.Embedding.CacheSize > 0 {
		embedder = embed.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	buildCfg := reindex.DefaultConfig()
	buildCfg.Chunking.Size = cfg.Chunking.Size
	buildCfg.Chunking.Overlap = cfg.Chunking.Overlap

	coordinator := reindex.New(embedder, store, buildCfg)
	if err := coordinator.Initialize(ctx, rows); err != nil {
		coordinator.Stop()
		_ = embedder.Close()
		return nil, fmt.Errorf("build initial index: %w", err)
	}

	weights := retrieval.Weights{
		Lexical: cfg.Search.LexicalWeight,
		Vector:  cfg.Search.VectorWeight,
	}
	svc := service.New(coordinator, embedder, weights, cfg.Search.TopK)

	return &app{
		cfg:         cfg,
		store:       store,
		embedder:    embedder,
		coordinator: coordinator,
		service:     svc,
	}, nil
}

func (a *app) close() {
	a.coordinator.Stop()
	_ = a.embedder.Close()
}
