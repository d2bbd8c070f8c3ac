package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faqline/faqline/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the index hot and reload on external corpus edits",
		Long: `Build the index and keep running. When another process rewrites the
corpus file, the knowledge base is reloaded and the indexes are rebuilt
and published atomically. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := watcher.New(a.cfg.Corpus.Path, a.cfg.Watcher.Debounce, func(ctx context.Context) error {
				rows, err := a.store.Load()
				if err != nil {
					return err
				}
				return a.coordinator.Reload(ctx, rows)
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes.\n", a.cfg.Corpus.Path)
			<-ctx.Done()
			return nil
		},
	}
}
