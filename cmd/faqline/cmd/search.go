package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK   int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long: `Search the knowledge base using hybrid retrieval.

Combines BM25 (keyword) and dense vector search with weighted score
fusion. If the embedding provider is unreachable the search degrades
to keyword-only results.

Examples:
  faqline search "how do I open an account"
  faqline search "reset password" --top-k 5
  faqline search "card blocked" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.service.Search(ctx, query, opts.topK)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Draft)
	if len(resp.Alternatives) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Alternatives:")
		for i, alt := range resp.Alternatives {
			fmt.Fprintf(out, "  %d. %s\n", i+1, alt)
		}
	}
	if len(resp.Results) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Matched records:")
		for _, r := range resp.Results {
			fmt.Fprintf(out, "  - %s", r.Question)
			if r.Category != "" {
				fmt.Fprintf(out, " [%s", r.Category)
				if r.Subcategory != "" {
					fmt.Fprintf(out, "/%s", r.Subcategory)
				}
				fmt.Fprint(out, "]")
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
