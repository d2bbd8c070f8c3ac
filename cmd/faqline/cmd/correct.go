package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faqline/faqline/internal/kb"
)

// correctOptions holds CLI flags for correct.
type correctOptions struct {
	category    string
	subcategory string
	targetGroup string
}

func newCorrectCmd() *cobra.Command {
	var opts correctOptions

	cmd := &cobra.Command{
		Use:   "correct <question> <answer>",
		Short: "Apply an approved correction and rebuild the indexes",
		Long: `Apply a moderator-approved correction to the knowledge base.

If a record with exactly the given question exists its answer is
updated, otherwise a new record is appended. Both indexes are rebuilt
and published atomically before the command returns.

Examples:
  faqline correct "How to open an account?" "Open an account online via the app."
  faqline correct "New question?" "A new answer." --category Onboarding`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Category for a new record")
	cmd.Flags().StringVar(&opts.subcategory, "subcategory", "", "Subcategory for a new record")
	cmd.Flags().StringVar(&opts.targetGroup, "target-group", "", "Target group for a new record")

	return cmd
}

func runCorrect(cmd *cobra.Command, question, answer string, opts correctOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	warn, err := a.service.ApplyCorrection(ctx, question, answer, kb.Taxonomy{
		Category:    opts.category,
		Subcategory: opts.subcategory,
		TargetGroup: opts.targetGroup,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Correction applied and indexes rebuilt.")
	if warn != nil {
		fmt.Fprintf(out, "Warning: corpus file not updated: %v\n", warn)
	}
	return nil
}
