package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faqline/faqline/internal/config"
	"github.com/faqline/faqline/internal/kb"
	"github.com/faqline/faqline/internal/tickets"
)

func newModerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderate",
		Short: "Manage the correction ticket queue",
		Long: `Manage suggested corrections awaiting moderation.

Suggestions are filed as pending tickets. Approving a ticket applies
its correction to the knowledge base and rebuilds the indexes;
rejecting it only marks the ticket as rejected.`,
	}

	cmd.AddCommand(newModerateSuggestCmd())
	cmd.AddCommand(newModerateListCmd())
	cmd.AddCommand(newModerateApproveCmd())
	cmd.AddCommand(newModerateRejectCmd())
	cmd.AddCommand(newModerateStatsCmd())

	return cmd
}

// openTickets opens the ticket store from config.
func openTickets() (*tickets.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return tickets.Open(cfg.Tickets.DBPath)
}

func newModerateSuggestCmd() *cobra.Command {
	var note string
	var suggestedBy string

	cmd := &cobra.Command{
		Use:   "suggest <question> <answer>",
		Short: "File a suggested correction as a pending ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTickets()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			t, err := store.Submit(cmd.Context(), args[0], "", args[1], note, suggestedBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket filed: %s\n", t.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note for the moderator")
	cmd.Flags().StringVar(&suggestedBy, "by", "", "Who suggests the correction")

	return cmd
}

func newModerateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending tickets, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openTickets()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pending, err := store.Pending(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "No pending tickets.")
				return nil
			}
			for _, t := range pending {
				fmt.Fprintf(out, "%s  %s\n", t.Token, t.CreatedAt.Format("2006-01-02 15:04"))
				fmt.Fprintf(out, "  Q: %s\n", t.Question)
				fmt.Fprintf(out, "  A: %s\n", t.EditedAnswer)
				if t.Note != "" {
					fmt.Fprintf(out, "  Note: %s\n", t.Note)
				}
			}
			return nil
		},
	}
}

func newModerateApproveCmd() *cobra.Command {
	var opts correctOptions

	cmd := &cobra.Command{
		Use:   "approve <token>",
		Short: "Approve a ticket and apply its correction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openTickets()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			t, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			warn, err := a.service.ApplyCorrection(ctx, t.Question, t.EditedAnswer, kb.Taxonomy{
				Category:    opts.category,
				Subcategory: opts.subcategory,
				TargetGroup: opts.targetGroup,
			})
			if err != nil {
				return err
			}

			// Flip the ticket only after the correction is live.
			if _, err := store.Resolve(ctx, t.Token, tickets.StatusApproved); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ticket %s approved; correction applied.\n", t.Token)
			if warn != nil {
				fmt.Fprintf(out, "Warning: corpus file not updated: %v\n", warn)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Category for a new record")
	cmd.Flags().StringVar(&opts.subcategory, "subcategory", "", "Subcategory for a new record")
	cmd.Flags().StringVar(&opts.targetGroup, "target-group", "", "Target group for a new record")

	return cmd
}

func newModerateRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <token>",
		Short: "Reject a ticket without touching the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTickets()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			t, err := store.Resolve(cmd.Context(), args[0], tickets.StatusRejected)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s rejected.\n", t.Token)
			return nil
		},
	}
}

func newModerateStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ticket counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openTickets()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending: %d\napproved: %d\nrejected: %d\n",
				st.Pending, st.Approved, st.Rejected)
			return nil
		},
	}
}
