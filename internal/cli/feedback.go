package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/llm"
)

var feedbackReason string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <grant-id>",
	Short: "Flag a stored grant as wrong and remove it",
	Long: `Feedback removes a mis-extracted grant from the store and records the
complaint as a note alongside the extraction policy. Accumulated notes
inform future policy revisions; the active policy itself is never
changed automatically.

Example:
  grantscout feedback grant_1a2b3c4d5e6f7081 --reason "not a grant, this is a tax ruling"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringVar(&feedbackReason, "reason", "", "what was wrong with the record")
	_ = feedbackCmd.MarkFlagRequired("reason")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	grantID := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, cfg, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteGrant(ctx, grantID); err != nil {
		return fmt.Errorf("remove grant: %w", err)
	}

	policy := llm.NewPolicyStore(cfg.Extract.PolicyDir)
	if err := policy.AppendFeedback(grantID, feedbackReason); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}

	fmt.Printf("Removed %s and recorded feedback\n", grantID)
	return nil
}
