package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
	"github.com/tonasket-wiki/directory-cli/internal/store"
)

var reviewStatus string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List and act on pending submissions",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions by status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		filter := store.SubmissionFilter{}
		if reviewStatus != "" {
			filter.Status = model.SubmissionStatus(reviewStatus)
		}

		subs, err := env.Service.ListSubmissions(ctx, filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBMISSION\tSTATUS\tBUSINESS\tNAME\tPHONE\tSUBMITTED")
		for _, s := range subs {
			phone := ""
			if s.Business.Phone != "" {
				phone = normalize.FormatPhone(s.Business.Phone)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.Status, s.Business.ID, s.Business.Name, phone,
				s.SubmittedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <submission-id>",
	Short: "Approve a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.Service.Approve(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("approved: business %s (%s)\n", b.ID, b.Name)
		return nil
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <submission-id>",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.Reject(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("rejected:", args[0])
		return nil
	},
}

var reviewNeedsInfoCmd = &cobra.Command{
	Use:   "needs-info <submission-id>",
	Short: "Ask the submitter for more information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.RequestInfo(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("marked needs-info:", args[0])
		return nil
	},
}

var reviewResubmitCmd = &cobra.Command{
	Use:   "resubmit <submission-id>",
	Short: "Return a needs-info submission to the review queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sub, err := env.Service.Resubmit(ctx, args[0], nil)
		if err != nil {
			return err
		}
		fmt.Printf("resubmitted: %s (status %s)\n", sub.ID, sub.Status)
		return nil
	},
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewStatus, "status", "pending", "filter by status (pending, approved, rejected, needs_info; empty for all)")

	reviewCmd.AddCommand(reviewListCmd, reviewApproveCmd, reviewRejectCmd, reviewNeedsInfoCmd, reviewResubmitCmd)
	rootCmd.AddCommand(reviewCmd)
}
