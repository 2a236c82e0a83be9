package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

var (
	snapshotZip        string
	snapshotLimit      int
	snapshotActiveOnly bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the cached enrichment snapshot for a postal code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zip := snapshotZip
		if zip == "" {
			zip = cfg.Enrich.DefaultZip
		}
		limit := snapshotLimit
		if limit <= 0 {
			limit = cfg.Enrich.DefaultLimit
		}

		snap, err := env.Store.GetSnapshot(ctx, model.SnapshotKey(zip, limit, snapshotActiveOnly))
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no snapshot for zip %s (run enrich first)", zip)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotZip, "zip", "", "postal code (default from config)")
	snapshotCmd.Flags().IntVar(&snapshotLimit, "limit", 0, "limit the snapshot was taken with (default from config)")
	snapshotCmd.Flags().BoolVar(&snapshotActiveOnly, "active-only", false, "active-only snapshot variant")
	rootCmd.AddCommand(snapshotCmd)
}
