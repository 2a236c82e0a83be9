package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/enrich"
)

var (
	enrichZip        string
	enrichLimit      int
	enrichActiveOnly bool
	enrichSource     string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Refresh license enrichment for a postal code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if enrichSource != "" {
			cfg.Enrich.Source = enrichSource
		}
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zip := enrichZip
		if zip == "" {
			zip = cfg.Enrich.DefaultZip
		}
		limit := enrichLimit
		if limit <= 0 {
			limit = cfg.Enrich.DefaultLimit
		}

		snap, err := env.Refresher.Refresh(ctx, enrich.Params{
			Zip:        zip,
			Limit:      limit,
			ActiveOnly: enrichActiveOnly,
		})
		if err != nil {
			return err
		}

		zap.L().Info("refresh finished",
			zap.String("source", env.Refresher.Source()),
			zap.Int("businesses", len(snap.Businesses)),
			zap.Int("enriched", snap.Enriched),
			zap.Int("failed", snap.Failed),
		)
		fmt.Printf("enriched %d of %d businesses (%d failed)\n",
			snap.Enriched, len(snap.Businesses), snap.Failed)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichZip, "zip", "", "postal code (default from config)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max businesses to enrich (default from config)")
	enrichCmd.Flags().BoolVar(&enrichActiveOnly, "active-only", false, "only match active licenses")
	enrichCmd.Flags().StringVar(&enrichSource, "source", "", "enrichment source adapter (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
