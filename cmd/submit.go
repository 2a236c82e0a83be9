package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/dedup"
	"github.com/tonasket-wiki/directory-cli/internal/directory"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

var (
	submitInput directory.Input
	submitFile  string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a business for review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if submitFile == "" && (submitInput.Name == "" || submitInput.Address == "") {
			return eris.New("either --file or both --name and --address are required")
		}

		in := submitInput
		if submitFile != "" {
			data, err := os.ReadFile(submitFile)
			if err != nil {
				return eris.Wrap(err, "read submission file")
			}
			if err := json.Unmarshal(data, &in); err != nil {
				return eris.Wrap(err, "parse submission file")
			}
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sub, err := env.Service.Submit(ctx, in)
		if err != nil {
			var verr *normalize.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("submission invalid: %w", verr)
			}
			var derr *dedup.DuplicateError
			if errors.As(err, &derr) {
				return fmt.Errorf("submission rejected: %w", derr)
			}
			return err
		}

		zap.L().Info("submitted",
			zap.String("submission", sub.ID),
			zap.String("business", sub.Business.ID),
			zap.String("status", string(sub.Status)),
		)
		fmt.Printf("submission %s pending review (business %s)\n", sub.ID, sub.Business.ID)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitFile, "file", "", "JSON file with the submission (overrides field flags)")
	submitCmd.Flags().StringVar(&submitInput.Name, "name", "", "business name (required unless --file)")
	submitCmd.Flags().StringVar(&submitInput.Address, "address", "", "street address (required unless --file)")
	submitCmd.Flags().StringVar(&submitInput.Phone, "phone", "", "phone number")
	submitCmd.Flags().StringVar(&submitInput.Email, "email", "", "contact email")
	submitCmd.Flags().StringVar(&submitInput.Website, "website", "", "website URL")
	submitCmd.Flags().StringVar(&submitInput.Category, "category", "", "directory category")
	submitCmd.Flags().StringVar(&submitInput.Description, "description", "", "short description")
	rootCmd.AddCommand(submitCmd)
}
