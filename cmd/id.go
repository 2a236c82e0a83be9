package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonasket-wiki/directory-cli/internal/identity"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

var (
	idName    string
	idAddress string
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Predict the identity key for a name and address",
	Long:  "Derives the deterministic business id from the comparison forms of name and address. No store access, nothing is persisted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := normalize.Name(idName); err != nil {
			return err
		}
		fmt.Println(identity.GenerateID(normalize.NameKey(idName), normalize.AddressKey(idAddress)))
		return nil
	},
}

func init() {
	idCmd.Flags().StringVar(&idName, "name", "", "business name (required)")
	idCmd.Flags().StringVar(&idAddress, "address", "", "street address (required)")
	_ = idCmd.MarkFlagRequired("name")
	_ = idCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(idCmd)
}
