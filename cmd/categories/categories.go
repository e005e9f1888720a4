// Package categories prints the category taxonomy.
package categories

import (
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/spf13/cobra"
)

// NewCommand returns the categories command.
func NewCommand(app *root.App) *cobra.Command {
	var (
		format string
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the category taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taxonomy := app.Container().GetTaxonomy()
			if kind == "" {
				return common.Print(cmd, taxonomy, format)
			}
			k, err := models.ParseCategoryKind(kind)
			if err != nil {
				return err
			}
			return common.Print(cmd, taxonomy.Groups(k), format)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "only income or expense categories")
	common.AddFormatFlag(cmd, &format)
	return cmd
}
