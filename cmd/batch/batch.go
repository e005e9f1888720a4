// Package batch imports all statement files of a directory.
package batch

import (
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"

	"github.com/spf13/cobra"
)

// NewCommand returns the batch command.
func NewCommand(app *root.App) *cobra.Command {
	var (
		bank, dir, format string
		dryRun            bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Import every export of one bank found in a directory",
		Long: `Import every export of one bank found below a directory. Each file is
stored as its own upload; files that fail to parse are reported and skipped.
Bookings that appear in more than one file are reported as potential
duplicates but still stored.`,
		Example: `  statements batch --bank dkb --dir ~/Downloads/dkb`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.Container().GetImporter().ImportDir(cmd.Context(), dir, bank, dryRun)
			if err != nil {
				return err
			}
			return common.Print(cmd, summary, format)
		},
	}
	cmd.Flags().StringVarP(&bank, "bank", "b", "", "bank id (dkb, dkb-credit, revolut, amex)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory to import")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without storing")
	common.AddFormatFlag(cmd, &format)
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
