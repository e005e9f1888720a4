// Package summary prints spending reports over classified transactions.
package summary

import (
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/report"

	"github.com/spf13/cobra"
)

// NewCommand returns the summary command and its subcommands.
func NewCommand(app *root.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize classified transactions",
	}
	cmd.AddCommand(newSpendingsCommand(app), newMonthlyCommand(app), newDetailCommand(app))
	return cmd
}

func newSpendingsCommand(app *root.App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "spendings",
		Short: "Totals and entries per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Container().GetReports().Summary(cmd.Context())
			if err != nil {
				return err
			}
			return common.Print(cmd, s, format)
		},
	}
	common.AddFormatFlag(cmd, &format)
	return cmd
}

func newMonthlyCommand(app *root.App) *cobra.Command {
	var format, typ string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Monthly totals per subcategory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Container().GetReports().Monthly(cmd.Context(), report.ParseMonthlyType(typ))
			if err != nil {
				return err
			}
			return common.Print(cmd, s, format)
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(report.MonthlyAll), "all, expenses or incomes")
	common.AddFormatFlag(cmd, &format)
	return cmd
}

func newDetailCommand(app *root.App) *cobra.Command {
	var format, typ, category, ym string
	cmd := &cobra.Command{
		Use:     "detail",
		Short:   "Transactions of one subcategory in one month",
		Example: `  statements summary detail --category Lebensmittel --ym 2025-09`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Container().GetReports().ByMonthCategory(cmd.Context(), typ, category, ym)
			if err != nil {
				return err
			}
			return common.Print(cmd, d, format)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "expenses", "expenses or incomes")
	cmd.Flags().StringVar(&category, "category", "", "subcategory name")
	cmd.Flags().StringVar(&ym, "ym", "", "year and month (YYYY-MM)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("ym")
	common.AddFormatFlag(cmd, &format)
	return cmd
}
