// Package transactions holds the commands that review and correct stored
// transactions.
package transactions

import (
	"fmt"
	"os"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	internalcommon "github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/storage"

	"github.com/spf13/cobra"
)

// NewCommand returns the transactions command and its subcommands.
func NewCommand(app *root.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List, classify and clean up stored transactions",
	}
	cmd.AddCommand(
		newListCommand(app),
		newUnclassifiedCommand(app),
		newClassifyCommand(app),
		newDeleteCommand(app),
		newDeleteManyCommand(app),
		newMarkProcessedCommand(app),
		newExportCommand(app),
	)
	return cmd
}

type filterFlags struct {
	year       string
	month      string
	classified string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.year, "year", "", "booking year (YYYY)")
	cmd.Flags().StringVar(&f.month, "month", "", "booking month (M or MM)")
	cmd.Flags().StringVar(&f.classified, "classified", "all", "all, classified or unclassified")
}

func (f *filterFlags) filter() (storage.Filter, error) {
	classified, err := storage.ParseClassifiedFilter(f.classified)
	if err != nil {
		return storage.Filter{}, err
	}
	return storage.Filter{Year: f.year, Month: f.month, Classified: classified}, nil
}

func newListCommand(app *root.App) *cobra.Command {
	var (
		filters filterFlags
		format  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			txs, err := app.Container().GetStorage().ListTransactions(cmd.Context(), f)
			if err != nil {
				return err
			}
			return common.Print(cmd, txs, format)
		},
	}
	filters.register(cmd)
	common.AddFormatFlag(cmd, &format)
	return cmd
}

func newUnclassifiedCommand(app *root.App) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "unclassified",
		Short: "List transactions that have no category yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := app.Container().GetStorage().ListUnclassified(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return common.Print(cmd, txs, format)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultUnclassifiedLimit, "maximum number of rows")
	common.AddFormatFlag(cmd, &format)
	return cmd
}

func newClassifyCommand(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <id> <purpose|payee|counterparty> <category-id>",
		Short: "Set the category of one field of a transaction",
		Long: `Set the category of one field of a transaction. The final category
computed at import is not changed; summaries use the per-field categories.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := common.ParseID(args[0])
			if err != nil {
				return err
			}
			field, err := models.ParseCategoryField(args[1])
			if err != nil {
				return err
			}

			c := app.Container()
			if _, ok := c.GetTaxonomy().Lookup(args[2]); !ok {
				c.GetLogger().Warn("Category id not found in taxonomy",
					logging.Field{Key: logging.FieldCategory, Value: args[2]})
			}
			if err := c.GetStorage().SetCategory(cmd.Context(), id, field, args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d: %s category set to %s\n", id, field, args[2])
			return nil
		},
	}
}

func newDeleteCommand(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := common.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := app.Container().GetStorage().DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted transaction %d\n", id)
			return nil
		},
	}
}

func newDeleteManyCommand(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-many <id>...",
		Short: "Delete several transactions; ids that are not numbers are ignored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := common.ParseIDs(args)
			if err != nil {
				return err
			}
			n, err := app.Container().GetStorage().DeleteTransactions(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d transactions\n", n)
			return nil
		},
	}
}

func newMarkProcessedCommand(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-processed <id>...",
		Short: "Flag transactions as processed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := common.ParseIDs(args)
			if err != nil {
				return err
			}
			n, err := app.Container().GetStorage().MarkProcessed(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d transactions as processed\n", n)
			return nil
		},
	}
}

func newExportCommand(app *root.App) *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			c := app.Container()
			txs, err := c.GetStorage().ListTransactions(cmd.Context(), f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("error creating output file: %w", err)
				}
				defer func() {
					if cerr := file.Close(); err == nil {
						err = cerr
					}
				}()
				w = file
			}
			if err := internalcommon.WriteTransactionsCSV(w, txs, c.GetConfig().CSVDelimiter()); err != nil {
				return err
			}
			c.GetLogger().Info("Exported transactions",
				logging.Field{Key: logging.FieldCount, Value: len(txs)},
				logging.Field{Key: logging.FieldFile, Value: output})
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
