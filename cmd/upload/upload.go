// Package upload imports a bank export into the transaction store.
package upload

import (
	"fmt"
	"io"
	"os"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"

	"github.com/spf13/cobra"
)

type flags struct {
	bank   string
	input  string
	dryRun bool
	format string
}

// NewCommand returns the upload command.
func NewCommand(app *root.App) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Parse, classify and store a bank export",
		Long: `Parse a bank export, classify every transaction and store the batch.
The batch is stored only if the whole document parses; use --dry-run to see
the classified rows without storing them.`,
		Example: `  statements upload --bank dkb --input umsaetze.csv
  statements upload --bank amex --input statement.pdf --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, f)
		},
	}
	cmd.Flags().StringVarP(&f.bank, "bank", "b", "", "bank id (dkb, dkb-credit, revolut, amex)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input file, - for stdin")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the classified transactions without storing them")
	common.AddFormatFlag(cmd, &f.format)
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func run(cmd *cobra.Command, app *root.App, f *flags) error {
	data, err := readInput(cmd, f.input)
	if err != nil {
		return err
	}

	c := app.Container()
	logger := c.GetLogger().WithFields(
		logging.Field{Key: logging.FieldBank, Value: f.bank},
		logging.Field{Key: logging.FieldFile, Value: f.input})

	if f.dryRun {
		txs, source, err := c.GetPipeline().Prepare(cmd.Context(), f.bank, data)
		if err != nil {
			return err
		}
		logger.Info("Dry run, nothing stored", logging.Field{Key: logging.FieldCount, Value: len(txs)})
		return common.Print(cmd, struct {
			Source       string      `json:"source" yaml:"source"`
			Transactions interface{} `json:"transactions" yaml:"transactions"`
		}{source, txs}, f.format)
	}

	result, err := c.GetPipeline().Ingest(cmd.Context(), f.bank, data)
	if err != nil {
		return err
	}
	return common.Print(cmd, result, f.format)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	return data, nil
}
