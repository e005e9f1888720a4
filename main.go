package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/batch"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/categories"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/keywords"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/summary"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/transactions"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/upload"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/config"

	"github.com/spf13/cobra"
)

func newCommand(app *root.App) *cobra.Command {
	cmd := root.NewCommand(app)
	cmd.AddCommand(
		upload.NewCommand(app),
		batch.NewCommand(app),
		transactions.NewCommand(app),
		keywords.NewCommand(app),
		categories.NewCommand(app),
		summary.NewCommand(app),
	)
	return cmd
}

func main() {
	// .env values must be in the environment before viper reads it.
	config.LoadEnv(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &root.App{}
	err := newCommand(app).ExecuteContext(ctx)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", common.Describe(err))
		os.Exit(common.ExitCode(err))
	}
}
