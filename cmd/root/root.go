// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/config"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/container"

	"github.com/spf13/cobra"
)

// App carries the state shared by all commands. The container is built
// lazily in the root command's pre-run hook.
type App struct {
	// ConfigFile is set by the --config flag.
	ConfigFile string
	// Config, when set, is used instead of loading configuration from disk.
	Config *config.Config
	// Options are passed on to the container.
	Options []container.Option

	logLevel  string
	dataDir   string
	container *container.Container
}

// NewCommand builds the root command. Subcommands are added by the caller.
func NewCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Import, classify and summarize bank statements",
		Long: `statements imports bank exports (DKB giro and credit card, Revolut, Amex PDF),
classifies every transaction against an ordered keyword dictionary and keeps
them in a local SQLite database for review and spending summaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "config file (default is $HOME/.statements/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&app.dataDir, "data-dir", "", "override the configured data directory")
	return cmd
}

// Init loads the configuration and wires the container. Calling it again
// is a no-op.
func (a *App) Init(ctx context.Context) error {
	if a.container != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := a.Config
	if cfg == nil {
		loaded, err := config.InitializeConfigFromFile(a.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.dataDir != "" {
		cfg.Data.Directory = a.dataDir
	}

	c, err := container.NewContainer(ctx, cfg, a.Options...)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	a.Config = cfg
	a.container = c
	return nil
}

// Container returns the wired dependencies. It panics before Init.
func (a *App) Container() *container.Container {
	if a.container == nil {
		panic("root: container used before initialization")
	}
	return a.container
}

// Close releases the container, if one was built.
func (a *App) Close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}
