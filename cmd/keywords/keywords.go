// Package keywords manages the keyword dictionary used for classification.
package keywords

import (
	"fmt"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/spf13/cobra"
)

// NewCommand returns the keywords command and its subcommands.
func NewCommand(app *root.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage the keyword dictionary",
	}
	cmd.AddCommand(newAddCommand(app), newListCommand(app), newTestCommand(app))
	return cmd
}

func newAddCommand(app *root.App) *cobra.Command {
	var rule models.KeywordRule
	cmd := &cobra.Command{
		Use:   "add <keyword>",
		Short: "Add or replace a keyword and save the dictionary",
		Long: `Add a keyword to the dictionary and save it. A keyword that already
exists keeps its position and gets the new category. New keywords are
checked after all existing ones.`,
		Example: `  statements keywords add netflix --id 30 --category Freizeit --subcategory Streaming`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Keyword = args[0]
			c := app.Container()
			if ref, ok := c.GetTaxonomy().Lookup(rule.ID); ok {
				if rule.Category == "" {
					rule.Category = ref.Group
				}
				if rule.Subcategory == "" {
					rule.Subcategory = ref.Name
				}
			} else {
				c.GetLogger().Warn("Category id not found in taxonomy",
					logging.Field{Key: logging.FieldCategory, Value: rule.ID})
			}
			if err := c.GetKeywords().Add(rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "keyword %q mapped to category %s\n", rule.Keyword, rule.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&rule.ID, "id", "", "category id")
	cmd.Flags().StringVar(&rule.Category, "category", "", "category group name (default from taxonomy)")
	cmd.Flags().StringVar(&rule.Subcategory, "subcategory", "", "subcategory name (default from taxonomy)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newListCommand(app *root.App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keywords in matching order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Print(cmd, app.Container().GetKeywords().Rules(), format)
		},
	}
	common.AddFormatFlag(cmd, &format)
	return cmd
}

func newTestCommand(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "test <text>",
		Short: "Show which keyword a text would be classified by",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, ok := app.Container().GetClassifier().Match(args[0])
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no keyword matches")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s / %s)\n", rule.Keyword, rule.ID, rule.Category, rule.Subcategory)
			return nil
		},
	}
}
