package categories_test

import (
	"encoding/json"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/categories"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root/roottest"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	app := roottest.NewApp(t)

	out, err := roottest.Execute(app, categories.NewCommand, "", "categories")
	require.NoError(t, err)

	var taxonomy models.Taxonomy
	require.NoError(t, json.Unmarshal([]byte(out), &taxonomy))
	require.Len(t, taxonomy.Income, 1)
	assert.Equal(t, "Arbeit", taxonomy.Income[0].Name)
	require.Len(t, taxonomy.Expense, 2)
	assert.Equal(t, "Lebensmittel", taxonomy.Expense[0].Name)
	assert.Equal(t, models.Subcategory{ID: "30", Name: "Streaming"}, taxonomy.Expense[1].Subcategories[0])
}

func TestCategories_ByType(t *testing.T) {
	app := roottest.NewApp(t)

	out, err := roottest.Execute(app, categories.NewCommand, "", "categories", "--type", "income", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Arbeit")
	assert.NotContains(t, out, "Lebensmittel")

	_, err = roottest.Execute(app, categories.NewCommand, "", "categories", "--type", "savings")
	assert.Error(t, err)
}
