package keywords_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/keywords"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root/roottest"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(app *roottest.App, args ...string) (string, error) {
	return roottest.Execute(app, keywords.NewCommand, "", append([]string{"keywords"}, args...)...)
}

func TestList(t *testing.T) {
	app := roottest.NewApp(t)

	out, err := run(app, "list")
	require.NoError(t, err)

	var rules []models.KeywordRule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"gehalt", "rewe", "netflix"}, []string{rules[0].Keyword, rules[1].Keyword, rules[2].Keyword})
	assert.Equal(t, "11", rules[1].ID)
}

func TestAdd_FillsNamesFromTaxonomy(t *testing.T) {
	app := roottest.NewApp(t)

	out, err := run(app, "add", "Spotify", "--id", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `keyword "Spotify" mapped to category 30`)

	rules := app.Container().GetKeywords().Rules()
	require.Len(t, rules, 4)
	assert.Equal(t, models.KeywordRule{Keyword: "Spotify", Category: "Freizeit", Subcategory: "Streaming", ID: "30"}, rules[3])

	data, err := os.ReadFile(app.Config.KeywordsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Spotify"`)

	out, err = run(app, "test", "SPOTIFY P0123")
	require.NoError(t, err)
	assert.Equal(t, "Spotify -> 30 (Freizeit / Streaming)\n", out)
}

func TestAdd_ReplacesInPlace(t *testing.T) {
	app := roottest.NewApp(t)

	_, err := run(app, "add", "rewe", "--id", "30", "--category", "Freizeit", "--subcategory", "Streaming")
	require.NoError(t, err)

	rules := app.Container().GetKeywords().Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "rewe", rules[1].Keyword)
	assert.Equal(t, "30", rules[1].ID)
}

func TestAdd_UnknownCategoryWarns(t *testing.T) {
	app := roottest.NewApp(t)

	_, err := run(app, "add", "kiosk", "--id", "77")
	require.NoError(t, err)
	assert.True(t, app.Logger.HasEntry("WARN", "Category id not found in taxonomy"))
}

func TestAdd_RequiresID(t *testing.T) {
	app := roottest.NewApp(t)

	_, err := run(app, "add", "kiosk")
	assert.Error(t, err)
}

func TestTest_OrderDecides(t *testing.T) {
	app := roottest.NewApp(t)

	out, err := run(app, "test", "Gehalt via REWE")
	require.NoError(t, err)
	assert.Equal(t, "gehalt -> 1 (Arbeit / Gehalt)\n", out)

	out, err = run(app, "test", "Kiosk")
	require.NoError(t, err)
	assert.Equal(t, "no keyword matches\n", out)
}
