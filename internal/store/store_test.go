package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keywordsJSON = `{
  "REWE": {"category": "Lebensmittel", "subcategory": "Supermarkt", "id": 11},
  "Amazon": {"category": "Einkaufen", "subcategory": "Online", "id": "12"},
  "Miete <Wohnung>": {"category": "Wohnen", "subcategory": "Miete", "id": "40"}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestKeywordFile_LoadJSONKeepsOrder(t *testing.T) {
	path := writeFile(t, "keywords.json", keywordsJSON)
	rules, err := NewKeywordFile(path, logging.NewMockLogger()).LoadKeywords()
	require.NoError(t, err)

	require.Len(t, rules, 3)
	assert.Equal(t, models.KeywordRule{Keyword: "REWE", Category: "Lebensmittel", Subcategory: "Supermarkt", ID: "11"}, rules[0])
	assert.Equal(t, "Amazon", rules[1].Keyword)
	assert.Equal(t, "12", rules[1].ID)
	assert.Equal(t, "Miete <Wohnung>", rules[2].Keyword)
}

func TestKeywordFile_MissingAndEmpty(t *testing.T) {
	logger := logging.NewMockLogger()
	rules, err := NewKeywordFile(filepath.Join(t.TempDir(), "none.json"), logger).LoadKeywords()
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.True(t, logger.HasEntry("WARN", "Keyword file not found, starting empty"))

	rules, err = NewKeywordFile(writeFile(t, "empty.json", "  \n"), logger).LoadKeywords()
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestKeywordFile_Invalid(t *testing.T) {
	_, err := NewKeywordFile(writeFile(t, "bad.json", `["a", "b"]`), nil).LoadKeywords()
	assert.Error(t, err)

	_, err = NewKeywordFile(writeFile(t, "bad2.json", `{"a": {"id": [1]}}`), nil).LoadKeywords()
	assert.Error(t, err)
}

func TestKeywordFile_SaveRoundTripJSON(t *testing.T) {
	path := writeFile(t, "keywords.json", keywordsJSON)
	kf := NewKeywordFile(path, nil)
	rules, err := kf.LoadKeywords()
	require.NoError(t, err)

	rules = append(rules, models.KeywordRule{Keyword: "Bäckerei \"Korn\"", Category: "Lebensmittel", Subcategory: "Bäcker", ID: "13"})
	require.NoError(t, kf.SaveKeywords(rules))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Miete <Wohnung>": {`)
	assert.Contains(t, string(raw), `"subcategory": "Bäcker"`)

	reloaded, err := kf.LoadKeywords()
	require.NoError(t, err)
	assert.Equal(t, rules, reloaded)
}

func TestKeywordFile_SaveRoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keywords.yaml")
	kf := NewKeywordFile(path, nil)
	assert.Equal(t, FormatYAML, kf.Format)

	rules := []models.KeywordRule{
		{Keyword: "zeta", Category: "Z", Subcategory: "z", ID: "2"},
		{Keyword: "alpha", Category: "A", Subcategory: "a", ID: "1"},
		{Keyword: "yes", Category: "B", Subcategory: "b", ID: "007"},
	}
	require.NoError(t, kf.SaveKeywords(rules))

	reloaded, err := kf.LoadKeywords()
	require.NoError(t, err)
	assert.Equal(t, rules, reloaded)
}

func TestKeywordFile_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.json")
	kf := NewKeywordFile(path, nil)
	require.NoError(t, kf.SaveKeywords(nil))
	rules, err := kf.LoadKeywords()
	require.NoError(t, err)
	assert.Empty(t, rules)
}

const categoriesJSON = `{
  "EINKOMMEN": {
    "Arbeit": [{"id": 1, "name": "Gehalt"}, {"id": 2, "name": "Bonus"}]
  },
  "AUSGABEN": {
    "Wohnen": [{"id": 40, "name": "Miete"}, {"id": 41, "name": "Strom"}],
    "Lebensmittel": [{"id": 11, "name": "Supermarkt"}]
  },
  "META": {"version": 2}
}`

func TestLoadTaxonomy(t *testing.T) {
	tax, err := LoadTaxonomy(writeFile(t, "categories.json", categoriesJSON), logging.NewMockLogger())
	require.NoError(t, err)

	require.Len(t, tax.Income, 1)
	assert.Equal(t, "Arbeit", tax.Income[0].Name)
	assert.Equal(t, []models.Subcategory{{ID: "1", Name: "Gehalt"}, {ID: "2", Name: "Bonus"}}, tax.Income[0].Subcategories)

	require.Len(t, tax.Expense, 2)
	assert.Equal(t, "Wohnen", tax.Expense[0].Name)
	assert.Equal(t, "Lebensmittel", tax.Expense[1].Name)

	ref, ok := tax.Lookup("41")
	require.True(t, ok)
	assert.Equal(t, models.KindExpense, ref.Kind)
	assert.Equal(t, "Strom", ref.Name)
}

func TestLoadTaxonomy_YAMLWithEnglishRoots(t *testing.T) {
	content := `INCOME:
  Work:
    - {id: "1", name: Salary}
EXPENSE:
  Home:
    - id: 40
      name: Rent
`
	tax, err := LoadTaxonomy(writeFile(t, "categories.yaml", content), nil)
	require.NoError(t, err)
	assert.Equal(t, "Salary", tax.Income[0].Subcategories[0].Name)
	assert.Equal(t, "40", tax.Expense[0].Subcategories[0].ID)
}

func TestLoadTaxonomy_Errors(t *testing.T) {
	_, err := LoadTaxonomy(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadTaxonomy(writeFile(t, "bad.json", `{"AUSGABEN": ["x"]}`), nil)
	assert.Error(t, err)

	_, err = LoadTaxonomy(writeFile(t, "bad2.json", `{"AUSGABEN": {"Wohnen": "Miete"}}`), nil)
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	path := writeFile(t, "categories.json", "{}")
	found, err := FindConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = FindConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = FindConfigFile("surely-not-present-categories.json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMockKeywordStore(t *testing.T) {
	m := &MockKeywordStore{Rules: []models.KeywordRule{{Keyword: "a", ID: "1"}}}
	rules, err := m.LoadKeywords()
	require.NoError(t, err)
	rules[0].Keyword = "changed"
	assert.Equal(t, "a", m.Rules[0].Keyword)
}
