package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearTestEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STATEMENTS_LOG_LEVEL", "STATEMENTS_LOG_FORMAT", "STATEMENTS_CSV_DELIMITER",
		"STATEMENTS_DATA_DIRECTORY", "STATEMENTS_DATA_DATABASE", "STATEMENTS_DATA_KEYWORDS",
		"STATEMENTS_DATA_CATEGORIES", "STATEMENTS_PARSERS_BUDGET_SECONDS",
		"STATEMENTS_PARSERS_DKB_PREAMBLE_LINES", "STATEMENTS_PARSERS_AMEX_REFERENCE_YEAR",
		"DATA_DIR", "DB_PATH", "KEYWORDS_PATH", "CATEGORIES_PATH", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// chdir moves into dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	chdir(t, t.TempDir())

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ",", config.CSV.Delimiter)
	assert.Equal(t, 60, config.Parsers.BudgetSeconds)
	assert.Equal(t, time.Minute, config.ParseBudget())
	assert.Equal(t, 4, config.Parsers.DKB.PreambleLines)
	assert.Zero(t, config.Parsers.Amex.ReferenceYear)
	assert.Equal(t, "pdftotext", config.Parsers.Amex.PDFToText)

	assert.Equal(t, "transactions.db", config.DatabasePath())
	assert.Equal(t, "keywords.json", config.KeywordsPath())
	assert.Equal(t, "categories.json", config.CategoriesPath())
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	chdir(t, t.TempDir())

	for key, value := range map[string]string{
		"STATEMENTS_LOG_LEVEL":                  "debug",
		"STATEMENTS_CSV_DELIMITER":              ";",
		"STATEMENTS_PARSERS_BUDGET_SECONDS":     "5",
		"STATEMENTS_PARSERS_AMEX_REFERENCE_YEAR": "2024",
		"DATA_DIR":                              "/srv/data",
		"DB_PATH":                               "/srv/db/tx.sqlite",
	} {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, ';', config.CSVDelimiter())
	assert.Equal(t, 5*time.Second, config.ParseBudget())
	assert.Equal(t, 2024, config.Parsers.Amex.ReferenceYear)
	assert.Equal(t, "/srv/db/tx.sqlite", config.DatabasePath())
	assert.Equal(t, filepath.Join("/srv/data", "keywords.json"), config.KeywordsPath())
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := t.TempDir()
	chdir(t, tempDir)

	configContent := `
log:
  level: "warn"
  format: "json"
csv:
  delimiter: "|"
data:
  directory: "state"
  categories: "/etc/statements/categories.yaml"
parsers:
  budget_seconds: 0
  dkb:
    preamble_lines: 6
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0o644))

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Zero(t, config.ParseBudget())
	assert.Equal(t, 6, config.Parsers.DKB.PreambleLines)
	assert.Equal(t, filepath.Join("state", "transactions.db"), config.DatabasePath())
	assert.Equal(t, "/etc/statements/categories.yaml", config.CategoriesPath())
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := t.TempDir()
	chdir(t, tempDir)

	configContent := `
log:
  level: "warn"
csv:
  delimiter: "|"
data:
  keywords: "from-file.json"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0o644))

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("KEYWORDS_PATH", "from-env.json")

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Equal(t, "from-env.json", config.KeywordsPath())
}

func TestInitializeConfigFromFile(t *testing.T) {
	clearTestEnvVars(t)
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	config, err := InitializeConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Log.Level)

	_, err = InitializeConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitializeConfig_InvalidFromEnv(t *testing.T) {
	clearTestEnvVars(t)
	chdir(t, t.TempDir())
	t.Setenv("STATEMENTS_LOG_FORMAT", "xml")

	_, err := InitializeConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func validConfig() *Config {
	c := &Config{}
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.CSV.Delimiter = ","
	c.Parsers.BudgetSeconds = 60
	c.Parsers.DKB.PreambleLines = 4
	return c
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{
			name:         "invalid log level",
			modifyConfig: func(c *Config) { c.Log.Level = "invalid" },
			expectError:  "invalid log level",
		},
		{
			name:         "invalid log format",
			modifyConfig: func(c *Config) { c.Log.Format = "invalid" },
			expectError:  "invalid log format",
		},
		{
			name:         "invalid CSV delimiter",
			modifyConfig: func(c *Config) { c.CSV.Delimiter = "abc" },
			expectError:  "CSV delimiter must be a single character",
		},
		{
			name:         "negative budget",
			modifyConfig: func(c *Config) { c.Parsers.BudgetSeconds = -1 },
			expectError:  "parsers.budget_seconds",
		},
		{
			name:         "negative preamble",
			modifyConfig: func(c *Config) { c.Parsers.DKB.PreambleLines = -2 },
			expectError:  "parsers.dkb.preamble_lines",
		},
		{
			name:         "two-digit reference year",
			modifyConfig: func(c *Config) { c.Parsers.Amex.ReferenceYear = 24 },
			expectError:  "parsers.amex.reference_year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modifyConfig(c)
			err := validateConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	assert.NoError(t, validateConfig(validConfig()))
}

func TestLoadEnv(t *testing.T) {
	clearTestEnvVars(t)
	dir := t.TempDir()
	chdir(t, dir)
	t.Cleanup(func() { _ = os.Unsetenv("DB_PATH") })

	assert.Empty(t, LoadEnv(logging.NewMockLogger()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=/tmp/from-dotenv.db\n"), 0o600))
	assert.Equal(t, ".env", LoadEnv(logging.NewMockLogger()))
	assert.Equal(t, "/tmp/from-dotenv.db", os.Getenv("DB_PATH"))

	config, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", config.DatabasePath())
}
