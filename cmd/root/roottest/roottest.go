// Package roottest runs commands against a throwaway data directory.
package roottest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/cmd/root"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/config"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/container"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pdfparser"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Categories is the taxonomy written for every test app.
const Categories = `{
  "EINKOMMEN": {
    "Arbeit": [{"id": 1, "name": "Gehalt"}, {"id": 2, "name": "Bonus"}]
  },
  "AUSGABEN": {
    "Lebensmittel": [{"id": 11, "name": "Supermarkt"}],
    "Freizeit": [{"id": 30, "name": "Streaming"}]
  }
}`

// Keywords is the dictionary written for every test app.
const Keywords = `{
  "gehalt": {"category": "Arbeit", "subcategory": "Gehalt", "id": 1},
  "rewe": {"category": "Lebensmittel", "subcategory": "Supermarkt", "id": 11},
  "netflix": {"category": "Freizeit", "subcategory": "Streaming", "id": 30}
}`

// DKBExport is a giro export with three rows: a REWE purchase, a salary
// and an unclassifiable transfer.
const DKBExport = `"Konto";"Girokonto DE00 1234"
"Zeitraum";"01.09.2025 - 30.09.2025"
"Kontostand vom 30.09.2025";"1.000,00 €"
""
"Buchungsdatum";"Wertstellung";"Status";"Zahlungspflichtige*r";"Zahlungsempfänger*in";"Verwendungszweck";"Umsatztyp";"IBAN";"Betrag (€)";"Gläubiger-ID";"Mandatsreferenz";"Kundenreferenz"
"01.09.25";"01.09.25";"Gebucht";"Max Muster";"REWE Markt";"Einkauf 123";"Ausgang";"DE00";"-12,30";"";"";""
"02.09.25";"02.09.25";"Gebucht";"Arbeitgeber GmbH";"Max Muster";"Gehalt September";"Eingang";"DE00";"2.500,00";"";"";""
"03.09.25";"03.09.25";"Gebucht";"Max Muster";"Unbekannt";"Überweisung";"Ausgang";"DE00";"-5,00";"";"";""
`

// App is a root.App over a temporary data directory.
type App struct {
	*root.App
	Dir       string
	Logger    *logging.MockLogger
	Extractor *pdfparser.MockExtractor
}

// NewApp writes the fixture files and returns an app using them. The PDF
// extractor returns one Amex statement line.
func NewApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keywords.json"), []byte(Keywords), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"), []byte(Categories), 0o600))

	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	cfg.CSV.Delimiter = ";"
	cfg.Data.Directory = dir
	cfg.Parsers.BudgetSeconds = 10
	cfg.Parsers.DKB.PreambleLines = 4
	cfg.Parsers.Amex.ReferenceYear = 2024

	logger := logging.NewMockLogger()
	extractor := pdfparser.NewMockExtractor([]string{"18.12 Netflix Abo Monat 9,99\n"}, nil)
	app := &App{
		App: &root.App{
			Config:  cfg,
			Options: []container.Option{container.WithLogger(logger), container.WithExtractor(extractor)},
		},
		Dir:       dir,
		Logger:    logger,
		Extractor: extractor,
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

// Execute runs args against a fresh root command carrying sub and returns
// everything written to stdout.
func Execute(app *App, sub func(*root.App) *cobra.Command, stdin string, args ...string) (string, error) {
	cmd := root.NewCommand(app.App)
	cmd.AddCommand(sub(app.App))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
