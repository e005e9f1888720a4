package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline reads one "date;amount;payee[;category]" row per line.
// Content starting with "broken" fails to parse.
type fakePipeline struct {
	stored   [][]models.StoredTransaction
	storeErr error
}

func (f *fakePipeline) Prepare(ctx context.Context, bankID string, data []byte) ([]models.StoredTransaction, string, error) {
	text := string(data)
	if strings.HasPrefix(text, "broken") {
		return nil, bankID, &parsererror.FormatError{Parser: bankID, Msg: "header row not found"}
	}
	var out []models.StoredTransaction
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		parts := strings.Split(line, ";")
		r := models.StoredTransaction{BookingDate: parts[0], Amount: parts[1], Payee: parts[2]}
		if len(parts) > 3 {
			r.CategoryPayee = parts[3]
		}
		out = append(out, r)
	}
	return out, bankID, nil
}

func (f *fakePipeline) Store(ctx context.Context, source string, records []models.StoredTransaction) (pipeline.Result, error) {
	if f.storeErr != nil {
		return pipeline.Result{}, f.storeErr
	}
	f.stored = append(f.stored, records)
	return pipeline.Result{ImportID: fmt.Sprintf("import-%d", len(f.stored)), Source: source, Inserted: len(records)}, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestDateRange(t *testing.T) {
	var dr DateRange
	assert.Equal(t, "", dr.String())

	dr = dr.Include("2025-09-10").Include("").Include("2025-08-01").Include("2025-09-30")
	assert.Equal(t, DateRange{Start: "2025-08-01", End: "2025-09-30"}, dr)
	assert.Equal(t, "2025-08-01_2025-09-30", dr.String())
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, Extensions(parser.Amex))
	assert.Equal(t, []string{".csv", ".txt"}, Extensions(parser.DKB))
}

func TestListFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.CSV":         "x",
		"a.csv":         "x",
		"notes.md":      "x",
		"2024/july.csv": "x",
	})

	files, err := ListFiles(dir, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024", "july.csv"),
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.CSV"),
	}, files)

	_, err = ListFiles(filepath.Join(dir, "missing"), ".csv")
	assert.Error(t, err)
	_, err = ListFiles(filepath.Join(dir, "a.csv"), ".csv")
	assert.Error(t, err)
}

func TestImportDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"01-august.csv":    "2025-08-30;-12.30;REWE;11\n2025-08-31;-3.00;Kiosk\n",
		"02-september.csv": "2025-08-31;-3.00;kiosk \n2025-09-02;2500.00;Arbeitgeber;1\n2025-09-02;2500.00;Arbeitgeber;1\n",
		"03-broken.csv":    "broken",
	})
	fp := &fakePipeline{}
	logger := logging.NewMockLogger()

	summary, err := NewImporter(fp, logger).ImportDir(context.Background(), dir, "DKB", false)
	require.NoError(t, err)

	assert.Equal(t, "dkb", summary.Source)
	assert.Equal(t, 5, summary.Stored)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, DateRange{Start: "2025-08-30", End: "2025-09-02"}, summary.Period)
	require.Len(t, fp.stored, 2)

	require.Len(t, summary.Files, 3)
	assert.Equal(t, FileResult{
		File:         filepath.Join(dir, "01-august.csv"),
		ImportID:     "import-1",
		Transactions: 2,
		Unclassified: 1,
		Period:       DateRange{Start: "2025-08-30", End: "2025-08-31"},
	}, summary.Files[0])
	assert.Equal(t, "import-2", summary.Files[1].ImportID)
	assert.Contains(t, summary.Files[2].Error, "header row not found")
	assert.Empty(t, summary.Files[2].ImportID)

	assert.True(t, logger.HasEntry("WARN", "Potential duplicate transaction"))
	assert.True(t, logger.HasEntry("ERROR", "Failed to parse file"))
	assert.True(t, logger.HasEntry("INFO", "Batch import finished"))
}

func TestImportDir_DryRun(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.csv": "2025-08-30;-12.30;REWE\n"})
	fp := &fakePipeline{}

	summary, err := NewImporter(fp, logging.NewMockLogger()).ImportDir(context.Background(), dir, "dkb", true)
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Zero(t, summary.Stored)
	assert.Equal(t, 1, summary.Files[0].Transactions)
	assert.Empty(t, fp.stored)
}

func TestImportDir_Errors(t *testing.T) {
	csvDir := writeFiles(t, map[string]string{"a.csv": "2025-08-30;-12.30;REWE\n"})

	t.Run("unknown bank", func(t *testing.T) {
		_, err := NewImporter(&fakePipeline{}, nil).ImportDir(context.Background(), csvDir, "sparkasse", false)
		var ue *parsererror.UnknownSourceError
		assert.True(t, errors.As(err, &ue))
	})

	t.Run("no files for bank", func(t *testing.T) {
		_, err := NewImporter(&fakePipeline{}, nil).ImportDir(context.Background(), csvDir, "amex", false)
		assert.ErrorIs(t, err, ErrNoFiles)
	})

	t.Run("store failure", func(t *testing.T) {
		fp := &fakePipeline{storeErr: errors.New("disk full")}
		summary, err := NewImporter(fp, logging.NewMockLogger()).ImportDir(context.Background(), csvDir, "dkb", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		require.NotNil(t, summary)
		assert.Zero(t, summary.Stored)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewImporter(&fakePipeline{}, logging.NewMockLogger()).ImportDir(ctx, csvDir, "dkb", false)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
