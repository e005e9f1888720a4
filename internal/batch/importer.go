// Package batch imports every statement file of a directory in one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pipeline"
)

// ErrNoFiles is returned when a directory holds no file for the bank.
var ErrNoFiles = errors.New("no statement files found")

// Pipeline is the part of the ingestion pipeline a batch run needs.
type Pipeline interface {
	Prepare(ctx context.Context, bankID string, data []byte) ([]models.StoredTransaction, string, error)
	Store(ctx context.Context, source string, records []models.StoredTransaction) (pipeline.Result, error)
}

// DateRange is an inclusive booking date range in ISO form.
type DateRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// String returns the range as "YYYY-MM-DD_YYYY-MM-DD", or "" when open.
func (dr DateRange) String() string {
	if dr.Start == "" || dr.End == "" {
		return ""
	}
	return dr.Start + "_" + dr.End
}

// Include widens the range to cover date. Blank dates are ignored.
func (dr DateRange) Include(date string) DateRange {
	if date == "" {
		return dr
	}
	if dr.Start == "" || date < dr.Start {
		dr.Start = date
	}
	if dr.End == "" || date > dr.End {
		dr.End = date
	}
	return dr
}

// FileResult is the outcome for one file. Error is set when the file was
// rejected; nothing of it was stored then.
type FileResult struct {
	File         string    `json:"file" yaml:"file"`
	ImportID     string    `json:"import_id,omitempty" yaml:"import_id,omitempty"`
	Transactions int       `json:"transactions" yaml:"transactions"`
	Unclassified int       `json:"unclassified" yaml:"unclassified"`
	Period       DateRange `json:"period" yaml:"period"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary reports a whole run.
type Summary struct {
	Source     string       `json:"source" yaml:"source"`
	Files      []FileResult `json:"files" yaml:"files"`
	Stored     int          `json:"stored" yaml:"stored"`
	Failed     int          `json:"failed" yaml:"failed"`
	Duplicates int          `json:"duplicates" yaml:"duplicates"`
	Period     DateRange    `json:"period" yaml:"period"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run"`
}

// Importer runs the pipeline over many files.
type Importer struct {
	pipeline Pipeline
	logger   logging.Logger
}

// NewImporter creates an Importer.
func NewImporter(p Pipeline, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{pipeline: p, logger: logger}
}

// Extensions returns the file extensions exports of pt come in.
func Extensions(pt parser.ParserType) []string {
	if pt == parser.Amex {
		return []string{".pdf"}
	}
	return []string{".csv", ".txt"}
}

// ListFiles walks dir and returns the files with one of exts, compared
// case-insensitively, in lexical order.
func ListFiles(dir string, exts ...string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

type preparedFile struct {
	index   int
	records []models.StoredTransaction
}

// ImportDir imports every file for bankID found below dir. A file that
// fails to parse is reported and skipped; the other files are still
// imported, each as its own all-or-nothing batch. With dryRun nothing is
// stored.
func (im *Importer) ImportDir(ctx context.Context, dir, bankID string, dryRun bool) (*Summary, error) {
	pt, err := parser.ParseParserType(bankID)
	if err != nil {
		return nil, err
	}
	files, err := ListFiles(dir, Extensions(pt)...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s for %s", ErrNoFiles, dir, pt)
	}

	summary := &Summary{Source: string(pt), Files: make([]FileResult, len(files)), DryRun: dryRun}
	var prepared []preparedFile
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fr := &summary.Files[i]
		fr.File = file

		records, err := im.prepare(ctx, file, string(pt))
		if err != nil {
			im.logger.WithError(err).Error("Failed to parse file",
				logging.Field{Key: logging.FieldFile, Value: file})
			fr.Error = err.Error()
			summary.Failed++
			continue
		}
		for _, r := range records {
			fr.Period = fr.Period.Include(r.BookingDate)
			if !r.IsClassified() {
				fr.Unclassified++
			}
		}
		fr.Transactions = len(records)
		summary.Period = summary.Period.Include(fr.Period.Start).Include(fr.Period.End)
		prepared = append(prepared, preparedFile{index: i, records: records})
	}

	summary.Duplicates = im.detectDuplicates(files, prepared)

	if !dryRun {
		for _, pf := range prepared {
			res, err := im.pipeline.Store(ctx, string(pt), pf.records)
			if err != nil {
				return summary, fmt.Errorf("error storing %s: %w", files[pf.index], err)
			}
			summary.Files[pf.index].ImportID = res.ImportID
			summary.Stored += res.Inserted
		}
	}

	im.logger.Info("Batch import finished",
		logging.Field{Key: logging.FieldBank, Value: pt},
		logging.Field{Key: "files", Value: len(files)},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: "stored", Value: summary.Stored},
		logging.Field{Key: "duplicates", Value: summary.Duplicates})
	return summary, nil
}

func (im *Importer) prepare(ctx context.Context, file, bankID string) ([]models.StoredTransaction, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	records, _, err := im.pipeline.Prepare(ctx, bankID, data)
	return records, err
}

// duplicateKey identifies a booking independently of the file it came
// from.
func duplicateKey(r models.StoredTransaction) string {
	return strings.Join([]string{
		r.BookingDate,
		r.Amount,
		strings.ToLower(strings.TrimSpace(r.Payee)),
		strings.ToLower(strings.TrimSpace(r.Purpose)),
	}, "\x00")
}

// detectDuplicates counts rows that also appear in an earlier file, which
// happens when exported periods overlap. Duplicates are logged, not
// dropped. Repeats inside one file are ordinary bookings.
func (im *Importer) detectDuplicates(files []string, prepared []preparedFile) int {
	firstSeen := map[string]int{}
	count := 0
	for _, pf := range prepared {
		for _, r := range pf.records {
			key := duplicateKey(r)
			owner, seen := firstSeen[key]
			if !seen {
				firstSeen[key] = pf.index
				continue
			}
			if owner == pf.index {
				continue
			}
			count++
			im.logger.Warn("Potential duplicate transaction",
				logging.Field{Key: logging.FieldFile, Value: filepath.Base(files[pf.index])},
				logging.Field{Key: "first_file", Value: filepath.Base(files[owner])},
				logging.Field{Key: "date", Value: r.BookingDate},
				logging.Field{Key: "amount", Value: r.Amount},
				logging.Field{Key: "payee", Value: r.Payee})
		}
	}
	return count
}
