// Package pdfparser extracts the text of PDF statements page by page.
package pdfparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
)

// DefaultBinary is the poppler tool used for extraction.
const DefaultBinary = "pdftotext"

// ErrNotPDF is returned for input that does not start with a PDF header.
var ErrNotPDF = errors.New("input is not a PDF document")

// Extractor returns the text of every page of a PDF document, in order.
type Extractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// PDFToTextExtractor runs pdftotext in layout mode so that each statement
// row stays on one text line.
type PDFToTextExtractor struct {
	binary string
	logger logging.Logger
}

// NewPDFToTextExtractor creates an extractor using binary (DefaultBinary if
// empty).
func NewPDFToTextExtractor(binary string, logger logging.Logger) *PDFToTextExtractor {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &PDFToTextExtractor{binary: binary, logger: logger}
}

// ExtractPages writes data to a temporary file and runs the extraction
// tool on it. The tool is killed when ctx is done.
func (e *PDFToTextExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			e.logger.WithError(err).Warn("Failed to remove temporary file",
				logging.Field{Key: logging.FieldFile, Value: tmp.Name()})
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("error writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("error closing temporary file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("error running %s: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}

	pages := SplitPages(stdout.String())
	e.logger.Debug("Extracted PDF text", logging.Field{Key: logging.FieldCount, Value: len(pages)})
	return pages, nil
}

// IsPDF reports whether data starts with the PDF magic bytes, ignoring
// leading whitespace.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-"))
}

// SplitPages splits pdftotext output on form feeds. The empty tail after
// the last form feed is dropped.
func SplitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

// MockExtractor returns fixed pages; used in tests.
type MockExtractor struct {
	Pages []string
	Err   error
	Calls int
}

func NewMockExtractor(pages []string, err error) *MockExtractor {
	return &MockExtractor{Pages: pages, Err: err}
}

func (m *MockExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pages, nil
}
