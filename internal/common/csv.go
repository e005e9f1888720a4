// Package common provides the text and CSV handling shared by the
// delimited statement parsers.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText turns raw export bytes into text: a leading UTF-8 BOM is
// removed, invalid byte sequences are dropped and CRLF becomes LF.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// DetectDelimiter guesses the delimiter of sample by counting candidates.
// Tab wins when it occurs at least as often as both semicolon and comma;
// otherwise semicolon wins ties with comma.
func DetectDelimiter(sample string) rune {
	tabs := strings.Count(sample, "\t")
	semicolons := strings.Count(sample, ";")
	commas := strings.Count(sample, ",")
	switch {
	case tabs >= max(semicolons, commas):
		return '\t'
	case semicolons >= commas:
		return ';'
	default:
		return ','
	}
}

// NonBlankLines splits text into lines and drops the whitespace-only ones.
func NonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimRight(line, "\r"))
		}
	}
	return out
}

// ReadRecords parses delimited text. Quoting is handled leniently and rows
// may have differing field counts; blank lines are skipped.
func ReadRecords(text string, delimiter rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading delimited text: %w", err)
	}
	return records, nil
}

// CleanHeader trims whitespace, stray quotes and BOMs from header cells.
func CleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.ReplaceAll(h, "\ufeff", "")
		out[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), `"`))
	}
	return out
}

// ColumnIndex returns the index of the column named name, or -1.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// PrefixColumnIndex returns the first column starting with prefix, trying
// an exact-case match before a case-insensitive one. It returns -1 if none.
func PrefixColumnIndex(header []string, prefix string) int {
	for i, h := range header {
		if strings.HasPrefix(h, prefix) {
			return i
		}
	}
	lower := strings.ToLower(prefix)
	for i, h := range header {
		if strings.HasPrefix(strings.ToLower(h), lower) {
			return i
		}
	}
	return -1
}

// MissingColumns lists the required names that are not columns of header.
func MissingColumns(header []string, required []string) []string {
	var missing []string
	for _, name := range required {
		if ColumnIndex(header, name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// LocateHeader returns the index of the first line that contains every
// required name. When no line qualifies it returns -1 together with the
// names missing from the closest candidate line.
func LocateHeader(lines []string, required []string) (int, []string) {
	bestMissing := required
	for i, line := range lines {
		var missing []string
		for _, name := range required {
			if !strings.Contains(line, name) {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			return i, nil
		}
		if len(missing) < len(bestMissing) {
			bestMissing = missing
		}
	}
	return -1, bestMissing
}

// recordReader serves already split records to gocsv.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}

// UnmarshalRecords decodes rows into values of T through T's csv struct
// tags, using header as the column names. Columns without a matching tag
// are ignored.
func UnmarshalRecords[T any](header []string, rows [][]string) ([]T, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)

	var out []T
	if err := gocsv.UnmarshalCSV(&recordReader{records: records}, &out); err != nil {
		return nil, fmt.Errorf("error decoding rows: %w", err)
	}
	return out, nil
}
