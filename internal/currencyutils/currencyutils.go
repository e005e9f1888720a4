// Package currencyutils turns the amount strings found in bank exports into
// exact decimal values and canonical two-decimal strings.
//
// Separator convention: when a comma is present it is the decimal separator
// and periods are thousands separators ("1.234,56"). Without a comma, periods
// are thousands separators only if they form strict three-digit groups
// ("1.234", "12.345.678"); otherwise a single period is the decimal point
// ("1234.5"). A value such as "1.234" is therefore read as 1234, not 1.234.
package currencyutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"

	"github.com/shopspring/decimal"
)

var (
	nonNumericPattern  = regexp.MustCompile(`[^0-9.,\-]`)
	thousandsGrouping  = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+(?:\.\d+)?$`)
	errEmptyAmount     = errors.New("empty amount")
	errUnsupportedType = errors.New("unsupported amount type")
)

// CleanAmount strips currency symbols and whitespace and rewrites the
// separators so the result can be read by decimal.NewFromString.
func CleanAmount(raw string) string {
	s := nonNumericPattern.ReplaceAllString(raw, "")
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ".") && thousandsGrouping.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

// CleanAmountToken is the looser cleaning used for amounts read from
// extracted document text: a comma still marks the decimal separator, but a
// period without a comma is always kept as the decimal point.
func CleanAmountToken(token string) string {
	s := nonNumericPattern.ReplaceAllString(token, "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// ParseAmount parses a raw amount string. It fails with a
// *parsererror.ParseError for blank or unparseable input.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := CleanAmount(raw)
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, &parsererror.ParseError{Parser: "amount", Field: "amount", Value: raw, Err: errEmptyAmount}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: "amount", Field: "amount", Value: raw, Err: err}
	}
	return d, nil
}

// ToDecimal converts numbers and strings to a decimal. Numeric input is taken
// as is; strings go through ParseAmount. Nil and blank strings are zero.
func ToDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return ParseAmount(v.String())
	case string:
		if strings.TrimSpace(v) == "" {
			return decimal.Zero, nil
		}
		return ParseAmount(v)
	default:
		return decimal.Zero, &parsererror.ParseError{
			Parser: "amount", Field: "amount", Value: fmt.Sprintf("%v", raw), Err: errUnsupportedType,
		}
	}
}

// NormalizeAmount never fails: unparseable input yields 0 and a warning on
// logger (which may be nil).
func NormalizeAmount(raw interface{}, logger logging.Logger) float64 {
	d := normalize(raw, logger)
	f, _ := d.Float64()
	return f
}

// CanonicalAmount normalizes raw and renders it with FormatAmount.
func CanonicalAmount(raw interface{}, logger logging.Logger) string {
	return FormatAmount(normalize(raw, logger))
}

func normalize(raw interface{}, logger logging.Logger) decimal.Decimal {
	d, err := ToDecimal(raw)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Amount could not be parsed, using 0",
				logging.Field{Key: logging.FieldValue, Value: fmt.Sprintf("%v", raw)})
		}
		return decimal.Zero
	}
	return d
}

// FormatAmount renders d as the canonical amount string: optional minus,
// no grouping, exactly two decimals ("-1234.50").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
