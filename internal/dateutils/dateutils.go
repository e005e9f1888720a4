// Package dateutils normalizes the many date spellings found in bank exports
// into ISO dates (YYYY-MM-DD) and year-month keys (YYYY-MM).
package dateutils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
)

const (
	DateLayoutISO   = "2006-01-02"
	YearMonthLayout = "2006-01"
)

var (
	isoPattern        = regexp.MustCompile(`^(\d{4})-(\d{2})(?:-(\d{2}))?$`)
	europeanPattern   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})$`)
	dayMonthPattern   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?$`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	errInvalidDate = errors.New("not a calendar date")
)

// genericLayouts is tried in order after the strict forms. Day-first layouts
// come before their month-first counterparts, which are only reached when
// the leading number cannot be a day-of-month pairing (e.g. "12/25/2025").
var genericLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2006/1/2",
	"2 Jan 2006",
	"2 January 2006",
	"2. January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006",
	"1-2-2006",
	"20060102",
}

// CleanDateString trims and collapses whitespace, including NBSP.
func CleanDateString(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParseDate runs the normalization chain and reports whether raw could be
// read as a calendar date:
//
//  1. strict ISO YYYY-MM-DD
//  2. DD.MM.YYYY and DD.MM.YY (two-digit years are 20YY)
//  3. the day-first biased genericLayouts
func ParseDate(raw string) (time.Time, bool) {
	s := CleanDateString(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil && m[3] != "" {
		if t, ok := calendarDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}

	if m := europeanPattern.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if t, ok := calendarDate(year, m[2], m[1]); ok {
			return t, true
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToISODate returns raw as YYYY-MM-DD.
func ToISODate(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(DateLayoutISO), true
}

// ToYearMonth returns raw as YYYY-MM. Strict ISO input only needs a valid
// month ("2025-09" and "2025-09-31" both give "2025-09").
func ToYearMonth(raw string) (string, bool) {
	s := CleanDateString(raw)
	if m := isoPattern.FindStringSubmatch(s); m != nil {
		if month, _ := strconv.Atoi(m[2]); month >= 1 && month <= 12 {
			return m[1] + "-" + m[2], true
		}
	}
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(YearMonthLayout), true
}

// ParseDayMonth reads statement dates of the form DD.MM, DD.MM.YY or
// DD.MM.YYYY. A missing year is taken from referenceYear.
func ParseDayMonth(token string, referenceYear int) (string, error) {
	m := dayMonthPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return "", &parsererror.ParseError{Parser: "date", Field: "date", Value: token, Err: errInvalidDate}
	}
	year := strconv.Itoa(referenceYear)
	switch len(m[3]) {
	case 2:
		year = "20" + m[3]
	case 4:
		year = m[3]
	}
	t, ok := calendarDate(year, m[2], m[1])
	if !ok {
		return "", &parsererror.ParseError{Parser: "date", Field: "date", Value: token, Err: errInvalidDate}
	}
	return t.Format(DateLayoutISO), nil
}

// calendarDate builds a date and rejects overflow such as 31.02.
func calendarDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}
