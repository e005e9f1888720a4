// Package parsererror defines the error types raised while turning bank
// exports into canonical transactions.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError reports that a required structural element of an export (a
// header row, a named column, a readable document) could not be located.
// Retrying with the same input cannot succeed.
type FormatError struct {
	Parser   string
	Missing  []string
	Expected string
	Msg      string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Parser)
	b.WriteString(": invalid format")
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Missing) > 0 {
		b.WriteString("; missing columns: ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Expected != "" {
		b.WriteString(". Expected: ")
		b.WriteString(e.Expected)
	}
	return b.String()
}

// ParseError is a failure to convert one value. Parsers usually degrade
// and log it; it is also used to wrap unexpected parser failures.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v", e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownSourceError is returned when no parser is registered for a bank id.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown bank source %q", e.Source)
}

// Wrap converts an arbitrary parser failure into a typed error. FormatError,
// ParseError and UnknownSourceError pass through unchanged.
func Wrap(parser string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FormatError
	var pe *ParseError
	var ue *UnknownSourceError
	if errors.As(err, &fe) || errors.As(err, &pe) || errors.As(err, &ue) {
		return err
	}
	return &ParseError{Parser: parser, Field: "document", Err: err}
}

// IsClientError reports whether err stems from the caller's input rather
// than from the system.
func IsClientError(err error) bool {
	var fe *FormatError
	var ue *UnknownSourceError
	return errors.As(err, &fe) || errors.As(err, &ue)
}
