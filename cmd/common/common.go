// Package common contains shared functionality for command handlers
package common

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/report"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/storage"

	"github.com/spf13/cobra"
)

// Exit codes returned by main.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitClientError = 2
)

// ErrNoValidIDs is returned when none of the given ids is a number.
var ErrNoValidIDs = errors.New("no valid ids provided")

// Print renders v in the given format (json or yaml) to the command's
// output.
func Print(cmd *cobra.Command, v interface{}, format string) error {
	return Write(cmd.OutOrStdout(), v, format)
}

func Write(w io.Writer, v interface{}, format string) error {
	out, err := report.Render(v, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// AddFormatFlag registers --format on cmd.
func AddFormatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", "json", "output format (json or yaml)")
}

// ParseID reads a transaction id argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", arg)
	}
	return id, nil
}

// ParseIDs reads transaction ids, silently dropping anything that is not a
// positive integer. Arguments may also hold comma separated lists.
func ParseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if id, err := ParseID(part); err == nil {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoValidIDs
	}
	return ids, nil
}

// ExitCode maps an error to the process exit code. Errors caused by the
// caller's input exit with ExitClientError.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsClientError(err):
		return ExitClientError
	default:
		return ExitFailure
	}
}

// IsClientError reports errors caused by the caller's input.
func IsClientError(err error) bool {
	return parsererror.IsClientError(err) ||
		errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, ErrNoValidIDs) ||
		errors.Is(err, report.ErrInvalidQuery) ||
		errors.Is(err, report.ErrCategoryNotFound)
}

// Describe turns an error into the message shown to the user.
func Describe(err error) string {
	var fe *parsererror.FormatError
	var ue *parsererror.UnknownSourceError
	var pe *parsererror.ParseError
	switch {
	case errors.As(err, &ue):
		return fmt.Sprintf("unknown bank %q, supported: %s", ue.Source, supportedSources())
	case errors.As(err, &fe):
		return "rejected upload: " + fe.Error()
	case errors.As(err, &pe):
		return "rejected upload: " + pe.Error()
	case errors.Is(err, storage.ErrNotFound):
		return "transaction not found"
	default:
		return err.Error()
	}
}

func supportedSources() string {
	names := make([]string, 0, len(parser.ParserTypes))
	for _, pt := range parser.ParserTypes {
		names = append(names, string(pt))
	}
	return strings.Join(names, ", ")
}
