package parser

import (
	"context"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
)

// ParserType identifies the bank export format of an upload.
type ParserType string

const (
	DKB       ParserType = "dkb"
	DKBCredit ParserType = "dkb-credit"
	Revolut   ParserType = "revolut"
	Amex      ParserType = "amex"
)

// ParserTypes lists the supported sources in display order.
var ParserTypes = []ParserType{DKB, DKBCredit, Revolut, Amex}

// ParseParserType normalizes a bank id supplied by a caller. Unknown ids
// yield a *parsererror.UnknownSourceError.
func ParseParserType(bankID string) (ParserType, error) {
	id := ParserType(strings.ToLower(strings.TrimSpace(bankID)))
	for _, pt := range ParserTypes {
		if id == pt {
			return pt, nil
		}
	}
	return "", &parsererror.UnknownSourceError{Source: bankID}
}

// Parser converts one raw bank export into canonical transactions.
//
// Implementations return a *parsererror.FormatError when a required header
// or column is missing and must not return records for which
// Transaction.IsEmpty is true. They should stop early once ctx is done.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]models.Transaction, error)
	Type() ParserType
}
