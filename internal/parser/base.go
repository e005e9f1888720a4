// Package parser defines the statement parser contract and the behaviour
// shared by the bank-specific implementations.
package parser

import (
	"context"
	"strconv"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
)

// BaseParser carries the logger and source type of a parser. Bank parsers
// embed it:
//
//	type Parser struct {
//		parser.BaseParser
//	}
type BaseParser struct {
	parserType ParserType
	logger     logging.Logger
}

// NewBaseParser creates a BaseParser. A nil logger is replaced by a default
// logrus adapter.
func NewBaseParser(pt ParserType, logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return BaseParser{
		parserType: pt,
		logger:     logger.WithField(logging.FieldParser, string(pt)),
	}
}

// Type returns the source this parser handles.
func (b *BaseParser) Type() ParserType {
	return b.parserType
}

// SetLogger replaces the logger; nil is ignored.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger.WithField(logging.FieldParser, string(b.parserType))
	}
}

func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// MissingColumns builds the FormatError for absent header columns.
func (b *BaseParser) MissingColumns(msg string, missing ...string) error {
	return &parsererror.FormatError{Parser: string(b.parserType), Missing: missing, Msg: msg}
}

// CheckContext returns a ParseError once ctx is done, naming the row or line
// that was being processed.
func (b *BaseParser) CheckContext(ctx context.Context, position int) error {
	if err := ctx.Err(); err != nil {
		return &parsererror.ParseError{
			Parser: string(b.parserType),
			Field:  "document",
			Value:  positionLabel(position),
			Err:    err,
		}
	}
	return nil
}

// Finish drops records without date and purpose and logs the outcome.
func (b *BaseParser) Finish(txs []models.Transaction) []models.Transaction {
	kept := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsEmpty() {
			kept = append(kept, tx)
		}
	}
	if dropped := len(txs) - len(kept); dropped > 0 {
		b.logger.Debug("Dropped records without date and purpose",
			logging.Field{Key: logging.FieldCount, Value: dropped})
	}
	b.logger.Info("Parsed statement", logging.Field{Key: logging.FieldCount, Value: len(kept)})
	return kept
}

func positionLabel(position int) string {
	if position < 0 {
		return ""
	}
	return "position " + strconv.Itoa(position)
}
