// Package factory maps bank ids to configured statement parsers.
package factory

import (
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/amexparser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dkbcreditparser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dkbparser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pdfparser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/revolutparser"
)

// Options configure the parsers created by a Registry.
type Options struct {
	// DKBPreambleLines is the number of metadata lines before the DKB
	// giro header. Negative means the default.
	DKBPreambleLines int
	// AmexReferenceYear is the year assigned to Amex dates; 0 means the
	// current year.
	AmexReferenceYear int
	// Extractor reads PDF text for Amex; nil uses pdftotext.
	Extractor pdfparser.Extractor
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{DKBPreambleLines: dkbparser.DefaultPreambleLines}
}

// Registry creates parsers by bank id.
type Registry struct {
	opts   Options
	logger logging.Logger
}

func NewRegistry(opts Options, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Registry{opts: opts, logger: logger}
}

// Get returns a new parser for bankID. Ids are case-insensitive; unknown
// ids yield a *parsererror.UnknownSourceError.
func (r *Registry) Get(bankID string) (parser.Parser, error) {
	pt, err := parser.ParseParserType(bankID)
	if err != nil {
		return nil, err
	}
	return r.GetByType(pt)
}

// GetByType returns a new parser for a known parser type.
func (r *Registry) GetByType(pt parser.ParserType) (parser.Parser, error) {
	switch pt {
	case parser.DKB:
		return dkbparser.NewParser(r.logger, r.opts.DKBPreambleLines), nil
	case parser.DKBCredit:
		return dkbcreditparser.NewParser(r.logger), nil
	case parser.Revolut:
		return revolutparser.NewParser(r.logger), nil
	case parser.Amex:
		return amexparser.NewParser(r.logger, r.opts.Extractor, r.opts.AmexReferenceYear), nil
	default:
		return nil, &parsererror.UnknownSourceError{Source: string(pt)}
	}
}

// Sources lists the bank ids the registry can serve.
func (r *Registry) Sources() []parser.ParserType {
	out := make([]parser.ParserType, len(parser.ParserTypes))
	copy(out, parser.ParserTypes)
	return out
}
