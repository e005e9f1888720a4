// Package amexparser reads American Express PDF statements. Bookings are
// recovered from the layout text of each page: a line that starts with a
// DD.MM date and ends with an amount is one charge.
package amexparser

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/currencyutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dateutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pdfparser"

	"github.com/shopspring/decimal"
)

const minTokens = 4

var datePrefix = regexp.MustCompile(`^\d{2}\.\d{2}`)

// Parser implements parser.Parser for Amex statements.
type Parser struct {
	parser.BaseParser
	extractor     pdfparser.Extractor
	referenceYear int
}

// NewParser creates an Amex parser. Statement dates carry no year, so
// referenceYear is used for them; zero means the current year.
func NewParser(logger logging.Logger, extractor pdfparser.Extractor, referenceYear int) *Parser {
	base := parser.NewBaseParser(parser.Amex, logger)
	if extractor == nil {
		extractor = pdfparser.NewPDFToTextExtractor("", base.GetLogger())
	}
	return &Parser{BaseParser: base, extractor: extractor, referenceYear: referenceYear}
}

func (p *Parser) year() int {
	if p.referenceYear > 0 {
		return p.referenceYear
	}
	return time.Now().Year()
}

// Parse extracts the document text and converts every booking line. Charges
// are printed as positive numbers and stored negated; credits printed with a
// minus become positive. Lines whose date or amount cannot be read are
// logged and skipped.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	logger := p.GetLogger()

	pages, err := p.extractor.ExtractPages(ctx, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, p.CheckContext(ctx, 0)
		}
		if errors.Is(err, pdfparser.ErrNotPDF) {
			return nil, &parsererror.FormatError{
				Parser: string(parser.Amex), Msg: "document is not a readable PDF", Expected: "PDF",
			}
		}
		return nil, &parsererror.FormatError{
			Parser: string(parser.Amex), Msg: "document is not a readable PDF: " + err.Error(), Expected: "PDF",
		}
	}

	year := p.year()
	var txs []models.Transaction
	lineNo := 0
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			lineNo++
			if err := p.CheckContext(ctx, lineNo); err != nil {
				return nil, err
			}
			tx, ok, err := parseLine(line, year)
			if err != nil {
				logger.WithError(err).Warn("Skipping unreadable statement line",
					logging.Field{Key: logging.FieldLine, Value: lineNo})
				continue
			}
			if ok {
				txs = append(txs, tx)
			}
		}
	}
	return p.Finish(txs), nil
}

// parseLine reports ok=false for lines that are not bookings.
func parseLine(line string, year int) (models.Transaction, bool, error) {
	parts := strings.Fields(line)
	if len(parts) < minTokens || !datePrefix.MatchString(parts[0]) {
		return models.Transaction{}, false, nil
	}

	descStart := 1
	if len(parts) > minTokens && datePrefix.MatchString(parts[1]) {
		descStart = 2
	}
	description := strings.Join(parts[descStart:len(parts)-1], " ")

	amountStr := currencyutils.CleanAmountToken(parts[len(parts)-1])
	if amountStr == "" || amountStr == "-" {
		return models.Transaction{}, false, nil
	}

	date, err := dateutils.ParseDayMonth(parts[0], year)
	if err != nil {
		return models.Transaction{}, false, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return models.Transaction{}, false, &parsererror.ParseError{
			Parser: string(parser.Amex), Field: "amount", Value: parts[len(parts)-1], Err: err,
		}
	}

	return models.Transaction{
		BookingDate: date,
		Purpose:     description,
		Amount:      currencyutils.FormatAmount(amount.Neg()),
	}, true, nil
}
