// Package dkbcreditparser reads DKB credit card exports. Their delimiter
// and preamble vary between export versions, so both are detected.
package dkbcreditparser

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/currencyutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dateutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
)

const (
	dateColumn        = "Belegdatum"
	descriptionColumn = "Beschreibung"
	amountPrefix      = "Betrag"
)

var requiredNames = []string{dateColumn, descriptionColumn, amountPrefix}

// CreditCardCSVRow is one card booking after the amount column has been
// renamed to "Betrag".
type CreditCardCSVRow struct {
	ReceiptDate string `csv:"Belegdatum"`
	Status      string `csv:"Status"`
	Description string `csv:"Beschreibung"`
	Amount      string `csv:"Betrag"`
}

// Parser implements parser.Parser for DKB credit card exports.
type Parser struct {
	parser.BaseParser
}

func NewParser(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(parser.DKBCredit, logger)}
}

// Parse locates the header by scanning for the receipt date, description
// and amount column names and converts every row below it.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	logger := p.GetLogger()
	text := common.DecodeText(data)
	delim := common.DetectDelimiter(text)
	logger.Debug("Detected delimiter", logging.Field{Key: logging.FieldDelimiter, Value: string(delim)})

	lines := common.NonBlankLines(text)
	headerIdx, missing := common.LocateHeader(lines, requiredNames)
	if headerIdx < 0 {
		return nil, p.MissingColumns("header row not found", missing...)
	}

	records, err := common.ReadRecords(strings.Join(lines[headerIdx:], "\n"), delim)
	if err != nil {
		return nil, fmt.Errorf("dkb-credit: %w", err)
	}
	header := common.CleanHeader(records[0])
	if missing := common.MissingColumns(header, []string{dateColumn, descriptionColumn}); len(missing) > 0 {
		return nil, p.MissingColumns("required columns not found", missing...)
	}
	amountIdx := common.PrefixColumnIndex(header, amountPrefix)
	if amountIdx < 0 {
		return nil, p.MissingColumns("amount column not found", amountPrefix)
	}
	header[amountIdx] = amountPrefix

	rows, err := common.UnmarshalRecords[CreditCardCSVRow](header, records[1:])
	if err != nil {
		return nil, fmt.Errorf("dkb-credit: %w", err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		if err := p.CheckContext(ctx, i+1); err != nil {
			return nil, err
		}
		rowLogger := logger.WithField(logging.FieldRow, i+1)

		date, ok := dateutils.ToISODate(row.ReceiptDate)
		if !ok && strings.TrimSpace(row.ReceiptDate) != "" {
			rowLogger.Warn("Unreadable receipt date", logging.Field{Key: logging.FieldValue, Value: row.ReceiptDate})
		}
		description := strings.TrimSpace(row.Description)

		txs = append(txs, models.Transaction{
			BookingDate: date,
			Payee:       description,
			Purpose:     description,
			Amount:      currencyutils.CanonicalAmount(row.Amount, rowLogger),
		})
	}
	return p.Finish(txs), nil
}
