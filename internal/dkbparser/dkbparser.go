// Package dkbparser reads DKB giro account exports: semicolon-delimited
// text with a short account preamble in front of the header row.
package dkbparser

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

// DefaultPreambleLines is the number of account summary lines DKB writes
// before the header row.
const DefaultPreambleLines = 4

const (
	dateColumn   = "Buchungsdatum"
	amountPrefix = "Betrag"
	delimiter    = ';'
)

// complianceColumns are not carried into the canonical record.
var complianceColumns = map[string]bool{
	"Mandatsreferenz": true,
	"Kundenreferenz":  true,
	"Gläubiger-ID":    true,
	"IBAN":            true,
	"Umsatztyp":       true,
	"Status":          true,
}

// DKBCSVRow is one booking line; the amount column is renamed to "Betrag"
// before decoding whatever its currency suffix.
type DKBCSVRow struct {
	BookingDate string `csv:"Buchungsdatum"`
	Payer       string `csv:"Zahlungspflichtige*r"`
	Payee       string `csv:"Zahlungsempfänger*in"`
	Purpose     string `csv:"Verwendungszweck"`
	Amount      string `csv:"Betrag"`
}

// Parser implements parser.Parser for DKB giro exports.
type Parser struct {
	parser.BaseParser
	preambleLines int
}

// NewParser creates a DKB giro parser skipping preambleLines lines before
// the header. A negative value selects DefaultPreambleLines.
func NewParser(logger logging.Logger, preambleLines int) *Parser {
	if preambleLines < 0 {
		preambleLines = DefaultPreambleLines
	}
	return &Parser{
		BaseParser:    parser.NewBaseParser(parser.DKB, logger),
		preambleLines: preambleLines,
	}
}

// Parse converts a DKB giro export into canonical transactions.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	logger := p.GetLogger()
	lines := strings.Split(common.DecodeText(data), "\n")

	headerLine, err := p.locateHeader(lines)
	if err != nil {
		return nil, err
	}

	records, err := common.ReadRecords(strings.Join(lines[headerLine:], "\n"), delimiter)
	if err != nil {
		return nil, fmt.Errorf("dkb: %w", err)
	}
	if len(records) == 0 {
		return nil, p.MissingColumns("header row not found", dateColumn, amountPrefix)
	}

	header := common.CleanHeader(records[0])
	if common.ColumnIndex(header, dateColumn) < 0 {
		return nil, p.MissingColumns("booking date column not found", dateColumn)
	}
	amountIdx := common.PrefixColumnIndex(header, amountPrefix)
	if amountIdx < 0 {
		return nil, p.MissingColumns("amount column not found", amountPrefix)
	}
	header[amountIdx] = amountPrefix
	for i, name := range header {
		if complianceColumns[name] {
			logger.Debug("Dropping column", logging.Field{Key: logging.FieldColumn, Value: name})
			header[i] = ""
		}
	}

	rows, err := common.UnmarshalRecords[DKBCSVRow](header, records[1:])
	if err != nil {
		return nil, fmt.Errorf("dkb: %w", err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		if err := p.CheckContext(ctx, i+1); err != nil {
			return nil, err
		}
		txs = append(txs, p.convertRow(i+1, row))
	}
	return p.Finish(txs), nil
}

// locateHeader returns the line index of the header row. The header is
// expected right after the preamble; when the preamble length drifted the
// first line naming the booking date column is used instead.
func (p *Parser) locateHeader(lines []string) (int, error) {
	idx := p.preambleLines
	for idx < len(lines) && strings.TrimSpace(lines[idx]) == "" {
		idx++
	}
	if idx < len(lines) && strings.Contains(lines[idx], dateColumn) {
		return idx, nil
	}

	for i, line := range lines {
		if strings.Contains(line, dateColumn) {
			p.GetLogger().Warn("Header row not at expected position",
				logging.Field{Key: logging.FieldLine, Value: i + 1},
				logging.Field{Key: "expected_line", Value: idx + 1})
			return i, nil
		}
	}
	return 0, p.MissingColumns("header row not found", dateColumn)
}

func (p *Parser) convertRow(rowNum int, row DKBCSVRow) models.Transaction {
	logger := p.GetLogger().WithField(logging.FieldRow, rowNum)

	payee := strings.TrimSpace(row.Payee)
	purpose := strings.TrimSpace(row.Purpose)
	if purpose == "" {
		purpose = payee
	}

	date, ok := dateutils.ToISODate(row.BookingDate)
	if !ok && strings.TrimSpace(row.BookingDate) != "" {
		logger.Warn("Unreadable booking date", logging.Field{Key: logging.FieldValue, Value: row.BookingDate})
	}

	var amount string
	if strings.TrimSpace(row.Amount) != "" {
		amount = currencyutils.CanonicalAmount(row.Amount, logger)
	}

	return models.Transaction{
		BookingDate:  date,
		Payee:        payee,
		Purpose:      purpose,
		Counterparty: strings.TrimSpace(row.Payer),
		Amount:       amount,
	}
}
