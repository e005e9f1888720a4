// Package revolutparser reads Revolut account statement exports (German
// column names). The delimiter is detected from the start of the file.
package revolutparser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/common"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/currencyutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dateutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"

	"github.com/shopspring/decimal"
)

// sniffBytes is how much of the file is inspected to pick the delimiter.
const sniffBytes = 8192

// RequiredColumns must all be present; "Kontostand" is optional.
var RequiredColumns = []string{
	"Art", "Produkt", "Datum des Beginns", "Datum des Abschlusses",
	"Beschreibung", "Betrag", "Gebühr", "Währung", "Status",
}

// machineNumber matches amounts Revolut writes without locale formatting.
var machineNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// RevolutCSVRow represents a single row in a Revolut CSV file.
type RevolutCSVRow struct {
	Type          string `csv:"Art"`
	Product       string `csv:"Produkt"`
	StartedDate   string `csv:"Datum des Beginns"`
	CompletedDate string `csv:"Datum des Abschlusses"`
	Description   string `csv:"Beschreibung"`
	Amount        string `csv:"Betrag"`
	Fee           string `csv:"Gebühr"`
	Currency      string `csv:"Währung"`
	State         string `csv:"Status"`
	Balance       string `csv:"Kontostand"`
}

// Parser implements parser.Parser for Revolut exports.
type Parser struct {
	parser.BaseParser
}

func NewParser(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(parser.Revolut, logger)}
}

// Parse converts a Revolut export into canonical transactions. The booking
// date is the start date, falling back to the completion date.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	logger := p.GetLogger()

	sniff := data
	if len(sniff) > sniffBytes {
		sniff = sniff[:sniffBytes]
	}
	delim := common.DetectDelimiter(common.DecodeText(sniff))
	logger.Debug("Detected delimiter", logging.Field{Key: logging.FieldDelimiter, Value: string(delim)})

	records, err := common.ReadRecords(common.DecodeText(data), delim)
	if err != nil {
		return nil, fmt.Errorf("revolut: %w", err)
	}
	if len(records) == 0 {
		return nil, p.MissingColumns("expected columns missing", RequiredColumns...)
	}

	header := common.CleanHeader(records[0])
	if missing := common.MissingColumns(header, RequiredColumns); len(missing) > 0 {
		return nil, p.MissingColumns("expected columns missing", missing...)
	}

	rows, err := common.UnmarshalRecords[RevolutCSVRow](header, records[1:])
	if err != nil {
		return nil, fmt.Errorf("revolut: %w", err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		if err := p.CheckContext(ctx, i+1); err != nil {
			return nil, err
		}
		txs = append(txs, convertRow(row, logger.WithField(logging.FieldRow, i+1)))
	}
	return p.Finish(txs), nil
}

func convertRow(row RevolutCSVRow, logger logging.Logger) models.Transaction {
	date, ok := dateutils.ToISODate(row.StartedDate)
	if !ok {
		date, ok = dateutils.ToISODate(row.CompletedDate)
	}
	if !ok && (strings.TrimSpace(row.StartedDate) != "" || strings.TrimSpace(row.CompletedDate) != "") {
		logger.Warn("Unreadable start and completion date",
			logging.Field{Key: logging.FieldValue, Value: row.StartedDate + " / " + row.CompletedDate})
	}

	description := strings.TrimSpace(row.Description)
	return models.Transaction{
		BookingDate: date,
		Payee:       description,
		Purpose:     description,
		Amount:      amount(row.Amount, logger),
	}
}

// amount keeps plain machine numbers ("-2.50", "0.125") literal and sends
// everything else through the locale-aware normalizer.
func amount(raw string, logger logging.Logger) string {
	s := strings.TrimSpace(raw)
	if machineNumber.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return currencyutils.FormatAmount(d)
		}
	}
	return currencyutils.CanonicalAmount(raw, logger)
}
