package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/gocarina/gocsv"
)

// ExportRow is the CSV layout of an exported stored transaction.
type ExportRow struct {
	ID                   int64  `csv:"id"`
	BookingDate          string `csv:"booking_date"`
	Payee                string `csv:"payee"`
	Purpose              string `csv:"purpose"`
	Counterparty         string `csv:"counterparty"`
	Amount               string `csv:"amount"`
	CategoryPurpose      string `csv:"category_purpose"`
	CategoryPayee        string `csv:"category_payee"`
	CategoryCounterparty string `csv:"category_counterparty"`
	FinalCategory        string `csv:"final_category"`
	Processed            bool   `csv:"processed"`
	ImportID             string `csv:"import_id"`
}

// NewExportRow flattens a stored transaction for CSV output.
func NewExportRow(tx models.StoredTransaction) ExportRow {
	row := ExportRow{
		ID:                   tx.ID,
		BookingDate:          tx.BookingDate,
		Payee:                tx.Payee,
		Purpose:              tx.Purpose,
		Counterparty:         tx.Counterparty,
		Amount:               tx.Amount,
		CategoryPurpose:      tx.CategoryPurpose,
		CategoryPayee:        tx.CategoryPayee,
		CategoryCounterparty: tx.CategoryCounterparty,
		Processed:            tx.Processed,
		ImportID:             tx.ImportID,
	}
	if tx.FinalCategory != nil {
		row.FinalCategory = strconv.Itoa(*tx.FinalCategory)
	}
	return row
}

// WriteTransactionsCSV writes stored transactions as delimited text with a
// header row.
func WriteTransactionsCSV(w io.Writer, txs []models.StoredTransaction, delimiter rune) error {
	rows := make([]ExportRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, NewExportRow(tx))
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}
