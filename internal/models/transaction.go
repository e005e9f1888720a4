// Package models holds the data shapes shared by parsers, the classifier,
// the ingestion pipeline and storage.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Transaction is the canonical record every statement parser emits.
// Empty strings stand for absent values.
type Transaction struct {
	// BookingDate is YYYY-MM-DD, empty when the source date was unreadable.
	BookingDate string
	Payee       string
	// Purpose is the free-text memo. Sources without a separate payee column
	// put the same description into Payee and Purpose.
	Purpose string
	// Counterparty is the paying party, for sources that report one.
	Counterparty string
	// Amount is "-?\d+\.\d{2}"; negative values are outflows.
	Amount string
}

// IsEmpty reports whether the record carries neither a date nor a purpose.
// Parsers drop such records.
func (t Transaction) IsEmpty() bool {
	return t.BookingDate == "" && strings.TrimSpace(t.Purpose) == ""
}

// StoredTransaction is a Transaction after classification and persistence.
type StoredTransaction struct {
	ID           int64  `json:"id" yaml:"id"`
	ImportID     string `json:"import_id" yaml:"import_id"`
	BookingDate  string `json:"booking_date" yaml:"booking_date"`
	Payee        string `json:"payee" yaml:"payee"`
	Purpose      string `json:"purpose" yaml:"purpose"`
	Counterparty string `json:"counterparty" yaml:"counterparty"`
	Amount       string `json:"amount" yaml:"amount"`

	CategoryPayee        string `json:"category_payee" yaml:"category_payee"`
	CategoryPurpose      string `json:"category_purpose" yaml:"category_purpose"`
	CategoryCounterparty string `json:"category_counterparty" yaml:"category_counterparty"`

	// FinalCategory is fixed when the row is inserted; later manual
	// classification only touches the per-field categories.
	FinalCategory *int      `json:"final_category" yaml:"final_category"`
	Processed     bool      `json:"processed" yaml:"processed"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// CategoryID resolves the effective category: purpose, then payee, then
// counterparty classification.
func (s StoredTransaction) CategoryID() string {
	for _, c := range []string{s.CategoryPurpose, s.CategoryPayee, s.CategoryCounterparty} {
		if IsCategorySet(c) {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// IsClassified mirrors the storage-level classified predicate.
func (s StoredTransaction) IsClassified() bool {
	return s.FinalCategory != nil || s.CategoryID() != ""
}

// IsCategorySet reports whether a stored category value counts as assigned.
// Blank values and the literal "nan" left behind by older imports do not.
func IsCategorySet(c string) bool {
	c = strings.TrimSpace(c)
	return c != "" && !strings.EqualFold(c, "nan")
}

// FinalCategoryFromID converts a category id to the integer stored as the
// final category. Ids that are not integer literals yield nil.
func FinalCategoryFromID(id string) *int {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil
	}
	return &n
}

// CategoryField names one of the three independently classifiable fields.
type CategoryField string

const (
	FieldPurpose      CategoryField = "purpose"
	FieldPayee        CategoryField = "payee"
	FieldCounterparty CategoryField = "counterparty"
)

// ParseCategoryField accepts the field names and their German aliases.
func ParseCategoryField(s string) (CategoryField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purpose", "verwendungszweck":
		return FieldPurpose, nil
	case "payee", "empfaenger", "empfänger":
		return FieldPayee, nil
	case "counterparty", "pflichtig":
		return FieldCounterparty, nil
	default:
		return "", fmt.Errorf("unknown category field %q (use purpose, payee or counterparty)", s)
	}
}
