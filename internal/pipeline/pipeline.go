// Package pipeline turns an uploaded bank export into classified, stored
// transactions.
package pipeline

import (
	"context"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/categorizer"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"

	"github.com/google/uuid"
)

// ParserSource hands out a parser per bank id.
type ParserSource interface {
	Get(bankID string) (parser.Parser, error)
}

// Inserter stores a batch of transactions atomically.
type Inserter interface {
	InsertTransactions(ctx context.Context, txs []models.StoredTransaction) error
}

// Result summarizes one upload.
type Result struct {
	ImportID     string `json:"import_id" yaml:"import_id"`
	Source       string `json:"source" yaml:"source"`
	Inserted     int    `json:"inserted" yaml:"inserted"`
	Unclassified int    `json:"unclassified" yaml:"unclassified"`
}

// Pipeline parses, classifies and stores uploads.
type Pipeline struct {
	parsers    ParserSource
	classifier *categorizer.Classifier
	store      Inserter
	budget     time.Duration
	logger     logging.Logger
	newID      func() string
}

// New creates a pipeline. budget bounds the parsing of one document; zero
// means no limit.
func New(parsers ParserSource, classifier *categorizer.Classifier, store Inserter, budget time.Duration, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Pipeline{
		parsers:    parsers,
		classifier: classifier,
		store:      store,
		budget:     budget,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Ingest parses data as a bankID export, classifies every record and
// stores all of them in one batch. Nothing is stored when parsing fails.
func (p *Pipeline) Ingest(ctx context.Context, bankID string, data []byte) (Result, error) {
	records, source, err := p.Prepare(ctx, bankID, data)
	if err != nil {
		return Result{}, err
	}
	return p.Store(ctx, source, records)
}

// Store saves records prepared for source as one import. The rows get a
// fresh import id; either all of them are stored or none.
func (p *Pipeline) Store(ctx context.Context, source string, records []models.StoredTransaction) (Result, error) {
	res := Result{ImportID: p.newID(), Source: source}
	logger := p.logger.WithFields(
		logging.Field{Key: logging.FieldBank, Value: source},
		logging.Field{Key: logging.FieldImportID, Value: res.ImportID},
	)
	for i := range records {
		records[i].ImportID = res.ImportID
		if !records[i].IsClassified() {
			res.Unclassified++
		}
	}

	if err := p.store.InsertTransactions(ctx, records); err != nil {
		logger.WithError(err).Error("Failed to store upload")
		return Result{}, err
	}
	res.Inserted = len(records)
	logger.Info("Stored upload",
		logging.Field{Key: logging.FieldCount, Value: res.Inserted},
		logging.Field{Key: "unclassified", Value: res.Unclassified})
	return res, nil
}

// Prepare parses and classifies without storing. It returns the records and
// the normalized source id.
func (p *Pipeline) Prepare(ctx context.Context, bankID string, data []byte) ([]models.StoredTransaction, string, error) {
	prs, err := p.parsers.Get(bankID)
	if err != nil {
		return nil, "", err
	}
	source := string(prs.Type())

	parseCtx := ctx
	if p.budget > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, p.budget)
		defer cancel()
	}

	start := time.Now()
	txs, err := prs.Parse(parseCtx, data)
	if err != nil {
		p.logger.WithError(err).Warn("Statement could not be parsed",
			logging.Field{Key: logging.FieldBank, Value: source})
		return nil, source, parsererror.Wrap(source, err)
	}
	p.logger.Debug("Parsed statement",
		logging.Field{Key: logging.FieldBank, Value: source},
		logging.Field{Key: logging.FieldCount, Value: len(txs)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})

	records := make([]models.StoredTransaction, 0, len(txs))
	for _, tx := range txs {
		records = append(records, p.Classify(tx))
	}
	return records, source, nil
}

// Classify builds the stored form of tx. The final category is the first
// match of purpose, payee and counterparty, fixed from here on.
func (p *Pipeline) Classify(tx models.Transaction) models.StoredTransaction {
	rec := models.StoredTransaction{
		BookingDate:  tx.BookingDate,
		Payee:        tx.Payee,
		Purpose:      tx.Purpose,
		Counterparty: tx.Counterparty,
		Amount:       tx.Amount,
	}
	rec.CategoryPurpose, _ = p.classifier.Classify(tx.Purpose)
	rec.CategoryPayee, _ = p.classifier.Classify(tx.Payee)
	if tx.Counterparty != "" {
		rec.CategoryCounterparty, _ = p.classifier.Classify(tx.Counterparty)
	}
	rec.FinalCategory = models.FinalCategoryFromID(rec.CategoryID())
	return rec
}
