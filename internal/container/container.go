// Package container provides dependency injection for the application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/batch"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/categorizer"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/config"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/factory"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pdfparser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pipeline"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/report"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/storage"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/store"
)

// Container holds all application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	storage    *storage.SQLiteStorage
	keywords   *categorizer.KeywordDictionary
	classifier *categorizer.Classifier
	taxonomy   *models.Taxonomy
	parsers    *factory.Registry
	pipeline   *pipeline.Pipeline
	importer   *batch.Importer
	reports    *report.Generator
}

// Option adjusts the wiring, mainly for tests.
type Option func(*options)

type options struct {
	logger    logging.Logger
	extractor pdfparser.Extractor
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithExtractor replaces the pdftotext based PDF extractor.
func WithExtractor(e pdfparser.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// NewContainer creates and wires all application dependencies. The
// database is opened and migrated; Close releases it.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	db, err := storage.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	keywords, err := categorizer.NewKeywordDictionary(store.NewKeywordFile(cfg.KeywordsPath(), logger), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	classifier := categorizer.NewClassifier(keywords, logger)

	taxonomy, err := loadTaxonomy(cfg.CategoriesPath(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	extractor := o.extractor
	if extractor == nil {
		extractor = pdfparser.NewPDFToTextExtractor(cfg.Parsers.Amex.PDFToText, logger)
	}
	parsers := factory.NewRegistry(factory.Options{
		DKBPreambleLines:  cfg.Parsers.DKB.PreambleLines,
		AmexReferenceYear: cfg.Parsers.Amex.ReferenceYear,
		Extractor:         extractor,
	}, logger)

	logger.Info("Container initialized successfully",
		logging.Field{Key: "database", Value: db.Path()},
		logging.Field{Key: "keywords", Value: keywords.Len()},
		logging.Field{Key: "parsers_count", Value: len(parsers.Sources())})

	ingest := pipeline.New(parsers, classifier, db, cfg.ParseBudget(), logger)

	return &Container{
		logger:     logger,
		config:     cfg,
		storage:    db,
		keywords:   keywords,
		classifier: classifier,
		taxonomy:   taxonomy,
		parsers:    parsers,
		pipeline:   ingest,
		importer:   batch.NewImporter(ingest, logger),
		reports:    report.NewGenerator(db, taxonomy, logger),
	}, nil
}

// loadTaxonomy reads the category file. A missing file leaves the taxonomy
// empty; summaries then skip every row.
func loadTaxonomy(path string, logger logging.Logger) (*models.Taxonomy, error) {
	resolved, err := store.FindConfigFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Category file not found, taxonomy is empty",
				logging.Field{Key: logging.FieldFile, Value: path})
			return &models.Taxonomy{}, nil
		}
		return nil, err
	}
	return store.LoadTaxonomy(resolved, logger)
}

// Close releases the database.
func (c *Container) Close() error {
	return c.storage.Close()
}

func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

func (c *Container) GetConfig() *config.Config {
	return c.config
}

func (c *Container) GetStorage() *storage.SQLiteStorage {
	return c.storage
}

func (c *Container) GetKeywords() *categorizer.KeywordDictionary {
	return c.keywords
}

func (c *Container) GetClassifier() *categorizer.Classifier {
	return c.classifier
}

func (c *Container) GetTaxonomy() *models.Taxonomy {
	return c.taxonomy
}

func (c *Container) GetParsers() *factory.Registry {
	return c.parsers
}

func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

func (c *Container) GetImporter() *batch.Importer {
	return c.importer
}

func (c *Container) GetReports() *report.Generator {
	return c.reports
}
