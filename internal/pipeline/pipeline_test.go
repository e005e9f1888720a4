package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/categorizer"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/factory"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parser"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/pdfparser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInserter struct {
	batches [][]models.StoredTransaction
	err     error
}

func (f *fakeInserter) InsertTransactions(ctx context.Context, txs []models.StoredTransaction) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, txs)
	return nil
}

const dkbExport = `"Konto";"Girokonto DE00 1234"
"Zeitraum";"01.09.2025 - 30.09.2025"
"Kontostand vom 30.09.2025";"1.000,00 €"
""
"Buchungsdatum";"Wertstellung";"Status";"Zahlungspflichtige*r";"Zahlungsempfänger*in";"Verwendungszweck";"Umsatztyp";"IBAN";"Betrag (€)";"Gläubiger-ID";"Mandatsreferenz";"Kundenreferenz"
"01.09.25";"01.09.25";"Gebucht";"Max Muster";"REWE Markt";"Einkauf 123";"Ausgang";"DE00";"-12,30";"";"";""
"02.09.25";"02.09.25";"Gebucht";"Arbeitgeber GmbH";"Max Muster";"Gehalt September";"Eingang";"DE00";"2.500,00";"";"";""
"03.09.25";"03.09.25";"Gebucht";"Max Muster";"Unbekannt";"Überweisung";"Ausgang";"DE00";"-5,00";"";"";""
`

func newPipeline(store Inserter, budget time.Duration) *Pipeline {
	opts := factory.DefaultOptions()
	opts.Extractor = pdfparser.NewMockExtractor([]string{"18.12 Netflix Abo Monat 9,99\n"}, nil)
	opts.AmexReferenceYear = 2024
	reg := factory.NewRegistry(opts, logging.NewMockLogger())

	dict := categorizer.NewStaticDictionary(
		models.KeywordRule{Keyword: "gehalt", ID: "1"},
		models.KeywordRule{Keyword: "rewe", ID: "11"},
		models.KeywordRule{Keyword: "arbeitgeber", ID: "2"},
		models.KeywordRule{Keyword: "netflix", ID: "sub-30"},
	)
	p := New(reg, categorizer.NewClassifier(dict, nil), store, budget, logging.NewMockLogger())
	p.newID = func() string { return "import-1" }
	return p
}

func TestIngest_DKB(t *testing.T) {
	store := &fakeInserter{}
	res, err := newPipeline(store, time.Minute).Ingest(context.Background(), " DKB ", []byte(dkbExport))
	require.NoError(t, err)

	assert.Equal(t, Result{ImportID: "import-1", Source: "dkb", Inserted: 3, Unclassified: 1}, res)
	require.Len(t, store.batches, 1)
	rows := store.batches[0]
	require.Len(t, rows, 3)

	assert.Equal(t, "import-1", rows[0].ImportID)
	assert.Empty(t, rows[0].CategoryPurpose)
	assert.Equal(t, "11", rows[0].CategoryPayee)
	require.NotNil(t, rows[0].FinalCategory)
	assert.Equal(t, 11, *rows[0].FinalCategory)
	assert.False(t, rows[0].Processed)

	// purpose takes precedence over counterparty
	assert.Equal(t, "1", rows[1].CategoryPurpose)
	assert.Equal(t, "2", rows[1].CategoryCounterparty)
	assert.Equal(t, 1, *rows[1].FinalCategory)

	assert.Nil(t, rows[2].FinalCategory)
	assert.False(t, rows[2].IsClassified())
}

func TestIngest_NonIntegerIDLeavesFinalCategoryNull(t *testing.T) {
	store := &fakeInserter{}
	res, err := newPipeline(store, 0).Ingest(context.Background(), "amex", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Zero(t, res.Unclassified)

	row := store.batches[0][0]
	assert.Equal(t, "sub-30", row.CategoryPurpose)
	assert.Nil(t, row.FinalCategory)
}

func TestIngest_UnknownSource(t *testing.T) {
	store := &fakeInserter{}
	_, err := newPipeline(store, 0).Ingest(context.Background(), "sparkasse", []byte(dkbExport))
	var ue *parsererror.UnknownSourceError
	require.ErrorAs(t, err, &ue)
	assert.Empty(t, store.batches)
}

func TestIngest_FormatErrorInsertsNothing(t *testing.T) {
	store := &fakeInserter{}
	_, err := newPipeline(store, 0).Ingest(context.Background(), "revolut", []byte("Typ,Produkt\nA,B\n"))
	var fe *parsererror.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "revolut", fe.Parser)
	assert.Empty(t, store.batches)
}

func TestIngest_StoreFailure(t *testing.T) {
	store := &fakeInserter{err: errors.New("database is locked")}
	_, err := newPipeline(store, 0).Ingest(context.Background(), "dkb", []byte(dkbExport))
	assert.EqualError(t, err, "database is locked")
}

func TestIngest_ExpiredBudget(t *testing.T) {
	store := &fakeInserter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(store, time.Minute).Ingest(ctx, "dkb", []byte(dkbExport))
	var pe *parsererror.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, store.batches)
}

type brokenParser struct{ parser.BaseParser }

func (b *brokenParser) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	return nil, errors.New("index out of range")
}

type singleSource struct{ p parser.Parser }

func (s singleSource) Get(string) (parser.Parser, error) { return s.p, nil }

func TestIngest_UnexpectedParserFailureIsWrapped(t *testing.T) {
	store := &fakeInserter{}
	bp := &brokenParser{BaseParser: parser.NewBaseParser(parser.Revolut, logging.NewMockLogger())}
	p := New(singleSource{bp}, categorizer.NewClassifier(nil, nil), store, 0, nil)

	_, err := p.Ingest(context.Background(), "revolut", nil)
	var pe *parsererror.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "revolut", pe.Parser)
	assert.Equal(t, "document", pe.Field)
	assert.Empty(t, store.batches)
}

func TestPrepare_DoesNotStore(t *testing.T) {
	store := &fakeInserter{}
	rows, source, err := newPipeline(store, 0).Prepare(context.Background(), "dkb", []byte(dkbExport))
	require.NoError(t, err)
	assert.Equal(t, "dkb", source)
	assert.Len(t, rows, 3)
	assert.Empty(t, store.batches)
}
