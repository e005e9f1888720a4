package dkbcreditparser

import (
	"context"
	"strings"
	"testing"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const semicolonExport = `"Karte";"Visa Kreditkarte";"4930********1234"
""
"Saldo:";"-123,45 EUR"
"Datum:";"03.09.2025"
""
"Belegdatum";"Wertstellung";"Status";"Beschreibung";"Umsatztyp";"Betrag (€)";"Fremdwährungsbetrag"
"02.09.25";"03.09.25";"Gebucht";"AMAZON.DE MARKETPLACE";"Im Geschäft";"-23,99 €";""
"01.09.25";"02.09.25";"Gebucht";"  Einzahlung  ";"Gutschrift";"100,00 €";""
"";"";"";"";"";"";""
"31.08.2025";"01.09.25";"Vorgemerkt";"HOTEL";"Im Geschäft";"-1.234,50 €";"-1.300,00 CHF"
`

func TestParse_Semicolon(t *testing.T) {
	p := NewParser(logging.NewMockLogger())
	txs, err := p.Parse(context.Background(), []byte(semicolonExport))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "2025-09-02", txs[0].BookingDate)
	assert.Equal(t, "AMAZON.DE MARKETPLACE", txs[0].Payee)
	assert.Equal(t, "AMAZON.DE MARKETPLACE", txs[0].Purpose)
	assert.Equal(t, "-23.99", txs[0].Amount)
	assert.Empty(t, txs[0].Counterparty)

	assert.Equal(t, "Einzahlung", txs[1].Purpose)
	assert.Equal(t, "100.00", txs[1].Amount)

	assert.Equal(t, "2025-08-31", txs[2].BookingDate)
	assert.Equal(t, "-1234.50", txs[2].Amount)
}

func TestParse_TabDelimitedMinimalHeader(t *testing.T) {
	data := "Kreditkarte\n\nBelegdatum\tBeschreibung\tBetrag\n" +
		"05.01.24\tTANKSTELLE\t-60,00\n" +
		"2024-01-06\tRESTAURANT, BAR\t-12,5\n"

	p := NewParser(logging.NewMockLogger())
	txs, err := p.Parse(context.Background(), []byte(data))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-05", txs[0].BookingDate)
	assert.Equal(t, "-60.00", txs[0].Amount)
	assert.Equal(t, "RESTAURANT, BAR", txs[1].Purpose)
	assert.Equal(t, "-12.50", txs[1].Amount)
}

func TestParse_CommaDelimited(t *testing.T) {
	data := "Belegdatum,Status,Beschreibung,Betrag (EUR)\n02.09.25,Gebucht,SHOP,-5.5\n"

	p := NewParser(logging.NewMockLogger())
	txs, err := p.Parse(context.Background(), []byte(data))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "-5.50", txs[0].Amount)
}

func TestParse_BadValuesDegrade(t *testing.T) {
	data := "Belegdatum;Beschreibung;Betrag\nirgendwann;KIOSK;viel\n;;\n"
	logger := logging.NewMockLogger()

	p := NewParser(logger)
	txs, err := p.Parse(context.Background(), []byte(data))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Empty(t, txs[0].BookingDate)
	assert.Equal(t, "0.00", txs[0].Amount)
	assert.True(t, logger.HasEntry("WARN", "Unreadable receipt date"))
	assert.True(t, logger.HasEntry("WARN", "Amount could not be parsed, using 0"))
}

func TestParse_MissingDescription(t *testing.T) {
	data := "\"Karte\";\"Visa\"\n\"Belegdatum\";\"Status\";\"Betrag (€)\"\n\"02.09.25\";\"Gebucht\";\"-1,00\"\n"

	p := NewParser(logging.NewMockLogger())
	_, err := p.Parse(context.Background(), []byte(data))
	var fe *parsererror.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"Beschreibung"}, fe.Missing)
	assert.True(t, strings.Contains(err.Error(), "Beschreibung"))
}

func TestParse_NoHeader(t *testing.T) {
	p := NewParser(logging.NewMockLogger())
	_, err := p.Parse(context.Background(), []byte("foo;bar\n1;2\n"))
	var fe *parsererror.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"Belegdatum", "Beschreibung", "Betrag"}, fe.Missing)
}

func TestParse_HeaderNamesOnlyAsSubstrings(t *testing.T) {
	data := "Belegdatum (lokal);Beschreibung;Betrag\n01.01.25;X;1\n"
	p := NewParser(logging.NewMockLogger())
	_, err := p.Parse(context.Background(), []byte(data))
	var fe *parsererror.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"Belegdatum"}, fe.Missing)
}
