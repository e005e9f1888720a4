package parsererror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FormatError
		expected string
	}{
		{
			name:     "missing columns",
			err:      &FormatError{Parser: "revolut", Missing: []string{"Art", "Gebühr"}},
			expected: "revolut: invalid format; missing columns: Art, Gebühr",
		},
		{
			name:     "message and expectation",
			err:      &FormatError{Parser: "amex", Msg: "document is not a readable PDF", Expected: "PDF"},
			expected: "amex: invalid format: document is not a readable PDF. Expected: PDF",
		},
		{
			name:     "header not found",
			err:      &FormatError{Parser: "dkb-credit", Msg: "header row not found", Missing: []string{"Beschreibung"}},
			expected: "dkb-credit: invalid format: header row not found; missing columns: Beschreibung",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestParseError(t *testing.T) {
	cause := errors.New("can't convert 12,3,4 to decimal")
	err := &ParseError{Parser: "amount", Field: "amount", Value: "12,3,4", Err: cause}

	assert.Equal(t, "amount: failed to parse amount='12,3,4': can't convert 12,3,4 to decimal", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestUnknownSourceError(t *testing.T) {
	err := &UnknownSourceError{Source: "sparkasse"}
	assert.Equal(t, `unknown bank source "sparkasse"`, err.Error())
	assert.True(t, IsClientError(err))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("dkb", nil))

	formatErr := &FormatError{Parser: "dkb", Missing: []string{"Buchungsdatum"}}
	assert.Same(t, formatErr, Wrap("dkb", formatErr))

	wrappedFormat := fmt.Errorf("reading export: %w", formatErr)
	assert.Equal(t, wrappedFormat, Wrap("dkb", wrappedFormat))

	err := Wrap("amex", context.DeadlineExceeded)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "amex", pe.Parser)
	assert.Equal(t, "document", pe.Field)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsClientError(err))
}
