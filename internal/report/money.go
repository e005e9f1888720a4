package report

import (
	"github.com/shopspring/decimal"
)

// Money is a decimal rendered as a JSON number with two decimals.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m Money) String() string {
	return m.StringFixed(2)
}
