package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency is an upper-case ISO 4217 code such as "EUR".
type Currency string

// ParseCurrency validates code against the ISO 4217 table and returns its
// canonical upper-case form.
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return Currency(unit.String()), nil
}

func (c Currency) String() string {
	return string(c)
}
