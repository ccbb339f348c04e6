package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a named balance denominated in one currency.
// ID is assigned by the account store and never changes.
type Account struct {
	ID        int64           `json:"id"`
	OwnerName string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  Currency        `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Debit removes amount from the balance. The balance never goes negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}
