package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus represents the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusPending TransferStatus = "PENDING"
	TransferStatusSettled TransferStatus = "SETTLED"
	TransferStatusFailed  TransferStatus = "FAILED"
)

// Transfer is a requested movement of funds between two accounts.
// Everything except Status, FailureReason and ProcessedAt is fixed at creation.
type Transfer struct {
	ID            int64           `json:"id"`
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	Comment       string          `json:"comment"`
	Status        TransferStatus  `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// IsPending returns true if the transfer is still eligible for settlement.
func (t *Transfer) IsPending() bool {
	return t.Status == TransferStatusPending
}

// IsTerminal returns true if the transfer is in a final state.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusSettled ||
		t.Status == TransferStatusFailed
}

// AccountIDs returns the ids of the accounts the transfer touches.
func (t *Transfer) AccountIDs() []int64 {
	return []int64{t.FromAccountID, t.ToAccountID}
}

// Validate checks the transfer against the current state of both accounts.
// Checks run in a fixed order and the first failure wins.
func (t *Transfer) Validate(from, to *Account) error {
	if from == nil || to == nil {
		return ErrAccountMissing
	}
	if !t.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if from.Currency != to.Currency {
		return ErrAccountCurrencyMismatch
	}
	if from.Currency != t.Currency {
		return ErrTransferCurrencyMismatch
	}
	if from.Balance.LessThan(t.Amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Apply validates the transfer and moves Amount from one account to the other.
// On error neither account is modified. from and to may be the same account.
func (t *Transfer) Apply(from, to *Account) error {
	if err := t.Validate(from, to); err != nil {
		return err
	}
	if err := from.Debit(t.Amount); err != nil {
		return err
	}
	return to.Credit(t.Amount)
}

// MarkSettled moves a pending transfer to SETTLED.
func (t *Transfer) MarkSettled(at time.Time) error {
	if !t.IsPending() {
		return ErrTransferNotPending
	}
	t.Status = TransferStatusSettled
	t.FailureReason = ""
	t.ProcessedAt = &at
	return nil
}

// MarkFailed moves a pending transfer to FAILED and records why.
func (t *Transfer) MarkFailed(reason error, at time.Time) error {
	if !t.IsPending() {
		return ErrTransferNotPending
	}
	t.Status = TransferStatusFailed
	if reason != nil {
		t.FailureReason = reason.Error()
	}
	t.ProcessedAt = &at
	return nil
}
