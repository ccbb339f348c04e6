package domain

import "errors"

// Settlement failure reasons. They are recorded on a FAILED transfer, not
// returned to callers as faults.
var (
	ErrNonPositiveAmount        = errors.New("amount must be greater than zero")
	ErrAccountCurrencyMismatch  = errors.New("source and destination account currencies differ")
	ErrTransferCurrencyMismatch = errors.New("transfer currency differs from account currency")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrAccountMissing           = errors.New("account not found")
)

var (
	ErrTransferMissing    = errors.New("transfer not found")
	ErrTransferNotPending = errors.New("transfer is not pending")
	ErrInvalidCurrency    = errors.New("invalid ISO 4217 currency code")
)
