package dto

import (
	"time"

	"money-transfer/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Amounts are accepted as JSON strings ("650.00") or numbers (650) and
// always rendered as strings.

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	Name     string           `json:"name" binding:"required,owner_name"`
	Balance  *decimal.Decimal `json:"balance" binding:"required"`
	Currency string           `json:"currency" binding:"required,len=3"`
}

// UpdateAccountRequest is the request body for PUT/PATCH on an account.
// Absent fields are left unchanged.
type UpdateAccountRequest struct {
	Name     *string          `json:"name,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	Currency *string          `json:"currency,omitempty"`
}

// CreateTransferRequest is the request body for transfer creation.
type CreateTransferRequest struct {
	FromAccountID int64            `json:"from_account_id" binding:"required,gt=0"`
	ToAccountID   int64            `json:"to_account_id" binding:"required,gt=0"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Currency      string           `json:"currency" binding:"required,len=3"`
	Comment       string           `json:"comment" binding:"max=255"`
}

// AccountResponse is the response body for an account.
type AccountResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransferResponse is the response body for a transfer.
type TransferResponse struct {
	ID            int64   `json:"id"`
	FromAccountID int64   `json:"from_account_id"`
	ToAccountID   int64   `json:"to_account_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Comment       string  `json:"comment"`
	Status        string  `json:"status"`
	FailureReason string  `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.OwnerName,
		Balance:   a.Balance.String(),
		Currency:  a.Currency.String(),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, ToAccountResponse(&accounts[i]))
	}
	return out
}

func ToTransferResponse(t *domain.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.String(),
		Currency:      t.Currency.String(),
		Comment:       t.Comment,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.ProcessedAt != nil {
		s := t.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

func ToTransferResponses(transfers []domain.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, ToTransferResponse(&transfers[i]))
	}
	return out
}
