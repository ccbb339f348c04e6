package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"money-transfer/internal/core/domain"

	"github.com/shopspring/decimal"
)

// IdempotencyCache stores the response of a write keyed by a client key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// AccountService defines account administration.
type AccountService interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, req UpdateAccountRequest) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// CreateAccountRequest holds validated input for account creation.
type CreateAccountRequest struct {
	OwnerName string
	Balance   decimal.Decimal
	Currency  string
}

// UpdateAccountRequest holds a partial account update; nil fields are left as is.
type UpdateAccountRequest struct {
	OwnerName *string
	Balance   *decimal.Decimal
	Currency  *string
}

// TransferService defines transfer creation, lookup and settlement.
type TransferService interface {
	CreateTransfer(ctx context.Context, req CreateTransferRequest) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error)
	ListTransfers(ctx context.Context) ([]domain.Transfer, error)
	// SettleTransfer returns the processed transfer. A FAILED status is a
	// business outcome, not an error.
	SettleTransfer(ctx context.Context, id int64) (*domain.Transfer, error)
}

// CreateTransferRequest holds validated input for transfer creation.
type CreateTransferRequest struct {
	FromAccountID  int64
	ToAccountID    int64
	Amount         decimal.Decimal
	Currency       string
	Comment        string
	IdempotencyKey string // optional
}

// AuditService records audited writes.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}
