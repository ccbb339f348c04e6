package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"

	"money-transfer/internal/core/domain"
)

// IDAllocator issues unique, strictly increasing identifiers.
// Each entity kind owns its own allocator.
type IDAllocator interface {
	Next() int64
}

// AccountRepository defines storage operations for accounts.
// GetByID returns nil, nil when the account does not exist.
// Returned records are copies; callers persist changes explicitly.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	// UpdateBalances stores the balances of all given accounts as one step:
	// a concurrent reader sees either none or all of them.
	UpdateBalances(ctx context.Context, accounts ...*domain.Account) error
	Delete(ctx context.Context, id int64) error
}

// TransferRepository defines storage operations for transfers.
// Transfers are append-only history: there is no Delete.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id int64) (*domain.Transfer, error)
	List(ctx context.Context) ([]domain.Transfer, error)
	Update(ctx context.Context, transfer *domain.Transfer) error
}

// AccountLocker serialises work on individual accounts. Lock blocks until
// every listed account is held and returns the function that releases them.
type AccountLocker interface {
	Lock(ids ...int64) (unlock func())
}
