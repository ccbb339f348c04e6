package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
)

// AccountStore implements ports.AccountRepository in process memory.
// Records are stored by value, so callers only ever hold copies.
type AccountStore struct {
	mu       sync.RWMutex
	ids      ports.IDAllocator
	accounts map[int64]domain.Account
	order    []int64 // creation order
}

// NewAccountStore creates an empty store drawing ids from ids.
func NewAccountStore(ids ports.IDAllocator) *AccountStore {
	return &AccountStore{
		ids:      ids,
		accounts: make(map[int64]domain.Account),
	}
}

// Create assigns the next account id and stores the account. The id is
// taken under the write lock so List order always matches id order.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	account.ID = s.ids.Next()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = *account
	s.order = append(s.order, account.ID)
	return nil
}

// GetByID returns a copy of the account, or nil if it does not exist.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// List returns a snapshot of all accounts in creation order.
func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

// Update replaces the stored record of an existing account.
func (s *AccountStore) Update(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return fmt.Errorf("update account %d: %w", account.ID, domain.ErrAccountMissing)
	}
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = *account
	return nil
}

// UpdateBalances writes the balances of every given account under a single
// write lock. Nothing is written if any account is missing.
func (s *AccountStore) UpdateBalances(ctx context.Context, accounts ...*domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		if _, ok := s.accounts[a.ID]; !ok {
			return fmt.Errorf("update balance of account %d: %w", a.ID, domain.ErrAccountMissing)
		}
	}
	now := time.Now().UTC()
	for _, a := range accounts {
		stored := s.accounts[a.ID]
		stored.Balance = a.Balance
		stored.UpdatedAt = now
		s.accounts[a.ID] = stored
		a.UpdatedAt = now
	}
	return nil
}

// Delete removes the account. Its id is not handed out again.
func (s *AccountStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("delete account %d: %w", id, domain.ErrAccountMissing)
	}
	delete(s.accounts, id)
	s.order = slices.DeleteFunc(s.order, func(v int64) bool { return v == id })
	return nil
}
