package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
)

// TransferStore implements ports.TransferRepository in process memory.
type TransferStore struct {
	mu        sync.RWMutex
	ids       ports.IDAllocator
	transfers map[int64]domain.Transfer
	order     []int64
}

// NewTransferStore creates an empty store drawing ids from ids.
func NewTransferStore(ids ports.IDAllocator) *TransferStore {
	return &TransferStore{
		ids:       ids,
		transfers: make(map[int64]domain.Transfer),
	}
}

// Create assigns the next transfer id and stores the transfer as PENDING.
func (s *TransferStore) Create(ctx context.Context, transfer *domain.Transfer) error {
	transfer.Status = domain.TransferStatusPending
	transfer.FailureReason = ""
	transfer.ProcessedAt = nil
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	transfer.ID = s.ids.Next()
	s.transfers[transfer.ID] = *transfer
	s.order = append(s.order, transfer.ID)
	return nil
}

// GetByID returns a copy of the transfer, or nil if it does not exist.
func (s *TransferStore) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// List returns a snapshot of all transfers in creation order.
func (s *TransferStore) List(ctx context.Context) ([]domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transfer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.transfers[id])
	}
	return out, nil
}

// Update replaces the stored record of an existing transfer.
func (s *TransferStore) Update(ctx context.Context, transfer *domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transfers[transfer.ID]; !ok {
		return fmt.Errorf("update transfer %d: %w", transfer.ID, domain.ErrTransferMissing)
	}
	s.transfers[transfer.ID] = *transfer
	return nil
}
