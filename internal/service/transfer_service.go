package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/apperror"

	"github.com/rs/zerolog"
)

const defaultIdempotencyTTL = 24 * time.Hour

// TransferServiceImpl implements ports.TransferService. It is also the
// settlement engine: SettleTransfer is the only place balances move.
type TransferServiceImpl struct {
	accounts   ports.AccountRepository
	transfers  ports.TransferRepository
	locker     ports.AccountLocker
	idempCache ports.IdempotencyCache // nil disables idempotency keys
	idempTTL   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl. idempCache may be nil.
func NewTransferService(
	accounts ports.AccountRepository,
	transfers ports.TransferRepository,
	locker ports.AccountLocker,
	idempCache ports.IdempotencyCache,
	idempTTL time.Duration,
	log zerolog.Logger,
) *TransferServiceImpl {
	if idempTTL <= 0 {
		idempTTL = defaultIdempotencyTTL
	}
	return &TransferServiceImpl{
		accounts:   accounts,
		transfers:  transfers,
		locker:     locker,
		idempCache: idempCache,
		idempTTL:   idempTTL,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// CreateTransfer records a PENDING transfer. Accounts are not checked here;
// settlement decides whether the transfer can go through.
func (s *TransferServiceImpl) CreateTransfer(ctx context.Context, req ports.CreateTransferRequest) (*domain.Transfer, error) {
	ccy, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	var idempKey string
	if s.idempCache != nil && strings.TrimSpace(req.IdempotencyKey) != "" {
		idempKey = domain.BuildTransferIdempotencyKey(req.IdempotencyKey)
		if existing := s.lookupIdempotent(ctx, idempKey); existing != nil {
			return existing, nil
		}
	}

	transfer := &domain.Transfer{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Currency:      ccy,
		Comment:       req.Comment,
		CreatedAt:     s.now(),
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	if idempKey != "" {
		s.storeIdempotent(ctx, idempKey, transfer)
	}

	s.log.Info().
		Int64("transfer_id", transfer.ID).
		Int64("from_account_id", transfer.FromAccountID).
		Int64("to_account_id", transfer.ToAccountID).
		Str("amount", transfer.Amount.String()).
		Str("currency", string(transfer.Currency)).
		Msg("transfer created")

	return transfer, nil
}

func (s *TransferServiceImpl) GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error) {
	transfer, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transfer: %w", err))
	}
	if transfer == nil {
		return nil, apperror.ErrNotFound("transfer")
	}
	return transfer, nil
}

func (s *TransferServiceImpl) ListTransfers(ctx context.Context) ([]domain.Transfer, error) {
	transfers, err := s.transfers.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transfers: %w", err))
	}
	return transfers, nil
}

// SettleTransfer moves funds for a PENDING transfer or marks it FAILED.
//
// Both account locks are held from the status check through the final
// write, so validation and mutation form one unit against any other
// settlement or administrative change on either account. A transfer that
// is no longer PENDING is rejected without touching any state.
func (s *TransferServiceImpl) SettleTransfer(ctx context.Context, id int64) (*domain.Transfer, error) {
	transfer, err := s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transfer.IsPending() {
		return nil, apperror.ErrTransferAlreadyProcessed()
	}

	unlock := s.locker.Lock(transfer.AccountIDs()...)
	defer unlock()

	// a concurrent settlement may have finished while we waited
	transfer, err = s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transfer.IsPending() {
		return nil, apperror.ErrTransferAlreadyProcessed()
	}

	from, to, err := s.loadAccounts(ctx, transfer)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		if err := s.fail(ctx, transfer, domain.ErrAccountMissing); err != nil {
			return nil, err
		}
		return nil, apperror.ErrNotFound("account")
	}

	if err := transfer.Apply(from, to); err != nil {
		if err := s.fail(ctx, transfer, err); err != nil {
			return nil, err
		}
		return transfer, nil
	}

	changed := []*domain.Account{from}
	if to != from {
		changed = append(changed, to)
	}
	if err := s.accounts.UpdateBalances(ctx, changed...); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balances: %w", err))
	}
	if err := transfer.MarkSettled(s.now()); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.transfers.Update(ctx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transfer: %w", err))
	}

	s.log.Info().
		Int64("transfer_id", transfer.ID).
		Int64("from_account_id", transfer.FromAccountID).
		Int64("to_account_id", transfer.ToAccountID).
		Str("amount", transfer.Amount.String()).
		Str("status", string(transfer.Status)).
		Msg("transfer settled")

	return transfer, nil
}

// loadAccounts reads both sides of the transfer. A missing account is
// returned as nil. When both ids match, from and to are the same pointer.
func (s *TransferServiceImpl) loadAccounts(ctx context.Context, t *domain.Transfer) (from, to *domain.Account, err error) {
	from, err = s.accounts.GetByID(ctx, t.FromAccountID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get source account: %w", err))
	}
	if t.ToAccountID == t.FromAccountID {
		return from, from, nil
	}
	to, err = s.accounts.GetByID(ctx, t.ToAccountID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get destination account: %w", err))
	}
	return from, to, nil
}

func (s *TransferServiceImpl) fail(ctx context.Context, t *domain.Transfer, reason error) error {
	if err := t.MarkFailed(reason, s.now()); err != nil {
		return apperror.InternalError(err)
	}
	if err := s.transfers.Update(ctx, t); err != nil {
		return apperror.InternalError(fmt.Errorf("update transfer: %w", err))
	}

	s.log.Info().
		Int64("transfer_id", t.ID).
		Int64("from_account_id", t.FromAccountID).
		Int64("to_account_id", t.ToAccountID).
		Str("amount", t.Amount.String()).
		Str("status", string(t.Status)).
		Str("reason", t.FailureReason).
		Msg("transfer failed")
	return nil
}

// lookupIdempotent returns the transfer previously created under key, in its
// current state. Cache errors are logged and treated as a miss.
func (s *TransferServiceImpl) lookupIdempotent(ctx context.Context, key string) *domain.Transfer {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed, creating transfer")
		return nil
	}
	if cached == nil {
		return nil
	}

	var prev domain.Transfer
	if err := json.Unmarshal(cached, &prev); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable idempotency entry")
		return nil
	}
	current, err := s.transfers.GetByID(ctx, prev.ID)
	if err != nil || current == nil {
		return &prev
	}
	return current
}

func (s *TransferServiceImpl) storeIdempotent(ctx context.Context, key string, t *domain.Transfer) {
	payload, err := json.Marshal(t)
	if err != nil {
		s.log.Warn().Err(err).Int64("transfer_id", t.ID).Msg("failed to encode idempotency entry")
		return
	}
	if err := s.idempCache.Set(ctx, key, payload, s.idempTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency key")
	}
}
