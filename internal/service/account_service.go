package service

import (
	"context"
	"fmt"
	"strings"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accounts ports.AccountRepository
	locker   ports.AccountLocker
	log      zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accounts ports.AccountRepository,
	locker ports.AccountLocker,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accounts: accounts,
		locker:   locker,
		log:      log,
	}
}

func (s *AccountServiceImpl) CreateAccount(ctx context.Context, req ports.CreateAccountRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.OwnerName)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if req.Balance.IsNegative() {
		return nil, apperror.ErrNegativeBalance()
	}
	ccy, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	account := &domain.Account{
		OwnerName: name,
		Balance:   req.Balance,
		Currency:  ccy,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Int64("account_id", account.ID).
		Str("currency", string(account.Currency)).
		Msg("account created")

	return account, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return account, nil
}

func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

// UpdateAccount applies every non-nil field of req. Fields are validated
// before any is applied, so an invalid field leaves the account untouched.
// The account lock is held throughout, so the update never interleaves with
// a settlement touching the same account.
func (s *AccountServiceImpl) UpdateAccount(ctx context.Context, id int64, req ports.UpdateAccountRequest) (*domain.Account, error) {
	if req.OwnerName == nil && req.Balance == nil && req.Currency == nil {
		return nil, apperror.ErrNothingToUpdate()
	}

	var (
		name string
		ccy  domain.Currency
		err  error
	)
	if req.OwnerName != nil {
		name = strings.TrimSpace(*req.OwnerName)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
	}
	if req.Balance != nil && req.Balance.IsNegative() {
		return nil, apperror.ErrNegativeBalance()
	}
	if req.Currency != nil {
		if ccy, err = domain.ParseCurrency(*req.Currency); err != nil {
			return nil, apperror.Validation(err.Error())
		}
	}

	unlock := s.locker.Lock(id)
	defer unlock()

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.OwnerName != nil {
		account.OwnerName = name
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if req.Currency != nil {
		account.Currency = ccy
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update account: %w", err))
	}

	s.log.Info().Int64("account_id", id).Msg("account updated")
	return account, nil
}

func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, id int64) error {
	unlock := s.locker.Lock(id)
	defer unlock()

	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete account: %w", err))
	}

	s.log.Info().Int64("account_id", id).Msg("account deleted")
	return nil
}
