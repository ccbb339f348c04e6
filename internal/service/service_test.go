package service

import (
	"context"
	"io"
	"testing"

	"money-transfer/internal/adapter/storage/memory"
	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, want string, a *domain.Account) {
	t.Helper()
	require.NotNil(t, a)
	assert.True(t, dec(want).Equal(a.Balance), "want balance %s, got %s", want, a.Balance)
}

// testLedger wires both services to real in-memory stores.
type testLedger struct {
	accountRepo  *memory.AccountStore
	transferRepo *memory.TransferStore
	accounts     *AccountServiceImpl
	transfers    *TransferServiceImpl
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	locker := memory.NewKeyedLocker()
	l := &testLedger{
		accountRepo:  memory.NewAccountStore(memory.NewSequence(1)),
		transferRepo: memory.NewTransferStore(memory.NewSequence(1)),
	}
	l.accounts = NewAccountService(l.accountRepo, locker, newTestLogger())
	l.transfers = NewTransferService(l.accountRepo, l.transferRepo, locker, nil, 0, newTestLogger())
	return l
}

func (l *testLedger) account(t *testing.T, name, balance, ccy string) *domain.Account {
	t.Helper()
	a, err := l.accounts.CreateAccount(context.Background(), ports.CreateAccountRequest{
		OwnerName: name,
		Balance:   dec(balance),
		Currency:  ccy,
	})
	require.NoError(t, err)
	return a
}

func (l *testLedger) transfer(t *testing.T, from, to int64, amount, ccy string) *domain.Transfer {
	t.Helper()
	tr, err := l.transfers.CreateTransfer(context.Background(), ports.CreateTransferRequest{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        dec(amount),
		Currency:      ccy,
	})
	require.NoError(t, err)
	return tr
}

func (l *testLedger) balance(t *testing.T, id int64) *domain.Account {
	t.Helper()
	a, err := l.accounts.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a
}
