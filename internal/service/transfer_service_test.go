package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
	"money-transfer/internal/core/ports/mocks"
	"money-transfer/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transferTestDeps struct {
	svc          *TransferServiceImpl
	accountRepo  *mocks.MockAccountRepository
	transferRepo *mocks.MockTransferRepository
	locker       *mocks.MockAccountLocker
	idempCache   *mocks.MockIdempotencyCache
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		accountRepo:  mocks.NewMockAccountRepository(ctrl),
		transferRepo: mocks.NewMockTransferRepository(ctrl),
		locker:       mocks.NewMockAccountLocker(ctrl),
		idempCache:   mocks.NewMockIdempotencyCache(ctrl),
	}
	d.svc = NewTransferService(d.accountRepo, d.transferRepo, d.locker, d.idempCache, time.Hour, newTestLogger())
	return d
}

// ==================== Settlement scenarios ====================

func TestTransferService_Settle_ScenarioA_Succeeds(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	tr := l.transfer(t, a.ID, b.ID, "650", "EUR")

	settled, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusSettled, settled.Status)
	assert.Empty(t, settled.FailureReason)
	assert.NotNil(t, settled.ProcessedAt)

	assertBalance(t, "461", l.balance(t, a.ID))
	assertBalance(t, "884", l.balance(t, b.ID))

	stored, err := l.transfers.GetTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusSettled, stored.Status)
}

func TestTransferService_Settle_ScenarioB_CurrencyMismatch(t *testing.T) {
	l := newTestLedger(t)
	b := l.account(t, "Bach", "234", "EUR")
	c := l.account(t, "Caesar", "10000", "GBP")
	tr := l.transfer(t, b.ID, c.ID, "200", "USD")

	result, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	require.NoError(t, err, "a failed settlement is a normal outcome")
	assert.Equal(t, domain.TransferStatusFailed, result.Status)
	assert.Equal(t, domain.ErrAccountCurrencyMismatch.Error(), result.FailureReason)

	assertBalance(t, "234", l.balance(t, b.ID))
	assertBalance(t, "10000", l.balance(t, c.ID))
}

func TestTransferService_Settle_ScenarioC_InsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	tr := l.transfer(t, a.ID, b.ID, "2000", "EUR")

	result, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusFailed, result.Status)
	assert.Equal(t, domain.ErrInsufficientFunds.Error(), result.FailureReason)

	assertBalance(t, "1111", l.balance(t, a.ID))
	assertBalance(t, "234", l.balance(t, b.ID))
}

func TestTransferService_Settle_ScenarioD_UnknownTransfer(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.transfers.SettleTransfer(context.Background(), 404)
	assertAppError(t, err, "LED_001")
}

func TestTransferService_Settle_FailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		ccy    string
		want   error
	}{
		{"zero amount", "0", "EUR", domain.ErrNonPositiveAmount},
		{"negative amount", "-3", "EUR", domain.ErrNonPositiveAmount},
		{"transfer currency differs", "10", "GBP", domain.ErrTransferCurrencyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			a := l.account(t, "Yuanwen", "1111", "EUR")
			b := l.account(t, "Bach", "234", "EUR")
			tr := l.transfer(t, a.ID, b.ID, tt.amount, tt.ccy)

			result, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.TransferStatusFailed, result.Status)
			assert.Equal(t, tt.want.Error(), result.FailureReason)
			assertBalance(t, "1111", l.balance(t, a.ID))
		})
	}
}

func TestTransferService_Settle_OnlyFromPending(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	ctx := context.Background()

	settled := l.transfer(t, a.ID, b.ID, "650", "EUR")
	_, err := l.transfers.SettleTransfer(ctx, settled.ID)
	require.NoError(t, err)

	_, err = l.transfers.SettleTransfer(ctx, settled.ID)
	assertAppError(t, err, "LED_004")
	assertBalance(t, "461", l.balance(t, a.ID))
	assertBalance(t, "884", l.balance(t, b.ID))

	failed := l.transfer(t, a.ID, b.ID, "5000", "EUR")
	_, err = l.transfers.SettleTransfer(ctx, failed.ID)
	require.NoError(t, err)

	// topping up does not make a FAILED transfer eligible again
	_, err = l.accounts.UpdateAccount(ctx, a.ID, ports.UpdateAccountRequest{Balance: ptr(dec("10000"))})
	require.NoError(t, err)
	_, err = l.transfers.SettleTransfer(ctx, failed.ID)
	assertAppError(t, err, "LED_004")

	stored, _ := l.transfers.GetTransfer(ctx, failed.ID)
	assert.Equal(t, domain.TransferStatusFailed, stored.Status)
	assertBalance(t, "10000", l.balance(t, a.ID))
}

func TestTransferService_Settle_MissingAccount(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	tr := l.transfer(t, a.ID, 99, "10", "EUR")

	_, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	assertAppError(t, err, "LED_001")

	stored, err := l.transfers.GetTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusFailed, stored.Status)
	assert.Equal(t, "account not found", stored.FailureReason)
	assertBalance(t, "1111", l.balance(t, a.ID))
}

func TestTransferService_Settle_DeletedAccount(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	tr := l.transfer(t, a.ID, b.ID, "10", "EUR")
	require.NoError(t, l.accounts.DeleteAccount(context.Background(), b.ID))

	_, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	assertAppError(t, err, "LED_001")
	assertBalance(t, "1111", l.balance(t, a.ID))
}

func TestTransferService_Settle_SameAccount(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "100", "EUR")
	tr := l.transfer(t, a.ID, a.ID, "40", "EUR")

	result, err := l.transfers.SettleTransfer(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusSettled, result.Status)
	assertBalance(t, "100", l.balance(t, a.ID))
}

func TestTransferService_Settle_ConservesTotal(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	ctx := context.Background()

	amounts := []string{"0.01", "100.5", "999.99", "3", "250"}
	for i, amt := range amounts {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = b.ID, a.ID
		}
		tr := l.transfer(t, from, to, amt, "EUR")
		_, err := l.transfers.SettleTransfer(ctx, tr.ID)
		require.NoError(t, err)
	}

	total := l.balance(t, a.ID).Balance.Add(l.balance(t, b.ID).Balance)
	assert.True(t, dec("1345").Equal(total), "got %s", total)
}

// ==================== Concurrency ====================

func TestTransferService_Settle_ConcurrentDrainNeverOverdraws(t *testing.T) {
	l := newTestLedger(t)
	src := l.account(t, "Yuanwen", "100", "EUR")
	ctx := context.Background()

	const n = 50
	dests := make([]int64, 4)
	for i := range dests {
		dests[i] = l.account(t, "dest", "0", "EUR").ID
	}
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = l.transfer(t, src.ID, dests[i%len(dests)], "7", "EUR").ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.transfers.SettleTransfer(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	settledSum := decimal.Zero
	settled := 0
	for _, id := range ids {
		tr, err := l.transfers.GetTransfer(ctx, id)
		require.NoError(t, err)
		require.True(t, tr.IsTerminal())
		if tr.Status == domain.TransferStatusSettled {
			settledSum = settledSum.Add(tr.Amount)
			settled++
		} else {
			assert.Equal(t, domain.ErrInsufficientFunds.Error(), tr.FailureReason)
		}
	}

	final := l.balance(t, src.ID)
	assert.False(t, final.Balance.IsNegative())
	assert.Equal(t, 14, settled)
	assert.True(t, dec("100").Sub(settledSum).Equal(final.Balance), "final %s, settled %s", final.Balance, settledSum)

	destSum := decimal.Zero
	for _, id := range dests {
		destSum = destSum.Add(l.balance(t, id).Balance)
	}
	assert.True(t, settledSum.Equal(destSum))
}

func TestTransferService_Settle_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1000", "EUR")
	b := l.account(t, "Bach", "1000", "EUR")
	ctx := context.Background()

	const n = 100
	ids := make([]int64, n)
	for i := range ids {
		if i%2 == 0 {
			ids[i] = l.transfer(t, a.ID, b.ID, "1", "EUR").ID
		} else {
			ids[i] = l.transfer(t, b.ID, a.ID, "1", "EUR").ID
		}
	}

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, id := range ids {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.transfers.SettleTransfer(ctx, id)
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("opposite-direction settlements deadlocked")
	}

	assertBalance(t, "1000", l.balance(t, a.ID))
	assertBalance(t, "1000", l.balance(t, b.ID))
}

func TestTransferService_Settle_ConcurrentSameTransferSettlesOnce(t *testing.T) {
	l := newTestLedger(t)
	a := l.account(t, "Yuanwen", "1111", "EUR")
	b := l.account(t, "Bach", "234", "EUR")
	tr := l.transfer(t, a.ID, b.ID, "650", "EUR")
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for j := 0; j < n; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.transfers.SettleTransfer(ctx, tr.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assertAppError(t, err, "LED_004")
	}
	assert.Equal(t, 1, ok)
	assertBalance(t, "461", l.balance(t, a.ID))
	assertBalance(t, "884", l.balance(t, b.ID))
}

// ==================== Error paths ====================

func TestTransferService_Settle_UpdateBalancesError(t *testing.T) {
	d := setupTransferService(t)
	ctx := context.Background()
	pending := func() *domain.Transfer {
		return &domain.Transfer{ID: 1, FromAccountID: 1, ToAccountID: 2, Amount: dec("10"), Currency: "EUR", Status: domain.TransferStatusPending}
	}

	d.transferRepo.EXPECT().GetByID(ctx, int64(1)).Return(pending(), nil)
	d.locker.EXPECT().Lock(int64(1), int64(2)).Return(func() {})
	d.transferRepo.EXPECT().GetByID(ctx, int64(1)).Return(pending(), nil)
	d.accountRepo.EXPECT().GetByID(ctx, int64(1)).Return(&domain.Account{ID: 1, Balance: dec("100"), Currency: "EUR"}, nil)
	d.accountRepo.EXPECT().GetByID(ctx, int64(2)).Return(&domain.Account{ID: 2, Balance: dec("0"), Currency: "EUR"}, nil)
	d.accountRepo.EXPECT().UpdateBalances(ctx, gomock.Any(), gomock.Any()).Return(errors.New("boom"))

	_, err := d.svc.SettleTransfer(ctx, 1)
	assertAppError(t, err, "SYS_001")
}

func TestTransferService_Settle_RecheckUnderLock(t *testing.T) {
	d := setupTransferService(t)
	ctx := context.Background()

	d.transferRepo.EXPECT().GetByID(ctx, int64(1)).Return(&domain.Transfer{
		ID: 1, FromAccountID: 1, ToAccountID: 2, Status: domain.TransferStatusPending,
	}, nil)
	d.locker.EXPECT().Lock(int64(1), int64(2)).Return(func() {})
	d.transferRepo.EXPECT().GetByID(ctx, int64(1)).Return(&domain.Transfer{
		ID: 1, FromAccountID: 1, ToAccountID: 2, Status: domain.TransferStatusSettled,
	}, nil)

	_, err := d.svc.SettleTransfer(ctx, 1)
	assertAppError(t, err, "LED_004")
}

func TestTransferService_GetTransfer_RepoError(t *testing.T) {
	d := setupTransferService(t)
	d.transferRepo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(nil, errors.New("boom"))

	_, err := d.svc.GetTransfer(context.Background(), 8)
	assertAppError(t, err, "SYS_001")
}

// ==================== CreateTransfer ====================

func TestTransferService_CreateTransfer(t *testing.T) {
	l := newTestLedger(t)

	tr, err := l.transfers.CreateTransfer(context.Background(), ports.CreateTransferRequest{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        dec("650"),
		Currency:      "eur",
		Comment:       "Rent",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tr.ID)
	assert.Equal(t, domain.TransferStatusPending, tr.Status)
	assert.Equal(t, domain.Currency("EUR"), tr.Currency)
	assert.Equal(t, "Rent", tr.Comment)
	assert.Nil(t, tr.ProcessedAt)

	list, err := l.transfers.ListTransfers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTransferService_CreateTransfer_InvalidCurrency(t *testing.T) {
	d := setupTransferService(t)

	_, err := d.svc.CreateTransfer(context.Background(), ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EURO",
	})
	assertAppError(t, err, "VAL_001")
}

func TestTransferService_CreateTransfer_IdempotencyMiss(t *testing.T) {
	d := setupTransferService(t)
	ctx := context.Background()
	key := domain.BuildTransferIdempotencyKey("k-1")

	d.idempCache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.transferRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, tr *domain.Transfer) error {
		tr.ID = 5
		tr.Status = domain.TransferStatusPending
		return nil
	})
	d.idempCache.EXPECT().Set(ctx, key, gomock.Any(), time.Hour).DoAndReturn(
		func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			var cached domain.Transfer
			require.NoError(t, json.Unmarshal(value, &cached))
			assert.Equal(t, int64(5), cached.ID)
			return nil
		})

	tr, err := d.svc.CreateTransfer(ctx, ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EUR", IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), tr.ID)
}

func TestTransferService_CreateTransfer_IdempotencyHitReturnsCurrentState(t *testing.T) {
	d := setupTransferService(t)
	ctx := context.Background()
	key := domain.BuildTransferIdempotencyKey("k-2")

	cached, _ := json.Marshal(domain.Transfer{ID: 3, Status: domain.TransferStatusPending, Amount: dec("1"), Currency: "EUR"})
	d.idempCache.EXPECT().Get(ctx, key).Return(cached, nil)
	d.transferRepo.EXPECT().GetByID(ctx, int64(3)).Return(&domain.Transfer{ID: 3, Status: domain.TransferStatusSettled}, nil)
	// no Create, no Set

	tr, err := d.svc.CreateTransfer(ctx, ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EUR", IdempotencyKey: "k-2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), tr.ID)
	assert.Equal(t, domain.TransferStatusSettled, tr.Status)
}

func TestTransferService_CreateTransfer_IdempotencyCacheDown(t *testing.T) {
	d := setupTransferService(t)
	ctx := context.Background()
	key := domain.BuildTransferIdempotencyKey("k-3")

	d.idempCache.EXPECT().Get(ctx, key).Return(nil, errors.New("connection refused"))
	d.transferRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(ctx, key, gomock.Any(), time.Hour).Return(errors.New("connection refused"))

	tr, err := d.svc.CreateTransfer(ctx, ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EUR", IdempotencyKey: "k-3",
	})
	require.NoError(t, err, "cache failures are best-effort")
	assert.NotNil(t, tr)
}

func TestTransferService_CreateTransfer_NoKeySkipsCache(t *testing.T) {
	d := setupTransferService(t)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	_, err := d.svc.CreateTransfer(context.Background(), ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EUR",
	})
	require.NoError(t, err)
}

func TestTransferService_CreateTransfer_RepoError(t *testing.T) {
	d := setupTransferService(t)
	d.transferRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("boom"))

	_, err := d.svc.CreateTransfer(context.Background(), ports.CreateTransferRequest{
		FromAccountID: 1, ToAccountID: 2, Amount: dec("1"), Currency: "EUR",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.HTTPStatus)
}
