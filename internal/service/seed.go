package service

import (
	"context"
	"fmt"

	"money-transfer/internal/core/ports"

	"github.com/shopspring/decimal"
)

// SeedDemoData creates the demo accounts and PENDING transfers the service
// starts with when ledger.seed_demo_data is set.
func SeedDemoData(ctx context.Context, accounts ports.AccountService, transfers ports.TransferService) error {
	seedAccounts := []ports.CreateAccountRequest{
		{OwnerName: "Yuanwen", Balance: decimal.NewFromInt(1111), Currency: "EUR"},
		{OwnerName: "Bach", Balance: decimal.NewFromInt(234), Currency: "EUR"},
		{OwnerName: "Caesar", Balance: decimal.NewFromInt(10000), Currency: "GBP"},
	}

	ids := make([]int64, len(seedAccounts))
	for i, req := range seedAccounts {
		a, err := accounts.CreateAccount(ctx, req)
		if err != nil {
			return fmt.Errorf("seeding account %q: %w", req.OwnerName, err)
		}
		ids[i] = a.ID
	}
	yuanwen, bach, caesar := ids[0], ids[1], ids[2]

	seedTransfers := []ports.CreateTransferRequest{
		{FromAccountID: yuanwen, ToAccountID: bach, Amount: decimal.NewFromInt(650), Currency: "EUR", Comment: "Rent"},
		{FromAccountID: bach, ToAccountID: caesar, Amount: decimal.NewFromInt(200), Currency: "USD", Comment: "Gift"},
		{FromAccountID: bach, ToAccountID: yuanwen, Amount: decimal.NewFromInt(100), Currency: "EUR", Comment: "Shopping"},
	}
	for _, req := range seedTransfers {
		if _, err := transfers.CreateTransfer(ctx, req); err != nil {
			return fmt.Errorf("seeding transfer %q: %w", req.Comment, err)
		}
	}
	return nil
}
