package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"money-transfer/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateAccountRequest{Name: "  Yuanwen  ", Currency: " EUR "}
	SanitizeStruct(&req)

	assert.Equal(t, "Yuanwen", req.Name)
	assert.Equal(t, "EUR", req.Currency)
}

func TestSanitizeStruct_KeepsSpecialCharacters(t *testing.T) {
	req := CreateTransferRequest{Comment: " rent <May> & 'June' "}
	SanitizeStruct(&req)

	assert.Equal(t, "rent <May> & 'June'", req.Comment)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	name := "  Bach  "
	bal := decimal.NewFromInt(5)
	req := UpdateAccountRequest{Name: &name, Balance: &bal}
	SanitizeStruct(&req)

	assert.Equal(t, "Bach", *req.Name)
	assert.True(t, decimal.NewFromInt(5).Equal(*req.Balance))
	assert.Nil(t, req.Currency)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestValidOwnerName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Yuanwen", true},
		{"Jean-Luc Picard", true},
		{"Zoë", true},
		{"", false},
		{"   ", false},
		{"tab\tname", false},
		{strings.Repeat("a", maxOwnerNameLen), true},
		{strings.Repeat("a", maxOwnerNameLen+1), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidOwnerName(tc.in), "name %q", tc.in)
	}
}

func TestValidIdempotencyKey(t *testing.T) {
	assert.True(t, ValidIdempotencyKey("7f1c-22ab"))
	assert.True(t, ValidIdempotencyKey("order:42"))
	assert.False(t, ValidIdempotencyKey(""))
	assert.False(t, ValidIdempotencyKey("has space"))
	assert.False(t, ValidIdempotencyKey(strings.Repeat("k", 129)))
}

func TestCreateAccountRequest_Binding(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"string balance", `{"name":"Yuanwen","balance":"1111.50","currency":"EUR"}`, true},
		{"numeric balance", `{"name":"Yuanwen","balance":1111,"currency":"EUR"}`, true},
		{"missing balance", `{"name":"Yuanwen","currency":"EUR"}`, false},
		{"blank name", `{"name":"  ","balance":"1","currency":"EUR"}`, false},
		{"long currency", `{"name":"Bach","balance":"1","currency":"EURO"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateAccountRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			err := binding.Validator.ValidateStruct(&req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCreateTransferRequest_RejectsMalformedAmount(t *testing.T) {
	var req CreateTransferRequest
	err := json.Unmarshal([]byte(`{"from_account_id":1,"to_account_id":2,"amount":"ten","currency":"EUR"}`), &req)
	assert.Error(t, err)
}

func TestToTransferResponse(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := &domain.Transfer{
		ID:            1,
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        decimal.RequireFromString("650.10"),
		Currency:      "EUR",
		Comment:       "Rent",
		Status:        domain.TransferStatusPending,
		CreatedAt:     created,
	}

	resp := ToTransferResponse(tr)
	assert.Equal(t, "650.1", resp.Amount)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "2024-03-01T10:00:00Z", resp.CreatedAt)
	assert.Nil(t, resp.ProcessedAt)

	processed := created.Add(time.Minute)
	tr.ProcessedAt = &processed
	resp = ToTransferResponse(tr)
	require.NotNil(t, resp.ProcessedAt)
	assert.Equal(t, "2024-03-01T10:01:00Z", *resp.ProcessedAt)
}

func TestToAccountResponses_Empty(t *testing.T) {
	out := ToAccountResponses(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
