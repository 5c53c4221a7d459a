package ledger

import (
	"context"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAccount(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})
	ctx := context.Background()

	acct, err := svc.OpenAccount(ctx, OpenAccountRequest{
		Name:           " Savings ",
		Type:           "savings",
		OpeningBalance: decimal.RequireFromString("150.25"),
		UserID:         "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Savings", acct.Name)
	assert.Equal(t, domain.AccountTypeSavings, acct.Type)
	assert.Equal(t, domain.DefaultCurrency, acct.Currency)

	stored, err := svc.Account(ctx, acct.ID, "u2")
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("150.25")))

	txs, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TransactionTypeIncome, txs[0].Type)
	assert.Equal(t, "Opening balance", txs[0].Description)
}

func TestOpenAccountWithoutOpeningBalance(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})
	ctx := context.Background()

	acct, err := svc.OpenAccount(ctx, OpenAccountRequest{Name: "Card", Type: "CREDIT_CARD", Currency: "usd", UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "USD", acct.Currency)

	txs, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestOpenAccountValidation(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})

	tests := []struct {
		name string
		req  OpenAccountRequest
	}{
		{"missing name", OpenAccountRequest{Type: "CHECKING", UserID: "u1"}},
		{"missing user", OpenAccountRequest{Name: "Main", Type: "CHECKING"}},
		{"bad type", OpenAccountRequest{Name: "Main", Type: "CRYPTO", UserID: "u1"}},
		{"negative opening balance", OpenAccountRequest{Name: "Main", Type: "CHECKING", UserID: "u1", OpeningBalance: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.OpenAccount(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAccountScopedToUser(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})

	_, err := svc.Account(context.Background(), "a1", "intruder")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	accounts, err := svc.Accounts(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].ID)
}
