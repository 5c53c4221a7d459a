package app

import (
	"context"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, config.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Storage)

	acc, err := a.Service.OpenAccount(ctx, ledger.OpenAccountRequest{
		UserID:         "user-1",
		Name:           "Main",
		Type:           "checking",
		OpeningBalance: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))

	payload := "MDEvMDIvMjAyNCBHcm9jZXJ5IFN0b3JlIC00Mi41MA=="
	txs, err := a.Orchestrator.Ingest(ctx, "user-1", payload)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.CategoryFood, txs[0].Category)

	stored, err := a.Store.Account(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("57.50")), stored.Balance.String())
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "sqlite"

	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown driver "sqlite"`)
}
