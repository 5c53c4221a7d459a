package ledger

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/store/inmemory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *inmemory.Store {
	t.Helper()
	s := inmemory.NewStore()
	require.NoError(t, s.CreateAccount(context.Background(), &domain.Account{
		ID: "a1", UserID: "u1", Name: "Main", Type: domain.AccountTypeChecking,
		Currency: domain.DefaultCurrency, CreatedAt: time.Now(),
	}))
	return s
}

func intent(typ domain.TransactionType, amount decimal.Decimal) Intent {
	return Intent{
		Amount:      amount,
		Type:        typ,
		Category:    domain.CategoryFood,
		Description: "Lunch",
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		AccountID:   "a1",
		UserID:      "u1",
	}
}

func TestRecordBalanceEqualsSignedSum(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := NewEngine(s)
	rng := rand.New(rand.NewPCG(3, 5))

	types := []domain.TransactionType{domain.TransactionTypeIncome, domain.TransactionTypeExpense, domain.TransactionTypeTransfer}
	want := decimal.Zero
	for i := 0; i < 200; i++ {
		typ := types[rng.IntN(len(types))]
		amount := decimal.New(int64(rng.IntN(100000)+1), -2)
		tx, err := e.Record(ctx, intent(typ, amount))
		require.NoError(t, err)
		want = want.Add(tx.SignedAmount())
	}

	acct, err := s.Account(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, want.Equal(acct.Balance), "want %s got %s", want, acct.Balance)
}

func TestRecordConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := NewEngine(s)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Record(ctx, intent(domain.TransactionTypeIncome, decimal.RequireFromString("1.25")))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acct, err := s.Account(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "50", acct.Balance.String())
}

func TestRecordMissingAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := NewEngine(s)

	in := intent(domain.TransactionTypeExpense, decimal.NewFromInt(10))
	in.AccountID = "missing"
	_, err := e.Record(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	txs, err := s.TransactionsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRecordValidation(t *testing.T) {
	e := NewEngine(newTestStore(t))

	tests := []struct {
		name   string
		mutate func(*Intent)
	}{
		{"zero amount", func(in *Intent) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *Intent) { in.Amount = decimal.NewFromInt(-1) }},
		{"bad type", func(in *Intent) { in.Type = "REFUND" }},
		{"bad category", func(in *Intent) { in.Category = "TRAVEL" }},
		{"no account", func(in *Intent) { in.AccountID = "" }},
		{"no user", func(in *Intent) { in.UserID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := intent(domain.TransactionTypeIncome, decimal.NewFromInt(1))
			tt.mutate(&in)
			_, err := e.Record(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRecordDefaultsDate(t *testing.T) {
	e := NewEngine(newTestStore(t))
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	in := intent(domain.TransactionTypeIncome, decimal.NewFromInt(1))
	in.Date = time.Time{}
	tx, err := e.Record(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, fixed, tx.Date)
	assert.Equal(t, fixed, tx.CreatedAt)
	assert.NotEmpty(t, tx.ID)
}

func TestCompensationDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := NewEngine(s)

	goal := &domain.Goal{ID: "g1", AccountID: "a1"}
	tx, delta, err := e.Compensation(goal, "u1", domain.TransactionTypeExpense, decimal.NewFromInt(20), "Deposit to goal")
	require.NoError(t, err)

	assert.Equal(t, domain.CategorySavings, tx.Category)
	assert.Equal(t, "g1", tx.GoalID)
	assert.Equal(t, "-20", delta.String())

	_, err = s.Transaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
