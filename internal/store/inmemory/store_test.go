package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *Store, id, userID string, created time.Time) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &domain.Account{
		ID:        id,
		UserID:    userID,
		Name:      "Main",
		Type:      domain.AccountTypeChecking,
		Balance:   decimal.Zero,
		Currency:  domain.DefaultCurrency,
		CreatedAt: created,
	}))
}

func tx(id, accountID string, typ domain.TransactionType, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:        id,
		AccountID: accountID,
		UserID:    "u1",
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		Category:  domain.CategoryFood,
		Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecordTransactionMissingAccount(t *testing.T) {
	s := NewStore()
	err := s.RecordTransaction(context.Background(), tx("t1", "nope", domain.TransactionTypeIncome, "1"), decimal.NewFromInt(1))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Transaction(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordTransactionConcurrent(t *testing.T) {
	s := NewStore()
	seedAccount(t, s, "a1", "u1", time.Now())

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := domain.TransactionTypeIncome
			if i%2 == 1 {
				typ = domain.TransactionTypeExpense
			}
			txn := tx(fmt.Sprintf("t%d", i), "a1", typ, "2.50")
			assert.NoError(t, s.RecordTransaction(context.Background(), txn, txn.SignedAmount()))
		}(i)
	}
	wg.Wait()

	acct, err := s.Account(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero(), "balance %s", acct.Balance)

	txs, err := s.TransactionsByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, txs, writers)
}

func TestApplyGoalChangeCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "u1", time.Now())
	require.NoError(t, s.CreateGoal(ctx, &domain.Goal{
		ID: "g1", AccountID: "a1", TargetAmount: decimal.NewFromInt(100),
		CurrentAmount: decimal.Zero, Status: domain.GoalStatusInProgress,
	}))

	change := store.GoalChange{
		Goal:            &domain.Goal{ID: "g1", CurrentAmount: decimal.NewFromInt(30), Status: domain.GoalStatusInProgress},
		ExpectedCurrent: decimal.NewFromInt(5),
		Transaction:     tx("t1", "a1", domain.TransactionTypeExpense, "30"),
		Delta:           decimal.NewFromInt(-30),
	}
	err := s.ApplyGoalChange(ctx, change)
	assert.ErrorIs(t, err, domain.ErrConflict)

	acct, _ := s.Account(ctx, "a1")
	assert.True(t, acct.Balance.IsZero())

	change.ExpectedCurrent = decimal.Zero
	require.NoError(t, s.ApplyGoalChange(ctx, change))

	g, _ := s.Goal(ctx, "g1")
	assert.Equal(t, "30", g.CurrentAmount.String())
	acct, _ = s.Account(ctx, "a1")
	assert.Equal(t, "-30", acct.Balance.String())
	_, err = s.Transaction(ctx, "t1")
	assert.NoError(t, err)
}

func TestDeleteGoal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "u1", time.Now())
	require.NoError(t, s.CreateGoal(ctx, &domain.Goal{ID: "g1", AccountID: "a1", CurrentAmount: decimal.NewFromInt(10)}))
	require.NoError(t, s.CreateGoal(ctx, &domain.Goal{ID: "g2", AccountID: "a1", CurrentAmount: decimal.Zero}))

	stale := store.GoalChange{Goal: &domain.Goal{ID: "g1"}, ExpectedCurrent: decimal.NewFromInt(3)}
	assert.ErrorIs(t, s.DeleteGoal(ctx, stale), domain.ErrConflict)

	require.NoError(t, s.DeleteGoal(ctx, store.GoalChange{
		Goal:            &domain.Goal{ID: "g1"},
		ExpectedCurrent: decimal.NewFromInt(10),
		Transaction:     tx("t1", "a1", domain.TransactionTypeIncome, "10"),
		Delta:           decimal.NewFromInt(10),
	}))
	require.NoError(t, s.DeleteGoal(ctx, store.GoalChange{Goal: &domain.Goal{ID: "g2"}, ExpectedCurrent: decimal.Zero}))

	acct, _ := s.Account(ctx, "a1")
	assert.Equal(t, "10", acct.Balance.String())
	goals, err := s.ListGoals(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	assert.ErrorIs(t, s.DeleteGoal(ctx, store.GoalChange{Goal: &domain.Goal{ID: "g1"}}), domain.ErrNotFound)
}

func TestAccountByUserPicksOldest(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedAccount(t, s, "newer", "u1", base.Add(time.Hour))
	seedAccount(t, s, "older", "u1", base)
	seedAccount(t, s, "other", "u2", base.Add(-time.Hour))

	acct, err := s.AccountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "older", acct.ID)

	_, err = s.AccountByUser(context.Background(), "u3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListGoalsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "u1", time.Now())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateGoal(ctx, &domain.Goal{ID: "first", AccountID: "a1", CreatedAt: base}))
	require.NoError(t, s.CreateGoal(ctx, &domain.Goal{ID: "second", AccountID: "a1", CreatedAt: base.Add(time.Minute)}))

	goals, err := s.ListGoals(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "second", goals[0].ID)
}

func TestSpendingByCategory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "u1", time.Now())

	since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []*domain.Transaction{
		{ID: "1", AccountID: "a1", UserID: "u1", Type: domain.TransactionTypeExpense, Category: domain.CategoryFood, Amount: decimal.RequireFromString("10.50"), Date: since},
		{ID: "2", AccountID: "a1", UserID: "u1", Type: domain.TransactionTypeExpense, Category: domain.CategoryFood, Amount: decimal.RequireFromString("4.50"), Date: since.AddDate(0, 0, 3)},
		{ID: "3", AccountID: "a1", UserID: "u1", Type: domain.TransactionTypeExpense, Category: domain.CategoryHousing, Amount: decimal.NewFromInt(800), Date: since.AddDate(0, 0, -1)},
		{ID: "4", AccountID: "a1", UserID: "u1", Type: domain.TransactionTypeIncome, Category: domain.CategoryOthers, Amount: decimal.NewFromInt(2000), Date: since},
		{ID: "5", AccountID: "a1", UserID: "u1", Type: domain.TransactionTypeExpense, Category: domain.CategoryTransport, Amount: decimal.NewFromInt(3), Date: since},
	}
	for _, r := range records {
		require.NoError(t, s.RecordTransaction(ctx, r, r.SignedAmount()))
	}

	got, err := s.SpendingByCategory(ctx, "u1", since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CategoryFood, got[0].Category)
	assert.Equal(t, "15", got[0].Total.String())
	assert.Equal(t, domain.CategoryTransport, got[1].Category)
	assert.Equal(t, "3", got[1].Total.String())
}
