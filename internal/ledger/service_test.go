package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/categorize"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPredictor struct {
	PredictFunc func(ctx context.Context, s categorize.Sample) (domain.Category, error)
	calls       int
}

func (m *MockPredictor) Predict(ctx context.Context, s categorize.Sample) (domain.Category, error) {
	m.calls++
	return m.PredictFunc(ctx, s)
}

func newTestService(t *testing.T, p categorize.Predictor) *Service {
	s := newTestStore(t)
	return NewService(NewEngine(s), s, p)
}

func TestCreateTransactionExplicitCategory(t *testing.T) {
	p := &MockPredictor{}
	svc := newTestService(t, p)

	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(12), Type: "expense", Category: "transport",
		Description: "Bus", AccountID: "a1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryTransport, tx.Category)
	assert.Equal(t, 0, p.calls)
}

func TestCreateTransactionInfersCategory(t *testing.T) {
	p := &MockPredictor{
		PredictFunc: func(ctx context.Context, s categorize.Sample) (domain.Category, error) {
			assert.Equal(t, "u1", s.UserID)
			assert.Equal(t, "Cinema", s.Description)
			return domain.CategoryEntertainment, nil
		},
	}
	svc := newTestService(t, p)

	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(9), Type: "EXPENSE", Description: "Cinema", AccountID: "a1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEntertainment, tx.Category)
	assert.Equal(t, 1, p.calls)
}

func TestCreateTransactionFallsBackOnShortHistory(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(NewEngine(s), s, categorize.NewLearned(s))

	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(9), Type: "EXPENSE", Description: "Cinema", AccountID: "a1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOthers, tx.Category)
}

func TestCreateTransactionForeignAccount(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})

	_, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(9), Type: "INCOME", Category: "OTHERS", AccountID: "a1", UserID: "intruder",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTransactionBadInput(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})

	_, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(9), Type: "GIFT", AccountID: "a1", UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(9), Type: "INCOME", Category: "TRAVEL", AccountID: "a1", UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateTransactionRejectsNonPositiveAmountBeforePredicting(t *testing.T) {
	p := &MockPredictor{
		PredictFunc: func(ctx context.Context, s categorize.Sample) (domain.Category, error) {
			t.Fatal("predictor must not run for an invalid amount")
			return "", nil
		},
	}
	svc := newTestService(t, p)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
			Amount: amount, Type: "EXPENSE", Description: "Cinema", AccountID: "a1", UserID: "u1",
		})
		assert.ErrorIs(t, err, domain.ErrValidation, amount.String())
	}
	assert.Equal(t, 0, p.calls)
}

func TestGetScopedToUser(t *testing.T) {
	svc := newTestService(t, &MockPredictor{})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionRequest{
		Amount: decimal.NewFromInt(1), Type: "INCOME", Category: "OTHERS", AccountID: "a1", UserID: "u1",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), tx.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = svc.Get(context.Background(), tx.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisCurrentMonthOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &MockPredictor{})
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	for _, r := range []CreateTransactionRequest{
		{Amount: decimal.NewFromInt(30), Type: "EXPENSE", Category: "FOOD", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(20), Type: "EXPENSE", Category: "FOOD", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(99), Type: "EXPENSE", Category: "FOOD", Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(500), Type: "INCOME", Category: "OTHERS", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	} {
		r.AccountID, r.UserID = "a1", "u1"
		_, err := svc.CreateTransaction(ctx, r)
		require.NoError(t, err)
	}

	rows, err := svc.Analysis(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.CategoryFood, rows[0].Category)
	assert.Equal(t, "50", rows[0].Total.String())
}
