package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/categorize"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the input of the API create path. An empty
// Category is resolved by the Predictor.
type CreateTransactionRequest struct {
	Amount      decimal.Decimal
	Type        string
	Category    string
	Description string
	Date        time.Time
	AccountID   string
	UserID      string
}

// Service is the read and create surface for transactions.
type Service struct {
	engine    *Engine
	store     store.Store
	predictor categorize.Predictor
}

// NewService wires a Service. predictor is only consulted when a request
// arrives without a category.
func NewService(engine *Engine, s store.Store, predictor categorize.Predictor) *Service {
	return &Service{engine: engine, store: s, predictor: predictor}
}

// CreateTransaction records a transaction for an account the user owns.
func (s *Service) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	if !req.Amount.IsPositive() {
		return nil, domain.Validationf("CreateTransaction", "amount must be positive, got %s", req.Amount)
	}

	acct, err := s.store.Account(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	if acct.UserID != req.UserID {
		return nil, domain.NotFoundf("CreateTransaction", "account %s not found", req.AccountID)
	}

	var category domain.Category
	if req.Category != "" {
		category, err = domain.ParseCategory(req.Category)
		if err != nil {
			return nil, fmt.Errorf("CreateTransaction: %w", err)
		}
	} else {
		category, err = s.predictor.Predict(ctx, categorize.Sample{
			UserID:      req.UserID,
			Amount:      req.Amount,
			Description: req.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("CreateTransaction: predict category: %w", err)
		}
		log := logger.FromContext(ctx)
		log.Info().Str("category", string(category)).Msg("Category inferred from history")
	}

	tx, err := s.engine.Record(ctx, Intent{
		Amount:      req.Amount,
		Type:        typ,
		Category:    category,
		Description: req.Description,
		Date:        req.Date,
		AccountID:   req.AccountID,
		UserID:      req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	return tx, nil
}

// List returns the user's transactions, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	txs, err := s.store.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return txs, nil
}

// Get returns a transaction owned by userID.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.Transaction, error) {
	tx, err := s.store.Transaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if tx.UserID != userID {
		return nil, domain.NotFoundf("Get", "transaction %s not found", id)
	}
	return tx, nil
}

// Analysis sums the user's expenses per category since the first day of
// now's month.
func (s *Service) Analysis(ctx context.Context, userID string, now time.Time) ([]domain.CategorySpend, error) {
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	rows, err := s.store.SpendingByCategory(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("Analysis: %w", err)
	}
	return rows, nil
}
