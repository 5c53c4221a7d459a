// Package inmemory is a mutex-guarded implementation of store.Store. It backs
// tests and the API's local mode; data is lost on restart.
package inmemory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// Store keeps accounts, goals and transactions in maps. Every multi-row
// operation runs inside one critical section, so it is atomic with respect to
// every other call.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	goals        map[string]*domain.Goal
	transactions map[string]*domain.Transaction
	// order preserves insertion order of transactions.
	order []string

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		goals:        make(map[string]*domain.Goal),
		transactions: make(map[string]*domain.Transaction),
		now:          time.Now,
	}
}

func (s *Store) RecordTransaction(ctx context.Context, tx *domain.Transaction, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[tx.AccountID]
	if !ok {
		return domain.NotFoundf("RecordTransaction", "account %s not found", tx.AccountID)
	}
	s.applyDelta(acct, tx, delta)
	return nil
}

func (s *Store) ApplyGoalChange(ctx context.Context, change store.GoalChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[change.Goal.ID]
	if !ok {
		return domain.NotFoundf("ApplyGoalChange", "goal %s not found", change.Goal.ID)
	}
	if !g.CurrentAmount.Equal(change.ExpectedCurrent) {
		return domain.Conflictf("ApplyGoalChange", "goal %s changed concurrently", g.ID)
	}
	acct, ok := s.accounts[change.Transaction.AccountID]
	if !ok {
		return domain.NotFoundf("ApplyGoalChange", "account %s not found", change.Transaction.AccountID)
	}

	g.CurrentAmount = change.Goal.CurrentAmount
	g.Status = change.Goal.Status
	g.UpdatedAt = s.now()
	s.applyDelta(acct, change.Transaction, change.Delta)
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, change store.GoalChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[change.Goal.ID]
	if !ok {
		return domain.NotFoundf("DeleteGoal", "goal %s not found", change.Goal.ID)
	}
	if !g.CurrentAmount.Equal(change.ExpectedCurrent) {
		return domain.Conflictf("DeleteGoal", "goal %s changed concurrently", g.ID)
	}
	if change.Transaction != nil {
		acct, ok := s.accounts[change.Transaction.AccountID]
		if !ok {
			return domain.NotFoundf("DeleteGoal", "account %s not found", change.Transaction.AccountID)
		}
		s.applyDelta(acct, change.Transaction, change.Delta)
	}
	delete(s.goals, g.ID)
	return nil
}

// applyDelta must be called with mu held.
func (s *Store) applyDelta(acct *domain.Account, tx *domain.Transaction, delta decimal.Decimal) {
	txCopy := *tx
	s.transactions[tx.ID] = &txCopy
	s.order = append(s.order, tx.ID)
	acct.Balance = acct.Balance.Add(delta)
	acct.UpdatedAt = s.now()
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		return domain.Validationf("CreateAccount", "account ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	aCopy := *a
	s.accounts[a.ID] = &aCopy
	return nil
}

func (s *Store) Account(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.NotFoundf("Account", "account %s not found", id)
	}
	aCopy := *a
	return &aCopy, nil
}

func (s *Store) AccountByUser(ctx context.Context, userID string) (*domain.Account, error) {
	accounts, err := s.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.NotFoundf("AccountByUser", "no account for user %s", userID)
	}
	return accounts[0], nil
}

// ListAccounts returns the user's accounts, oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		aCopy := *a
		result = append(result, &aCopy)
	}
	slices.SortFunc(result, func(a, b *domain.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) CreateGoal(ctx context.Context, g *domain.Goal) error {
	if g.ID == "" {
		return domain.Validationf("CreateGoal", "goal ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[g.AccountID]; !ok {
		return domain.NotFoundf("CreateGoal", "account %s not found", g.AccountID)
	}
	gCopy := *g
	s.goals[g.ID] = &gCopy
	return nil
}

func (s *Store) Goal(ctx context.Context, id string) (*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok {
		return nil, domain.NotFoundf("Goal", "goal %s not found", id)
	}
	gCopy := *g
	return &gCopy, nil
}

func (s *Store) UpdateGoalDetails(ctx context.Context, g *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.goals[g.ID]
	if !ok {
		return domain.NotFoundf("UpdateGoalDetails", "goal %s not found", g.ID)
	}
	stored.Name = g.Name
	stored.TargetAmount = g.TargetAmount
	stored.Deadline = g.Deadline
	stored.UpdatedAt = s.now()
	return nil
}

func (s *Store) ListGoals(ctx context.Context, accountID string) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Goal
	for _, g := range s.goals {
		if g.AccountID != accountID {
			continue
		}
		gCopy := *g
		result = append(result, &gCopy)
	}
	slices.SortFunc(result, func(a, b *domain.Goal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, domain.NotFoundf("Transaction", "transaction %s not found", id)
	}
	txCopy := *tx
	return &txCopy, nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, id := range s.order {
		tx := s.transactions[id]
		if tx.UserID != userID {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}
	return result, nil
}

func (s *Store) SpendingByCategory(ctx context.Context, userID string, since time.Time) ([]domain.CategorySpend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[domain.Category]decimal.Decimal)
	for _, id := range s.order {
		tx := s.transactions[id]
		if tx.UserID != userID || tx.Type != domain.TransactionTypeExpense || tx.Date.Before(since) {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}

	var result []domain.CategorySpend
	for _, c := range domain.Categories {
		if total, ok := totals[c]; ok {
			result = append(result, domain.CategorySpend{Category: c, Total: total})
		}
	}
	return result, nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
