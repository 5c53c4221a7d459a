// Package store defines the persistence gateway the ledger and goal engines
// depend on. Every method that touches more than one row is all-or-nothing.
package store

import (
	"context"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// GoalChange is a goal balance movement committed as a single unit: the goal
// row, its compensating transaction and the account balance delta.
type GoalChange struct {
	// Goal carries the new CurrentAmount and Status. Other fields are ignored
	// except ID.
	Goal *domain.Goal
	// ExpectedCurrent guards the update; the store rejects the change with a
	// Conflict error when the stored CurrentAmount differs.
	ExpectedCurrent decimal.Decimal
	Transaction     *domain.Transaction
	Delta           decimal.Decimal
}

// Ledger holds the atomic primitives that change balances.
type Ledger interface {
	// RecordTransaction inserts tx and adds delta to its account's balance.
	// A missing account yields a NotFound error and nothing is written.
	RecordTransaction(ctx context.Context, tx *domain.Transaction, delta decimal.Decimal) error
	ApplyGoalChange(ctx context.Context, change GoalChange) error
	// DeleteGoal removes change.Goal under the same compare-and-swap guard
	// and, when change.Transaction is non-nil, records it and applies
	// change.Delta.
	DeleteGoal(ctx context.Context, change GoalChange) error
}

type Accounts interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	Account(ctx context.Context, id string) (*domain.Account, error)
	// AccountByUser returns the user's primary (earliest created) account.
	AccountByUser(ctx context.Context, userID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
}

type Goals interface {
	CreateGoal(ctx context.Context, g *domain.Goal) error
	Goal(ctx context.Context, id string) (*domain.Goal, error)
	// UpdateGoalDetails persists name, target and deadline only.
	UpdateGoalDetails(ctx context.Context, g *domain.Goal) error
	// ListGoals returns an account's goals, newest first.
	ListGoals(ctx context.Context, accountID string) ([]*domain.Goal, error)
}

type Transactions interface {
	Transaction(ctx context.Context, id string) (*domain.Transaction, error)
	// TransactionsByUser returns the user's transactions, oldest first.
	TransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	// SpendingByCategory sums EXPENSE amounts dated on or after since.
	SpendingByCategory(ctx context.Context, userID string, since time.Time) ([]domain.CategorySpend, error)
}

// Store is the full gateway.
type Store interface {
	Ledger
	Accounts
	Goals
	Transactions
}
