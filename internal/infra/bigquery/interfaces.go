// Package bigquery implements store.Store on BigQuery. Balance changes run
// as multi-statement transactions; goal changes are guarded by a
// compare-and-swap on current_amount.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// Store is the BigQuery-backed gateway. It holds a shared client to avoid
// creating a new connection for each operation.
type Store struct {
	client *bigquery.Client
	ds     Dataset
}

// NewStore creates a Store with its own client.
func NewStore(ctx context.Context, ds Dataset) (*Store, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return NewStoreWithClient(client, ds), nil
}

// NewStoreWithClient creates a Store on an existing client. The caller keeps
// ownership of client.
func NewStoreWithClient(client *bigquery.Client, ds Dataset) *Store {
	return &Store{client: client, ds: ds}
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) RecordTransaction(ctx context.Context, tx *domain.Transaction, delta decimal.Decimal) error {
	return RecordTransactionWithClient(ctx, s.client, s.ds, tx, delta)
}

func (s *Store) ApplyGoalChange(ctx context.Context, change store.GoalChange) error {
	return ApplyGoalChangeWithClient(ctx, s.client, s.ds, change)
}

func (s *Store) DeleteGoal(ctx context.Context, change store.GoalChange) error {
	return DeleteGoalWithClient(ctx, s.client, s.ds, change)
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		return domain.Validationf("CreateAccount", "account ID is required")
	}
	return InsertAccountWithClient(ctx, s.client, s.ds, NewAccountRow(a))
}

func (s *Store) Account(ctx context.Context, id string) (*domain.Account, error) {
	row, err := GetAccountWithClient(ctx, s.client, s.ds, id)
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
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

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	rows, err := ListAccountsByUserWithClient(ctx, s.client, s.ds, userID)
	if err != nil {
		return nil, err
	}
	return convert(rows, (*AccountRow).ToDomain)
}

func (s *Store) CreateGoal(ctx context.Context, g *domain.Goal) error {
	if g.ID == "" {
		return domain.Validationf("CreateGoal", "goal ID is required")
	}
	return InsertGoalWithClient(ctx, s.client, s.ds, NewGoalRow(g))
}

func (s *Store) Goal(ctx context.Context, id string) (*domain.Goal, error) {
	row, err := GetGoalWithClient(ctx, s.client, s.ds, id)
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (s *Store) UpdateGoalDetails(ctx context.Context, g *domain.Goal) error {
	return UpdateGoalDetailsWithClient(ctx, s.client, s.ds, NewGoalRow(g))
}

func (s *Store) ListGoals(ctx context.Context, accountID string) ([]*domain.Goal, error) {
	rows, err := ListGoalsByAccountWithClient(ctx, s.client, s.ds, accountID)
	if err != nil {
		return nil, err
	}
	return convert(rows, (*GoalRow).ToDomain)
}

func (s *Store) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := GetTransactionWithClient(ctx, s.client, s.ds, id)
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (s *Store) TransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	rows, err := ListTransactionsByUserWithClient(ctx, s.client, s.ds, userID)
	if err != nil {
		return nil, err
	}
	return convert(rows, (*TransactionRow).ToDomain)
}

func (s *Store) SpendingByCategory(ctx context.Context, userID string, since time.Time) ([]domain.CategorySpend, error) {
	return SpendingByCategoryWithClient(ctx, s.client, s.ds, userID, since)
}

func convert[R, D any](rows []*R, toDomain func(*R) (*D, error)) ([]*D, error) {
	out := make([]*D, 0, len(rows))
	for _, r := range rows {
		d, err := toDomain(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
