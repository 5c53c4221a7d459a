// Package handlers exposes the ledger, goals and ingestion services over
// JSON/HTTP. The caller's identity comes from middleware.Auth.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies; statements arrive base64 encoded.
const maxBodyBytes = 20 << 20

type AccountService interface {
	OpenAccount(ctx context.Context, req ledger.OpenAccountRequest) (*domain.Account, error)
	Accounts(ctx context.Context, userID string) ([]*domain.Account, error)
	Account(ctx context.Context, id, userID string) (*domain.Account, error)
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, req ledger.CreateTransactionRequest) (*domain.Transaction, error)
	List(ctx context.Context, userID string) ([]*domain.Transaction, error)
	Get(ctx context.Context, id, userID string) (*domain.Transaction, error)
	Analysis(ctx context.Context, userID string, now time.Time) ([]domain.CategorySpend, error)
}

type GoalService interface {
	Create(ctx context.Context, userID, name string, target decimal.Decimal, deadline time.Time) (*domain.Goal, error)
	Get(ctx context.Context, goalID, userID string) (*domain.Goal, error)
	List(ctx context.Context, userID string) ([]*domain.Goal, error)
	Deposit(ctx context.Context, goalID, userID string, amount decimal.Decimal) (*domain.Goal, error)
	Withdraw(ctx context.Context, goalID, userID string, amount decimal.Decimal) (*domain.Goal, error)
	Delete(ctx context.Context, goalID, userID string) error
	Update(ctx context.Context, goalID, userID string, patch domain.GoalPatch) (*domain.Goal, error)
}

// StatementIngester runs the synchronous ingestion pipeline.
type StatementIngester interface {
	Ingest(ctx context.Context, userID, payload string) ([]*domain.Transaction, error)
}

// decode reads a JSON body into dst. Malformed bodies are validation
// failures.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.E(domain.KindValidation, "decode", fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. An empty
// string yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, domain.Validationf("parseDate", "%s: expected YYYY-MM-DD or RFC 3339, got %q", field, s)
	}
	return t, nil
}

func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// emptyIfNil keeps list responses as JSON arrays.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
