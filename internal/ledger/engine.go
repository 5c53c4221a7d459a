// Package ledger owns every balance mutation. Transactions are built and
// validated here and committed through the store's atomic primitives.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Intent describes a transaction to be recorded.
type Intent struct {
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Category    domain.Category
	Description string
	Date        time.Time
	AccountID   string
	UserID      string
	GoalID      string
}

// Engine builds transactions and commits them together with their balance
// effect.
type Engine struct {
	store store.Ledger
	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine committing through l.
func NewEngine(l store.Ledger) *Engine {
	return &Engine{
		store: l,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Record validates in, then inserts the transaction and applies its signed
// amount to the account in one store call.
func (e *Engine) Record(ctx context.Context, in Intent) (*domain.Transaction, error) {
	tx, delta, err := e.build("Record", in)
	if err != nil {
		return nil, err
	}

	if err := e.store.RecordTransaction(ctx, tx, delta); err != nil {
		return nil, fmt.Errorf("Record: account %s: %w", tx.AccountID, err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("transaction_id", tx.ID).
		Str("account_id", tx.AccountID).
		Str("type", string(tx.Type)).
		Str("delta", delta.String()).
		Msg("Recorded transaction")

	return tx, nil
}

// Compensation builds, without committing, the SAVINGS transaction that
// mirrors a goal movement. The caller hands it to a multi-row store
// primitive together with the returned delta.
func (e *Engine) Compensation(goal *domain.Goal, userID string, typ domain.TransactionType, amount decimal.Decimal, description string) (*domain.Transaction, decimal.Decimal, error) {
	return e.build("Compensation", Intent{
		Amount:      amount,
		Type:        typ,
		Category:    domain.CategorySavings,
		Description: description,
		AccountID:   goal.AccountID,
		UserID:      userID,
		GoalID:      goal.ID,
	})
}

func (e *Engine) build(op string, in Intent) (*domain.Transaction, decimal.Decimal, error) {
	if err := validate(op, in); err != nil {
		return nil, decimal.Zero, err
	}

	now := e.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	tx := &domain.Transaction{
		ID:          e.newID(),
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		AccountID:   in.AccountID,
		UserID:      in.UserID,
		GoalID:      in.GoalID,
		CreatedAt:   now,
	}
	return tx, tx.SignedAmount(), nil
}

func validate(op string, in Intent) error {
	switch {
	case !in.Amount.IsPositive():
		return domain.Validationf(op, "amount must be positive, got %s", in.Amount)
	case !in.Type.Valid():
		return domain.Validationf(op, "unknown transaction type %q", in.Type)
	case !in.Category.Valid():
		return domain.Validationf(op, "unknown category %q", in.Category)
	case in.AccountID == "":
		return domain.Validationf(op, "account ID is required")
	case in.UserID == "":
		return domain.Validationf(op, "user ID is required")
	}
	return nil
}
