// Package goals manages savings goals. Every movement of money into or out of
// a goal is paired with a compensating SAVINGS transaction on the goal's
// account and committed in a single store call.
package goals

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxAttempts bounds the compare-and-swap retries of a goal movement.
const MaxAttempts = 3

// Engine implements goal operations on top of the ledger engine.
type Engine struct {
	store  store.Store
	ledger *ledger.Engine
	now    func() time.Time
	newID  func() string
}

func NewEngine(s store.Store, l *ledger.Engine) *Engine {
	return &Engine{
		store:  s,
		ledger: l,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Create adds an IN_PROGRESS goal with a zero balance to the user's primary
// account.
func (e *Engine) Create(ctx context.Context, userID, name string, target decimal.Decimal, deadline time.Time) (*domain.Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("Create", "goal name is required")
	}
	if !target.IsPositive() {
		return nil, domain.Validationf("Create", "target amount must be positive, got %s", target)
	}

	acct, err := e.store.AccountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	now := e.now()
	g := &domain.Goal{
		ID:            e.newID(),
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		Deadline:      deadline,
		Status:        domain.GoalStatusInProgress,
		AccountID:     acct.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return g, nil
}

// Get returns the goal when it belongs to one of the user's accounts.
func (e *Engine) Get(ctx context.Context, goalID, userID string) (*domain.Goal, error) {
	g, err := e.scopedGoal(ctx, "Get", goalID, userID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the user's goals across their accounts, newest first.
func (e *Engine) List(ctx context.Context, userID string) ([]*domain.Goal, error) {
	accounts, err := e.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if len(accounts) == 0 {
		return nil, domain.NotFoundf("List", "no account for user %s", userID)
	}

	var result []*domain.Goal
	for _, a := range accounts {
		gs, err := e.store.ListGoals(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("List: account %s: %w", a.ID, err)
		}
		result = append(result, gs...)
	}
	slices.SortStableFunc(result, func(a, b *domain.Goal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

// Deposit moves amount from the account into the goal.
func (e *Engine) Deposit(ctx context.Context, goalID, userID string, amount decimal.Decimal) (*domain.Goal, error) {
	return e.move(ctx, "Deposit", goalID, userID, amount, func(g *domain.Goal) (movement, error) {
		current := g.CurrentAmount.Add(amount)
		return movement{
			current:     current,
			status:      domain.StatusFor(current, g.TargetAmount),
			txType:      domain.TransactionTypeExpense,
			description: fmt.Sprintf("Deposit to goal: %s", g.Name),
		}, nil
	})
}

// Withdraw moves amount from the goal back to the account. The goal returns
// to IN_PROGRESS whatever its remaining balance.
func (e *Engine) Withdraw(ctx context.Context, goalID, userID string, amount decimal.Decimal) (*domain.Goal, error) {
	return e.move(ctx, "Withdraw", goalID, userID, amount, func(g *domain.Goal) (movement, error) {
		if amount.GreaterThan(g.CurrentAmount) {
			return movement{}, domain.InsufficientFundsf("Withdraw", "insufficient funds in goal %s: have %s, want %s",
				g.ID, g.CurrentAmount, amount)
		}
		return movement{
			current:     g.CurrentAmount.Sub(amount),
			status:      domain.GoalStatusInProgress,
			txType:      domain.TransactionTypeIncome,
			description: fmt.Sprintf("Withdrawal from goal: %s", g.Name),
		}, nil
	})
}

type movement struct {
	current     decimal.Decimal
	status      domain.GoalStatus
	txType      domain.TransactionType
	description string
}

// move re-reads the goal on every attempt so plan always sees the latest
// committed balance.
func (e *Engine) move(ctx context.Context, op, goalID, userID string, amount decimal.Decimal, plan func(*domain.Goal) (movement, error)) (*domain.Goal, error) {
	if !amount.IsPositive() {
		return nil, domain.Validationf(op, "amount must be positive, got %s", amount)
	}
	log := logger.FromContext(ctx).With().Str("goal_id", goalID).Str("op", op).Logger()

	for attempt := 1; ; attempt++ {
		g, err := e.scopedGoal(ctx, op, goalID, userID)
		if err != nil {
			return nil, err
		}
		m, err := plan(g)
		if err != nil {
			return nil, err
		}

		tx, delta, err := e.ledger.Compensation(g, userID, m.txType, amount, m.description)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		updated := *g
		updated.CurrentAmount = m.current
		updated.Status = m.status
		updated.UpdatedAt = e.now()

		err = e.store.ApplyGoalChange(ctx, store.GoalChange{
			Goal:            &updated,
			ExpectedCurrent: g.CurrentAmount,
			Transaction:     tx,
			Delta:           delta,
		})
		if err == nil {
			log.Info().
				Str("transaction_id", tx.ID).
				Str("current_amount", updated.CurrentAmount.String()).
				Str("status", string(updated.Status)).
				Msg("Goal balance updated")
			return &updated, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if attempt >= MaxAttempts {
			return nil, domain.E(domain.KindConflict, op, fmt.Errorf("goal %s kept changing after %d attempts: %w", goalID, attempt, err))
		}
		log.Warn().Int("attempt", attempt).Msg("Goal changed concurrently, retrying")
	}
}

// Delete returns the goal's remaining balance to its account and removes it.
func (e *Engine) Delete(ctx context.Context, goalID, userID string) error {
	log := logger.FromContext(ctx).With().Str("goal_id", goalID).Str("op", "Delete").Logger()

	for attempt := 1; ; attempt++ {
		g, err := e.scopedGoal(ctx, "Delete", goalID, userID)
		if err != nil {
			return err
		}

		change := store.GoalChange{Goal: g, ExpectedCurrent: g.CurrentAmount}
		if g.CurrentAmount.IsPositive() {
			tx, delta, err := e.ledger.Compensation(g, userID, domain.TransactionTypeIncome, g.CurrentAmount,
				fmt.Sprintf("Returned funds from deleted goal: %s", g.Name))
			if err != nil {
				return fmt.Errorf("Delete: %w", err)
			}
			change.Transaction = tx
			change.Delta = delta
		}

		err = e.store.DeleteGoal(ctx, change)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("Delete: %w", err)
		}
		if attempt >= MaxAttempts {
			return domain.E(domain.KindConflict, "Delete", fmt.Errorf("goal %s kept changing after %d attempts: %w", goalID, attempt, err))
		}
		log.Warn().Int("attempt", attempt).Msg("Goal changed concurrently, retrying")
	}
}

// Update changes name, target or deadline. Balance and status are untouched.
func (e *Engine) Update(ctx context.Context, goalID, userID string, patch domain.GoalPatch) (*domain.Goal, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.Validationf("Update", "goal name must not be empty")
	}
	if patch.TargetAmount != nil && !patch.TargetAmount.IsPositive() {
		return nil, domain.Validationf("Update", "target amount must be positive, got %s", *patch.TargetAmount)
	}

	g, err := e.scopedGoal(ctx, "Update", goalID, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(g)
	g.UpdatedAt = e.now()

	if err := e.store.UpdateGoalDetails(ctx, g); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return g, nil
}

// scopedGoal loads a goal and hides it unless its account belongs to userID.
func (e *Engine) scopedGoal(ctx context.Context, op, goalID, userID string) (*domain.Goal, error) {
	g, err := e.store.Goal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	acct, err := e.store.Account(ctx, g.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acct.UserID != userID {
		return nil, domain.NotFoundf(op, "goal %s not found", goalID)
	}
	return g, nil
}
