package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of fractional digits of a BigQuery NUMERIC.
const numericScale = 9

// AccountRow mirrors finance.accounts.
type AccountRow struct {
	AccountID       string    `bigquery:"account_id"`
	UserID          string    `bigquery:"user_id"`
	AccountName     string    `bigquery:"account_name"`
	AccountType     string    `bigquery:"account_type"`
	Balance         *big.Rat  `bigquery:"balance"`          // NUMERIC
	MonthlyExpenses *big.Rat  `bigquery:"monthly_expenses"` // NUMERIC
	Currency        string    `bigquery:"currency"`
	CreatedTS       time.Time `bigquery:"created_ts"`
	UpdatedTS       time.Time `bigquery:"updated_ts"`
}

// GoalRow mirrors finance.goals.
type GoalRow struct {
	GoalID        string     `bigquery:"goal_id"`
	AccountID     string     `bigquery:"account_id"`
	GoalName      string     `bigquery:"goal_name"`
	TargetAmount  *big.Rat   `bigquery:"target_amount"`  // NUMERIC
	CurrentAmount *big.Rat   `bigquery:"current_amount"` // NUMERIC
	Deadline      civil.Date `bigquery:"deadline"`
	Status        string     `bigquery:"status"`
	CreatedTS     time.Time  `bigquery:"created_ts"`
	UpdatedTS     time.Time  `bigquery:"updated_ts"`
}

// TransactionRow mirrors finance.transactions. Amount is the unsigned
// magnitude; the sign follows from Type.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`
	UserID          string              `bigquery:"user_id"`
	AccountID       string              `bigquery:"account_id"`
	GoalID          bigquery.NullString `bigquery:"goal_id"`
	Amount          *big.Rat            `bigquery:"amount"` // NUMERIC
	Type            string              `bigquery:"type"`
	Category        string              `bigquery:"category"`
	Description     string              `bigquery:"description"`
	TransactionDate civil.Date          `bigquery:"transaction_date"`
	CreatedTS       time.Time           `bigquery:"created_ts"`
}

type categoryTotalRow struct {
	Category string   `bigquery:"category"`
	Total    *big.Rat `bigquery:"total"`
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ratToDecimal: %w", err)
	}
	return d, nil
}

func dateOf(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

func NewAccountRow(a *domain.Account) *AccountRow {
	return &AccountRow{
		AccountID:       a.ID,
		UserID:          a.UserID,
		AccountName:     a.Name,
		AccountType:     string(a.Type),
		Balance:         a.Balance.Rat(),
		MonthlyExpenses: a.MonthlyExpenses.Rat(),
		Currency:        a.Currency,
		CreatedTS:       a.CreatedAt,
		UpdatedTS:       a.UpdatedAt,
	}
}

func (r *AccountRow) ToDomain() (*domain.Account, error) {
	typ, err := domain.ParseAccountType(r.AccountType)
	if err != nil {
		return nil, fmt.Errorf("AccountRow.ToDomain: account %s: %w", r.AccountID, err)
	}
	balance, err := ratToDecimal(r.Balance)
	if err != nil {
		return nil, fmt.Errorf("AccountRow.ToDomain: balance: %w", err)
	}
	monthly, err := ratToDecimal(r.MonthlyExpenses)
	if err != nil {
		return nil, fmt.Errorf("AccountRow.ToDomain: monthly expenses: %w", err)
	}
	return &domain.Account{
		ID:              r.AccountID,
		Name:            r.AccountName,
		Type:            typ,
		Balance:         balance,
		MonthlyExpenses: monthly,
		Currency:        r.Currency,
		UserID:          r.UserID,
		CreatedAt:       r.CreatedTS,
		UpdatedAt:       r.UpdatedTS,
	}, nil
}

func NewGoalRow(g *domain.Goal) *GoalRow {
	return &GoalRow{
		GoalID:        g.ID,
		AccountID:     g.AccountID,
		GoalName:      g.Name,
		TargetAmount:  g.TargetAmount.Rat(),
		CurrentAmount: g.CurrentAmount.Rat(),
		Deadline:      dateOf(g.Deadline),
		Status:        string(g.Status),
		CreatedTS:     g.CreatedAt,
		UpdatedTS:     g.UpdatedAt,
	}
}

func (r *GoalRow) ToDomain() (*domain.Goal, error) {
	target, err := ratToDecimal(r.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("GoalRow.ToDomain: target: %w", err)
	}
	current, err := ratToDecimal(r.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("GoalRow.ToDomain: current: %w", err)
	}
	return &domain.Goal{
		ID:            r.GoalID,
		Name:          r.GoalName,
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      r.Deadline.In(time.UTC),
		Status:        domain.GoalStatus(r.Status),
		AccountID:     r.AccountID,
		CreatedAt:     r.CreatedTS,
		UpdatedAt:     r.UpdatedTS,
	}, nil
}

func NewTransactionRow(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		AccountID:       tx.AccountID,
		GoalID:          bigquery.NullString{StringVal: tx.GoalID, Valid: tx.GoalID != ""},
		Amount:          tx.Amount.Rat(),
		Type:            string(tx.Type),
		Category:        string(tx.Category),
		Description:     tx.Description,
		TransactionDate: dateOf(tx.Date),
		CreatedTS:       tx.CreatedAt,
	}
}

func (r *TransactionRow) ToDomain() (*domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return nil, fmt.Errorf("TransactionRow.ToDomain: transaction %s: %w", r.TransactionID, err)
	}
	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return nil, fmt.Errorf("TransactionRow.ToDomain: transaction %s: %w", r.TransactionID, err)
	}
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("TransactionRow.ToDomain: amount: %w", err)
	}
	return &domain.Transaction{
		ID:          r.TransactionID,
		Amount:      amount,
		Type:        typ,
		Category:    category,
		Description: r.Description,
		Date:        r.TransactionDate.In(time.UTC),
		AccountID:   r.AccountID,
		UserID:      r.UserID,
		GoalID:      r.GoalID.StringVal,
		CreatedAt:   r.CreatedTS,
	}, nil
}
