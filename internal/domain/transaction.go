package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement for a transaction.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// SignedDelta returns the balance change that a transaction of this type and
// magnitude applies to its account. Income adds; expense and transfer subtract.
func (t TransactionType) SignedDelta(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeIncome {
		return amount
	}
	return amount.Neg()
}

// ParseTransactionType normalizes s and returns the matching TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", Validationf("ParseTransactionType", "unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is a committed ledger record against an account. Amount is
// always a non-negative magnitude; the sign is carried by Type.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"accountId"`
	UserID      string          `json:"userId"`
	GoalID      string          `json:"goalId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SignedAmount is the balance effect of the transaction.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Type.SignedDelta(t.Amount)
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s %s %q", t.Date.Format("2006-01-02"), t.Type, t.Amount.StringFixed(2), t.Description)
}

// CategorySpend is one row of the monthly spending analysis.
type CategorySpend struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
