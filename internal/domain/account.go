package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeInvestment AccountType = "INVESTMENT"
)

// DefaultCurrency is used when an account is created without one.
const DefaultCurrency = "EUR"

// ParseAccountType normalizes s into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeInvestment:
		return t, nil
	}
	return "", Validationf("ParseAccountType", "unknown account type %q", s)
}

// Account is a user's financial account. Balance is only ever changed by the
// ledger through the store's atomic delta primitives.
type Account struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            AccountType     `json:"type"`
	Balance         decimal.Decimal `json:"balance"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	Currency        string          `json:"currency"`
	UserID          string          `json:"userId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
