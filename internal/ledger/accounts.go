package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// OpenAccountRequest is the input of the account create path.
type OpenAccountRequest struct {
	Name            string
	Type            string
	Currency        string
	MonthlyExpenses decimal.Decimal
	// OpeningBalance, when positive, is booked as an INCOME transaction so
	// the balance stays equal to the sum of recorded transactions.
	OpeningBalance decimal.Decimal
	UserID         string
}

// OpenAccount creates an account with a zero balance and books the opening
// balance through the ledger.
func (s *Service) OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validationf("OpenAccount", "name is required")
	}
	if req.UserID == "" {
		return nil, domain.Validationf("OpenAccount", "user is required")
	}
	typ, err := domain.ParseAccountType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}
	if req.OpeningBalance.IsNegative() || req.MonthlyExpenses.IsNegative() {
		return nil, domain.Validationf("OpenAccount", "amounts must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	now := s.engine.now()
	acct := &domain.Account{
		ID:              s.engine.newID(),
		Name:            name,
		Type:            typ,
		Balance:         decimal.Zero,
		MonthlyExpenses: req.MonthlyExpenses,
		Currency:        currency,
		UserID:          req.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}

	if req.OpeningBalance.IsPositive() {
		if _, err := s.engine.Record(ctx, Intent{
			Amount:      req.OpeningBalance,
			Type:        domain.TransactionTypeIncome,
			Category:    domain.CategoryOthers,
			Description: "Opening balance",
			Date:        now,
			AccountID:   acct.ID,
			UserID:      acct.UserID,
		}); err != nil {
			return nil, fmt.Errorf("OpenAccount: opening balance: %w", err)
		}
		acct.Balance = req.OpeningBalance
	}
	return acct, nil
}

// Accounts lists the user's accounts, oldest first.
func (s *Service) Accounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	return accounts, nil
}

// Account returns an account owned by userID.
func (s *Service) Account(ctx context.Context, id, userID string) (*domain.Account, error) {
	acct, err := s.store.Account(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Account: %w", err)
	}
	if acct.UserID != userID {
		return nil, domain.NotFoundf("Account", "account %s not found", id)
	}
	return acct, nil
}
