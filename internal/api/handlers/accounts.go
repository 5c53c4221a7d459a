package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	svc AccountService
}

func NewAccountsHandler(svc AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string          `json:"name"`
		Type            string          `json:"type"`
		Currency        string          `json:"currency"`
		MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
		Balance         decimal.Decimal `json:"balance"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	acct, err := h.svc.OpenAccount(r.Context(), ledger.OpenAccountRequest{
		Name:            req.Name,
		Type:            req.Type,
		Currency:        req.Currency,
		MonthlyExpenses: req.MonthlyExpenses,
		OpeningBalance:  req.Balance,
		UserID:          userID(r),
	})
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, acct)
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.Accounts(r.Context(), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, emptyIfNil(accounts))
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.Account(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, acct)
}
