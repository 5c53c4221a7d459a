package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	svc TransactionService
	now func() time.Time
}

func NewTransactionsHandler(svc TransactionService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, now: time.Now}
}

// CreateTransaction handles POST /api/transactions. Without a category the
// learned categorizer picks one.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Type        string          `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		AccountID   string          `json:"accountId"`
		UserID      string          `json:"userId"`
		Date        string          `json:"date"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	caller := userID(r)
	if req.UserID != "" && req.UserID != caller {
		middleware.WriteDomainError(r.Context(), w, domain.Validationf("CreateTransaction", "userId does not match the caller"))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	tx, err := h.svc.CreateTransaction(r.Context(), ledger.CreateTransactionRequest{
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		AccountID:   req.AccountID,
		UserID:      caller,
	})
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, emptyIfNil(txs))
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Analysis handles GET /api/transactions/analysis: this month's expenses
// per category.
func (h *TransactionsHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Analysis(r.Context(), userID(r), h.now())
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, emptyIfNil(rows))
}
