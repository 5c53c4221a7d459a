package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
)

// Handlers groups the endpoint handlers. Jobs may be nil when job
// ingestion is disabled.
type Handlers struct {
	Accounts     *AccountsHandler
	Transactions *TransactionsHandler
	Goals        *GoalsHandler
	Statements   *StatementsHandler
	Jobs         *JobsHandler
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/accounts", h.Accounts.CreateAccount)
	mux.HandleFunc("GET /api/accounts", h.Accounts.ListAccounts)
	mux.HandleFunc("GET /api/accounts/{id}", h.Accounts.GetAccount)

	mux.HandleFunc("POST /api/transactions", h.Transactions.CreateTransaction)
	mux.HandleFunc("GET /api/transactions", h.Transactions.ListTransactions)
	mux.HandleFunc("GET /api/transactions/analysis", h.Transactions.Analysis)
	mux.HandleFunc("GET /api/transactions/{id}", h.Transactions.GetTransaction)

	mux.HandleFunc("POST /api/statements", h.Statements.IngestStatement)
	mux.HandleFunc("POST /api/statements/jobs", h.Statements.EnqueueIngestion)

	if h.Jobs != nil {
		mux.HandleFunc("GET /api/jobs", h.Jobs.ListJobs)
		mux.HandleFunc("GET /api/jobs/{id}", h.Jobs.GetJob)
	}

	mux.HandleFunc("GET /api/goals", h.Goals.ListGoals)
	mux.HandleFunc("POST /api/goals", h.Goals.CreateGoal)
	mux.HandleFunc("GET /api/goals/{id}", h.Goals.GetGoal)
	mux.HandleFunc("PATCH /api/goals/{id}", h.Goals.UpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", h.Goals.DeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/deposit", h.Goals.Deposit)
	mux.HandleFunc("POST /api/goals/{id}/withdraw", h.Goals.Withdraw)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
