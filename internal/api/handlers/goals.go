package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// GoalsHandler handles goal endpoints. Every goal is scoped to the caller.
type GoalsHandler struct {
	svc GoalService
}

func NewGoalsHandler(svc GoalService) *GoalsHandler {
	return &GoalsHandler{svc: svc}
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, emptyIfNil(goals))
}

// CreateGoal handles POST /api/goals. The goal is attached to the caller's
// primary account.
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		Deadline     string          `json:"deadline"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	goal, err := h.svc.Create(r.Context(), userID(r), req.Name, req.TargetAmount, deadline)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, goal)
}

// GetGoal handles GET /api/goals/{id}
func (h *GoalsHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.svc.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// UpdateGoal handles PATCH /api/goals/{id}. Only name, target and deadline
// can change.
func (h *GoalsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         *string          `json:"name"`
		TargetAmount *decimal.Decimal `json:"targetAmount"`
		Deadline     *string          `json:"deadline"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	patch := domain.GoalPatch{Name: req.Name, TargetAmount: req.TargetAmount}
	if req.Deadline != nil {
		deadline, err := parseDate("deadline", *req.Deadline)
		if err != nil {
			middleware.WriteDomainError(r.Context(), w, err)
			return
		}
		patch.Deadline = &deadline
	}

	goal, err := h.svc.Update(r.Context(), r.PathValue("id"), userID(r), patch)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /api/goals/{id}. Remaining funds go back to the
// account.
func (h *GoalsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /api/goals/{id}/deposit
func (h *GoalsHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.svc.Deposit)
}

// Withdraw handles POST /api/goals/{id}/withdraw
func (h *GoalsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.svc.Withdraw)
}

type goalMove func(ctx context.Context, goalID, userID string, amount decimal.Decimal) (*domain.Goal, error)

func (h *GoalsHandler) move(w http.ResponseWriter, r *http.Request, op goalMove) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	goal, err := op(r.Context(), r.PathValue("id"), userID(r), req.Amount)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}
