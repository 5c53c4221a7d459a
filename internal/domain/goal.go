package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the state of a savings goal.
type GoalStatus string

const (
	GoalStatusInProgress GoalStatus = "IN_PROGRESS"
	GoalStatusCompleted  GoalStatus = "COMPLETED"
)

// Goal is a savings target backed by an account.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      time.Time       `json:"deadline"`
	Status        GoalStatus      `json:"status"`
	AccountID     string          `json:"accountId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// StatusFor returns COMPLETED when current has reached target.
func StatusFor(current, target decimal.Decimal) GoalStatus {
	if current.GreaterThanOrEqual(target) {
		return GoalStatusCompleted
	}
	return GoalStatusInProgress
}

// GoalPatch carries the metadata fields a goal update may change. Nil fields
// are left untouched.
type GoalPatch struct {
	Name         *string          `json:"name,omitempty"`
	TargetAmount *decimal.Decimal `json:"targetAmount,omitempty"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
}

// Apply copies the set fields of p onto g.
func (p GoalPatch) Apply(g *Goal) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
}
