// Package workorder contains the pure business logic for work order operations.
// Guards are pure functions that evaluate preconditions without side effects.
package workorder

import (
	"fmt"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an invalid-state error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return apperr.InvalidState("%s", r.Reason)
}

// TransitionContext provides context for lifecycle guards.
type TransitionContext struct {
	WorkOrderID int64
	Status      models.WorkOrderStatus
}

// CanStartWork evaluates whether work can begin.
// Rules:
// - Status must be PENDING
func CanStartWork(ctx TransitionContext) GuardResult {
	if ctx.Status != models.WorkOrderPending {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Can only start work from PENDING status (work order %d is %s)", ctx.WorkOrderID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CanCompleteWork evaluates whether work can be completed.
// Rules:
// - Status must be IN_PROGRESS
func CanCompleteWork(ctx TransitionContext) GuardResult {
	if ctx.Status != models.WorkOrderInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Can only complete work from IN_PROGRESS status (work order %d is %s)", ctx.WorkOrderID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CreateContext provides context for creation guards.
type CreateContext struct {
	OrderNumber       string
	OrderNumberTaken  bool
	AssigneeID        int64
	AssigneeExists    bool
	AssigneeRequested bool
}

// CanCreateWorkOrder evaluates uniqueness and reference rules for a new order.
// Rules:
// - Order number must be unused
// - Assignee, if requested, must exist
func CanCreateWorkOrder(ctx CreateContext) error {
	if ctx.OrderNumberTaken {
		return apperr.Duplicate("Work order with order number %s already exists", ctx.OrderNumber)
	}
	if ctx.AssigneeRequested && !ctx.AssigneeExists {
		return apperr.NotFound("User", ctx.AssigneeID)
	}
	return nil
}
