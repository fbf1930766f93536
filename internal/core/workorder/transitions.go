package workorder

import (
	"strings"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// CompletedProgress is the progress every completed order carries.
const CompletedProgress = 100

// TransitionResult captures the fields a lifecycle transition writes.
type TransitionResult struct {
	NewStatus   models.WorkOrderStatus
	Progress    *int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// ApplyStart returns the effects of starting work at now.
func ApplyStart(now time.Time) TransitionResult {
	return TransitionResult{
		NewStatus: models.WorkOrderInProgress,
		StartedAt: &now,
	}
}

// ApplyComplete returns the effects of completing work at now.
func ApplyComplete(now time.Time) TransitionResult {
	progress := CompletedProgress
	return TransitionResult{
		NewStatus:   models.WorkOrderCompleted,
		Progress:    &progress,
		CompletedAt: &now,
	}
}

// InitialStatus returns the status every new order starts in.
func InitialStatus() models.WorkOrderStatus {
	return models.WorkOrderPending
}

// DefaultPriority returns p, or MEDIUM when p is empty.
func DefaultPriority(p models.Priority) models.Priority {
	if p == "" {
		return models.PriorityMedium
	}
	return p
}

// ValidateProgress enforces the 0..100 progress range.
func ValidateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return apperr.Validation("Progress must be between 0 and 100")
	}
	return nil
}

// CreateInput is the subset of a create request validated here.
type CreateInput struct {
	OrderNumber string
	ProductName string
	Quantity    int
	DueDate     time.Time
	Priority    models.Priority
}

// ValidateCreate checks field-level rules for a new order.
func ValidateCreate(in CreateInput, now time.Time) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.OrderNumber) == "" {
		fields["orderNumber"] = "Order number is required"
	}
	if strings.TrimSpace(in.ProductName) == "" {
		fields["productName"] = "Product name is required"
	}
	if err := ValidateQuantity(in.Quantity); err != nil {
		fields["quantity"] = err.Error()
	}
	if err := ValidateDueDate(in.DueDate, now); err != nil {
		fields["dueDate"] = err.Error()
	}
	if in.Priority != "" && !in.Priority.Valid() {
		fields["priority"] = "Priority must be one of LOW, MEDIUM, HIGH, URGENT"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}

// ValidateQuantity requires at least one unit.
func ValidateQuantity(q int) error {
	if q < 1 {
		return apperr.Validation("Quantity must be at least 1")
	}
	return nil
}

// ValidateDueDate requires a due date strictly after now.
func ValidateDueDate(due, now time.Time) error {
	if due.IsZero() {
		return apperr.Validation("Due date is required")
	}
	if !due.After(now) {
		return apperr.Validation("Due date must be in the future")
	}
	return nil
}
