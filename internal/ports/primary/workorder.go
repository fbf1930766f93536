package primary

import (
	"context"
	"time"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
)

// WorkOrderService defines the primary port for work order operations.
// Every method requires a capability granted for the matching operation.
type WorkOrderService interface {
	// CreateWorkOrder creates a PENDING work order. Requires OpWorkOrderCreate.
	CreateWorkOrder(ctx context.Context, c authz.Capability, req CreateWorkOrderRequest) (*WorkOrder, error)

	// GetWorkOrder retrieves a work order. Requires OpWorkOrderRead.
	GetWorkOrder(ctx context.Context, c authz.Capability, id int64) (*WorkOrder, error)

	// ListWorkOrders lists work orders, newest first. Requires OpWorkOrderRead;
	// owner-scoped callers only see orders assigned to them.
	ListWorkOrders(ctx context.Context, c authz.Capability, filters WorkOrderFilters) ([]*WorkOrder, error)

	// UpdateWorkOrder applies a partial update. Requires OpWorkOrderUpdate.
	UpdateWorkOrder(ctx context.Context, c authz.Capability, id int64, req UpdateWorkOrderRequest) (*WorkOrder, error)

	// DeleteWorkOrder removes a work order with its logs and issues.
	// Requires OpWorkOrderDelete.
	DeleteWorkOrder(ctx context.Context, c authz.Capability, id int64) error

	// StartWork moves PENDING to IN_PROGRESS. Requires OpWorkOrderExecute.
	StartWork(ctx context.Context, c authz.Capability, id int64) (*WorkOrder, error)

	// CompleteWork moves IN_PROGRESS to COMPLETED. Requires OpWorkOrderExecute.
	CompleteWork(ctx context.Context, c authz.Capability, id int64, req CompleteWorkRequest) (*WorkOrder, error)

	// UpdateProgress sets progress in any state. Requires OpWorkOrderExecute.
	UpdateProgress(ctx context.Context, c authz.Capability, id int64, progress int) (*WorkOrder, error)
}

// CreateWorkOrderRequest contains parameters for creating a work order.
type CreateWorkOrderRequest struct {
	OrderNumber  string
	ProductName  string
	ProductCode  string
	Quantity     int
	DueDate      time.Time
	Priority     models.Priority // empty means MEDIUM
	Instructions string
	AssignedToID int64 // 0 means unassigned
}

// UpdateWorkOrderRequest contains a partial update. Only Set fields are
// written. A Null AssignedToID unassigns the order.
type UpdateWorkOrderRequest struct {
	ProductName  optional.Value[string]
	ProductCode  optional.Value[string]
	Quantity     optional.Value[int]
	DueDate      optional.Value[time.Time]
	Priority     optional.Value[models.Priority]
	Instructions optional.Value[string]
	AssignedToID optional.Value[int64]
	// Version, when Set, must match the stored version.
	Version optional.Value[int64]
}

// CompleteWorkRequest carries the optional completion report.
type CompleteWorkRequest struct {
	ActualQuantity *int
	Notes          string
}

// WorkOrderFilters contains filter options for listing work orders.
type WorkOrderFilters struct {
	Status       models.WorkOrderStatus
	AssignedToID int64
}

// WorkOrder represents a work order at the port boundary.
// Status lifecycle: PENDING -> IN_PROGRESS -> COMPLETED
type WorkOrder struct {
	ID             int64
	OrderNumber    string
	ProductName    string
	ProductCode    string
	Quantity       int
	DueDate        time.Time
	Priority       models.Priority
	Status         models.WorkOrderStatus
	Instructions   string
	Progress       int
	AssignedToID   int64
	AssignedToName string
	ActualQuantity *int
	Notes          string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}
