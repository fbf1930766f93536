package primary

import (
	"context"
	"time"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
)

// WorkLogService defines the primary port for the append-only work log.
type WorkLogService interface {
	// CreateWorkLog records an entry by the caller. Requires OpWorkLogCreate.
	CreateWorkLog(ctx context.Context, c authz.Capability, req CreateWorkLogRequest) (*WorkLog, error)

	// GetWorkLog retrieves an entry. Requires OpWorkLogRead.
	GetWorkLog(ctx context.Context, c authz.Capability, id int64) (*WorkLog, error)

	// ListWorkLogs lists entries, newest first. Requires OpWorkLogRead;
	// owner-scoped callers only see their own entries.
	ListWorkLogs(ctx context.Context, c authz.Capability, filters WorkLogFilters) ([]*WorkLog, error)
}

// CreateWorkLogRequest contains parameters for recording an entry.
type CreateWorkLogRequest struct {
	WorkOrderID int64
	Action      models.LogAction
	Notes       string
	Progress    *int
}

// WorkLogFilters contains filter options for listing entries.
type WorkLogFilters struct {
	WorkOrderID int64
	WorkerID    int64
	Action      models.LogAction
	From        *time.Time
	To          *time.Time
}

// WorkLog represents a work log entry at the port boundary.
type WorkLog struct {
	ID              int64
	WorkOrderID     int64
	WorkOrderNumber string
	WorkerID        int64
	WorkerName      string
	Action          models.LogAction
	Notes           string
	Progress        *int
	CreatedAt       time.Time
}
