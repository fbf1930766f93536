package primary

import (
	"context"
	"time"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
)

// IssueService defines the primary port for issue operations.
type IssueService interface {
	// CreateIssue reports an issue against an existing work order.
	// Requires OpIssueCreate.
	CreateIssue(ctx context.Context, c authz.Capability, req CreateIssueRequest) (*Issue, error)

	// GetIssue retrieves an issue. Requires OpIssueRead.
	GetIssue(ctx context.Context, c authz.Capability, id int64) (*Issue, error)

	// ListIssues lists issues, newest first. Requires OpIssueRead;
	// owner-scoped callers only see issues they reported.
	ListIssues(ctx context.Context, c authz.Capability, filters IssueFilters) ([]*Issue, error)

	// UpdateIssue applies a partial update. Requires OpIssueUpdate.
	UpdateIssue(ctx context.Context, c authz.Capability, id int64, req UpdateIssueRequest) (*Issue, error)

	// ResolveIssue moves OPEN or IN_PROGRESS to RESOLVED. Requires OpIssueResolve.
	ResolveIssue(ctx context.Context, c authz.Capability, id int64, resolution string) (*Issue, error)

	// CloseIssue moves RESOLVED to CLOSED. Requires OpIssueResolve.
	CloseIssue(ctx context.Context, c authz.Capability, id int64) (*Issue, error)

	// DeleteIssue removes an issue. Requires OpIssueDelete.
	DeleteIssue(ctx context.Context, c authz.Capability, id int64) error
}

// CreateIssueRequest contains parameters for reporting an issue.
type CreateIssueRequest struct {
	WorkOrderID int64
	Title       string
	Description string
	Priority    models.Priority // empty means MEDIUM
	Type        string
}

// UpdateIssueRequest contains a partial update. Only Set fields are written.
type UpdateIssueRequest struct {
	Title       optional.Value[string]
	Description optional.Value[string]
	Priority    optional.Value[models.Priority]
	Status      optional.Value[models.IssueStatus]
	Type        optional.Value[string]
	Version     optional.Value[int64]
}

// IssueFilters contains filter options for listing issues.
type IssueFilters struct {
	WorkOrderID int64
	Status      models.IssueStatus
	Priority    models.Priority
	Type        string
	ReporterID  int64
}

// Issue represents an issue at the port boundary.
// Status lifecycle: OPEN -> IN_PROGRESS -> RESOLVED -> CLOSED
type Issue struct {
	ID              int64
	WorkOrderID     int64
	WorkOrderNumber string
	Title           string
	Description     string
	Priority        models.Priority
	Status          models.IssueStatus
	Type            string
	Resolution      string
	ReporterID      int64
	ReporterName    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	Version         int64
}
