package primary

import (
	"context"
	"time"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/dashboard"
)

// DashboardService defines the primary port for read-only statistics.
// Every method requires OpDashboardRead.
type DashboardService interface {
	Stats(ctx context.Context, c authz.Capability) (*DashboardStats, error)
	Summary(ctx context.Context, c authz.Capability) (*DashboardSummary, error)
	RecentWorkOrders(ctx context.Context, c authz.Capability, limit int) ([]*WorkOrder, error)
	RecentIssues(ctx context.Context, c authz.Capability, limit int) ([]*Issue, error)
	RecentActivities(ctx context.Context, c authz.Capability, limit int) ([]Activity, error)
	ProductionSummary(ctx context.Context, c authz.Capability, period Period) (*ProductionSummary, error)
	// ExportProductionSummary renders ProductionSummary as an .xlsx workbook.
	ExportProductionSummary(ctx context.Context, c authz.Capability, period Period) ([]byte, error)
}

// Period bounds a report. Nil ends fall back to the month ending now.
type Period struct {
	Start *time.Time
	End   *time.Time
}

type (
	DashboardStats    = dashboard.Stats
	DashboardSummary  = dashboard.Summary
	Activity          = dashboard.Activity
	ProductionSummary = dashboard.Production
)
