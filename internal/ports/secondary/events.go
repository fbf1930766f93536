package secondary

import (
	"context"
	"time"
)

// Event types published after successful writes.
const (
	EventWorkOrderCreated   = "workorder.created"
	EventWorkOrderStarted   = "workorder.started"
	EventWorkOrderProgress  = "workorder.progress"
	EventWorkOrderCompleted = "workorder.completed"
	EventWorkOrderDeleted   = "workorder.deleted"
	EventIssueCreated       = "issue.created"
	EventIssueResolved      = "issue.resolved"
	EventIssueClosed        = "issue.closed"
	EventWorkLogCreated     = "worklog.created"
)

// Event is a lifecycle notification.
type Event struct {
	Type       string         `json:"type"`
	EntityID   int64          `json:"entityId"`
	ActorID    int64          `json:"actorId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// EventPublisher delivers lifecycle events to interested systems.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// SpreadsheetExporter renders reports as spreadsheet files.
type SpreadsheetExporter interface {
	// ExportProduction returns an .xlsx workbook of the production report.
	ExportProduction(report ProductionReport) ([]byte, error)
}

// ProductionReport is the exporter's view of a production summary.
type ProductionReport struct {
	Start                 time.Time
	End                   time.Time
	TotalQuantityOrdered  int
	TotalQuantityProduced int
	ProductionRate        float64
	Products              []ProductionRow
	Days                  []ProductionRow
}

// ProductionRow is one product or one day of a production report.
type ProductionRow struct {
	Label    string
	Ordered  int
	Produced int
	Rate     float64
}
