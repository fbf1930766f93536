package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	coreworklog "github.com/example/mes/internal/core/worklog"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// WorkLogServiceImpl implements the WorkLogService interface.
type WorkLogServiceImpl struct {
	workLogRepo   secondary.WorkLogRepository
	workOrderRepo secondary.WorkOrderRepository
	events        eventSink
	now           func() time.Time
}

// NewWorkLogService creates a new WorkLogService with injected dependencies.
func NewWorkLogService(
	workLogRepo secondary.WorkLogRepository,
	workOrderRepo secondary.WorkOrderRepository,
	publisher secondary.EventPublisher,
	logger *zap.Logger,
) *WorkLogServiceImpl {
	return &WorkLogServiceImpl{
		workLogRepo:   workLogRepo,
		workOrderRepo: workOrderRepo,
		events:        newEventSink(publisher, logger),
		now:           time.Now,
	}
}

// CreateWorkLog appends an entry stamped with the caller as worker.
func (s *WorkLogServiceImpl) CreateWorkLog(ctx context.Context, c authz.Capability, req primary.CreateWorkLogRequest) (*primary.WorkLog, error) {
	if err := c.Permits(authz.OpWorkLogCreate); err != nil {
		return nil, err
	}
	if err := coreworklog.ValidateCreate(coreworklog.CreateInput{
		WorkOrderID: req.WorkOrderID,
		Action:      req.Action,
		Notes:       req.Notes,
		Progress:    req.Progress,
	}); err != nil {
		return nil, err
	}

	exists, err := s.workOrderRepo.Exists(ctx, req.WorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate work order: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("WorkOrder", req.WorkOrderID)
	}

	now := s.now()
	record := &secondary.WorkLogRecord{
		WorkOrderID: req.WorkOrderID,
		WorkerID:    c.Caller().UserID,
		Action:      string(req.Action),
		Notes:       req.Notes,
		Progress:    req.Progress,
		CreatedAt:   now,
	}
	if err := s.workLogRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create work log: %w", err)
	}

	created, err := s.workLogRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created work log: %w", err)
	}

	s.events.emit(ctx, secondary.EventWorkLogCreated, created.ID, c.Caller().UserID, now, map[string]any{
		"workOrderId": created.WorkOrderID,
		"action":      created.Action,
	})
	return recordToWorkLog(created), nil
}

// GetWorkLog retrieves an entry by ID.
func (s *WorkLogServiceImpl) GetWorkLog(ctx context.Context, c authz.Capability, id int64) (*primary.WorkLog, error) {
	if err := c.Permits(authz.OpWorkLogRead); err != nil {
		return nil, err
	}
	record, err := s.workLogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOwner("WorkLog", record.WorkerID); err != nil {
		return nil, err
	}
	return recordToWorkLog(record), nil
}

// ListWorkLogs lists entries with optional filters, newest first.
func (s *WorkLogServiceImpl) ListWorkLogs(ctx context.Context, c authz.Capability, filters primary.WorkLogFilters) ([]*primary.WorkLog, error) {
	if err := c.Permits(authz.OpWorkLogRead); err != nil {
		return nil, err
	}
	if filters.Action != "" && !filters.Action.Valid() {
		return nil, apperr.Validation("Invalid log action: %s", filters.Action)
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, apperr.Validation("Start date must not be after end date")
	}

	worker := filters.WorkerID
	if owner := c.OwnerFilter(); owner != 0 {
		if worker != 0 && worker != owner {
			return nil, apperr.Forbidden("Access denied: workers may only list their own work logs")
		}
		worker = owner
	}

	records, err := s.workLogRepo.List(ctx, secondary.WorkLogFilters{
		WorkOrderID: filters.WorkOrderID,
		WorkerID:    worker,
		Action:      string(filters.Action),
		From:        filters.From,
		To:          filters.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}

	logs := make([]*primary.WorkLog, len(records))
	for i, r := range records {
		logs[i] = recordToWorkLog(r)
	}
	return logs, nil
}

func recordToWorkLog(r *secondary.WorkLogRecord) *primary.WorkLog {
	return &primary.WorkLog{
		ID:              r.ID,
		WorkOrderID:     r.WorkOrderID,
		WorkOrderNumber: r.WorkOrderNumber,
		WorkerID:        r.WorkerID,
		WorkerName:      r.WorkerName,
		Action:          models.LogAction(r.Action),
		Notes:           r.Notes,
		Progress:        r.Progress,
		CreatedAt:       r.CreatedAt,
	}
}
