package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	coreissue "github.com/example/mes/internal/core/issue"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// IssueServiceImpl implements the IssueService interface.
type IssueServiceImpl struct {
	issueRepo     secondary.IssueRepository
	workOrderRepo secondary.WorkOrderRepository
	events        eventSink
	now           func() time.Time
}

// NewIssueService creates a new IssueService with injected dependencies.
func NewIssueService(
	issueRepo secondary.IssueRepository,
	workOrderRepo secondary.WorkOrderRepository,
	publisher secondary.EventPublisher,
	logger *zap.Logger,
) *IssueServiceImpl {
	return &IssueServiceImpl{
		issueRepo:     issueRepo,
		workOrderRepo: workOrderRepo,
		events:        newEventSink(publisher, logger),
		now:           time.Now,
	}
}

// CreateIssue reports a new OPEN issue against a work order.
func (s *IssueServiceImpl) CreateIssue(ctx context.Context, c authz.Capability, req primary.CreateIssueRequest) (*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueCreate); err != nil {
		return nil, err
	}
	priority := coreissue.DefaultPriority(req.Priority)
	if err := coreissue.ValidateCreate(req.WorkOrderID, req.Title, req.Description, priority); err != nil {
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
	record := &secondary.IssueRecord{
		WorkOrderID: req.WorkOrderID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    string(priority),
		Status:      string(coreissue.InitialStatus()),
		Type:        req.Type,
		ReporterID:  c.Caller().UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.issueRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	created, err := s.issueRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created issue: %w", err)
	}

	s.events.emit(ctx, secondary.EventIssueCreated, created.ID, c.Caller().UserID, now, map[string]any{
		"workOrderId": created.WorkOrderID,
		"priority":    created.Priority,
	})
	return recordToIssue(created), nil
}

// GetIssue retrieves an issue by ID.
func (s *IssueServiceImpl) GetIssue(ctx context.Context, c authz.Capability, id int64) (*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueRead); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return recordToIssue(record), nil
}

// ListIssues lists issues with optional filters.
func (s *IssueServiceImpl) ListIssues(ctx context.Context, c authz.Capability, filters primary.IssueFilters) ([]*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueRead); err != nil {
		return nil, err
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperr.Validation("Invalid issue status: %s", filters.Status)
	}
	if filters.Priority != "" && !filters.Priority.Valid() {
		return nil, apperr.Validation("Invalid priority: %s", filters.Priority)
	}

	reporter := filters.ReporterID
	if owner := c.OwnerFilter(); owner != 0 {
		if reporter != 0 && reporter != owner {
			return nil, apperr.Forbidden("Access denied: workers may only list issues they reported")
		}
		reporter = owner
	}

	records, err := s.issueRepo.List(ctx, secondary.IssueFilters{
		WorkOrderID: filters.WorkOrderID,
		Status:      string(filters.Status),
		Priority:    string(filters.Priority),
		Type:        filters.Type,
		ReporterID:  reporter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	issues := make([]*primary.Issue, len(records))
	for i, r := range records {
		issues[i] = recordToIssue(r)
	}
	return issues, nil
}

// UpdateIssue applies the Set fields of req. A status change goes through
// the same forward-only transition table as the dedicated operations.
func (s *IssueServiceImpl) UpdateIssue(ctx context.Context, c authz.Capability, id int64, req primary.UpdateIssueRequest) (*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueUpdate); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if v, ok := req.Version.Get(); ok && v != record.Version {
		return nil, apperr.Conflict("Issue %d was modified by someone else (version %d, expected %d)", id, record.Version, v)
	}
	now := s.now()

	fields := map[string]string{}
	rejectNull(fields, "title", req.Title.IsNull())
	rejectNull(fields, "priority", req.Priority.IsNull())
	rejectNull(fields, "status", req.Status.IsNull())

	if v, ok := req.Title.Get(); ok {
		if err := coreissue.ValidateTitle(v); err != nil {
			fields["title"] = err.Error()
		}
		record.Title = strings.TrimSpace(v)
	}
	if req.Description.IsNull() {
		record.Description = ""
	} else if v, ok := req.Description.Get(); ok {
		record.Description = v
	}
	if v, ok := req.Priority.Get(); ok {
		if !v.Valid() {
			fields["priority"] = "Priority must be one of LOW, MEDIUM, HIGH, URGENT"
		}
		record.Priority = string(v)
	}
	if req.Type.IsNull() {
		record.Type = ""
	} else if v, ok := req.Type.Get(); ok {
		record.Type = v
	}
	if v, ok := req.Status.Get(); ok && !v.Valid() {
		fields["status"] = "Status must be one of OPEN, IN_PROGRESS, RESOLVED, CLOSED"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	var event string
	if to, ok := req.Status.Get(); ok {
		from := models.IssueStatus(record.Status)
		if err := coreissue.CanChangeStatus(coreissue.ChangeContext{
			IssueID:  id,
			From:     from,
			To:       to,
			Elevated: c.All(),
		}); err != nil {
			return nil, err
		}
		if to == models.IssueResolved && from != models.IssueResolved {
			result := coreissue.ApplyResolve(now)
			record.ResolvedAt = &result.ResolvedAt
			event = secondary.EventIssueResolved
		}
		if to == models.IssueClosed && from != models.IssueClosed {
			event = secondary.EventIssueClosed
		}
		record.Status = string(to)
	}

	record.UpdatedAt = now
	if err := s.issueRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}
	if event != "" {
		s.events.emit(ctx, event, id, c.Caller().UserID, now, nil)
	}
	return recordToIssue(record), nil
}

// ResolveIssue moves an OPEN or IN_PROGRESS issue to RESOLVED.
func (s *IssueServiceImpl) ResolveIssue(ctx context.Context, c authz.Capability, id int64, resolution string) (*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueResolve); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}

	guardCtx := coreissue.StatusContext{IssueID: id, Status: models.IssueStatus(record.Status)}
	if err := coreissue.CanResolve(guardCtx).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	result := coreissue.ApplyResolve(now)
	record.Status = string(result.NewStatus)
	record.ResolvedAt = &result.ResolvedAt
	if strings.TrimSpace(resolution) != "" {
		record.Resolution = resolution
	}
	record.UpdatedAt = now
	if err := s.issueRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to resolve issue: %w", err)
	}

	s.events.emit(ctx, secondary.EventIssueResolved, id, c.Caller().UserID, now, nil)
	return recordToIssue(record), nil
}

// CloseIssue moves a RESOLVED issue to CLOSED.
func (s *IssueServiceImpl) CloseIssue(ctx context.Context, c authz.Capability, id int64) (*primary.Issue, error) {
	if err := c.Permits(authz.OpIssueResolve); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}

	guardCtx := coreissue.StatusContext{IssueID: id, Status: models.IssueStatus(record.Status)}
	if err := coreissue.CanClose(guardCtx).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	record.Status = string(models.IssueClosed)
	record.UpdatedAt = now
	if err := s.issueRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to close issue: %w", err)
	}

	s.events.emit(ctx, secondary.EventIssueClosed, id, c.Caller().UserID, now, nil)
	return recordToIssue(record), nil
}

// DeleteIssue removes an issue.
func (s *IssueServiceImpl) DeleteIssue(ctx context.Context, c authz.Capability, id int64) error {
	if err := c.Permits(authz.OpIssueDelete); err != nil {
		return err
	}
	if _, err := s.load(ctx, c, id); err != nil {
		return err
	}
	if err := s.issueRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	return nil
}

func (s *IssueServiceImpl) load(ctx context.Context, c authz.Capability, id int64) (*secondary.IssueRecord, error) {
	record, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOwner("Issue", record.ReporterID); err != nil {
		return nil, err
	}
	return record, nil
}

func recordToIssue(r *secondary.IssueRecord) *primary.Issue {
	return &primary.Issue{
		ID:              r.ID,
		WorkOrderID:     r.WorkOrderID,
		WorkOrderNumber: r.WorkOrderNumber,
		Title:           r.Title,
		Description:     r.Description,
		Priority:        models.Priority(r.Priority),
		Status:          models.IssueStatus(r.Status),
		Type:            r.Type,
		Resolution:      r.Resolution,
		ReporterID:      r.ReporterID,
		ReporterName:    r.ReporterName,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ResolvedAt:      r.ResolvedAt,
		Version:         r.Version,
	}
}
