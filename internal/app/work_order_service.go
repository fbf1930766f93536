package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	coreworkorder "github.com/example/mes/internal/core/workorder"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// WorkOrderServiceImpl implements the WorkOrderService interface.
type WorkOrderServiceImpl struct {
	workOrderRepo secondary.WorkOrderRepository
	userRepo      secondary.UserRepository
	events        eventSink
	now           func() time.Time
}

// NewWorkOrderService creates a new WorkOrderService with injected dependencies.
func NewWorkOrderService(
	workOrderRepo secondary.WorkOrderRepository,
	userRepo secondary.UserRepository,
	publisher secondary.EventPublisher,
	logger *zap.Logger,
) *WorkOrderServiceImpl {
	return &WorkOrderServiceImpl{
		workOrderRepo: workOrderRepo,
		userRepo:      userRepo,
		events:        newEventSink(publisher, logger),
		now:           time.Now,
	}
}

// CreateWorkOrder creates a new PENDING work order.
func (s *WorkOrderServiceImpl) CreateWorkOrder(ctx context.Context, c authz.Capability, req primary.CreateWorkOrderRequest) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderCreate); err != nil {
		return nil, err
	}
	now := s.now()

	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	priority := coreworkorder.DefaultPriority(req.Priority)
	if err := coreworkorder.ValidateCreate(coreworkorder.CreateInput{
		OrderNumber: req.OrderNumber,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		DueDate:     req.DueDate,
		Priority:    priority,
	}, now); err != nil {
		return nil, err
	}

	taken, err := s.workOrderRepo.ExistsByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	guardCtx := coreworkorder.CreateContext{
		OrderNumber:       req.OrderNumber,
		OrderNumberTaken:  taken,
		AssigneeID:        req.AssignedToID,
		AssigneeRequested: req.AssignedToID != 0,
	}
	if req.AssignedToID != 0 {
		exists, err := s.userRepo.Exists(ctx, req.AssignedToID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate assignee: %w", err)
		}
		guardCtx.AssigneeExists = exists
	}
	if err := coreworkorder.CanCreateWorkOrder(guardCtx); err != nil {
		return nil, err
	}

	record := &secondary.WorkOrderRecord{
		OrderNumber:  req.OrderNumber,
		ProductName:  strings.TrimSpace(req.ProductName),
		ProductCode:  req.ProductCode,
		Quantity:     req.Quantity,
		DueDate:      req.DueDate,
		Priority:     string(priority),
		Status:       string(coreworkorder.InitialStatus()),
		Instructions: req.Instructions,
		Progress:     0,
		AssignedToID: req.AssignedToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.workOrderRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}

	created, err := s.workOrderRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created work order: %w", err)
	}

	s.events.emit(ctx, secondary.EventWorkOrderCreated, created.ID, c.Caller().UserID, now, map[string]any{
		"orderNumber": created.OrderNumber,
	})
	return recordToWorkOrder(created), nil
}

// GetWorkOrder retrieves a work order by ID.
func (s *WorkOrderServiceImpl) GetWorkOrder(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderRead); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return recordToWorkOrder(record), nil
}

// ListWorkOrders lists work orders with optional filters.
func (s *WorkOrderServiceImpl) ListWorkOrders(ctx context.Context, c authz.Capability, filters primary.WorkOrderFilters) ([]*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderRead); err != nil {
		return nil, err
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperr.Validation("Invalid work order status: %s", filters.Status)
	}

	assignee := filters.AssignedToID
	if owner := c.OwnerFilter(); owner != 0 {
		if assignee != 0 && assignee != owner {
			return nil, apperr.Forbidden("Access denied: workers may only list their own work orders")
		}
		assignee = owner
	}

	records, err := s.workOrderRepo.List(ctx, secondary.WorkOrderFilters{
		Status:       string(filters.Status),
		AssignedToID: assignee,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}

	orders := make([]*primary.WorkOrder, len(records))
	for i, r := range records {
		orders[i] = recordToWorkOrder(r)
	}
	return orders, nil
}

// UpdateWorkOrder applies the Set fields of req.
func (s *WorkOrderServiceImpl) UpdateWorkOrder(ctx context.Context, c authz.Capability, id int64, req primary.UpdateWorkOrderRequest) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderUpdate); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if v, ok := req.Version.Get(); ok && v != record.Version {
		return nil, apperr.Conflict("Work order %d was modified by someone else (version %d, expected %d)", id, record.Version, v)
	}
	now := s.now()

	fields := map[string]string{}
	rejectNull(fields, "productName", req.ProductName.IsNull())
	rejectNull(fields, "quantity", req.Quantity.IsNull())
	rejectNull(fields, "dueDate", req.DueDate.IsNull())
	rejectNull(fields, "priority", req.Priority.IsNull())

	if v, ok := req.ProductName.Get(); ok {
		if strings.TrimSpace(v) == "" {
			fields["productName"] = "Product name must not be blank"
		}
		record.ProductName = strings.TrimSpace(v)
	}
	if req.ProductCode.IsNull() {
		record.ProductCode = ""
	} else if v, ok := req.ProductCode.Get(); ok {
		record.ProductCode = v
	}
	if v, ok := req.Quantity.Get(); ok {
		if err := coreworkorder.ValidateQuantity(v); err != nil {
			fields["quantity"] = err.Error()
		}
		record.Quantity = v
	}
	if v, ok := req.DueDate.Get(); ok {
		if err := coreworkorder.ValidateDueDate(v, now); err != nil {
			fields["dueDate"] = err.Error()
		}
		record.DueDate = v
	}
	if v, ok := req.Priority.Get(); ok {
		if !v.Valid() {
			fields["priority"] = "Priority must be one of LOW, MEDIUM, HIGH, URGENT"
		}
		record.Priority = string(v)
	}
	if req.Instructions.IsNull() {
		record.Instructions = ""
	} else if v, ok := req.Instructions.Get(); ok {
		record.Instructions = v
	}
	if req.AssignedToID.IsNull() {
		record.AssignedToID = 0
	} else if v, ok := req.AssignedToID.Get(); ok {
		if v <= 0 {
			fields["assignedToId"] = "Assignee must be a valid user id"
		}
		record.AssignedToID = v
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	if v, ok := req.AssignedToID.Get(); ok {
		exists, err := s.userRepo.Exists(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("failed to validate assignee: %w", err)
		}
		if !exists {
			return nil, apperr.NotFound("User", v)
		}
	}

	record.UpdatedAt = now
	if err := s.workOrderRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update work order: %w", err)
	}

	updated, err := s.workOrderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated work order: %w", err)
	}
	return recordToWorkOrder(updated), nil
}

// DeleteWorkOrder deletes a work order and everything attached to it.
func (s *WorkOrderServiceImpl) DeleteWorkOrder(ctx context.Context, c authz.Capability, id int64) error {
	if err := c.Permits(authz.OpWorkOrderDelete); err != nil {
		return err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return err
	}
	if err := s.workOrderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete work order: %w", err)
	}
	s.events.emit(ctx, secondary.EventWorkOrderDeleted, id, c.Caller().UserID, s.now(), map[string]any{
		"orderNumber": record.OrderNumber,
	})
	return nil
}

// StartWork moves a PENDING order to IN_PROGRESS.
func (s *WorkOrderServiceImpl) StartWork(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderExecute); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}

	guardCtx := coreworkorder.TransitionContext{WorkOrderID: id, Status: models.WorkOrderStatus(record.Status)}
	if err := coreworkorder.CanStartWork(guardCtx).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	result := coreworkorder.ApplyStart(now)
	record.Status = string(result.NewStatus)
	record.StartedAt = result.StartedAt
	record.UpdatedAt = now
	if err := s.workOrderRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to start work order: %w", err)
	}

	s.events.emit(ctx, secondary.EventWorkOrderStarted, id, c.Caller().UserID, now, nil)
	return recordToWorkOrder(record), nil
}

// CompleteWork moves an IN_PROGRESS order to COMPLETED with progress 100.
func (s *WorkOrderServiceImpl) CompleteWork(ctx context.Context, c authz.Capability, id int64, req primary.CompleteWorkRequest) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderExecute); err != nil {
		return nil, err
	}
	if req.ActualQuantity != nil && *req.ActualQuantity < 0 {
		return nil, apperr.Validation("Actual quantity must be non-negative")
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}

	guardCtx := coreworkorder.TransitionContext{WorkOrderID: id, Status: models.WorkOrderStatus(record.Status)}
	if err := coreworkorder.CanCompleteWork(guardCtx).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	result := coreworkorder.ApplyComplete(now)
	record.Status = string(result.NewStatus)
	record.Progress = *result.Progress
	record.CompletedAt = result.CompletedAt
	if req.ActualQuantity != nil {
		record.ActualQuantity = req.ActualQuantity
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}
	record.UpdatedAt = now
	if err := s.workOrderRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to complete work order: %w", err)
	}

	s.events.emit(ctx, secondary.EventWorkOrderCompleted, id, c.Caller().UserID, now, map[string]any{
		"orderNumber": record.OrderNumber,
	})
	return recordToWorkOrder(record), nil
}

// UpdateProgress records progress without changing status.
func (s *WorkOrderServiceImpl) UpdateProgress(ctx context.Context, c authz.Capability, id int64, progress int) (*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpWorkOrderExecute); err != nil {
		return nil, err
	}
	if err := coreworkorder.ValidateProgress(progress); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record.Progress = progress
	record.UpdatedAt = now
	if err := s.workOrderRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	s.events.emit(ctx, secondary.EventWorkOrderProgress, id, c.Caller().UserID, now, map[string]any{
		"progress": progress,
	})
	return recordToWorkOrder(record), nil
}

// load fetches a work order and applies the capability's ownership rule.
// A missing order is reported before any ownership decision.
func (s *WorkOrderServiceImpl) load(ctx context.Context, c authz.Capability, id int64) (*secondary.WorkOrderRecord, error) {
	record, err := s.workOrderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOwner("WorkOrder", record.AssignedToID); err != nil {
		return nil, err
	}
	return record, nil
}

func recordToWorkOrder(r *secondary.WorkOrderRecord) *primary.WorkOrder {
	return &primary.WorkOrder{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		ProductName:    r.ProductName,
		ProductCode:    r.ProductCode,
		Quantity:       r.Quantity,
		DueDate:        r.DueDate,
		Priority:       models.Priority(r.Priority),
		Status:         models.WorkOrderStatus(r.Status),
		Instructions:   r.Instructions,
		Progress:       r.Progress,
		AssignedToID:   r.AssignedToID,
		AssignedToName: r.AssignedToName,
		ActualQuantity: r.ActualQuantity,
		Notes:          r.Notes,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}

func rejectNull(fields map[string]string, name string, isNull bool) {
	if isNull {
		fields[name] = "Must not be null"
	}
}
