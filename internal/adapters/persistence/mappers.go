package persistence

import (
	"time"

	"github.com/example/mes/internal/ports/secondary"
)

func workOrderFromEntity(e *workOrderEntity) *secondary.WorkOrderRecord {
	r := &secondary.WorkOrderRecord{
		ID:             e.ID,
		OrderNumber:    e.OrderNumber,
		ProductName:    e.ProductName,
		ProductCode:    e.ProductCode,
		Quantity:       e.Quantity,
		DueDate:        e.DueDate,
		Priority:       e.Priority,
		Status:         e.Status,
		Instructions:   e.Instructions,
		Progress:       e.Progress,
		ActualQuantity: e.ActualQuantity,
		Notes:          e.Notes,
		StartedAt:      e.StartedAt,
		CompletedAt:    e.CompletedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		Version:        e.Version,
	}
	if e.AssignedToID != nil {
		r.AssignedToID = *e.AssignedToID
	}
	if e.AssignedTo != nil {
		r.AssignedToName = e.AssignedTo.Name
	}
	return r
}

func workOrderToEntity(r *secondary.WorkOrderRecord) *workOrderEntity {
	return &workOrderEntity{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		ProductName:    r.ProductName,
		ProductCode:    r.ProductCode,
		Quantity:       r.Quantity,
		DueDate:        utc(r.DueDate),
		Priority:       r.Priority,
		Status:         r.Status,
		Instructions:   r.Instructions,
		Progress:       r.Progress,
		AssignedToID:   nullableID(r.AssignedToID),
		ActualQuantity: r.ActualQuantity,
		Notes:          r.Notes,
		StartedAt:      utcPtr(r.StartedAt),
		CompletedAt:    utcPtr(r.CompletedAt),
		CreatedAt:      utc(r.CreatedAt),
		UpdatedAt:      utc(r.UpdatedAt),
		Version:        r.Version,
	}
}

func issueFromEntity(e *issueEntity) *secondary.IssueRecord {
	r := &secondary.IssueRecord{
		ID:          e.ID,
		WorkOrderID: e.WorkOrderID,
		Title:       e.Title,
		Description: e.Description,
		Priority:    e.Priority,
		Status:      e.Status,
		Type:        e.Type,
		Resolution:  e.Resolution,
		ReporterID:  e.ReportedByID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		ResolvedAt:  e.ResolvedAt,
		Version:     e.Version,
	}
	if e.WorkOrder != nil {
		r.WorkOrderNumber = e.WorkOrder.OrderNumber
	}
	if e.ReportedBy != nil {
		r.ReporterName = e.ReportedBy.Name
	}
	return r
}

func issueToEntity(r *secondary.IssueRecord) *issueEntity {
	return &issueEntity{
		ID:           r.ID,
		WorkOrderID:  r.WorkOrderID,
		Title:        r.Title,
		Description:  r.Description,
		Priority:     r.Priority,
		Status:       r.Status,
		Type:         r.Type,
		Resolution:   r.Resolution,
		ReportedByID: r.ReporterID,
		CreatedAt:    utc(r.CreatedAt),
		UpdatedAt:    utc(r.UpdatedAt),
		ResolvedAt:   utcPtr(r.ResolvedAt),
		Version:      r.Version,
	}
}

func workLogFromEntity(e *workLogEntity) *secondary.WorkLogRecord {
	r := &secondary.WorkLogRecord{
		ID:          e.ID,
		WorkOrderID: e.WorkOrderID,
		WorkerID:    e.WorkerID,
		Action:      e.Action,
		Notes:       e.Notes,
		Progress:    e.Progress,
		CreatedAt:   e.CreatedAt,
	}
	if e.WorkOrder != nil {
		r.WorkOrderNumber = e.WorkOrder.OrderNumber
	}
	if e.Worker != nil {
		r.WorkerName = e.Worker.Name
	}
	return r
}

func workLogToEntity(r *secondary.WorkLogRecord) *workLogEntity {
	return &workLogEntity{
		ID:          r.ID,
		WorkOrderID: r.WorkOrderID,
		WorkerID:    r.WorkerID,
		Action:      r.Action,
		Notes:       r.Notes,
		Progress:    r.Progress,
		CreatedAt:   utc(r.CreatedAt),
	}
}

func userFromEntity(e *userEntity) *secondary.UserRecord {
	return &secondary.UserRecord{
		ID:           e.ID,
		Email:        e.Email,
		Name:         e.Name,
		PasswordHash: e.PasswordHash,
		Role:         e.Role,
		Active:       e.IsActive,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func userToEntity(r *secondary.UserRecord) *userEntity {
	return &userEntity{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		IsActive:     r.Active,
		CreatedAt:    utc(r.CreatedAt),
		UpdatedAt:    utc(r.UpdatedAt),
	}
}

// nullableID maps the zero id to NULL.
func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// Times are stored in UTC so SQLite's text timestamps compare in order.
func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
