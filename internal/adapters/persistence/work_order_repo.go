package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/ports/secondary"
)

// WorkOrderRepository implements secondary.WorkOrderRepository with gorm.
type WorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a new gorm work order repository.
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

var _ secondary.WorkOrderRepository = (*WorkOrderRepository)(nil)

// Create persists a new work order at version 1.
func (r *WorkOrderRepository) Create(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	now := time.Now()
	stamp(&wo.CreatedAt, now)
	stamp(&wo.UpdatedAt, now)
	wo.Version = 1

	e := workOrderToEntity(wo)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return translateWriteError(err, "create", "WorkOrder")
	}
	wo.ID = e.ID
	return nil
}

// GetByID retrieves a work order with its assignee's name.
func (r *WorkOrderRepository) GetByID(ctx context.Context, id int64) (*secondary.WorkOrderRecord, error) {
	var e workOrderEntity
	err := r.db.WithContext(ctx).Preload("AssignedTo").First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("WorkOrder", id)
		}
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return workOrderFromEntity(&e), nil
}

// List retrieves work orders matching the filters, newest first.
func (r *WorkOrderRepository) List(ctx context.Context, filters secondary.WorkOrderFilters) ([]*secondary.WorkOrderRecord, error) {
	query := r.db.WithContext(ctx).Model(&workOrderEntity{}).Preload("AssignedTo")

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.AssignedToID != 0 {
		query = query.Where("assigned_to_id = ?", filters.AssignedToID)
	}
	if filters.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filters.CreatedFrom.UTC())
	}
	if filters.CreatedTo != nil {
		query = query.Where("created_at <= ?", filters.CreatedTo.UTC())
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var entities []workOrderEntity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}

	records := make([]*secondary.WorkOrderRecord, 0, len(entities))
	for i := range entities {
		records = append(records, workOrderFromEntity(&entities[i]))
	}
	return records, nil
}

// Update writes every mutable column when the stored version still equals
// wo.Version. A stale version returns a conflict error.
func (r *WorkOrderRepository) Update(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	result := r.db.WithContext(ctx).
		Model(&workOrderEntity{}).
		Where("id = ? AND version = ?", wo.ID, wo.Version).
		Updates(map[string]any{
			"product_name":    wo.ProductName,
			"product_code":    wo.ProductCode,
			"quantity":        wo.Quantity,
			"due_date":        utc(wo.DueDate),
			"priority":        wo.Priority,
			"status":          wo.Status,
			"instructions":    wo.Instructions,
			"progress":        wo.Progress,
			"assigned_to_id":  nullableID(wo.AssignedToID),
			"actual_quantity": wo.ActualQuantity,
			"notes":           wo.Notes,
			"started_at":      utcPtr(wo.StartedAt),
			"completed_at":    utcPtr(wo.CompletedAt),
			"updated_at":      utc(wo.UpdatedAt),
			"version":         wo.Version + 1,
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "update", "WorkOrder")
	}
	if result.RowsAffected == 0 {
		exists, err := r.Exists(ctx, wo.ID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("WorkOrder", wo.ID)
		}
		return apperr.Conflict("Work order %d was modified concurrently", wo.ID)
	}
	wo.Version++
	return nil
}

// Delete removes a work order with its work logs and issues in one
// transaction.
func (r *WorkOrderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("work_order_id = ?", id).Delete(&workLogEntity{}).Error; err != nil {
			return fmt.Errorf("failed to delete work logs: %w", err)
		}
		if err := tx.Where("work_order_id = ?", id).Delete(&issueEntity{}).Error; err != nil {
			return fmt.Errorf("failed to delete issues: %w", err)
		}
		result := tx.Delete(&workOrderEntity{}, id)
		if result.Error != nil {
			return translateWriteError(result.Error, "delete", "WorkOrder")
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("WorkOrder", id)
		}
		return nil
	})
}

// ExistsByOrderNumber reports whether an order number is taken.
func (r *WorkOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&workOrderEntity{}).Where("order_number = ?", orderNumber).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return count > 0, nil
}

// Exists reports whether a work order exists.
func (r *WorkOrderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&workOrderEntity{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check work order: %w", err)
	}
	return count > 0, nil
}
