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

// WorkLogRepository implements secondary.WorkLogRepository with gorm.
type WorkLogRepository struct {
	db *gorm.DB
}

// NewWorkLogRepository creates a new gorm work log repository.
func NewWorkLogRepository(db *gorm.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

var _ secondary.WorkLogRepository = (*WorkLogRepository)(nil)

// Create appends a work log entry.
func (r *WorkLogRepository) Create(ctx context.Context, log *secondary.WorkLogRecord) error {
	stamp(&log.CreatedAt, time.Now())

	e := workLogToEntity(log)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return translateWriteError(err, "create", "WorkLog")
	}
	log.ID = e.ID
	return nil
}

// GetByID retrieves an entry with its work order number and worker name.
func (r *WorkLogRepository) GetByID(ctx context.Context, id int64) (*secondary.WorkLogRecord, error) {
	var e workLogEntity
	err := r.db.WithContext(ctx).Preload("WorkOrder").Preload("Worker").First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("WorkLog", id)
		}
		return nil, fmt.Errorf("failed to get work log: %w", err)
	}
	return workLogFromEntity(&e), nil
}

// List retrieves entries matching the filters, newest first. From and To
// bound created_at inclusively.
func (r *WorkLogRepository) List(ctx context.Context, filters secondary.WorkLogFilters) ([]*secondary.WorkLogRecord, error) {
	query := r.db.WithContext(ctx).Model(&workLogEntity{}).Preload("WorkOrder").Preload("Worker")

	if filters.WorkOrderID != 0 {
		query = query.Where("work_order_id = ?", filters.WorkOrderID)
	}
	if filters.WorkerID != 0 {
		query = query.Where("worker_id = ?", filters.WorkerID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", filters.From.UTC())
	}
	if filters.To != nil {
		query = query.Where("created_at <= ?", filters.To.UTC())
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var entities []workLogEntity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}

	records := make([]*secondary.WorkLogRecord, 0, len(entities))
	for i := range entities {
		records = append(records, workLogFromEntity(&entities[i]))
	}
	return records, nil
}
