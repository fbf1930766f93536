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

// IssueRepository implements secondary.IssueRepository with gorm.
type IssueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new gorm issue repository.
func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

var _ secondary.IssueRepository = (*IssueRepository)(nil)

func (r *IssueRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("WorkOrder").Preload("ReportedBy")
}

// Create persists a new issue at version 1.
func (r *IssueRepository) Create(ctx context.Context, issue *secondary.IssueRecord) error {
	now := time.Now()
	stamp(&issue.CreatedAt, now)
	stamp(&issue.UpdatedAt, now)
	issue.Version = 1

	e := issueToEntity(issue)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return translateWriteError(err, "create", "Issue")
	}
	issue.ID = e.ID
	return nil
}

// GetByID retrieves an issue with its work order number and reporter name.
func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*secondary.IssueRecord, error) {
	var e issueEntity
	if err := r.preloaded(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Issue", id)
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issueFromEntity(&e), nil
}

// List retrieves issues matching the filters, newest first.
func (r *IssueRepository) List(ctx context.Context, filters secondary.IssueFilters) ([]*secondary.IssueRecord, error) {
	query := r.preloaded(ctx).Model(&issueEntity{})

	if filters.WorkOrderID != 0 {
		query = query.Where("work_order_id = ?", filters.WorkOrderID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.ReporterID != 0 {
		query = query.Where("reported_by_id = ?", filters.ReporterID)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var entities []issueEntity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	records := make([]*secondary.IssueRecord, 0, len(entities))
	for i := range entities {
		records = append(records, issueFromEntity(&entities[i]))
	}
	return records, nil
}

// Update writes every mutable column when the stored version still equals
// issue.Version.
func (r *IssueRepository) Update(ctx context.Context, issue *secondary.IssueRecord) error {
	result := r.db.WithContext(ctx).
		Model(&issueEntity{}).
		Where("id = ? AND version = ?", issue.ID, issue.Version).
		Updates(map[string]any{
			"title":       issue.Title,
			"description": issue.Description,
			"priority":    issue.Priority,
			"status":      issue.Status,
			"type":        issue.Type,
			"resolution":  issue.Resolution,
			"resolved_at": utcPtr(issue.ResolvedAt),
			"updated_at":  utc(issue.UpdatedAt),
			"version":     issue.Version + 1,
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "update", "Issue")
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&issueEntity{}).Where("id = ?", issue.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check issue: %w", err)
		}
		if count == 0 {
			return apperr.NotFound("Issue", issue.ID)
		}
		return apperr.Conflict("Issue %d was modified concurrently", issue.ID)
	}
	issue.Version++
	return nil
}

// Delete removes an issue.
func (r *IssueRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&issueEntity{}, id)
	if result.Error != nil {
		return translateWriteError(result.Error, "delete", "Issue")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Issue", id)
	}
	return nil
}
