package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/dashboard"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// Default and maximum sizes of the recent-item lists.
const (
	DefaultRecentWorkOrders = 10
	DefaultRecentIssues     = 10
	DefaultRecentActivities = 20
	MaxRecentItems          = 100
)

// DashboardServiceImpl implements the DashboardService interface.
type DashboardServiceImpl struct {
	workOrderRepo secondary.WorkOrderRepository
	issueRepo     secondary.IssueRepository
	workLogRepo   secondary.WorkLogRepository
	userRepo      secondary.UserRepository
	exporter      secondary.SpreadsheetExporter
	now           func() time.Time
}

// NewDashboardService creates a new DashboardService with injected dependencies.
func NewDashboardService(
	workOrderRepo secondary.WorkOrderRepository,
	issueRepo secondary.IssueRepository,
	workLogRepo secondary.WorkLogRepository,
	userRepo secondary.UserRepository,
	exporter secondary.SpreadsheetExporter,
) *DashboardServiceImpl {
	return &DashboardServiceImpl{
		workOrderRepo: workOrderRepo,
		issueRepo:     issueRepo,
		workLogRepo:   workLogRepo,
		userRepo:      userRepo,
		exporter:      exporter,
		now:           time.Now,
	}
}

// Stats returns the headline counters.
func (s *DashboardServiceImpl) Stats(ctx context.Context, c authz.Capability) (*primary.DashboardStats, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	orders, err := s.orderFacts(ctx, secondary.WorkOrderFilters{})
	if err != nil {
		return nil, err
	}
	issues, err := s.issueFacts(ctx)
	if err != nil {
		return nil, err
	}
	stats := dashboard.ComputeStats(orders, issues, s.now())
	return &stats, nil
}

// Summary returns counts broken down by status and priority.
func (s *DashboardServiceImpl) Summary(ctx context.Context, c authz.Capability) (*primary.DashboardSummary, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	orders, err := s.orderFacts(ctx, secondary.WorkOrderFilters{})
	if err != nil {
		return nil, err
	}
	issues, err := s.issueFacts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	userFacts := make([]dashboard.UserFact, len(users))
	for i, u := range users {
		userFacts[i] = dashboard.UserFact{Active: u.Active}
	}
	summary := dashboard.ComputeSummary(orders, issues, userFacts)
	return &summary, nil
}

// RecentWorkOrders returns the newest work orders.
func (s *DashboardServiceImpl) RecentWorkOrders(ctx context.Context, c authz.Capability, limit int) ([]*primary.WorkOrder, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	records, err := s.workOrderRepo.List(ctx, secondary.WorkOrderFilters{
		Limit: clampLimit(limit, DefaultRecentWorkOrders),
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

// RecentIssues returns the newest issues.
func (s *DashboardServiceImpl) RecentIssues(ctx context.Context, c authz.Capability, limit int) ([]*primary.Issue, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	records, err := s.issueRepo.List(ctx, secondary.IssueFilters{
		Limit: clampLimit(limit, DefaultRecentIssues),
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

// RecentActivities merges the newest work logs and work order creations.
func (s *DashboardServiceImpl) RecentActivities(ctx context.Context, c authz.Capability, limit int) ([]primary.Activity, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, DefaultRecentActivities)

	logRecords, err := s.workLogRepo.List(ctx, secondary.WorkLogFilters{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	logs := make([]dashboard.LogFact, len(logRecords))
	for i, r := range logRecords {
		logs[i] = dashboard.LogFact{
			ID:              r.ID,
			Action:          models.LogAction(r.Action),
			WorkOrderNumber: r.WorkOrderNumber,
			Notes:           r.Notes,
			WorkerID:        r.WorkerID,
			WorkerName:      r.WorkerName,
			CreatedAt:       r.CreatedAt,
		}
	}

	orders, err := s.orderFacts(ctx, secondary.WorkOrderFilters{Limit: limit})
	if err != nil {
		return nil, err
	}
	return dashboard.RecentActivities(logs, orders, limit), nil
}

// ProductionSummary reports ordered versus produced quantities for period.
// A missing bound defaults to the month ending now.
func (s *DashboardServiceImpl) ProductionSummary(ctx context.Context, c authz.Capability, period primary.Period) (*primary.ProductionSummary, error) {
	if err := c.Permits(authz.OpDashboardRead); err != nil {
		return nil, err
	}
	start, end, err := s.resolvePeriod(period)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderFacts(ctx, secondary.WorkOrderFilters{CreatedFrom: &start, CreatedTo: &end})
	if err != nil {
		return nil, err
	}
	production := dashboard.ComputeProduction(orders, start, end)
	return &production, nil
}

// ExportProductionSummary renders ProductionSummary as a spreadsheet.
func (s *DashboardServiceImpl) ExportProductionSummary(ctx context.Context, c authz.Capability, period primary.Period) ([]byte, error) {
	production, err := s.ProductionSummary(ctx, c, period)
	if err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, apperr.Internal(nil, "Spreadsheet export is not configured")
	}

	report := secondary.ProductionReport{
		Start:                 production.Start,
		End:                   production.End,
		TotalQuantityOrdered:  production.TotalQuantityOrdered,
		TotalQuantityProduced: production.TotalQuantityProduced,
		ProductionRate:        production.ProductionRate,
	}
	for _, p := range production.ByProduct {
		report.Products = append(report.Products, secondary.ProductionRow{
			Label:    p.ProductName,
			Ordered:  p.Ordered,
			Produced: p.Produced,
			Rate:     p.Rate,
		})
	}
	for _, d := range production.ByDate {
		report.Days = append(report.Days, secondary.ProductionRow{
			Label:    d.Date,
			Ordered:  d.Ordered,
			Produced: d.Produced,
			Rate:     rate(d.Produced, d.Ordered),
		})
	}

	data, err := s.exporter.ExportProduction(report)
	if err != nil {
		return nil, fmt.Errorf("failed to export production summary: %w", err)
	}
	return data, nil
}

func (s *DashboardServiceImpl) resolvePeriod(period primary.Period) (time.Time, time.Time, error) {
	start, end := dashboard.DefaultPeriod(s.now())
	if period.Start != nil {
		start = *period.Start
	}
	if period.End != nil {
		end = *period.End
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, apperr.Validation("Start date must not be after end date")
	}
	return start, end, nil
}

func (s *DashboardServiceImpl) orderFacts(ctx context.Context, filters secondary.WorkOrderFilters) ([]dashboard.WorkOrderFact, error) {
	records, err := s.workOrderRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	facts := make([]dashboard.WorkOrderFact, len(records))
	for i, r := range records {
		facts[i] = dashboard.WorkOrderFact{
			ID:             r.ID,
			OrderNumber:    r.OrderNumber,
			ProductName:    r.ProductName,
			Quantity:       r.Quantity,
			ActualQuantity: r.ActualQuantity,
			Status:         models.WorkOrderStatus(r.Status),
			Priority:       models.Priority(r.Priority),
			Progress:       r.Progress,
			DueDate:        r.DueDate,
			CompletedAt:    r.CompletedAt,
			CreatedAt:      r.CreatedAt,
		}
	}
	return facts, nil
}

func (s *DashboardServiceImpl) issueFacts(ctx context.Context) ([]dashboard.IssueFact, error) {
	records, err := s.issueRepo.List(ctx, secondary.IssueFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	facts := make([]dashboard.IssueFact, len(records))
	for i, r := range records {
		facts[i] = dashboard.IssueFact{
			Status:   models.IssueStatus(r.Status),
			Priority: models.Priority(r.Priority),
		}
	}
	return facts, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxRecentItems {
		return MaxRecentItems
	}
	return limit
}

func rate(produced, ordered int) float64 {
	if ordered == 0 {
		return 0
	}
	return math.Round(float64(produced)/float64(ordered)*10000) / 100
}
