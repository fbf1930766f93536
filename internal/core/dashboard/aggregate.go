// Package dashboard computes read-only production statistics.
// This is part of the Functional Core - no I/O, only pure functions over
// facts loaded by the caller.
package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/example/mes/internal/models"
)

// WorkOrderFact is the slice of a work order the aggregations read.
type WorkOrderFact struct {
	ID             int64
	OrderNumber    string
	ProductName    string
	Quantity       int
	ActualQuantity *int
	Status         models.WorkOrderStatus
	Priority       models.Priority
	Progress       int
	DueDate        time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// produced is the finished quantity of a completed order.
func (f WorkOrderFact) produced() int {
	if f.Status != models.WorkOrderCompleted {
		return 0
	}
	if f.ActualQuantity != nil {
		return *f.ActualQuantity
	}
	return f.Quantity
}

// IssueFact is the slice of an issue the aggregations read.
type IssueFact struct {
	Status   models.IssueStatus
	Priority models.Priority
}

// UserFact is the slice of a user the aggregations read.
type UserFact struct {
	Active bool
}

// LogFact is the slice of a work log the activity feed reads.
type LogFact struct {
	ID              int64
	Action          models.LogAction
	WorkOrderNumber string
	Notes           string
	WorkerID        int64
	WorkerName      string
	CreatedAt       time.Time
}

// Stats is the headline dashboard.
type Stats struct {
	TotalWorkOrders       int64
	PendingWorkOrders     int64
	InProgressWorkOrders  int64
	CompletedWorkOrders   int64
	TotalIssues           int64
	OpenIssues            int64
	ResolvedIssues        int64
	TodayWorkOrders       int64
	TodayCompletedOrders  int64
	AverageCompletionRate float64
	OnTimeDeliveryRate    float64
}

// ComputeStats aggregates orders and issues as of now. "Today" is the
// calendar day of now in now's location.
func ComputeStats(orders []WorkOrderFact, issues []IssueFact, now time.Time) Stats {
	var s Stats
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var onTime int64
	for _, o := range orders {
		s.TotalWorkOrders++
		switch o.Status {
		case models.WorkOrderPending:
			s.PendingWorkOrders++
		case models.WorkOrderInProgress:
			s.InProgressWorkOrders++
		case models.WorkOrderCompleted:
			s.CompletedWorkOrders++
			if o.CompletedAt != nil && !o.DueDate.IsZero() && o.CompletedAt.Before(o.DueDate) {
				onTime++
			}
		}
		if !o.CreatedAt.Before(dayStart) && o.CreatedAt.Before(dayEnd) {
			s.TodayWorkOrders++
			if o.Status == models.WorkOrderCompleted {
				s.TodayCompletedOrders++
			}
		}
	}

	for _, i := range issues {
		s.TotalIssues++
		switch i.Status {
		case models.IssueOpen, models.IssueInProgress:
			s.OpenIssues++
		case models.IssueResolved, models.IssueClosed:
			s.ResolvedIssues++
		}
	}

	s.AverageCompletionRate = round(percent(s.CompletedWorkOrders, s.TotalWorkOrders), 1)
	s.OnTimeDeliveryRate = round(percent(onTime, s.CompletedWorkOrders), 1)
	return s
}

// Summary is the breakdown view of the dashboard.
type Summary struct {
	TotalWorkOrders      int64
	PendingWorkOrders    int64
	InProgressWorkOrders int64
	CompletedWorkOrders  int64
	TotalIssues          int64
	OpenIssues           int64
	ResolvedIssues       int64
	TotalUsers           int64
	ActiveUsers          int64
	AverageProgress      float64
	WorkOrdersByStatus   map[string]int64
	WorkOrdersByPriority map[string]int64
	IssuesByPriority     map[string]int64
}

// ComputeSummary breaks orders, issues and users down by status and priority.
// Every known status and priority appears in the maps, with zero counts kept.
func ComputeSummary(orders []WorkOrderFact, issues []IssueFact, users []UserFact) Summary {
	s := Summary{
		WorkOrdersByStatus:   map[string]int64{},
		WorkOrdersByPriority: map[string]int64{},
		IssuesByPriority:     map[string]int64{},
	}
	for _, st := range models.WorkOrderStatuses {
		s.WorkOrdersByStatus[string(st)] = 0
	}
	for _, p := range models.Priorities {
		s.WorkOrdersByPriority[string(p)] = 0
		s.IssuesByPriority[string(p)] = 0
	}

	var progressSum int64
	for _, o := range orders {
		s.TotalWorkOrders++
		progressSum += int64(o.Progress)
		s.WorkOrdersByStatus[string(o.Status)]++
		s.WorkOrdersByPriority[string(o.Priority)]++
		switch o.Status {
		case models.WorkOrderPending:
			s.PendingWorkOrders++
		case models.WorkOrderInProgress:
			s.InProgressWorkOrders++
		case models.WorkOrderCompleted:
			s.CompletedWorkOrders++
		}
	}
	if s.TotalWorkOrders > 0 {
		s.AverageProgress = round(float64(progressSum)/float64(s.TotalWorkOrders), 1)
	}

	for _, i := range issues {
		s.TotalIssues++
		s.IssuesByPriority[string(i.Priority)]++
		switch i.Status {
		case models.IssueOpen, models.IssueInProgress:
			s.OpenIssues++
		case models.IssueResolved, models.IssueClosed:
			s.ResolvedIssues++
		}
	}

	for _, u := range users {
		s.TotalUsers++
		if u.Active {
			s.ActiveUsers++
		}
	}
	return s
}

// ProductStat is the output of one product over a period.
type ProductStat struct {
	ProductName string
	Ordered     int
	Produced    int
	Rate        float64
}

// DateStat is the output of one calendar day.
type DateStat struct {
	Date     string
	Ordered  int
	Produced int
}

// Production is the ordered-versus-produced report for a period.
type Production struct {
	Start                 time.Time
	End                   time.Time
	TotalQuantityOrdered  int
	TotalQuantityProduced int
	ProductionRate        float64
	ByProduct             []ProductStat
	ByDate                []DateStat
}

// DefaultPeriod returns the report window used when none is given: the month
// ending at now.
func DefaultPeriod(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, -1, 0), now
}

// ComputeProduction reports orders created within [start, end]. Produced
// quantity counts completed orders only, using the actual quantity when one
// was recorded.
func ComputeProduction(orders []WorkOrderFact, start, end time.Time) Production {
	p := Production{Start: start, End: end}

	inPeriod := make([]WorkOrderFact, 0, len(orders))
	for _, o := range orders {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		inPeriod = append(inPeriod, o)
	}

	byProduct := map[string]*ProductStat{}
	for _, o := range inPeriod {
		p.TotalQuantityOrdered += o.Quantity
		p.TotalQuantityProduced += o.produced()

		ps, ok := byProduct[o.ProductName]
		if !ok {
			ps = &ProductStat{ProductName: o.ProductName}
			byProduct[o.ProductName] = ps
		}
		ps.Ordered += o.Quantity
		ps.Produced += o.produced()
	}
	p.ProductionRate = round(percent(int64(p.TotalQuantityProduced), int64(p.TotalQuantityOrdered)), 2)

	names := make([]string, 0, len(byProduct))
	for name := range byProduct {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ps := byProduct[name]
		ps.Rate = round(percent(int64(ps.Produced), int64(ps.Ordered)), 2)
		p.ByProduct = append(p.ByProduct, *ps)
	}

	for day := startOfDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		ds := DateStat{Date: day.Format("2006-01-02")}
		var found bool
		for _, o := range inPeriod {
			if o.CreatedAt.Before(day) || !o.CreatedAt.Before(next) {
				continue
			}
			found = true
			ds.Ordered += o.Quantity
			ds.Produced += o.produced()
		}
		if found {
			p.ByDate = append(p.ByDate, ds)
		}
	}
	return p
}

// Activity types in the feed.
const (
	ActivityWorkLog   = "WORK_LOG"
	ActivityWorkOrder = "WORK_ORDER"
)

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID          int64
	Type        string
	Action      string
	Description string
	UserID      int64
	UserName    string
	Timestamp   time.Time
}

// RecentActivities merges the newest work logs and work order creations,
// half of limit from each source, newest first.
func RecentActivities(logs []LogFact, orders []WorkOrderFact, limit int) []Activity {
	if limit <= 0 {
		return []Activity{}
	}
	half := limit / 2

	logs = append([]LogFact(nil), logs...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	orders = append([]WorkOrderFact(nil), orders...)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })

	activities := make([]Activity, 0, limit)
	for i := 0; i < half && i < len(logs); i++ {
		l := logs[i]
		activities = append(activities, Activity{
			ID:          l.ID,
			Type:        ActivityWorkLog,
			Action:      string(l.Action),
			Description: fmt.Sprintf("Work log: %s - %s", orDefault(l.WorkOrderNumber, "N/A"), l.Notes),
			UserID:      l.WorkerID,
			UserName:    l.WorkerName,
			Timestamp:   l.CreatedAt,
		})
	}
	for i := 0; i < half && i < len(orders); i++ {
		o := orders[i]
		activities = append(activities, Activity{
			ID:          o.ID,
			Type:        ActivityWorkOrder,
			Action:      "CREATED",
			Description: fmt.Sprintf("Work order %s created", o.OrderNumber),
			UserName:    "System",
			Timestamp:   o.CreatedAt,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
