package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

// Layouts accepted for timestamps in bodies and query strings. Values
// without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

const dateLayout = "2006-01-02"

type timeParseError struct {
	value string
}

func (e *timeParseError) Error() string {
	return fmt.Sprintf("Invalid date-time %q, expected ISO-8601 such as 2024-06-01T08:00:00", e.value)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &timeParseError{value: s}
}

// parseDateBound parses a query bound. A bare date is the start of that day,
// or the end of it when endOfDay is set.
func parseDateBound(s string, endOfDay bool) (time.Time, error) {
	if d, err := time.Parse(dateLayout, strings.TrimSpace(s)); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return d, nil
	}
	return parseTime(s)
}

// DateTime is a JSON timestamp that also accepts zone-less local date-times.
type DateTime struct {
	time.Time
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &timeParseError{value: string(data)}
	}
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// mapOptional converts the payload of v, keeping its state.
func mapOptional[A, B any](v optional.Value[A], f func(A) B) optional.Value[B] {
	if a, ok := v.Get(); ok {
		return optional.Of(f(a))
	}
	if v.IsNull() {
		return optional.Null[B]()
	}
	return optional.Value[B]{}
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

type messageResponse struct {
	Message string `json:"message"`
}

// Auth

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	TokenType    string        `json:"tokenType"`
	ExpiresIn    int64         `json:"expiresIn"`
	User         *userResponse `json:"user"`
}

func toTokenResponse(t *primary.AuthTokens) tokenResponse {
	return tokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		User:         toUserResponse(t.User),
	}
}

// Users

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name     optional.Value[string] `json:"name"`
	Role     optional.Value[string] `json:"role"`
	IsActive optional.Value[bool]   `json:"isActive"`
	Password optional.Value[string] `json:"password"`
}

func (r updateUserRequest) toPort() primary.UpdateUserRequest {
	return primary.UpdateUserRequest{
		Name:     r.Name,
		Role:     mapOptional(r.Role, func(s string) models.Role { return models.Role(upper(s)) }),
		Active:   r.IsActive,
		Password: r.Password,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *primary.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Work orders

type createWorkOrderRequest struct {
	OrderNumber  string    `json:"orderNumber" binding:"required,max=50"`
	ProductName  string    `json:"productName" binding:"required,max=200"`
	ProductCode  string    `json:"productCode" binding:"max=50"`
	Quantity     int       `json:"quantity" binding:"required,min=1"`
	DueDate      *DateTime `json:"dueDate" binding:"required"`
	Priority     string    `json:"priority"`
	Instructions string    `json:"instructions"`
	AssignedToID int64     `json:"assignedToId"`
}

func (r createWorkOrderRequest) toPort() primary.CreateWorkOrderRequest {
	return primary.CreateWorkOrderRequest{
		OrderNumber:  r.OrderNumber,
		ProductName:  r.ProductName,
		ProductCode:  r.ProductCode,
		Quantity:     r.Quantity,
		DueDate:      r.DueDate.Time,
		Priority:     models.Priority(upper(r.Priority)),
		Instructions: r.Instructions,
		AssignedToID: r.AssignedToID,
	}
}

type updateWorkOrderRequest struct {
	ProductName  optional.Value[string]   `json:"productName"`
	ProductCode  optional.Value[string]   `json:"productCode"`
	Quantity     optional.Value[int]      `json:"quantity"`
	DueDate      optional.Value[DateTime] `json:"dueDate"`
	Priority     optional.Value[string]   `json:"priority"`
	Instructions optional.Value[string]   `json:"instructions"`
	AssignedToID optional.Value[int64]    `json:"assignedToId"`
	Version      optional.Value[int64]    `json:"version"`
}

func (r updateWorkOrderRequest) toPort() primary.UpdateWorkOrderRequest {
	return primary.UpdateWorkOrderRequest{
		ProductName:  r.ProductName,
		ProductCode:  r.ProductCode,
		Quantity:     r.Quantity,
		DueDate:      mapOptional(r.DueDate, func(d DateTime) time.Time { return d.Time }),
		Priority:     mapOptional(r.Priority, func(s string) models.Priority { return models.Priority(upper(s)) }),
		Instructions: r.Instructions,
		AssignedToID: r.AssignedToID,
		Version:      r.Version,
	}
}

type completeWorkRequest struct {
	ActualQuantity *int   `json:"actualQuantity" binding:"omitempty,min=0"`
	Notes          string `json:"notes"`
}

type progressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0,max=100"`
}

type workOrderResponse struct {
	ID             int64      `json:"id"`
	OrderNumber    string     `json:"orderNumber"`
	ProductName    string     `json:"productName"`
	ProductCode    string     `json:"productCode"`
	Quantity       int        `json:"quantity"`
	DueDate        time.Time  `json:"dueDate"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Instructions   string     `json:"instructions"`
	Progress       int        `json:"progress"`
	AssignedToID   *int64     `json:"assignedToId"`
	AssignedToName string     `json:"assignedToName,omitempty"`
	ActualQuantity *int       `json:"actualQuantity"`
	Notes          string     `json:"notes"`
	StartedAt      *time.Time `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Version        int64      `json:"version"`
}

func toWorkOrderResponse(w *primary.WorkOrder) workOrderResponse {
	resp := workOrderResponse{
		ID:             w.ID,
		OrderNumber:    w.OrderNumber,
		ProductName:    w.ProductName,
		ProductCode:    w.ProductCode,
		Quantity:       w.Quantity,
		DueDate:        w.DueDate,
		Priority:       string(w.Priority),
		Status:         string(w.Status),
		Instructions:   w.Instructions,
		Progress:       w.Progress,
		AssignedToName: w.AssignedToName,
		ActualQuantity: w.ActualQuantity,
		Notes:          w.Notes,
		StartedAt:      w.StartedAt,
		CompletedAt:    w.CompletedAt,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		Version:        w.Version,
	}
	if w.AssignedToID != 0 {
		id := w.AssignedToID
		resp.AssignedToID = &id
	}
	return resp
}

func toWorkOrderResponses(orders []*primary.WorkOrder) []workOrderResponse {
	out := make([]workOrderResponse, len(orders))
	for i, w := range orders {
		out[i] = toWorkOrderResponse(w)
	}
	return out
}

// Issues

type createIssueRequest struct {
	WorkOrderID int64  `json:"workOrderId" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
	Type        string `json:"type" binding:"max=50"`
}

func (r createIssueRequest) toPort() primary.CreateIssueRequest {
	return primary.CreateIssueRequest{
		WorkOrderID: r.WorkOrderID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    models.Priority(upper(r.Priority)),
		Type:        r.Type,
	}
}

type updateIssueRequest struct {
	Title       optional.Value[string] `json:"title"`
	Description optional.Value[string] `json:"description"`
	Priority    optional.Value[string] `json:"priority"`
	Status      optional.Value[string] `json:"status"`
	Type        optional.Value[string] `json:"type"`
	Version     optional.Value[int64]  `json:"version"`
}

func (r updateIssueRequest) toPort() primary.UpdateIssueRequest {
	return primary.UpdateIssueRequest{
		Title:       r.Title,
		Description: r.Description,
		Priority:    mapOptional(r.Priority, func(s string) models.Priority { return models.Priority(upper(s)) }),
		Status:      mapOptional(r.Status, func(s string) models.IssueStatus { return models.IssueStatus(upper(s)) }),
		Type:        r.Type,
		Version:     r.Version,
	}
}

type resolveIssueRequest struct {
	Resolution string `json:"resolution"`
}

type issueStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type issueResponse struct {
	ID              int64      `json:"id"`
	WorkOrderID     int64      `json:"workOrderId"`
	WorkOrderNumber string     `json:"workOrderNumber"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	Type            string     `json:"type,omitempty"`
	Resolution      string     `json:"resolution,omitempty"`
	ReporterID      int64      `json:"reporterId"`
	ReporterName    string     `json:"reporterName"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt"`
	Version         int64      `json:"version"`
}

func toIssueResponse(i *primary.Issue) issueResponse {
	return issueResponse{
		ID:              i.ID,
		WorkOrderID:     i.WorkOrderID,
		WorkOrderNumber: i.WorkOrderNumber,
		Title:           i.Title,
		Description:     i.Description,
		Priority:        string(i.Priority),
		Status:          string(i.Status),
		Type:            i.Type,
		Resolution:      i.Resolution,
		ReporterID:      i.ReporterID,
		ReporterName:    i.ReporterName,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
		ResolvedAt:      i.ResolvedAt,
		Version:         i.Version,
	}
}

func toIssueResponses(issues []*primary.Issue) []issueResponse {
	out := make([]issueResponse, len(issues))
	for i, is := range issues {
		out[i] = toIssueResponse(is)
	}
	return out
}

// Work logs

type createWorkLogRequest struct {
	WorkOrderID int64  `json:"workOrderId" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Notes       string `json:"notes"`
	Progress    *int   `json:"progress" binding:"omitempty,min=0,max=100"`
}

func (r createWorkLogRequest) toPort() primary.CreateWorkLogRequest {
	return primary.CreateWorkLogRequest{
		WorkOrderID: r.WorkOrderID,
		Action:      models.LogAction(upper(r.Action)),
		Notes:       r.Notes,
		Progress:    r.Progress,
	}
}

type workLogResponse struct {
	ID              int64     `json:"id"`
	WorkOrderID     int64     `json:"workOrderId"`
	WorkOrderNumber string    `json:"workOrderNumber"`
	WorkerID        int64     `json:"workerId"`
	WorkerName      string    `json:"workerName"`
	Action          string    `json:"action"`
	Notes           string    `json:"notes"`
	Progress        *int      `json:"progress"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toWorkLogResponse(l *primary.WorkLog) workLogResponse {
	return workLogResponse{
		ID:              l.ID,
		WorkOrderID:     l.WorkOrderID,
		WorkOrderNumber: l.WorkOrderNumber,
		WorkerID:        l.WorkerID,
		WorkerName:      l.WorkerName,
		Action:          string(l.Action),
		Notes:           l.Notes,
		Progress:        l.Progress,
		CreatedAt:       l.CreatedAt,
	}
}

func toWorkLogResponses(logs []*primary.WorkLog) []workLogResponse {
	out := make([]workLogResponse, len(logs))
	for i, l := range logs {
		out[i] = toWorkLogResponse(l)
	}
	return out
}

// Dashboard

type statsResponse struct {
	TotalWorkOrders       int64   `json:"totalWorkOrders"`
	PendingWorkOrders     int64   `json:"pendingWorkOrders"`
	InProgressWorkOrders  int64   `json:"inProgressWorkOrders"`
	CompletedWorkOrders   int64   `json:"completedWorkOrders"`
	TotalIssues           int64   `json:"totalIssues"`
	OpenIssues            int64   `json:"openIssues"`
	ResolvedIssues        int64   `json:"resolvedIssues"`
	TodayWorkOrders       int64   `json:"todayWorkOrders"`
	TodayCompletedOrders  int64   `json:"todayCompletedOrders"`
	AverageCompletionRate float64 `json:"averageCompletionRate"`
	OnTimeDeliveryRate    float64 `json:"onTimeDeliveryRate"`
}

func toStatsResponse(s *primary.DashboardStats) statsResponse {
	return statsResponse{
		TotalWorkOrders:       s.TotalWorkOrders,
		PendingWorkOrders:     s.PendingWorkOrders,
		InProgressWorkOrders:  s.InProgressWorkOrders,
		CompletedWorkOrders:   s.CompletedWorkOrders,
		TotalIssues:           s.TotalIssues,
		OpenIssues:            s.OpenIssues,
		ResolvedIssues:        s.ResolvedIssues,
		TodayWorkOrders:       s.TodayWorkOrders,
		TodayCompletedOrders:  s.TodayCompletedOrders,
		AverageCompletionRate: s.AverageCompletionRate,
		OnTimeDeliveryRate:    s.OnTimeDeliveryRate,
	}
}

type summaryResponse struct {
	TotalWorkOrders      int64            `json:"totalWorkOrders"`
	PendingWorkOrders    int64            `json:"pendingWorkOrders"`
	InProgressWorkOrders int64            `json:"inProgressWorkOrders"`
	CompletedWorkOrders  int64            `json:"completedWorkOrders"`
	TotalIssues          int64            `json:"totalIssues"`
	OpenIssues           int64            `json:"openIssues"`
	ResolvedIssues       int64            `json:"resolvedIssues"`
	TotalUsers           int64            `json:"totalUsers"`
	ActiveUsers          int64            `json:"activeUsers"`
	AverageProgress      float64          `json:"averageProgress"`
	WorkOrdersByStatus   map[string]int64 `json:"workOrdersByStatus"`
	WorkOrdersByPriority map[string]int64 `json:"workOrdersByPriority"`
	IssuesByPriority     map[string]int64 `json:"issuesByPriority"`
}

func toSummaryResponse(s *primary.DashboardSummary) summaryResponse {
	return summaryResponse{
		TotalWorkOrders:      s.TotalWorkOrders,
		PendingWorkOrders:    s.PendingWorkOrders,
		InProgressWorkOrders: s.InProgressWorkOrders,
		CompletedWorkOrders:  s.CompletedWorkOrders,
		TotalIssues:          s.TotalIssues,
		OpenIssues:           s.OpenIssues,
		ResolvedIssues:       s.ResolvedIssues,
		TotalUsers:           s.TotalUsers,
		ActiveUsers:          s.ActiveUsers,
		AverageProgress:      s.AverageProgress,
		WorkOrdersByStatus:   s.WorkOrdersByStatus,
		WorkOrdersByPriority: s.WorkOrdersByPriority,
		IssuesByPriority:     s.IssuesByPriority,
	}
}

type activityResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName"`
	Timestamp   time.Time `json:"timestamp"`
}

func toActivityResponses(activities []primary.Activity) []activityResponse {
	out := make([]activityResponse, len(activities))
	for i, a := range activities {
		out[i] = activityResponse{
			ID:          a.ID,
			Type:        a.Type,
			Action:      a.Action,
			Description: a.Description,
			UserID:      a.UserID,
			UserName:    a.UserName,
			Timestamp:   a.Timestamp,
		}
	}
	return out
}

type productStatResponse struct {
	ProductName string  `json:"productName"`
	Ordered     int     `json:"ordered"`
	Produced    int     `json:"produced"`
	Rate        float64 `json:"rate"`
}

type dateStatResponse struct {
	Date     string `json:"date"`
	Ordered  int    `json:"ordered"`
	Produced int    `json:"produced"`
}

type productionResponse struct {
	StartDate             time.Time             `json:"startDate"`
	EndDate               time.Time             `json:"endDate"`
	TotalQuantityOrdered  int                   `json:"totalQuantityOrdered"`
	TotalQuantityProduced int                   `json:"totalQuantityProduced"`
	ProductionRate        float64               `json:"productionRate"`
	ByProduct             []productStatResponse `json:"byProduct"`
	ByDate                []dateStatResponse    `json:"byDate"`
}

func toProductionResponse(p *primary.ProductionSummary) productionResponse {
	resp := productionResponse{
		StartDate:             p.Start,
		EndDate:               p.End,
		TotalQuantityOrdered:  p.TotalQuantityOrdered,
		TotalQuantityProduced: p.TotalQuantityProduced,
		ProductionRate:        p.ProductionRate,
		ByProduct:             make([]productStatResponse, len(p.ByProduct)),
		ByDate:                make([]dateStatResponse, len(p.ByDate)),
	}
	for i, s := range p.ByProduct {
		resp.ByProduct[i] = productStatResponse{ProductName: s.ProductName, Ordered: s.Ordered, Produced: s.Produced, Rate: s.Rate}
	}
	for i, s := range p.ByDate {
		resp.ByDate[i] = dateStatResponse{Date: s.Date, Ordered: s.Ordered, Produced: s.Produced}
	}
	return resp
}
