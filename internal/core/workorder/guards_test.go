package workorder

import (
	"testing"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

func TestCanStartWork(t *testing.T) {
	tests := []struct {
		name        string
		ctx         TransitionContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can start pending order",
			ctx:         TransitionContext{WorkOrderID: 1, Status: models.WorkOrderPending},
			wantAllowed: true,
		},
		{
			name:        "cannot start order in progress",
			ctx:         TransitionContext{WorkOrderID: 1, Status: models.WorkOrderInProgress},
			wantAllowed: false,
			wantReason:  "Can only start work from PENDING status (work order 1 is IN_PROGRESS)",
		},
		{
			name:        "cannot start completed order",
			ctx:         TransitionContext{WorkOrderID: 2, Status: models.WorkOrderCompleted},
			wantAllowed: false,
			wantReason:  "Can only start work from PENDING status (work order 2 is COMPLETED)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanStartWork(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanCompleteWork(t *testing.T) {
	tests := []struct {
		name        string
		status      models.WorkOrderStatus
		wantAllowed bool
	}{
		{"can complete order in progress", models.WorkOrderInProgress, true},
		{"cannot complete pending order", models.WorkOrderPending, false},
		{"cannot complete twice", models.WorkOrderCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCompleteWork(TransitionContext{WorkOrderID: 5, Status: tt.status})
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && !apperr.Is(result.Error(), apperr.KindInvalidState) {
				t.Errorf("Error() kind = %v, want invalid state", apperr.KindOf(result.Error()))
			}
		})
	}
}

func TestCanCreateWorkOrder(t *testing.T) {
	tests := []struct {
		name     string
		ctx      CreateContext
		wantKind apperr.Kind
		wantErr  bool
	}{
		{
			name: "unique order without assignee",
			ctx:  CreateContext{OrderNumber: "WO-1"},
		},
		{
			name:     "duplicate order number",
			ctx:      CreateContext{OrderNumber: "WO-1", OrderNumberTaken: true},
			wantErr:  true,
			wantKind: apperr.KindDuplicate,
		},
		{
			name:     "missing assignee",
			ctx:      CreateContext{OrderNumber: "WO-1", AssigneeRequested: true, AssigneeID: 9},
			wantErr:  true,
			wantKind: apperr.KindNotFound,
		},
		{
			name: "existing assignee",
			ctx:  CreateContext{OrderNumber: "WO-1", AssigneeRequested: true, AssigneeID: 9, AssigneeExists: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCreateWorkOrder(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && apperr.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v", apperr.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestApplyComplete(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := ApplyComplete(now)

	if result.NewStatus != models.WorkOrderCompleted {
		t.Errorf("NewStatus = %s, want COMPLETED", result.NewStatus)
	}
	if result.Progress == nil || *result.Progress != 100 {
		t.Errorf("Progress = %v, want 100", result.Progress)
	}
	if result.CompletedAt == nil || !result.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", result.CompletedAt, now)
	}
	if result.StartedAt != nil {
		t.Error("completion must not touch StartedAt")
	}
}

func TestApplyStart(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	result := ApplyStart(now)

	if result.NewStatus != models.WorkOrderInProgress {
		t.Errorf("NewStatus = %s, want IN_PROGRESS", result.NewStatus)
	}
	if result.StartedAt == nil || !result.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", result.StartedAt, now)
	}
	if result.Progress != nil {
		t.Error("start must not touch progress")
	}
}

func TestValidateProgress(t *testing.T) {
	for _, p := range []int{0, 1, 50, 100} {
		if err := ValidateProgress(p); err != nil {
			t.Errorf("ValidateProgress(%d) = %v, want nil", p, err)
		}
	}
	for _, p := range []int{-1, 101, 1000} {
		if !apperr.Is(ValidateProgress(p), apperr.KindValidation) {
			t.Errorf("ValidateProgress(%d) should be a validation error", p)
		}
	}
}

func TestValidateCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := CreateInput{
		OrderNumber: "WO-100",
		ProductName: "Gearbox",
		Quantity:    10,
		DueDate:     now.Add(48 * time.Hour),
	}

	if err := ValidateCreate(valid, now); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*CreateInput)
		wantField string
	}{
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }, "quantity"},
		{"due date now", func(in *CreateInput) { in.DueDate = now }, "dueDate"},
		{"due date in past", func(in *CreateInput) { in.DueDate = now.Add(-time.Hour) }, "dueDate"},
		{"missing order number", func(in *CreateInput) { in.OrderNumber = " " }, "orderNumber"},
		{"bad priority", func(in *CreateInput) { in.Priority = "CRITICAL" }, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := ValidateCreate(in, now)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := e.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want key %q", e.Fields, tt.wantField)
			}
		})
	}
}

func TestDefaultPriority(t *testing.T) {
	if DefaultPriority("") != models.PriorityMedium {
		t.Error("empty priority should default to MEDIUM")
	}
	if DefaultPriority(models.PriorityUrgent) != models.PriorityUrgent {
		t.Error("explicit priority should be kept")
	}
}
