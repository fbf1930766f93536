package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

// mockWorkOrderService implements primary.WorkOrderService for testing
type mockWorkOrderService struct {
	listFn func(ctx context.Context, c authz.Capability, filters primary.WorkOrderFilters) ([]*primary.WorkOrder, error)
	getFn  func(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error)

	lastFilters primary.WorkOrderFilters
}

var _ primary.WorkOrderService = (*mockWorkOrderService)(nil)

func (m *mockWorkOrderService) CreateWorkOrder(ctx context.Context, c authz.Capability, req primary.CreateWorkOrderRequest) (*primary.WorkOrder, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWorkOrderService) GetWorkOrder(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error) {
	if m.getFn != nil {
		return m.getFn(ctx, c, id)
	}
	return nil, apperr.NotFound("WorkOrder", id)
}

func (m *mockWorkOrderService) ListWorkOrders(ctx context.Context, c authz.Capability, filters primary.WorkOrderFilters) ([]*primary.WorkOrder, error) {
	m.lastFilters = filters
	if m.listFn != nil {
		return m.listFn(ctx, c, filters)
	}
	return []*primary.WorkOrder{}, nil
}

func (m *mockWorkOrderService) UpdateWorkOrder(ctx context.Context, c authz.Capability, id int64, req primary.UpdateWorkOrderRequest) (*primary.WorkOrder, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWorkOrderService) DeleteWorkOrder(ctx context.Context, c authz.Capability, id int64) error {
	return errors.New("not implemented in adapter")
}

func (m *mockWorkOrderService) StartWork(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWorkOrderService) CompleteWork(ctx context.Context, c authz.Capability, id int64, req primary.CompleteWorkRequest) (*primary.WorkOrder, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockWorkOrderService) UpdateProgress(ctx context.Context, c authz.Capability, id int64, progress int) (*primary.WorkOrder, error) {
	return nil, errors.New("not implemented in adapter")
}

func TestWorkOrderAdapter_List(t *testing.T) {
	mock := &mockWorkOrderService{
		listFn: func(ctx context.Context, c authz.Capability, filters primary.WorkOrderFilters) ([]*primary.WorkOrder, error) {
			return []*primary.WorkOrder{
				{ID: 1, OrderNumber: "WO-0001", ProductName: "Hex Bolt M8", Status: models.WorkOrderInProgress,
					Priority: models.PriorityHigh, Progress: 40, DueDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	var out bytes.Buffer
	adapter := NewWorkOrderAdapter(mock, &out)

	if err := adapter.List(context.Background(), "in_progress"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if mock.lastFilters.Status != models.WorkOrderInProgress {
		t.Errorf("expected status filter IN_PROGRESS, got %q", mock.lastFilters.Status)
	}
	output := out.String()
	for _, want := range []string{"WO-0001", "IN_PROGRESS", " 40%", "2024-07-01", "Hex Bolt M8"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestWorkOrderAdapter_List_Empty(t *testing.T) {
	var out bytes.Buffer
	adapter := NewWorkOrderAdapter(&mockWorkOrderService{}, &out)

	if err := adapter.List(context.Background(), ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "No work orders found") {
		t.Errorf("expected empty message, got %q", out.String())
	}
}

func TestWorkOrderAdapter_Show(t *testing.T) {
	produced := 480
	mock := &mockWorkOrderService{
		getFn: func(ctx context.Context, c authz.Capability, id int64) (*primary.WorkOrder, error) {
			return &primary.WorkOrder{
				ID: id, OrderNumber: "WO-0001", ProductName: "Hex Bolt M8", Quantity: 500,
				Status: models.WorkOrderCompleted, Progress: 100, Priority: models.PriorityHigh,
				AssignedToName: "Worker", ActualQuantity: &produced,
			}, nil
		},
	}
	var out bytes.Buffer
	adapter := NewWorkOrderAdapter(mock, &out)

	wo, err := adapter.Show(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if wo.OrderNumber != "WO-0001" {
		t.Errorf("expected WO-0001, got %q", wo.OrderNumber)
	}
	for _, want := range []string{"Work order: WO-0001", "COMPLETED (100%)", "Assignee:   Worker", "Produced:   480"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestWorkOrderAdapter_Show_NotFound(t *testing.T) {
	var out bytes.Buffer
	adapter := NewWorkOrderAdapter(&mockWorkOrderService{}, &out)

	_, err := adapter.Show(context.Background(), 99)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
