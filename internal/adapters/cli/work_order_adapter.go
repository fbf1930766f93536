package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

// WorkOrderAdapter is a thin adapter that translates CLI operations to WorkOrderService calls.
type WorkOrderAdapter struct {
	service primary.WorkOrderService
	out     io.Writer
}

// NewWorkOrderAdapter creates a new WorkOrderAdapter with the given service.
func NewWorkOrderAdapter(service primary.WorkOrderService, out io.Writer) *WorkOrderAdapter {
	return &WorkOrderAdapter{
		service: service,
		out:     out,
	}
}

// List lists work orders with an optional status filter.
// When status is empty, all work orders are returned.
func (a *WorkOrderAdapter) List(ctx context.Context, status string) error {
	orders, err := a.service.ListWorkOrders(ctx, authz.MustAuthorize(authz.System(), authz.OpWorkOrderRead), primary.WorkOrderFilters{
		Status: models.WorkOrderStatus(strings.ToUpper(status)),
	})
	if err != nil {
		return fmt.Errorf("failed to list work orders: %w", err)
	}

	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No work orders found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-12s %-12s %-8s %4s  %-10s %s\n", "ORDER", "STATUS", "PRIORITY", "PROG", "DUE", "PRODUCT")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, wo := range orders {
		fmt.Fprintf(a.out, "%-12s %-12s %-8s %3d%%  %-10s %s\n",
			wo.OrderNumber, wo.Status, wo.Priority, wo.Progress, wo.DueDate.Format("2006-01-02"), wo.ProductName)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single work order.
func (a *WorkOrderAdapter) Show(ctx context.Context, id int64) (*primary.WorkOrder, error) {
	wo, err := a.service.GetWorkOrder(ctx, authz.MustAuthorize(authz.System(), authz.OpWorkOrderRead), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}

	fmt.Fprintf(a.out, "\nWork order: %s\n", wo.OrderNumber)
	fmt.Fprintf(a.out, "Product:    %s\n", wo.ProductName)
	fmt.Fprintf(a.out, "Quantity:   %d\n", wo.Quantity)
	fmt.Fprintf(a.out, "Status:     %s (%d%%)\n", wo.Status, wo.Progress)
	fmt.Fprintf(a.out, "Priority:   %s\n", wo.Priority)
	fmt.Fprintf(a.out, "Due:        %s\n", wo.DueDate.Format("2006-01-02 15:04"))
	if wo.AssignedToName != "" {
		fmt.Fprintf(a.out, "Assignee:   %s\n", wo.AssignedToName)
	}
	if wo.ActualQuantity != nil {
		fmt.Fprintf(a.out, "Produced:   %d\n", *wo.ActualQuantity)
	}
	fmt.Fprintln(a.out)

	return wo, nil
}
