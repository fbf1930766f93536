package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/wire"
)

// WorkOrderCmd returns the work-order command
func WorkOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "work-order",
		Aliases: []string{"wo"},
		Short:   "Inspect work orders",
	}
	cmd.AddCommand(workOrderListCmd())
	cmd.AddCommand(workOrderShowCmd())
	return cmd
}

func workOrderListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			return withContainer(cmd, func(c *wire.Container) error {
				return c.WorkOrderAdapter(os.Stdout).List(cmd.Context(), status)
			})
		},
	}
	cmd.Flags().String("status", "", "filter by status (PENDING, IN_PROGRESS, COMPLETED)")
	return cmd
}

func workOrderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [work-order-id]",
		Short: "Show work order details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(c *wire.Container) error {
				_, err := c.WorkOrderAdapter(os.Stdout).Show(cmd.Context(), id)
				return err
			})
		},
	}
}
