package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/wire"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin, manager and worker accounts",
		Long: `Create the default accounts that do not exist yet.

With --fixtures, an empty database also receives sample work orders,
work logs and an open issue for development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, _ := cmd.Flags().GetBool("fixtures")

			return withContainer(cmd, func(c *wire.Container) error {
				ctx := cmd.Context()
				if fixtures {
					if err := c.SeedFixtures(ctx, os.Stdout); err != nil {
						return err
					}
					fmt.Printf("%s Development data ready\n", okMark)
					return nil
				}

				created, err := c.SeedDefaultUsers(ctx, os.Stdout)
				if err != nil {
					return err
				}
				if created == 0 {
					fmt.Printf("%s Default accounts already exist\n", warnMark)
					return nil
				}
				fmt.Printf("%s Created %d default accounts\n", okMark, created)
				return nil
			})
		},
	}
	cmd.Flags().Bool("fixtures", false, "also load sample work orders, logs and issues")
	return cmd
}
