package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/cli"
	"github.com/example/mes/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mes",
		Short:   "MES - Manufacturing Execution System backend",
		Version: version.String(),
		Long: `MES serves the shop-floor REST API for work orders, issues and work logs,
and provides operator commands for the database and user accounts.`,
		SilenceUsage: true,
	}
	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())

	// Operator commands
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.WorkOrderCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
