package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/db"
	"github.com/example/mes/internal/wire"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			gdb, err := wire.OpenDatabase(cfg, logger, os.Stdout)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			if cfg.Database.Driver == config.DriverSQLite {
				fmt.Printf("%s SQLite schema at version %d (%s)\n", okMark, db.LatestVersion(), cfg.Database.Path)
				return nil
			}
			fmt.Printf("%s PostgreSQL schema migrated (%s/%s)\n", okMark, cfg.Database.Host, cfg.Database.DBName)
			return nil
		},
	}
}
