// Package cli implements the mes command line: the API server and the
// operator commands that share its configuration.
package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/logging"
	"github.com/example/mes/internal/wire"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
)

// AddGlobalFlags registers the flags every command reads.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "config file (default: ./configs/config.yaml or ./config.yaml)")
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withContainer builds the application, runs fn and tears it down.
func withContainer(cmd *cobra.Command, fn func(c *wire.Container) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := wire.New(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
