package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/mes/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the MES REST API. The database schema is brought up to date on start;
the default accounts are created first when server.seed_on_start is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			switch cfg.Server.Mode {
			case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
				gin.SetMode(cfg.Server.Mode)
			default:
				return fmt.Errorf("invalid server.mode %q", cfg.Server.Mode)
			}

			c, err := wire.New(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Server.SeedOnStart {
				created, err := c.SeedDefaultUsers(ctx, os.Stdout)
				if err != nil {
					return err
				}
				logger.Info("default users seeded", zap.Int("created", created))
			}

			srv := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      c.Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			serveErr := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()
			logger.Info("server started", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))

			select {
			case err := <-serveErr:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down cleanly: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
