// Package wire assembles the application object graph from configuration.
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cliadapter "github.com/example/mes/internal/adapters/cli"
	"github.com/example/mes/internal/adapters/events"
	"github.com/example/mes/internal/adapters/httpapi"
	"github.com/example/mes/internal/adapters/persistence"
	"github.com/example/mes/internal/adapters/security"
	"github.com/example/mes/internal/adapters/tokenstore"
	"github.com/example/mes/internal/adapters/xlsx"
	"github.com/example/mes/internal/app"
	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/db"
	"github.com/example/mes/internal/metrics"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// Container holds the services built from one configuration.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Metrics *metrics.Metrics

	Repos  db.FixtureRepositories
	Hasher secondary.PasswordHasher

	AuthService      primary.AuthService
	UserService      primary.UserService
	WorkOrderService primary.WorkOrderService
	IssueService     primary.IssueService
	WorkLogService   primary.WorkLogService
	DashboardService primary.DashboardService

	redis   *redis.Client
	closers []func() error
}

// OpenDatabase connects to the configured database and brings its schema up
// to date: versioned migrations for SQLite, AutoMigrate for PostgreSQL.
func OpenDatabase(cfg *config.Config, logger *zap.Logger, out io.Writer) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		level = gormlogger.Info
	}

	gdb, err := db.Open(cfg.Database, db.Options{
		Out:    out,
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == config.DriverPostgres {
		if err := persistence.AutoMigrate(gdb); err != nil {
			db.Close(gdb)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))
	return gdb, nil
}

// New builds every adapter and service. The caller must Close the container.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	gdb, err := OpenDatabase(cfg, logger, os.Stdout)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		DB:      gdb,
		Metrics: metrics.New(),
		Hasher:  security.NewBcryptHasher(0),
		Repos: db.FixtureRepositories{
			Users:      persistence.NewUserRepository(gdb),
			WorkOrders: persistence.NewWorkOrderRepository(gdb),
			Issues:     persistence.NewIssueRepository(gdb),
			WorkLogs:   persistence.NewWorkLogRepository(gdb),
		},
	}
	c.closers = append(c.closers, func() error { return db.Close(gdb) })

	store, err := c.refreshTokenStore()
	if err != nil {
		c.Close()
		return nil, err
	}

	publisher, err := c.eventPublisher()
	if err != nil {
		c.Close()
		return nil, err
	}
	publisher = metrics.NewCountingPublisher(publisher, c.Metrics)

	issuer := security.NewJWTIssuer(cfg.JWTSecret(), cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)

	c.AuthService = app.NewAuthService(c.Repos.Users, c.Hasher, issuer, store, logger.Named("auth"))
	c.UserService = app.NewUserService(c.Repos.Users, c.Hasher)
	c.WorkOrderService = app.NewWorkOrderService(c.Repos.WorkOrders, c.Repos.Users, publisher, logger)
	c.IssueService = app.NewIssueService(c.Repos.Issues, c.Repos.WorkOrders, publisher, logger)
	c.WorkLogService = app.NewWorkLogService(c.Repos.WorkLogs, c.Repos.WorkOrders, publisher, logger)
	c.DashboardService = app.NewDashboardService(c.Repos.WorkOrders, c.Repos.Issues, c.Repos.WorkLogs, c.Repos.Users, xlsx.NewExporter())

	return c, nil
}

// refreshTokenStore uses redis when configured, otherwise process memory.
func (c *Container) refreshTokenStore() (secondary.RefreshTokenStore, error) {
	rc := c.Config.Redis
	if !rc.Enabled() {
		c.Logger.Warn("redis not configured, refresh tokens are kept in memory")
		return tokenstore.NewMemoryStore(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr(),
		Password: rc.Password,
		DB:       rc.DB,
		PoolSize: rc.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.redis = rdb
	c.closers = append(c.closers, rdb.Close)
	c.Logger.Info("redis connected", zap.String("addr", rc.Addr()))
	return tokenstore.NewRedisStore(rdb), nil
}

// eventPublisher uses RabbitMQ when configured, otherwise the log.
func (c *Container) eventPublisher() (secondary.EventPublisher, error) {
	rc := c.Config.RabbitMQ
	if !rc.Enabled() {
		return events.NewLogPublisher(c.Logger), nil
	}

	publisher, err := events.DialRabbitMQ(rc.URL, rc.Exchange)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, publisher.Close)
	c.Logger.Info("rabbitmq connected", zap.String("exchange", rc.Exchange))
	return publisher, nil
}

// Router builds the HTTP handler for the container's services.
func (c *Container) Router() *gin.Engine {
	return httpapi.NewRouter(httpapi.Services{
		Auth:       c.AuthService,
		Users:      c.UserService,
		WorkOrders: c.WorkOrderService,
		Issues:     c.IssueService,
		WorkLogs:   c.WorkLogService,
		Dashboard:  c.DashboardService,
	}, httpapi.Options{
		Logger:             c.Logger.Named("http"),
		AllowedOrigins:     c.Config.Server.AllowedOrigins,
		ConcealForbidden:   c.Config.Security.ConcealForbidden,
		LoginRatePerMinute: c.Config.Security.LoginRatePerMinute,
		LoginBurst:         c.Config.Security.LoginBurst,
		Metrics:            c.Metrics,
		Ready:              c.Ready,
	})
}

// Ready pings the database and, when configured, redis.
func (c *Container) Ready(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// SeedDefaultUsers creates the bootstrap accounts that do not exist yet.
func (c *Container) SeedDefaultUsers(ctx context.Context, out io.Writer) (int, error) {
	return db.SeedDefaultUsers(ctx, c.Repos.Users, c.Hasher, out)
}

// SeedFixtures loads development data into an empty database.
func (c *Container) SeedFixtures(ctx context.Context, out io.Writer) error {
	return db.SeedFixtures(ctx, c.Repos, c.Hasher, out)
}

// UserAdapter returns a new UserAdapter writing to out.
// Each call creates a new adapter (adapters are stateless translators).
func (c *Container) UserAdapter(out io.Writer) *cliadapter.UserAdapter {
	return cliadapter.NewUserAdapter(c.UserService, out)
}

// WorkOrderAdapter returns a new WorkOrderAdapter writing to out.
func (c *Container) WorkOrderAdapter(out io.Writer) *cliadapter.WorkOrderAdapter {
	return cliadapter.NewWorkOrderAdapter(c.WorkOrderService, out)
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
