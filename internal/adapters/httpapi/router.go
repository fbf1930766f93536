package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mes/internal/metrics"
	"github.com/example/mes/internal/ports/primary"
)

// Services are the use cases behind the API.
type Services struct {
	Auth       primary.AuthService
	Users      primary.UserService
	WorkOrders primary.WorkOrderService
	Issues     primary.IssueService
	WorkLogs   primary.WorkLogService
	Dashboard  primary.DashboardService
}

// Options tune NewRouter.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// ConcealForbidden answers resource-scoped 403s with 404.
	ConcealForbidden bool
	// LoginRatePerMinute throttles POST /api/auth/login per client IP.
	// Zero disables it.
	LoginRatePerMinute int
	LoginBurst         int
	// Metrics, when set, instruments requests and serves /metrics.
	Metrics *metrics.Metrics
	// Ready is probed by /healthz.
	Ready func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route.
func NewRouter(svc Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	useJSONFieldNames()

	errs := newErrorRenderer(logger, opts.ConcealForbidden)
	b := base{errs: errs}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(logger))
	r.Use(CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(Metrics(opts.Metrics))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics",
		"/api/dashboard/production-summary/export",
	})))

	r.NoRoute(func(c *gin.Context) {
		errs.abortStatus(c, http.StatusNotFound, "Resource not found")
	})

	health := &HealthHandler{ready: opts.Ready}
	r.GET("/healthz", health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	authH := &AuthHandler{base: b, svc: svc.Auth, metrics: opts.Metrics}
	userH := &UserHandler{base: b, svc: svc.Users}
	workOrderH := &WorkOrderHandler{base: b, svc: svc.WorkOrders}
	issueH := &IssueHandler{base: b, svc: svc.Issues}
	workLogH := &WorkLogHandler{base: b, svc: svc.WorkLogs}
	dashboardH := &DashboardHandler{base: b, svc: svc.Dashboard}

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		login := []gin.HandlerFunc{authH.Login}
		if limiter := NewRateLimiter(opts.LoginRatePerMinute, opts.LoginBurst); limiter != nil {
			login = append([]gin.HandlerFunc{limiter.Handler(errs, logger)}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/logout", authH.Logout)
	}

	protected := api.Group("")
	protected.Use(Authenticate(svc.Auth, errs))

	users := protected.Group("/users")
	{
		users.POST("", userH.Create)
		users.GET("", userH.List)
		users.GET("/me", userH.Me)
		users.PUT("/me/password", userH.ChangePassword)
		users.GET("/:id", userH.Get)
		users.PUT("/:id", userH.Update)
		users.DELETE("/:id", userH.Delete)
		users.PUT("/:id/activate", userH.Activate)
		users.PUT("/:id/deactivate", userH.Deactivate)
	}

	workOrders := protected.Group("/work-orders")
	{
		workOrders.POST("", workOrderH.Create)
		workOrders.GET("", workOrderH.List)
		workOrders.GET("/status/:status", workOrderH.ListByStatus)
		workOrders.GET("/user/:userId", workOrderH.ListByUser)
		workOrders.GET("/:id", workOrderH.Get)
		workOrders.PUT("/:id", workOrderH.Update)
		workOrders.DELETE("/:id", workOrderH.Delete)
		workOrders.POST("/:id/start", workOrderH.Start)
		workOrders.POST("/:id/complete", workOrderH.Complete)
		workOrders.PUT("/:id/progress", workOrderH.UpdateProgress)
	}

	issues := protected.Group("/issues")
	{
		issues.POST("", issueH.Create)
		issues.GET("", issueH.List)
		issues.GET("/my-issues", issueH.MyIssues)
		issues.GET("/work-order/:workOrderId", issueH.ListByWorkOrder)
		issues.GET("/status/:status", issueH.ListByStatus)
		issues.GET("/:id", issueH.Get)
		issues.PUT("/:id", issueH.Update)
		issues.DELETE("/:id", issueH.Delete)
		issues.PUT("/:id/resolve", issueH.Resolve)
		issues.POST("/:id/close", issueH.Close)
		issues.PUT("/:id/status", issueH.UpdateStatus)
	}

	workLogs := protected.Group("/work-logs")
	{
		workLogs.GET("", workLogH.List)
		workLogs.POST("", workLogH.Create)
		workLogs.GET("/work-order/:workOrderId", workLogH.ListByWorkOrder)
		workLogs.GET("/:id", workLogH.Get)
	}

	dashboard := protected.Group("/dashboard")
	{
		dashboard.GET("/stats", dashboardH.Stats)
		dashboard.GET("/summary", dashboardH.Summary)
		dashboard.GET("/recent-work-orders", dashboardH.RecentWorkOrders)
		dashboard.GET("/recent-issues", dashboardH.RecentIssues)
		dashboard.GET("/recent-activities", dashboardH.RecentActivities)
		dashboard.GET("/production-summary", dashboardH.ProductionSummary)
		dashboard.GET("/production-summary/export", dashboardH.ExportProductionSummary)
	}

	return r
}
