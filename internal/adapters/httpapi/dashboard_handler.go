package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/ports/primary"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	base
	svc primary.DashboardService
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), capability)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	summary, err := h.svc.Summary(c.Request.Context(), capability)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(summary))
}

func (h *DashboardHandler) RecentWorkOrders(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	limit, ok := h.queryLimit(c)
	if !ok {
		return
	}
	orders, err := h.svc.RecentWorkOrders(c.Request.Context(), capability, limit)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponses(orders))
}

func (h *DashboardHandler) RecentIssues(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	limit, ok := h.queryLimit(c)
	if !ok {
		return
	}
	issues, err := h.svc.RecentIssues(c.Request.Context(), capability, limit)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponses(issues))
}

func (h *DashboardHandler) RecentActivities(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	limit, ok := h.queryLimit(c)
	if !ok {
		return
	}
	activities, err := h.svc.RecentActivities(c.Request.Context(), capability, limit)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toActivityResponses(activities))
}

// ProductionSummary supports ?startDate and ?endDate; both default to the
// month ending now.
func (h *DashboardHandler) ProductionSummary(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	period, ok := h.period(c)
	if !ok {
		return
	}
	summary, err := h.svc.ProductionSummary(c.Request.Context(), capability, period)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductionResponse(summary))
}

// ExportProductionSummary downloads the production summary as a workbook.
func (h *DashboardHandler) ExportProductionSummary(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpDashboardRead)
	if !ok {
		return
	}
	period, ok := h.period(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportProductionSummary(c.Request.Context(), capability, period)
	if err != nil {
		h.errs.abort(c, err)
		return
	}

	filename := fmt.Sprintf("production-summary-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *DashboardHandler) period(c *gin.Context) (primary.Period, bool) {
	start, ok := h.queryTime(c, "startDate", false)
	if !ok {
		return primary.Period{}, false
	}
	end, ok := h.queryTime(c, "endDate", true)
	if !ok {
		return primary.Period{}, false
	}
	return primary.Period{Start: start, End: end}, true
}
