package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

type WorkLogHandler struct {
	base
	svc primary.WorkLogService
}

func (h *WorkLogHandler) Create(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkLogCreate)
	if !ok {
		return
	}
	var req createWorkLogRequest
	if !h.bind(c, &req) {
		return
	}

	log, err := h.svc.CreateWorkLog(c.Request.Context(), capability, req.toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWorkLogResponse(log))
}

// List supports ?workOrderId, ?userId, ?action, ?startDate and ?endDate.
func (h *WorkLogHandler) List(c *gin.Context) {
	workOrderID, ok := h.queryID(c, "workOrderId")
	if !ok {
		return
	}
	userID, ok := h.queryID(c, "userId")
	if !ok {
		return
	}
	from, ok := h.queryTime(c, "startDate", false)
	if !ok {
		return
	}
	to, ok := h.queryTime(c, "endDate", true)
	if !ok {
		return
	}
	h.list(c, primary.WorkLogFilters{
		WorkOrderID: workOrderID,
		WorkerID:    userID,
		Action:      models.LogAction(upper(c.Query("action"))),
		From:        from,
		To:          to,
	})
}

func (h *WorkLogHandler) ListByWorkOrder(c *gin.Context) {
	workOrderID, ok := h.pathID(c, "workOrderId")
	if !ok {
		return
	}
	h.list(c, primary.WorkLogFilters{WorkOrderID: workOrderID})
}

func (h *WorkLogHandler) list(c *gin.Context, filters primary.WorkLogFilters) {
	capability, ok := h.authorize(c, authz.OpWorkLogRead)
	if !ok {
		return
	}

	logs, err := h.svc.ListWorkLogs(c.Request.Context(), capability, filters)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkLogResponses(logs))
}

func (h *WorkLogHandler) Get(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkLogRead)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	log, err := h.svc.GetWorkLog(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkLogResponse(log))
}
