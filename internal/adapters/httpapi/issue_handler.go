package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

type IssueHandler struct {
	base
	svc primary.IssueService
}

func (h *IssueHandler) Create(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpIssueCreate)
	if !ok {
		return
	}
	var req createIssueRequest
	if !h.bind(c, &req) {
		return
	}

	issue, err := h.svc.CreateIssue(c.Request.Context(), capability, req.toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIssueResponse(issue))
}

// List supports ?status, ?priority, ?type, ?reportedBy and ?workOrderId.
func (h *IssueHandler) List(c *gin.Context) {
	reporter, ok := h.queryID(c, "reportedBy")
	if !ok {
		return
	}
	workOrderID, ok := h.queryID(c, "workOrderId")
	if !ok {
		return
	}
	h.list(c, primary.IssueFilters{
		WorkOrderID: workOrderID,
		Status:      models.IssueStatus(upper(c.Query("status"))),
		Priority:    models.Priority(upper(c.Query("priority"))),
		Type:        strings.TrimSpace(c.Query("type")),
		ReporterID:  reporter,
	})
}

// MyIssues lists the issues the caller reported.
func (h *IssueHandler) MyIssues(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		h.list(c, primary.IssueFilters{})
		return
	}
	h.list(c, primary.IssueFilters{ReporterID: caller.UserID})
}

func (h *IssueHandler) ListByWorkOrder(c *gin.Context) {
	workOrderID, ok := h.pathID(c, "workOrderId")
	if !ok {
		return
	}
	h.list(c, primary.IssueFilters{WorkOrderID: workOrderID})
}

func (h *IssueHandler) ListByStatus(c *gin.Context) {
	h.list(c, primary.IssueFilters{Status: models.IssueStatus(upper(c.Param("status")))})
}

func (h *IssueHandler) list(c *gin.Context, filters primary.IssueFilters) {
	capability, ok := h.authorize(c, authz.OpIssueRead)
	if !ok {
		return
	}

	issues, err := h.svc.ListIssues(c.Request.Context(), capability, filters)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponses(issues))
}

func (h *IssueHandler) Get(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpIssueRead)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	issue, err := h.svc.GetIssue(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponse(issue))
}

func (h *IssueHandler) Update(c *gin.Context) {
	var req updateIssueRequest
	h.update(c, &req, func() primary.UpdateIssueRequest { return req.toPort() })
}

// UpdateStatus is Update restricted to {"status": ...}.
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	var req issueStatusRequest
	h.update(c, &req, func() primary.UpdateIssueRequest {
		return primary.UpdateIssueRequest{Status: optional.Of(models.IssueStatus(upper(req.Status)))}
	})
}

func (h *IssueHandler) update(c *gin.Context, body any, toPort func() primary.UpdateIssueRequest) {
	capability, ok := h.authorize(c, authz.OpIssueUpdate)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if !h.bind(c, body) {
		return
	}

	issue, err := h.svc.UpdateIssue(c.Request.Context(), capability, id, toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponse(issue))
}

// Resolve accepts an optional {resolution} body.
func (h *IssueHandler) Resolve(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpIssueResolve)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req resolveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.errs.abort(c, bindError(err))
		return
	}

	issue, err := h.svc.ResolveIssue(c.Request.Context(), capability, id, req.Resolution)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponse(issue))
}

func (h *IssueHandler) Close(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpIssueResolve)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	issue, err := h.svc.CloseIssue(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toIssueResponse(issue))
}

func (h *IssueHandler) Delete(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpIssueDelete)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteIssue(c.Request.Context(), capability, id); err != nil {
		h.errs.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
