package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

type WorkOrderHandler struct {
	base
	svc primary.WorkOrderService
}

func (h *WorkOrderHandler) Create(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderCreate)
	if !ok {
		return
	}
	var req createWorkOrderRequest
	if !h.bind(c, &req) {
		return
	}

	order, err := h.svc.CreateWorkOrder(c.Request.Context(), capability, req.toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWorkOrderResponse(order))
}

// List supports ?status= and ?assignedTo=.
func (h *WorkOrderHandler) List(c *gin.Context) {
	assignee, ok := h.queryID(c, "assignedTo")
	if !ok {
		return
	}
	h.list(c, primary.WorkOrderFilters{
		Status:       models.WorkOrderStatus(upper(c.Query("status"))),
		AssignedToID: assignee,
	})
}

func (h *WorkOrderHandler) ListByStatus(c *gin.Context) {
	h.list(c, primary.WorkOrderFilters{Status: models.WorkOrderStatus(upper(c.Param("status")))})
}

func (h *WorkOrderHandler) ListByUser(c *gin.Context) {
	userID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	h.list(c, primary.WorkOrderFilters{AssignedToID: userID})
}

func (h *WorkOrderHandler) list(c *gin.Context, filters primary.WorkOrderFilters) {
	capability, ok := h.authorize(c, authz.OpWorkOrderRead)
	if !ok {
		return
	}

	orders, err := h.svc.ListWorkOrders(c.Request.Context(), capability, filters)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponses(orders))
}

func (h *WorkOrderHandler) Get(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderRead)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.GetWorkOrder(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponse(order))
}

func (h *WorkOrderHandler) Update(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderUpdate)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req updateWorkOrderRequest
	if !h.bind(c, &req) {
		return
	}

	order, err := h.svc.UpdateWorkOrder(c.Request.Context(), capability, id, req.toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponse(order))
}

func (h *WorkOrderHandler) Delete(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderDelete)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteWorkOrder(c.Request.Context(), capability, id); err != nil {
		h.errs.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkOrderHandler) Start(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderExecute)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.StartWork(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponse(order))
}

// Complete accepts an optional {actualQuantity, notes} body.
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderExecute)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req completeWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.errs.abort(c, bindError(err))
		return
	}

	order, err := h.svc.CompleteWork(c.Request.Context(), capability, id, primary.CompleteWorkRequest{
		ActualQuantity: req.ActualQuantity,
		Notes:          req.Notes,
	})
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponse(order))
}

func (h *WorkOrderHandler) UpdateProgress(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpWorkOrderExecute)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !h.bind(c, &req) {
		return
	}

	order, err := h.svc.UpdateProgress(c.Request.Context(), capability, id, *req.Progress)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkOrderResponse(order))
}
