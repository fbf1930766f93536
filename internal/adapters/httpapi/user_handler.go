package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

type UserHandler struct {
	base
	svc primary.UserService
}

func (h *UserHandler) Create(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserCreate)
	if !ok {
		return
	}
	var req createUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), capability, primary.CreateUserRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.Role(upper(req.Role)),
	})
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) List(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserList)
	if !ok {
		return
	}

	users, err := h.svc.ListUsers(c.Request.Context(), capability)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	out := make([]*userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	c.JSON(http.StatusOK, out)
}

// Me returns the caller's own account.
func (h *UserHandler) Me(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserRead)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), capability, capability.Caller().UserID)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserUpdate)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), capability, primary.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

func (h *UserHandler) Get(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserRead)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), capability, id)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserUpdate)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), capability, id, req.toPort())
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	capability, ok := h.authorize(c, authz.OpUserDelete)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), capability, id); err != nil {
		h.errs.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Activate(c *gin.Context)   { h.setActive(c, true) }
func (h *UserHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	capability, ok := h.authorize(c, authz.OpUserActivate)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.SetActive(c.Request.Context(), capability, id, active)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
