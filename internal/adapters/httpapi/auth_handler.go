package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/metrics"
	"github.com/example/mes/internal/ports/primary"
)

type AuthHandler struct {
	base
	svc     primary.AuthService
	metrics *metrics.Metrics
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), primary.LoginRequest{Email: req.Email, Password: req.Password})
	if h.metrics != nil {
		h.metrics.RecordLogin(err == nil)
	}
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(tokens))
}

// Refresh redeems a refresh token for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.errs.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(tokens))
}

// Logout always succeeds; a missing or unknown token is ignored.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		h.svc.Logout(c.Request.Context(), req.RefreshToken)
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Logout successful"})
}
