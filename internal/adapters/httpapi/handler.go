// Package httpapi exposes the use cases as a JSON REST API over gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
)

// base carries what every handler needs to authorize, bind and fail.
type base struct {
	errs *errorRenderer
}

// authorize checks the caller's role for op. On failure the response is
// already written.
func (b base) authorize(c *gin.Context, op authz.Operation) (authz.Capability, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		b.errs.abort(c, apperr.Unauthenticated("Authentication required"))
		return authz.Capability{}, false
	}
	capability, err := authz.Authorize(caller, op)
	if err != nil {
		b.errs.abort(c, err)
		return authz.Capability{}, false
	}
	return capability, true
}

func (b base) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		b.errs.abort(c, bindError(err))
		return false
	}
	return true
}

func (b base) pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		b.errs.abort(c, apperr.ValidationFields(map[string]string{name: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

// queryID parses an optional id filter; absent means 0.
func (b base) queryID(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		b.errs.abort(c, apperr.ValidationFields(map[string]string{name: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

// queryLimit parses ?limit; absent means 0, which services read as their
// default.
func (b base) queryLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		b.errs.abort(c, apperr.ValidationFields(map[string]string{"limit": "must be a positive integer"}))
		return 0, false
	}
	return limit, true
}

// queryTime parses an optional date or date-time bound.
func (b base) queryTime(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := parseDateBound(raw, endOfDay)
	if err != nil {
		b.errs.abort(c, apperr.ValidationFields(map[string]string{name: "must be a date (2006-01-02) or an ISO-8601 date-time"}))
		return nil, false
	}
	return &t, true
}

// HealthHandler reports liveness, and readiness when a probe is set.
type HealthHandler struct {
	ready func(ctx context.Context) error
}

func (h *HealthHandler) Check(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
