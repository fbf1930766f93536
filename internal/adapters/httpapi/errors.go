package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/mes/internal/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status    int               `json:"status"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}

const internalMessage = "An unexpected error occurred"

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindDuplicate:       http.StatusConflict,
	apperr.KindInvalidState:    http.StatusConflict,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// errorRenderer turns service errors into ErrorResponse bodies.
type errorRenderer struct {
	logger           *zap.Logger
	concealForbidden bool
	now              func() time.Time
}

func newErrorRenderer(logger *zap.Logger, concealForbidden bool) *errorRenderer {
	return &errorRenderer{logger: logger, concealForbidden: concealForbidden, now: time.Now}
}

// abort writes err as the response and stops the handler chain.
func (r *errorRenderer) abort(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(err, "")
	}

	status := statusByKind[appErr.Kind]
	message := appErr.Message

	switch {
	case appErr.Kind == apperr.KindInternal:
		r.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		message = internalMessage
	case appErr.Kind == apperr.KindForbidden && appErr.Resource != "" && r.concealForbidden:
		status = http.StatusNotFound
		message = fmt.Sprintf("%s not found", appErr.Resource)
		if id := c.Param("id"); id != "" {
			message = fmt.Sprintf("%s not found with id: %s", appErr.Resource, id)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: r.now().UTC(),
		Errors:    appErr.Fields,
	})
}

// abortStatus writes a bare status and message, for failures with no
// application error behind them.
func (r *errorRenderer) abortStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: r.now().UTC(),
	})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindError converts a ShouldBind failure into a validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return apperr.ValidationFields(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.ValidationFields(map[string]string{
			typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type),
		})
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required")
	}
	var timeErr *timeParseError
	if errors.As(err, &timeErr) {
		return apperr.Validation("%s", timeErr.Error())
	}
	return apperr.Validation("Malformed request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}
