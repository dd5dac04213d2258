package presenter

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// ListResponse is the envelope of paginated lists.
type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func List[T any](c echo.Context, items []T, total int64, page domain.Page) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, ListResponse[T]{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func BadRequest(c echo.Context, err error) error {
	zap.L().Debug("bad request", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	zap.L().Debug("bad request", zap.String("path", c.Path()), zap.String("reason", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// TooLarge rejects an upload field over limit bytes.
func TooLarge(c echo.Context, field string, limit int) error {
	return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
		Error: fmt.Sprintf("exceeds the %d byte limit", limit),
		Field: field,
	})
}

// InternalError logs the cause with the trace id and hides it from the caller.
func InternalError(c echo.Context, err error) error {
	sc := trace.SpanContextFromContext(c.Request().Context())
	fields := []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	}
	resp := errorResponse{Error: "internal server error"}
	if sc.HasTraceID() {
		fields = append(fields, zap.String("traceId", sc.TraceID().String()))
		resp.TraceID = sc.TraceID().String()
	}
	zap.L().Error("internal error", fields...)
	return c.JSON(http.StatusInternalServerError, resp)
}

// Error picks the status from the domain error kind.
func Error(c echo.Context, err error) error {
	var validation domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: errors.Cause(err).Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: errors.Cause(err).Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, errorResponse{Error: errors.Cause(err).Error()})
	}
	return InternalError(c, err)
}
