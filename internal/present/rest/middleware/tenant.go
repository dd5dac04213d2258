package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/timepulse/internal/domain"
)

var tracer = otel.Tracer("middleware")

// IdentifyRequester copies the gateway headers into the request context.
// Requests without a user are treated as employees.
func IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Middleware.IdentifyRequester")
		defer span.End()

		header := c.Request().Header
		tenantID := strings.TrimSpace(header.Get(domain.TenantIDHeader))
		userID := strings.TrimSpace(header.Get(domain.RequesterIDHeader))
		role := domain.Role(strings.ToLower(strings.TrimSpace(header.Get(domain.RequesterRoleHeader))))
		if !role.Valid() {
			role = domain.RoleEmployee
		}

		if tenantID != "" {
			ctx = context.WithValue(ctx, domain.TenantIDCtxKey, tenantID)
			span.SetAttributes(attribute.String("TenantId", tenantID))
		}
		if userID != "" {
			ctx = context.WithValue(ctx, domain.RequesterIDCtxKey, userID)
			span.SetAttributes(attribute.String("RequesterId", userID))
		}
		ctx = context.WithValue(ctx, domain.RequesterRoleCtxKey, role)
		span.SetAttributes(attribute.String("RequesterRole", string(role)))

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireTenant rejects tenant-scoped requests that carry no tenant.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Request().Context().Value(domain.TenantIDCtxKey).(string); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": domain.TenantIDHeader + " header is required"})
		}
		return next(c)
	}
}

// Requester reads what IdentifyRequester stored.
func Requester(ctx context.Context) domain.Requester {
	tenantID, _ := ctx.Value(domain.TenantIDCtxKey).(string)
	userID, _ := ctx.Value(domain.RequesterIDCtxKey).(string)
	role, ok := ctx.Value(domain.RequesterRoleCtxKey).(domain.Role)
	if !ok {
		role = domain.RoleEmployee
	}
	return domain.Requester{TenantID: tenantID, UserID: userID, Role: role}
}
