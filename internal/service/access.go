package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/policy"
)

var tracer = otel.Tracer("service")

type TenantGetter interface {
	Get(ctx context.Context, id string) (domain.Tenant, error)
}

type UserGetter interface {
	Get(ctx context.Context, tenantID, id string) (domain.User, error)
}

// AccessService evaluates the tenant's approval policy, falling back to the
// built-in one. Parsed policies are cached per tenant.
type AccessService struct {
	tenants  TenantGetter
	users    UserGetter
	policies *cache.Cache
}

func NewAccessService(tenants TenantGetter, users UserGetter) *AccessService {
	return &AccessService{
		tenants:  tenants,
		users:    users,
		policies: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *AccessService) policyFor(ctx context.Context, tenantID string) (policy.PolicyDocument, error) {
	if x, found := s.policies.Get(tenantID); found {
		return x.(policy.PolicyDocument), nil
	}

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return policy.PolicyDocument{}, err
	}

	doc := policy.DefaultPolicy()
	if len(tenant.ApprovalPolicy) > 0 && string(tenant.ApprovalPolicy) != "null" {
		doc, err = policy.Parse(tenant.ApprovalPolicy)
		if err != nil {
			return policy.PolicyDocument{}, errors.Wrap(err, "stored approval policy")
		}
	}

	s.policies.Set(tenantID, doc, cache.DefaultExpiration)
	return doc, nil
}

// Invalidate drops the cached policy after the tenant changed it.
func (s *AccessService) Invalidate(tenantID string) {
	s.policies.Delete(tenantID)
}

func (s *AccessService) Authorize(ctx context.Context, requester domain.Requester, action string, subject map[string]any) error {
	ctx, span := tracer.Start(ctx, "Access.Service.Authorize")
	defer span.End()

	span.SetAttributes(
		attribute.String("action", action),
		attribute.String("role", string(requester.Role)),
	)

	doc, err := s.policyFor(ctx, requester.TenantID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "Access.Service.Authorize")
	}

	employeeID := ""
	if requester.UserID != "" {
		user, err := s.users.Get(ctx, requester.TenantID, requester.UserID)
		switch {
		case err == nil:
			if user.EmployeeID != nil {
				employeeID = *user.EmployeeID
			}
		case errors.Is(err, domain.ErrNotFound):
		default:
			span.RecordError(err)
			return errors.Wrap(err, "Access.Service.Authorize")
		}
	}

	if subject == nil {
		subject = map[string]any{}
	}
	rctx := policy.RequestContext{
		Requester: map[string]any{
			"id":         requester.UserID,
			"role":       string(requester.Role),
			"employeeId": employeeID,
		},
		Subject: subject,
	}

	allowed, err := policy.Decide(doc, rctx, action)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "Access.Service.Authorize")
	}
	span.SetAttributes(attribute.Bool("allowed", allowed))
	if !allowed {
		return domain.ForbiddenError{Action: action}
	}
	return nil
}
