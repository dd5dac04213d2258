package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/policy"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// PolicyCache drops a tenant's cached approval policy.
type PolicyCache interface {
	Invalidate(tenantID string)
}

type TenantUsecase struct {
	tenants  TenantRepository
	users    UserRepository
	policies PolicyCache
	now      Clock
}

func NewTenantUsecase(tenants TenantRepository, users UserRepository, policies PolicyCache, now Clock) *TenantUsecase {
	if now == nil {
		now = time.Now
	}
	return &TenantUsecase{tenants: tenants, users: users, policies: policies, now: now}
}

func (uc *TenantUsecase) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	ctx, span := tracer.Start(ctx, "Tenant.Usecase.Create")
	defer span.End()

	if err := required("name", tenant.Name); err != nil {
		return domain.Tenant{}, err
	}
	tenant.Slug = strings.ToLower(strings.TrimSpace(tenant.Slug))
	if !slugRe.MatchString(tenant.Slug) {
		return domain.Tenant{}, domain.ValidationError{Field: "slug", Message: "must be lowercase letters, digits and dashes"}
	}
	if tenant.Currency == "" {
		tenant.Currency = domain.DefaultCurrency
	}
	if tenant.InvoicePrefix == "" {
		tenant.InvoicePrefix = domain.DefaultInvoicePrefix
	}
	if tenant.PaymentTermsDays == 0 {
		tenant.PaymentTermsDays = domain.DefaultPaymentTermsDays
	}
	if err := validateTenant(tenant); err != nil {
		return domain.Tenant{}, err
	}

	tenant.ID = newID()
	tenant.NextInvoiceSeq = 1
	tenant.CreatedAt = uc.now()

	created, err := uc.tenants.Create(ctx, tenant)
	if err != nil {
		span.RecordError(err)
		return domain.Tenant{}, errors.Wrap(err, "Tenant.Usecase.Create")
	}
	return created, nil
}

func (uc *TenantUsecase) Get(ctx context.Context, id string) (domain.Tenant, error) {
	ctx, span := tracer.Start(ctx, "Tenant.Usecase.Get")
	defer span.End()

	return uc.tenants.Get(ctx, id)
}

// UpdateSettings applies the non-nil settings. Only admins may change them.
func (uc *TenantUsecase) UpdateSettings(ctx context.Context, requester domain.Requester, settings domain.TenantSettings) (domain.Tenant, error) {
	ctx, span := tracer.Start(ctx, "Tenant.Usecase.UpdateSettings")
	defer span.End()

	if requester.Role != domain.RoleAdmin {
		return domain.Tenant{}, domain.ForbiddenError{Action: "tenant.update"}
	}

	tenant, err := uc.tenants.Get(ctx, requester.TenantID)
	if err != nil {
		return domain.Tenant{}, err
	}

	if settings.Name != nil {
		tenant.Name = *settings.Name
	}
	if settings.Timezone != nil {
		tenant.Timezone = *settings.Timezone
	}
	if settings.Currency != nil {
		tenant.Currency = strings.ToUpper(*settings.Currency)
	}
	if settings.TaxRate != nil {
		tenant.TaxRate = *settings.TaxRate
	}
	if settings.InvoicePrefix != nil {
		tenant.InvoicePrefix = *settings.InvoicePrefix
	}
	if settings.PaymentTermsDays != nil {
		tenant.PaymentTermsDays = *settings.PaymentTermsDays
	}
	if settings.ReminderEnabled != nil {
		tenant.ReminderEnabled = *settings.ReminderEnabled
	}
	if settings.WebhookURL != nil {
		tenant.WebhookURL = *settings.WebhookURL
	}
	if settings.ApprovalPolicy != nil {
		tenant.ApprovalPolicy = *settings.ApprovalPolicy
	}

	if err := required("name", tenant.Name); err != nil {
		return domain.Tenant{}, err
	}
	if err := validateTenant(tenant); err != nil {
		return domain.Tenant{}, err
	}

	updated, err := uc.tenants.Update(ctx, tenant)
	if err != nil {
		span.RecordError(err)
		return domain.Tenant{}, errors.Wrap(err, "Tenant.Usecase.UpdateSettings")
	}
	if uc.policies != nil && settings.ApprovalPolicy != nil {
		uc.policies.Invalidate(tenant.ID)
	}
	return updated, nil
}

func validateTenant(tenant domain.Tenant) error {
	if tenant.Timezone != "" {
		if _, err := time.LoadLocation(tenant.Timezone); err != nil {
			return domain.ValidationError{Field: "timezone", Message: "unknown time zone"}
		}
	}
	if len(tenant.Currency) != 3 {
		return domain.ValidationError{Field: "currency", Message: "must be an ISO 4217 code"}
	}
	if tenant.TaxRate.IsNegative() || tenant.TaxRate.GreaterThan(decimalOne) {
		return domain.ValidationError{Field: "taxRate", Message: "must be between 0 and 1"}
	}
	if tenant.PaymentTermsDays < 0 {
		return domain.ValidationError{Field: "paymentTermsDays", Message: "must not be negative"}
	}
	if len(tenant.ApprovalPolicy) > 0 && string(tenant.ApprovalPolicy) != "null" {
		if _, err := policy.Parse(tenant.ApprovalPolicy); err != nil {
			return domain.ValidationError{Field: "approvalPolicy", Message: err.Error()}
		}
	}
	return nil
}

func (uc *TenantUsecase) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Tenant.Usecase.CreateUser")
	defer span.End()

	if err := validEmail("email", user.Email); err != nil {
		return domain.User{}, err
	}
	if user.Role == "" {
		user.Role = domain.RoleEmployee
	}
	if !user.Role.Valid() {
		return domain.User{}, domain.ValidationError{Field: "role", Message: "unknown role"}
	}

	user.ID = newID()
	user.CreatedAt = uc.now()

	created, err := uc.users.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, errors.Wrap(err, "Tenant.Usecase.CreateUser")
	}
	return created, nil
}

func (uc *TenantUsecase) GetUser(ctx context.Context, tenantID, id string) (domain.User, error) {
	return uc.users.Get(ctx, tenantID, id)
}

// ListUsers lists users having one of the roles, all users when none given.
func (uc *TenantUsecase) ListUsers(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error) {
	ctx, span := tracer.Start(ctx, "Tenant.Usecase.ListUsers")
	defer span.End()

	return uc.users.ListByRoles(ctx, tenantID, roles...)
}
