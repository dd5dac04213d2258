package repository

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func tenantToModel(t domain.Tenant) models.Tenant {
	var policy datatypes.JSON
	if len(t.ApprovalPolicy) > 0 {
		policy = datatypes.JSON(t.ApprovalPolicy)
	}
	return models.Tenant{
		ID:               t.ID,
		Name:             t.Name,
		Slug:             t.Slug,
		Timezone:         t.Timezone,
		Currency:         t.Currency,
		TaxRate:          t.TaxRate,
		InvoicePrefix:    t.InvoicePrefix,
		NextInvoiceSeq:   t.NextInvoiceSeq,
		PaymentTermsDays: t.PaymentTermsDays,
		ReminderEnabled:  t.ReminderEnabled,
		WebhookURL:       t.WebhookURL,
		ApprovalPolicy:   policy,
		CDate:            t.CreatedAt,
	}
}

func tenantFromModel(m models.Tenant) domain.Tenant {
	var policy json.RawMessage
	if len(m.ApprovalPolicy) > 0 {
		policy = json.RawMessage(m.ApprovalPolicy)
	}
	return domain.Tenant{
		ID:               m.ID,
		Name:             m.Name,
		Slug:             m.Slug,
		Timezone:         m.Timezone,
		Currency:         m.Currency,
		TaxRate:          m.TaxRate,
		InvoicePrefix:    m.InvoicePrefix,
		NextInvoiceSeq:   m.NextInvoiceSeq,
		PaymentTermsDays: m.PaymentTermsDays,
		ReminderEnabled:  m.ReminderEnabled,
		WebhookURL:       m.WebhookURL,
		ApprovalPolicy:   policy,
		CreatedAt:        m.CDate,
	}
}

func (r *TenantRepository) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	m := tenantToModel(tenant)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Tenant{}, translate(err, "tenant")
	}
	return tenantFromModel(m), nil
}

func (r *TenantRepository) Get(ctx context.Context, id string) (domain.Tenant, error) {
	var m models.Tenant
	if err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error; err != nil {
		return domain.Tenant{}, translate(err, "tenant")
	}
	return tenantFromModel(m), nil
}

// Update writes the settings columns. The invoice sequence is only moved by
// invoice creation.
func (r *TenantRepository) Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	m := tenantToModel(tenant)
	res := r.db.WithContext(ctx).
		Model(&models.Tenant{ID: tenant.ID}).
		Select("name", "timezone", "currency", "tax_rate", "invoice_prefix", "payment_terms_days", "reminder_enabled", "webhook_url", "approval_policy").
		Updates(&m)
	if res.Error != nil {
		return domain.Tenant{}, translate(res.Error, "tenant")
	}
	if res.RowsAffected == 0 {
		return domain.Tenant{}, domain.NotFoundError{Resource: "tenant"}
	}
	return r.Get(ctx, tenant.ID)
}

func (r *TenantRepository) ListReminderEnabled(ctx context.Context) ([]domain.Tenant, error) {
	var rows []models.Tenant
	if err := r.db.WithContext(ctx).Where("reminder_enabled = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Tenant, 0, len(rows))
	for _, m := range rows {
		out = append(out, tenantFromModel(m))
	}
	return out, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userFromModel(m models.User) domain.User {
	return domain.User{
		ID:         m.ID,
		TenantID:   m.TenantID,
		Email:      m.Email,
		Name:       m.Name,
		Role:       domain.Role(m.Role),
		EmployeeID: m.EmployeeID,
		CreatedAt:  m.CDate,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m := models.User{
		ID:         user.ID,
		TenantID:   user.TenantID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		EmployeeID: user.EmployeeID,
		CDate:      user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return userFromModel(m), nil
}

func (r *UserRepository) Get(ctx context.Context, tenantID, id string) (domain.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return userFromModel(m), nil
}

func (r *UserRepository) GetByEmployee(ctx context.Context, tenantID, employeeID string) (domain.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND employee_id = ?", tenantID, employeeID).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return userFromModel(m), nil
}

func (r *UserRepository) ListByRoles(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if len(roles) > 0 {
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, string(role))
		}
		q = q.Where("role IN ?", names)
	}

	var rows []models.User
	if err := q.Order("email").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, userFromModel(m))
	}
	return out, nil
}
