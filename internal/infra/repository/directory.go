package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func employeeToModel(e domain.Employee) models.Employee {
	return models.Employee{
		ID:        e.ID,
		TenantID:  e.TenantID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		Title:     e.Title,
		Status:    string(e.Status),
		ClientID:  e.ClientID,
		VendorID:  e.VendorID,
		PayRate:   e.PayRate,
		BillRate:  e.BillRate,
		StartDate: e.StartDate,
		CDate:     e.CreatedAt,
		MDate:     e.UpdatedAt,
	}
}

func employeeFromModel(m models.Employee) domain.Employee {
	return domain.Employee{
		ID:        m.ID,
		TenantID:  m.TenantID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Title:     m.Title,
		Status:    domain.EmployeeStatus(m.Status),
		ClientID:  m.ClientID,
		VendorID:  m.VendorID,
		PayRate:   m.PayRate,
		BillRate:  m.BillRate,
		StartDate: m.StartDate,
		CreatedAt: m.CDate,
		UpdatedAt: m.MDate,
	}
}

func employeesFromModels(rows []models.Employee) []domain.Employee {
	out := make([]domain.Employee, 0, len(rows))
	for _, m := range rows {
		out = append(out, employeeFromModel(m))
	}
	return out
}

func (r *EmployeeRepository) Create(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	m := employeeToModel(employee)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Employee{}, translate(err, "employee")
	}
	return employeeFromModel(m), nil
}

func (r *EmployeeRepository) Get(ctx context.Context, tenantID, id string) (domain.Employee, error) {
	var m models.Employee
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.Employee{}, translate(err, "employee")
	}
	return employeeFromModel(m), nil
}

func (r *EmployeeRepository) Update(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	m := employeeToModel(employee)
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("tenant_id = ? AND id = ?", employee.TenantID, employee.ID).
		Select("*").
		Omit("id", "tenant_id", "c_date", "deleted_at").
		Updates(&m)
	if res.Error != nil {
		return domain.Employee{}, translate(res.Error, "employee")
	}
	if res.RowsAffected == 0 {
		return domain.Employee{}, domain.NotFoundError{Resource: "employee"}
	}
	return r.Get(ctx, employee.TenantID, employee.ID)
}

func (r *EmployeeRepository) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Employee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "employee"}
	}
	return nil
}

func (r *EmployeeRepository) List(ctx context.Context, tenantID string, filter domain.EmployeeFilter) ([]domain.Employee, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{}).Where("tenant_id = ?", tenantID)
	if filter.Query != "" {
		p := likePattern(filter.Query)
		q = q.Where("first_name || ' ' || last_name ILIKE ? OR email ILIKE ?", p, p)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Employee
	if err := paginate(q, filter.Page).Order("last_name, first_name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return employeesFromModels(rows), total, nil
}

func (r *EmployeeRepository) ListActive(ctx context.Context, tenantID string) ([]domain.Employee, error) {
	var rows []models.Employee
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.EmployeeActive)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return employeesFromModels(rows), nil
}

func (r *EmployeeRepository) CountActiveByClient(ctx context.Context, tenantID, clientID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("tenant_id = ? AND client_id = ? AND status = ?", tenantID, clientID, string(domain.EmployeeActive)).
		Count(&n).Error
	return n, err
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func clientToModel(c domain.Client) models.Client {
	return models.Client{
		ID:               c.ID,
		TenantID:         c.TenantID,
		Name:             c.Name,
		Email:            c.Email,
		Currency:         c.Currency,
		PaymentTermsDays: c.PaymentTermsDays,
		Address:          c.Address,
		CDate:            c.CreatedAt,
		MDate:            c.UpdatedAt,
	}
}

func clientFromModel(m models.Client) domain.Client {
	return domain.Client{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		Email:            m.Email,
		Currency:         m.Currency,
		PaymentTermsDays: m.PaymentTermsDays,
		Address:          m.Address,
		CreatedAt:        m.CDate,
		UpdatedAt:        m.MDate,
	}
}

func (r *ClientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	m := clientToModel(client)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Client{}, translate(err, "client")
	}
	return clientFromModel(m), nil
}

func (r *ClientRepository) Get(ctx context.Context, tenantID, id string) (domain.Client, error) {
	var m models.Client
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.Client{}, translate(err, "client")
	}
	return clientFromModel(m), nil
}

func (r *ClientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	m := clientToModel(client)
	res := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("tenant_id = ? AND id = ?", client.TenantID, client.ID).
		Select("*").
		Omit("id", "tenant_id", "c_date", "deleted_at").
		Updates(&m)
	if res.Error != nil {
		return domain.Client{}, translate(res.Error, "client")
	}
	if res.RowsAffected == 0 {
		return domain.Client{}, domain.NotFoundError{Resource: "client"}
	}
	return r.Get(ctx, client.TenantID, client.ID)
}

func (r *ClientRepository) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "client"}
	}
	return nil
}

func (r *ClientRepository) List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Client, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Client{}).Where("tenant_id = ?", tenantID)
	if filter.Query != "" {
		p := likePattern(filter.Query)
		q = q.Where("name ILIKE ? OR email ILIKE ?", p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Client
	if err := paginate(q, filter.Page).Order("name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Client, 0, len(rows))
	for _, m := range rows {
		out = append(out, clientFromModel(m))
	}
	return out, total, nil
}

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func vendorToModel(v domain.Vendor) models.Vendor {
	return models.Vendor{
		ID:          v.ID,
		TenantID:    v.TenantID,
		Name:        v.Name,
		Email:       v.Email,
		ContactName: v.ContactName,
		Phone:       v.Phone,
		CDate:       v.CreatedAt,
		MDate:       v.UpdatedAt,
	}
}

func vendorFromModel(m models.Vendor) domain.Vendor {
	return domain.Vendor{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Email:       m.Email,
		ContactName: m.ContactName,
		Phone:       m.Phone,
		CreatedAt:   m.CDate,
		UpdatedAt:   m.MDate,
	}
}

func (r *VendorRepository) Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	m := vendorToModel(vendor)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Vendor{}, translate(err, "vendor")
	}
	return vendorFromModel(m), nil
}

func (r *VendorRepository) Get(ctx context.Context, tenantID, id string) (domain.Vendor, error) {
	var m models.Vendor
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.Vendor{}, translate(err, "vendor")
	}
	return vendorFromModel(m), nil
}

func (r *VendorRepository) Update(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	m := vendorToModel(vendor)
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("tenant_id = ? AND id = ?", vendor.TenantID, vendor.ID).
		Select("*").
		Omit("id", "tenant_id", "c_date", "deleted_at").
		Updates(&m)
	if res.Error != nil {
		return domain.Vendor{}, translate(res.Error, "vendor")
	}
	if res.RowsAffected == 0 {
		return domain.Vendor{}, domain.NotFoundError{Resource: "vendor"}
	}
	return r.Get(ctx, vendor.TenantID, vendor.ID)
}

func (r *VendorRepository) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Vendor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "vendor"}
	}
	return nil
}

func (r *VendorRepository) List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Vendor, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("tenant_id = ?", tenantID)
	if filter.Query != "" {
		p := likePattern(filter.Query)
		q = q.Where("name ILIKE ? OR email ILIKE ?", p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Vendor
	if err := paginate(q, filter.Page).Order("name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Vendor, 0, len(rows))
	for _, m := range rows {
		out = append(out, vendorFromModel(m))
	}
	return out, total, nil
}
