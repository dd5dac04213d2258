package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/timepulse/internal/domain"
)

type EmployeeUsecase struct {
	repo    EmployeeRepository
	clients ClientRepository
	vendors VendorRepository
	now     Clock
}

func NewEmployeeUsecase(repo EmployeeRepository, clients ClientRepository, vendors VendorRepository, now Clock) *EmployeeUsecase {
	if now == nil {
		now = time.Now
	}
	return &EmployeeUsecase{repo: repo, clients: clients, vendors: vendors, now: now}
}

func (uc *EmployeeUsecase) validate(ctx context.Context, e domain.Employee) error {
	if err := required("firstName", e.FirstName); err != nil {
		return err
	}
	if err := validEmail("email", e.Email); err != nil {
		return err
	}
	if e.Status != domain.EmployeeActive && e.Status != domain.EmployeeInactive {
		return domain.ValidationError{Field: "status", Message: "must be active or inactive"}
	}
	if e.PayRate.IsNegative() || e.BillRate.IsNegative() {
		return domain.ValidationError{Field: "rate", Message: "must not be negative"}
	}
	if e.ClientID != nil {
		if _, err := uc.clients.Get(ctx, e.TenantID, *e.ClientID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ValidationError{Field: "clientId", Message: "unknown client"}
			}
			return err
		}
	}
	if e.VendorID != nil {
		if _, err := uc.vendors.Get(ctx, e.TenantID, *e.VendorID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ValidationError{Field: "vendorId", Message: "unknown vendor"}
			}
			return err
		}
	}
	return nil
}

func (uc *EmployeeUsecase) Create(ctx context.Context, tenantID string, e domain.Employee) (domain.Employee, error) {
	ctx, span := tracer.Start(ctx, "Employee.Usecase.Create")
	defer span.End()

	e.TenantID = tenantID
	e.Email = strings.TrimSpace(e.Email)
	if e.Status == "" {
		e.Status = domain.EmployeeActive
	}
	if err := uc.validate(ctx, e); err != nil {
		return domain.Employee{}, err
	}

	e.ID = newID()
	e.CreatedAt = uc.now()
	e.UpdatedAt = e.CreatedAt

	created, err := uc.repo.Create(ctx, e)
	if err != nil {
		span.RecordError(err)
		return domain.Employee{}, errors.Wrap(err, "Employee.Usecase.Create")
	}
	return created, nil
}

func (uc *EmployeeUsecase) Get(ctx context.Context, tenantID, id string) (domain.Employee, error) {
	return uc.repo.Get(ctx, tenantID, id)
}

func (uc *EmployeeUsecase) Update(ctx context.Context, tenantID string, e domain.Employee) (domain.Employee, error) {
	ctx, span := tracer.Start(ctx, "Employee.Usecase.Update")
	defer span.End()

	current, err := uc.repo.Get(ctx, tenantID, e.ID)
	if err != nil {
		return domain.Employee{}, err
	}

	e.TenantID = tenantID
	e.CreatedAt = current.CreatedAt
	if e.Status == "" {
		e.Status = current.Status
	}
	if err := uc.validate(ctx, e); err != nil {
		return domain.Employee{}, err
	}
	e.UpdatedAt = uc.now()

	updated, err := uc.repo.Update(ctx, e)
	if err != nil {
		span.RecordError(err)
		return domain.Employee{}, errors.Wrap(err, "Employee.Usecase.Update")
	}
	return updated, nil
}

func (uc *EmployeeUsecase) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Employee.Usecase.Delete")
	defer span.End()

	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *EmployeeUsecase) List(ctx context.Context, tenantID string, filter domain.EmployeeFilter) ([]domain.Employee, int64, error) {
	ctx, span := tracer.Start(ctx, "Employee.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, filter)
}

type ClientUsecase struct {
	repo      ClientRepository
	employees EmployeeRepository
	now       Clock
}

func NewClientUsecase(repo ClientRepository, employees EmployeeRepository, now Clock) *ClientUsecase {
	if now == nil {
		now = time.Now
	}
	return &ClientUsecase{repo: repo, employees: employees, now: now}
}

func validateClient(c domain.Client) error {
	if err := required("name", c.Name); err != nil {
		return err
	}
	if err := validEmail("email", c.Email); err != nil {
		return err
	}
	if c.Currency != "" && len(c.Currency) != 3 {
		return domain.ValidationError{Field: "currency", Message: "must be an ISO 4217 code"}
	}
	if c.PaymentTermsDays != nil && *c.PaymentTermsDays < 0 {
		return domain.ValidationError{Field: "paymentTermsDays", Message: "must not be negative"}
	}
	return nil
}

func (uc *ClientUsecase) Create(ctx context.Context, tenantID string, c domain.Client) (domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Client.Usecase.Create")
	defer span.End()

	c.TenantID = tenantID
	c.Currency = strings.ToUpper(c.Currency)
	if err := validateClient(c); err != nil {
		return domain.Client{}, err
	}
	c.ID = newID()
	c.CreatedAt = uc.now()
	c.UpdatedAt = c.CreatedAt

	created, err := uc.repo.Create(ctx, c)
	if err != nil {
		span.RecordError(err)
		return domain.Client{}, errors.Wrap(err, "Client.Usecase.Create")
	}
	return created, nil
}

func (uc *ClientUsecase) Get(ctx context.Context, tenantID, id string) (domain.Client, error) {
	return uc.repo.Get(ctx, tenantID, id)
}

func (uc *ClientUsecase) Update(ctx context.Context, tenantID string, c domain.Client) (domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Client.Usecase.Update")
	defer span.End()

	current, err := uc.repo.Get(ctx, tenantID, c.ID)
	if err != nil {
		return domain.Client{}, err
	}
	c.TenantID = tenantID
	c.Currency = strings.ToUpper(c.Currency)
	c.CreatedAt = current.CreatedAt
	if err := validateClient(c); err != nil {
		return domain.Client{}, err
	}
	c.UpdatedAt = uc.now()

	updated, err := uc.repo.Update(ctx, c)
	if err != nil {
		span.RecordError(err)
		return domain.Client{}, errors.Wrap(err, "Client.Usecase.Update")
	}
	return updated, nil
}

// Delete refuses while active employees are still placed at the client.
func (uc *ClientUsecase) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Client.Usecase.Delete")
	defer span.End()

	if _, err := uc.repo.Get(ctx, tenantID, id); err != nil {
		return err
	}

	active, err := uc.employees.CountActiveByClient(ctx, tenantID, id)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "Client.Usecase.Delete")
	}
	if active > 0 {
		return domain.ConflictError{Message: fmt.Sprintf("client has %d active employees", active)}
	}
	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *ClientUsecase) List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Client, int64, error) {
	ctx, span := tracer.Start(ctx, "Client.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, filter)
}

type VendorUsecase struct {
	repo VendorRepository
	now  Clock
}

func NewVendorUsecase(repo VendorRepository, now Clock) *VendorUsecase {
	if now == nil {
		now = time.Now
	}
	return &VendorUsecase{repo: repo, now: now}
}

func validateVendor(v domain.Vendor) error {
	if err := required("name", v.Name); err != nil {
		return err
	}
	return validEmail("email", v.Email)
}

func (uc *VendorUsecase) Create(ctx context.Context, tenantID string, v domain.Vendor) (domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Vendor.Usecase.Create")
	defer span.End()

	v.TenantID = tenantID
	if err := validateVendor(v); err != nil {
		return domain.Vendor{}, err
	}
	v.ID = newID()
	v.CreatedAt = uc.now()
	v.UpdatedAt = v.CreatedAt

	created, err := uc.repo.Create(ctx, v)
	if err != nil {
		span.RecordError(err)
		return domain.Vendor{}, errors.Wrap(err, "Vendor.Usecase.Create")
	}
	return created, nil
}

func (uc *VendorUsecase) Get(ctx context.Context, tenantID, id string) (domain.Vendor, error) {
	return uc.repo.Get(ctx, tenantID, id)
}

func (uc *VendorUsecase) Update(ctx context.Context, tenantID string, v domain.Vendor) (domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Vendor.Usecase.Update")
	defer span.End()

	current, err := uc.repo.Get(ctx, tenantID, v.ID)
	if err != nil {
		return domain.Vendor{}, err
	}
	v.TenantID = tenantID
	v.CreatedAt = current.CreatedAt
	if err := validateVendor(v); err != nil {
		return domain.Vendor{}, err
	}
	v.UpdatedAt = uc.now()

	updated, err := uc.repo.Update(ctx, v)
	if err != nil {
		span.RecordError(err)
		return domain.Vendor{}, errors.Wrap(err, "Vendor.Usecase.Update")
	}
	return updated, nil
}

func (uc *VendorUsecase) Delete(ctx context.Context, tenantID, id string) error {
	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *VendorUsecase) List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Vendor, int64, error) {
	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, filter)
}
