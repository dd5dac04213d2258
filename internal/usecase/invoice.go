package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
)

type GenerateInvoiceInput struct {
	ClientID    string    `json:"clientId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

type InvoiceUsecase struct {
	repo       InvoiceRepository
	tenants    TenantRepository
	clients    ClientRepository
	employees  EmployeeRepository
	timesheets TimesheetRepository
	access     Authorizer
	now        Clock
}

func NewInvoiceUsecase(
	repo InvoiceRepository,
	tenants TenantRepository,
	clients ClientRepository,
	employees EmployeeRepository,
	timesheets TimesheetRepository,
	access Authorizer,
	now Clock,
) *InvoiceUsecase {
	if now == nil {
		now = time.Now
	}
	return &InvoiceUsecase{
		repo:       repo,
		tenants:    tenants,
		clients:    clients,
		employees:  employees,
		timesheets: timesheets,
		access:     access,
		now:        now,
	}
}

// Generate bills every approved, un-invoiced timesheet of the client in the
// period as one draft invoice.
func (uc *InvoiceUsecase) Generate(ctx context.Context, requester domain.Requester, input GenerateInvoiceInput) (domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.Generate")
	defer span.End()

	if err := required("clientId", input.ClientID); err != nil {
		return domain.Invoice{}, err
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return domain.Invoice{}, domain.ValidationError{Field: "period", Message: "periodStart and periodEnd are required"}
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return domain.Invoice{}, domain.ValidationError{Field: "periodEnd", Message: "must not be before periodStart"}
	}

	err := uc.access.Authorize(ctx, requester, domain.ActionManageInvoice, map[string]any{"clientId": input.ClientID})
	if err != nil {
		return domain.Invoice{}, err
	}

	tenant, err := uc.tenants.Get(ctx, requester.TenantID)
	if err != nil {
		return domain.Invoice{}, err
	}
	client, err := uc.clients.Get(ctx, requester.TenantID, input.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invoice{}, domain.ValidationError{Field: "clientId", Message: "unknown client"}
		}
		return domain.Invoice{}, err
	}

	sheets, err := uc.timesheets.ListBillable(ctx, requester.TenantID, client.ID, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		span.RecordError(err)
		return domain.Invoice{}, errors.Wrap(err, "Invoice.Usecase.Generate")
	}
	if len(sheets) == 0 {
		return domain.Invoice{}, domain.ValidationError{Field: "period", Message: "no approved, un-invoiced timesheets in period"}
	}
	span.SetAttributes(attribute.Int("timesheets", len(sheets)))

	employees := map[string]domain.Employee{}
	lines := make([]domain.InvoiceLine, 0, len(sheets))
	ids := make([]string, 0, len(sheets))
	for _, ts := range sheets {
		employee, ok := employees[ts.EmployeeID]
		if !ok {
			employee, err = uc.employees.Get(ctx, requester.TenantID, ts.EmployeeID)
			if err != nil {
				return domain.Invoice{}, errors.Wrap(err, "Invoice.Usecase.Generate: employee")
			}
			employees[ts.EmployeeID] = employee
		}
		description := fmt.Sprintf("%s, week of %s", employee.FullName(), ts.WeekStart.Format(timepulse.DateLayout))
		lines = append(lines, domain.NewInvoiceLine(description, employee.ID, ts.ID, ts.TotalHours, employee.BillRate))
		ids = append(ids, ts.ID)
	}

	loc := tenant.Location()
	now := uc.now().In(loc)
	issue := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	terms := tenant.PaymentTermsDays
	if client.PaymentTermsDays != nil {
		terms = *client.PaymentTermsDays
	}
	currency := tenant.Currency
	if client.Currency != "" {
		currency = client.Currency
	}

	invoice := domain.Invoice{
		ID:          newID(),
		TenantID:    requester.TenantID,
		ClientID:    client.ID,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		IssueDate:   issue,
		DueDate:     issue.AddDate(0, 0, terms),
		Currency:    currency,
		TaxRate:     tenant.TaxRate,
		Status:      domain.InvoiceDraft,
		Lines:       lines,
		CreatedAt:   uc.now(),
	}
	invoice.ApplyTotals()

	created, err := uc.repo.Create(ctx, invoice, ids)
	if err != nil {
		span.RecordError(err)
		return domain.Invoice{}, errors.Wrap(err, "Invoice.Usecase.Generate")
	}
	return created, nil
}

func (uc *InvoiceUsecase) Get(ctx context.Context, tenantID, id string) (domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.Get")
	defer span.End()

	return uc.repo.Get(ctx, tenantID, id)
}

func (uc *InvoiceUsecase) List(ctx context.Context, tenantID string, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, filter)
}

func (uc *InvoiceUsecase) Send(ctx context.Context, requester domain.Requester, id string) (domain.Invoice, error) {
	return uc.transition(ctx, requester, id, domain.InvoiceSent)
}

func (uc *InvoiceUsecase) Pay(ctx context.Context, requester domain.Requester, id string) (domain.Invoice, error) {
	return uc.transition(ctx, requester, id, domain.InvoicePaid)
}

// Void cancels the invoice and releases its timesheets for billing.
func (uc *InvoiceUsecase) Void(ctx context.Context, requester domain.Requester, id string) (domain.Invoice, error) {
	return uc.transition(ctx, requester, id, domain.InvoiceVoid)
}

func (uc *InvoiceUsecase) transition(ctx context.Context, requester domain.Requester, id string, to domain.InvoiceStatus) (domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.transition")
	defer span.End()
	span.SetAttributes(attribute.String("to", string(to)))

	invoice, err := uc.repo.Get(ctx, requester.TenantID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if !invoice.Status.CanTransition(to) {
		return domain.Invoice{}, domain.InvalidTransitionError{Resource: "invoice", From: string(invoice.Status), To: string(to)}
	}

	err = uc.access.Authorize(ctx, requester, domain.ActionManageInvoice, map[string]any{
		"clientId": invoice.ClientID,
		"total":    invoice.Total.String(),
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	return uc.apply(ctx, invoice, to)
}

func (uc *InvoiceUsecase) apply(ctx context.Context, invoice domain.Invoice, to domain.InvoiceStatus) (domain.Invoice, error) {
	from := invoice.Status
	now := uc.now()
	invoice.Status = to
	switch to {
	case domain.InvoiceSent:
		invoice.SentAt = &now
	case domain.InvoicePaid:
		invoice.PaidAt = &now
	}

	updated, err := uc.repo.UpdateStatus(ctx, invoice, from)
	if err != nil {
		return domain.Invoice{}, errors.Wrap(err, "Invoice.Usecase.apply")
	}
	return updated, nil
}

// MarkOverdue moves sent invoices past their due date to overdue and
// returns the ones it moved.
func (uc *InvoiceUsecase) MarkOverdue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.MarkOverdue")
	defer span.End()

	due, err := uc.repo.ListSentPastDue(ctx, tenantID, now)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "Invoice.Usecase.MarkOverdue")
	}

	moved := make([]domain.Invoice, 0, len(due))
	for _, invoice := range due {
		updated, err := uc.apply(ctx, invoice, domain.InvoiceOverdue)
		if err != nil {
			// paid or voided since it was listed
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return moved, err
		}
		moved = append(moved, updated)
	}
	return moved, nil
}
