package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func invoiceToModel(inv domain.Invoice) models.Invoice {
	lines := make([]models.InvoiceLine, 0, len(inv.Lines))
	for i, l := range inv.Lines {
		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}
		lines = append(lines, models.InvoiceLine{
			ID:          id,
			InvoiceID:   inv.ID,
			Position:    i,
			Description: l.Description,
			EmployeeID:  l.EmployeeID,
			TimesheetID: l.TimesheetID,
			Hours:       l.Hours,
			Rate:        l.Rate,
			Amount:      l.Amount,
		})
	}
	return models.Invoice{
		ID:          inv.ID,
		TenantID:    inv.TenantID,
		ClientID:    inv.ClientID,
		Number:      inv.Number,
		PeriodStart: inv.PeriodStart,
		PeriodEnd:   inv.PeriodEnd,
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Currency:    inv.Currency,
		Subtotal:    inv.Subtotal,
		TaxRate:     inv.TaxRate,
		TaxAmount:   inv.TaxAmount,
		Total:       inv.Total,
		Status:      string(inv.Status),
		Lines:       lines,
		SentAt:      inv.SentAt,
		PaidAt:      inv.PaidAt,
		CDate:       inv.CreatedAt,
	}
}

func invoiceFromModel(m models.Invoice) domain.Invoice {
	lines := make([]domain.InvoiceLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, domain.InvoiceLine{
			ID:          l.ID,
			Description: l.Description,
			EmployeeID:  l.EmployeeID,
			TimesheetID: l.TimesheetID,
			Hours:       l.Hours,
			Rate:        l.Rate,
			Amount:      l.Amount,
		})
	}
	return domain.Invoice{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ClientID:    m.ClientID,
		Number:      m.Number,
		PeriodStart: m.PeriodStart.UTC(),
		PeriodEnd:   m.PeriodEnd.UTC(),
		IssueDate:   m.IssueDate.UTC(),
		DueDate:     m.DueDate.UTC(),
		Currency:    m.Currency,
		Subtotal:    m.Subtotal,
		TaxRate:     m.TaxRate,
		TaxAmount:   m.TaxAmount,
		Total:       m.Total,
		Status:      domain.InvoiceStatus(m.Status),
		Lines:       lines,
		SentAt:      m.SentAt,
		PaidAt:      m.PaidAt,
		CreatedAt:   m.CDate,
	}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// Create takes the next number from the locked tenant row, stores the
// invoice with its lines and stamps the timesheets. A timesheet that was
// invoiced in the meantime aborts the whole transaction.
func (r *InvoiceRepository) Create(ctx context.Context, invoice domain.Invoice, timesheetIDs []string) (domain.Invoice, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&tenant, "id = ?", invoice.TenantID).Error
		if err != nil {
			return translate(err, "tenant")
		}

		invoice.Number = domain.InvoiceNumber(tenant.InvoicePrefix, invoice.IssueDate.Year(), tenant.NextInvoiceSeq)
		err = tx.Model(&models.Tenant{}).
			Where("id = ?", tenant.ID).
			Update("next_invoice_seq", tenant.NextInvoiceSeq+1).Error
		if err != nil {
			return err
		}

		m := invoiceToModel(invoice)
		if err := tx.Create(&m).Error; err != nil {
			return translate(err, "invoice")
		}

		res := tx.Model(&models.Timesheet{}).
			Where("tenant_id = ? AND id IN ? AND status = ? AND invoice_id IS NULL", invoice.TenantID, timesheetIDs, string(domain.TimesheetApproved)).
			Update("invoice_id", invoice.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(timesheetIDs)) {
			return domain.ConflictError{Message: fmt.Sprintf("%d of %d timesheets are no longer billable", int64(len(timesheetIDs))-res.RowsAffected, len(timesheetIDs))}
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return r.Get(ctx, invoice.TenantID, invoice.ID)
}

func (r *InvoiceRepository) Get(ctx context.Context, tenantID, id string) (domain.Invoice, error) {
	var m models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		return domain.Invoice{}, translate(err, "invoice")
	}
	return invoiceFromModel(m), nil
}

func (r *InvoiceRepository) List(ctx context.Context, tenantID string, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("tenant_id = ?", tenantID)
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Invoice
	err := paginate(q, filter.Page).
		Preload("Lines", orderedLines).
		Order("issue_date DESC, number DESC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Invoice, 0, len(rows))
	for _, m := range rows {
		out = append(out, invoiceFromModel(m))
	}
	return out, total, nil
}

// UpdateStatus only applies while the row is still in from, so two
// concurrent transitions cannot both succeed.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, invoice domain.Invoice, from domain.InvoiceStatus) (domain.Invoice, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).
			Where("tenant_id = ? AND id = ? AND status = ?", invoice.TenantID, invoice.ID, string(from)).
			Updates(map[string]any{
				"status":  string(invoice.Status),
				"sent_at": invoice.SentAt,
				"paid_at": invoice.PaidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Invoice{}).Where("tenant_id = ? AND id = ?", invoice.TenantID, invoice.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.NotFoundError{Resource: "invoice"}
			}
			return domain.ConflictError{Message: "invoice status changed concurrently"}
		}

		if invoice.Status == domain.InvoiceVoid {
			err := tx.Model(&models.Timesheet{}).
				Where("tenant_id = ? AND invoice_id = ?", invoice.TenantID, invoice.ID).
				Update("invoice_id", nil).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return r.Get(ctx, invoice.TenantID, invoice.ID)
}

func (r *InvoiceRepository) ListSentPastDue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND status = ? AND due_date < ?", tenantID, string(domain.InvoiceSent), now).
		Order("due_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(rows))
	for _, m := range rows {
		out = append(out, invoiceFromModel(m))
	}
	return out, nil
}
