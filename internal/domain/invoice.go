package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
	InvoiceVoid    InvoiceStatus = "void"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceVoid},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceVoid},
	InvoiceOverdue: {InvoicePaid, InvoiceVoid},
}

func (s InvoiceStatus) CanTransition(to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Invoice struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantId"`
	ClientID    string          `json:"clientId"`
	Number      string          `json:"number"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	IssueDate   time.Time       `json:"issueDate"`
	DueDate     time.Time       `json:"dueDate"`
	Currency    string          `json:"currency"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Total       decimal.Decimal `json:"total"`
	Status      InvoiceStatus   `json:"status"`
	Lines       []InvoiceLine   `json:"lines"`
	SentAt      *time.Time      `json:"sentAt,omitempty"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type InvoiceLine struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	EmployeeID  string          `json:"employeeId"`
	TimesheetID string          `json:"timesheetId"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewInvoiceLine prices hours at rate, rounded to cents.
func NewInvoiceLine(description, employeeID, timesheetID string, hours float64, rate decimal.Decimal) InvoiceLine {
	h := decimal.NewFromFloat(hours).Round(2)
	return InvoiceLine{
		Description: description,
		EmployeeID:  employeeID,
		TimesheetID: timesheetID,
		Hours:       h,
		Rate:        rate,
		Amount:      h.Mul(rate).Round(2),
	}
}

// ApplyTotals recomputes subtotal, tax and total from the lines.
func (inv *Invoice) ApplyTotals() {
	subtotal := decimal.Zero
	for _, line := range inv.Lines {
		subtotal = subtotal.Add(line.Amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Round(2)
	inv.Total = inv.Subtotal.Add(inv.TaxAmount)
}

// InvoiceNumber formats PREFIX-YYYY-NNNN.
func InvoiceNumber(prefix string, year int, seq int64) string {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

type InvoiceFilter struct {
	ClientID string
	Status   InvoiceStatus
	Page     Page
}
