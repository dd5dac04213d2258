package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tenant is a customer organization; every business row belongs to one.
type Tenant struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Timezone         string          `json:"timezone"`
	Currency         string          `json:"currency"`
	TaxRate          decimal.Decimal `json:"taxRate"`
	InvoicePrefix    string          `json:"invoicePrefix"`
	NextInvoiceSeq   int64           `json:"nextInvoiceSeq"`
	PaymentTermsDays int             `json:"paymentTermsDays"`
	ReminderEnabled  bool            `json:"reminderEnabled"`
	WebhookURL       string          `json:"webhookUrl,omitempty"`
	ApprovalPolicy   json.RawMessage `json:"approvalPolicy,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

const (
	DefaultCurrency         = "USD"
	DefaultInvoicePrefix    = "INV"
	DefaultPaymentTermsDays = 30
)

// Location returns the tenant's time zone, UTC when unset or unknown.
func (t Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TenantSettings is the mutable part of a tenant.
type TenantSettings struct {
	Name             *string          `json:"name,omitempty"`
	Timezone         *string          `json:"timezone,omitempty"`
	Currency         *string          `json:"currency,omitempty"`
	TaxRate          *decimal.Decimal `json:"taxRate,omitempty"`
	InvoicePrefix    *string          `json:"invoicePrefix,omitempty"`
	PaymentTermsDays *int             `json:"paymentTermsDays,omitempty"`
	ReminderEnabled  *bool            `json:"reminderEnabled,omitempty"`
	WebhookURL       *string          `json:"webhookUrl,omitempty"`
	ApprovalPolicy   *json.RawMessage `json:"approvalPolicy,omitempty"`
}

// User is a login of a tenant. Authentication happens upstream.
type User struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	EmployeeID *string   `json:"employeeId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
