package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Invoice struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string          `json:"tenantId" gorm:"type:text;not null;index;uniqueIndex:uniq_invoice_number"`
	ClientID    string          `json:"clientId" gorm:"type:text;not null;index"`
	Number      string          `json:"number" gorm:"type:text;not null;uniqueIndex:uniq_invoice_number"`
	PeriodStart time.Time       `json:"periodStart" gorm:"type:date;not null"`
	PeriodEnd   time.Time       `json:"periodEnd" gorm:"type:date;not null"`
	IssueDate   time.Time       `json:"issueDate" gorm:"type:date;not null"`
	DueDate     time.Time       `json:"dueDate" gorm:"type:date;not null;index"`
	Currency    string          `json:"currency" gorm:"type:text;not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2);not null"`
	TaxRate     decimal.Decimal `json:"taxRate" gorm:"type:numeric(6,4);not null"`
	TaxAmount   decimal.Decimal `json:"taxAmount" gorm:"type:numeric(14,2);not null"`
	Total       decimal.Decimal `json:"total" gorm:"type:numeric(14,2);not null"`
	Status      string          `json:"status" gorm:"type:text;not null;default:'draft';index"`
	Lines       []InvoiceLine   `json:"lines" gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE;"`
	SentAt      *time.Time      `json:"sentAt" gorm:"type:timestamp with time zone"`
	PaidAt      *time.Time      `json:"paidAt" gorm:"type:timestamp with time zone"`
	CDate       time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type InvoiceLine struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text"`
	InvoiceID   string          `json:"invoiceId" gorm:"type:text;not null;index"`
	Position    int             `json:"position" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`
	EmployeeID  string          `json:"employeeId" gorm:"type:text"`
	TimesheetID string          `json:"timesheetId" gorm:"type:text"`
	Hours       decimal.Decimal `json:"hours" gorm:"type:numeric(8,2);not null"`
	Rate        decimal.Decimal `json:"rate" gorm:"type:numeric(12,2);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
}

type Notification struct {
	ID       string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID string         `json:"tenantId" gorm:"type:text;not null;index:idx_notification_owner"`
	UserID   string         `json:"userId" gorm:"type:text;not null;index:idx_notification_owner"`
	Kind     string         `json:"kind" gorm:"type:text;not null"`
	Title    string         `json:"title" gorm:"type:text"`
	Body     string         `json:"body" gorm:"type:text"`
	Link     string         `json:"link" gorm:"type:text"`
	Payload  datatypes.JSON `json:"payload"`
	ReadAt   *time.Time     `json:"readAt" gorm:"type:timestamp with time zone;index"`
	CDate    time.Time      `json:"cdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp();index"`
}
