package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Tenant struct {
	ID               string          `json:"id" gorm:"primaryKey;type:text"`
	Name             string          `json:"name" gorm:"type:text;not null"`
	Slug             string          `json:"slug" gorm:"type:text;uniqueIndex"`
	Timezone         string          `json:"timezone" gorm:"type:text"`
	Currency         string          `json:"currency" gorm:"type:char(3);not null;default:'USD'"`
	TaxRate          decimal.Decimal `json:"taxRate" gorm:"type:numeric(6,4);not null;default:0"`
	InvoicePrefix    string          `json:"invoicePrefix" gorm:"type:text;not null;default:'INV'"`
	NextInvoiceSeq   int64           `json:"nextInvoiceSeq" gorm:"not null;default:1"`
	PaymentTermsDays int             `json:"paymentTermsDays" gorm:"not null;default:30"`
	ReminderEnabled  bool            `json:"reminderEnabled" gorm:"not null;default:false;index"`
	WebhookURL       string          `json:"webhookUrl" gorm:"type:text"`
	ApprovalPolicy   datatypes.JSON  `json:"approvalPolicy"`
	CDate            time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate            time.Time       `json:"mdate" gorm:"autoUpdateTime"`
}

type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID   string    `json:"tenantId" gorm:"type:text;not null;index;uniqueIndex:uniq_user_email"`
	Tenant     Tenant    `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE;"`
	Email      string    `json:"email" gorm:"type:text;not null;uniqueIndex:uniq_user_email"`
	Name       string    `json:"name" gorm:"type:text"`
	Role       string    `json:"role" gorm:"type:text;not null;index"`
	EmployeeID *string   `json:"employeeId" gorm:"type:text;index"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
