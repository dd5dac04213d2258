package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Employee struct {
	ID        string          `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string          `json:"tenantId" gorm:"type:text;not null;index:idx_employee_tenant_status"`
	FirstName string          `json:"firstName" gorm:"type:text;not null"`
	LastName  string          `json:"lastName" gorm:"type:text"`
	Email     string          `json:"email" gorm:"type:text;not null"`
	Title     string          `json:"title" gorm:"type:text"`
	Status    string          `json:"status" gorm:"type:text;not null;default:'active';index:idx_employee_tenant_status"`
	ClientID  *string         `json:"clientId" gorm:"type:text;index"`
	VendorID  *string         `json:"vendorId" gorm:"type:text;index"`
	PayRate   decimal.Decimal `json:"payRate" gorm:"type:numeric(12,2);not null;default:0"`
	BillRate  decimal.Decimal `json:"billRate" gorm:"type:numeric(12,2);not null;default:0"`
	StartDate *time.Time      `json:"startDate" gorm:"type:date"`
	CDate     time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate     time.Time       `json:"mdate" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}

type Client struct {
	ID               string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID         string         `json:"tenantId" gorm:"type:text;not null;index"`
	Name             string         `json:"name" gorm:"type:text;not null"`
	Email            string         `json:"email" gorm:"type:text;not null"`
	Currency         string         `json:"currency" gorm:"type:text"`
	PaymentTermsDays *int           `json:"paymentTermsDays"`
	Address          string         `json:"address" gorm:"type:text"`
	CDate            time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate            time.Time      `json:"mdate" gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

type Vendor struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string         `json:"tenantId" gorm:"type:text;not null;index"`
	Name        string         `json:"name" gorm:"type:text;not null"`
	Email       string         `json:"email" gorm:"type:text;not null"`
	ContactName string         `json:"contactName" gorm:"type:text"`
	Phone       string         `json:"phone" gorm:"type:text"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
