package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

type Employee struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Title     string          `json:"title,omitempty"`
	Status    EmployeeStatus  `json:"status"`
	ClientID  *string         `json:"clientId,omitempty"`
	VendorID  *string         `json:"vendorId,omitempty"`
	PayRate   decimal.Decimal `json:"payRate"`
	BillRate  decimal.Decimal `json:"billRate"`
	StartDate *time.Time      `json:"startDate,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type Client struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenantId"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Currency         string    `json:"currency,omitempty"`
	PaymentTermsDays *int      `json:"paymentTermsDays,omitempty"`
	Address          string    `json:"address,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Vendor struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ContactName string    `json:"contactName,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EmployeeFilter struct {
	Query    string
	Status   EmployeeStatus
	ClientID string
	Page     Page
}

// DirectoryFilter filters clients and vendors.
type DirectoryFilter struct {
	Query string
	Page  Page
}
