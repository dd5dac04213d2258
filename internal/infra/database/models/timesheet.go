package models

import (
	"time"

	"gorm.io/datatypes"
)

// Timesheet keeps the daily buckets as a JSON document and the total as a
// column for aggregation.
type Timesheet struct {
	ID              string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID        string         `json:"tenantId" gorm:"type:text;not null;uniqueIndex:uniq_timesheet_week;index:idx_timesheet_tenant_status"`
	EmployeeID      string         `json:"employeeId" gorm:"type:text;not null;uniqueIndex:uniq_timesheet_week"`
	Employee        Employee       `json:"-" gorm:"foreignKey:EmployeeID;references:ID;constraint:OnDelete:CASCADE;"`
	ClientID        *string        `json:"clientId" gorm:"type:text;index"`
	WeekStart       time.Time      `json:"weekStart" gorm:"type:date;not null;uniqueIndex:uniq_timesheet_week"`
	DailyHours      datatypes.JSON `json:"dailyHours" gorm:"not null"`
	TotalHours      float64        `json:"totalHours" gorm:"type:numeric(6,2);not null;default:0"`
	Status          string         `json:"status" gorm:"type:text;not null;default:'draft';index:idx_timesheet_tenant_status"`
	Notes           string         `json:"notes" gorm:"type:text"`
	Source          string         `json:"source" gorm:"type:text;not null;default:'manual'"`
	Confidence      *float64       `json:"confidence"`
	SubmittedAt     *time.Time     `json:"submittedAt" gorm:"type:timestamp with time zone"`
	ReviewedAt      *time.Time     `json:"reviewedAt" gorm:"type:timestamp with time zone"`
	ReviewerID      *string        `json:"reviewerId" gorm:"type:text"`
	RejectionReason string         `json:"rejectionReason" gorm:"type:text"`
	InvoiceID       *string        `json:"invoiceId" gorm:"type:text;index"`
	CDate           time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate           time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

type LeaveRequest struct {
	ID         string     `json:"id" gorm:"primaryKey;type:text"`
	TenantID   string     `json:"tenantId" gorm:"type:text;not null;index"`
	EmployeeID string     `json:"employeeId" gorm:"type:text;not null;index"`
	Employee   Employee   `json:"-" gorm:"foreignKey:EmployeeID;references:ID;constraint:OnDelete:CASCADE;"`
	Kind       string     `json:"kind" gorm:"type:text;not null"`
	StartDate  time.Time  `json:"startDate" gorm:"type:date;not null"`
	EndDate    time.Time  `json:"endDate" gorm:"type:date;not null"`
	Hours      float64    `json:"hours" gorm:"type:numeric(6,2);not null"`
	Reason     string     `json:"reason" gorm:"type:text"`
	Status     string     `json:"status" gorm:"type:text;not null;default:'pending';index"`
	ReviewerID *string    `json:"reviewerId" gorm:"type:text"`
	ReviewNote string     `json:"reviewNote" gorm:"type:text"`
	ReviewedAt *time.Time `json:"reviewedAt" gorm:"type:timestamp with time zone"`
	CDate      time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
