package domain

import (
	"fmt"
	"time"

	"github.com/totegamma/timepulse"
)

type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetRejected  TimesheetStatus = "rejected"
)

type TimesheetSource string

const (
	SourceManual TimesheetSource = "manual"
	SourceUpload TimesheetSource = "upload"
)

type Timesheet struct {
	ID              string               `json:"id"`
	TenantID        string               `json:"tenantId"`
	EmployeeID      string               `json:"employeeId"`
	ClientID        *string              `json:"clientId,omitempty"`
	WeekStart       time.Time            `json:"weekStart"`
	DailyHours      timepulse.DailyHours `json:"dailyHours"`
	TotalHours      float64              `json:"totalHours"`
	Status          TimesheetStatus      `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	Source          TimesheetSource      `json:"source"`
	Confidence      *float64             `json:"confidence,omitempty"`
	SubmittedAt     *time.Time           `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time           `json:"reviewedAt,omitempty"`
	ReviewerID      *string              `json:"reviewerId,omitempty"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	InvoiceID       *string              `json:"invoiceId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// Editable reports whether hours and notes may still change.
func (t Timesheet) Editable() bool {
	return t.Status == TimesheetDraft || t.Status == TimesheetRejected
}

var timesheetTransitions = map[TimesheetStatus][]TimesheetStatus{
	TimesheetDraft:     {TimesheetSubmitted},
	TimesheetRejected:  {TimesheetSubmitted},
	TimesheetSubmitted: {TimesheetApproved, TimesheetRejected},
}

func (s TimesheetStatus) CanTransition(to TimesheetStatus) bool {
	for _, next := range timesheetTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateHours checks the per-day and per-week bounds.
func ValidateHours(d timepulse.DailyHours) error {
	for i, h := range d {
		if h < 0 || h > timepulse.MaxDailyHours {
			return ValidationError{
				Field:   "dailyHours." + timepulse.DayNames[i],
				Message: fmt.Sprintf("must be between 0 and %.0f", timepulse.MaxDailyHours),
			}
		}
	}
	if d.Total() > timepulse.MaxWeeklyHours {
		return ValidationError{
			Field:   "dailyHours",
			Message: fmt.Sprintf("weekly total must not exceed %.0f", timepulse.MaxWeeklyHours),
		}
	}
	return nil
}

type TimesheetFilter struct {
	EmployeeID string
	ClientID   string
	Status     TimesheetStatus
	From       *time.Time
	To         *time.Time
	Page       Page
}
