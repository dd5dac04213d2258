package domain

import "time"

const (
	NotifyTimesheetSubmitted = "timesheet.submitted"
	NotifyTimesheetApproved  = "timesheet.approved"
	NotifyTimesheetRejected  = "timesheet.rejected"
	NotifyLeaveReviewed      = "leave.reviewed"
	NotifyMissingTimesheet   = "reminder.missing_timesheet"
	NotifyPendingApprovals   = "reminder.pending_approvals"
	NotifyInvoiceOverdue     = "invoice.overdue"
)

type Notification struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	UserID    string         `json:"userId"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Link      string         `json:"link,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type NotificationFilter struct {
	UnreadOnly bool
	Page       Page
}

// Email is an outgoing message. Body is HTML.
type Email struct {
	To      []string
	Subject string
	Body    string
}
