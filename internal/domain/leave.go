package domain

import "time"

type LeaveKind string

const (
	LeaveVacation LeaveKind = "vacation"
	LeaveSick     LeaveKind = "sick"
	LeavePersonal LeaveKind = "personal"
	LeaveUnpaid   LeaveKind = "unpaid"
)

func (k LeaveKind) Valid() bool {
	switch k {
	case LeaveVacation, LeaveSick, LeavePersonal, LeaveUnpaid:
		return true
	}
	return false
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type LeaveRequest struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenantId"`
	EmployeeID string      `json:"employeeId"`
	Kind       LeaveKind   `json:"kind"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Hours      float64     `json:"hours"`
	Reason     string      `json:"reason,omitempty"`
	Status     LeaveStatus `json:"status"`
	ReviewerID *string     `json:"reviewerId,omitempty"`
	ReviewNote string      `json:"reviewNote,omitempty"`
	ReviewedAt *time.Time  `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type LeaveFilter struct {
	EmployeeID string
	Status     LeaveStatus
	Page       Page
}
