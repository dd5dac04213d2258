package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/totegamma/timepulse/internal/utils"
)

type ClientHours struct {
	ClientID string  `json:"clientId"`
	Name     string  `json:"name"`
	Hours    float64 `json:"hours"`
}

type DashboardSummary struct {
	From             time.Time                         `json:"from"`
	To               time.Time                         `json:"to"`
	HoursByStatus    map[TimesheetStatus]float64       `json:"hoursByStatus"`
	ApprovedHours    float64                           `json:"approvedHours"`
	PendingApprovals int64                             `json:"pendingApprovals"`
	ActiveEmployees  int64                             `json:"activeEmployees"`
	InvoiceTotals    map[InvoiceStatus]decimal.Decimal `json:"invoiceTotals"`
	Outstanding      decimal.Decimal                   `json:"outstanding"`
	TopClients       []ClientHours                     `json:"topClients"`
	WeeklyHours      *utils.OrderedMap[float64]        `json:"weeklyHours"`
}

type EmployeeSummary struct {
	EmployeeID  string                     `json:"employeeId"`
	From        time.Time                  `json:"from"`
	To          time.Time                  `json:"to"`
	TotalHours  float64                    `json:"totalHours"`
	WeeklyHours *utils.OrderedMap[float64] `json:"weeklyHours"`
	LeaveHours  float64                    `json:"leaveHours"`
}

// WeekHours is one row of a weekly aggregation.
type WeekHours struct {
	WeekStart time.Time
	Hours     float64
}
