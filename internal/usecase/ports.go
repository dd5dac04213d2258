package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
)

// TenantRepository defines persistence for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	Get(ctx context.Context, id string) (domain.Tenant, error)
	Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	ListReminderEnabled(ctx context.Context) ([]domain.Tenant, error)
}

// UserRepository defines persistence for tenant users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Get(ctx context.Context, tenantID, id string) (domain.User, error)
	GetByEmployee(ctx context.Context, tenantID, employeeID string) (domain.User, error)
	ListByRoles(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	Get(ctx context.Context, tenantID, id string) (domain.Employee, error)
	Update(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter domain.EmployeeFilter) ([]domain.Employee, int64, error)
	ListActive(ctx context.Context, tenantID string) ([]domain.Employee, error)
	CountActiveByClient(ctx context.Context, tenantID, clientID string) (int64, error)
}

type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) (domain.Client, error)
	Get(ctx context.Context, tenantID, id string) (domain.Client, error)
	Update(ctx context.Context, client domain.Client) (domain.Client, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Client, int64, error)
}

type VendorRepository interface {
	Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	Get(ctx context.Context, tenantID, id string) (domain.Vendor, error)
	Update(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Vendor, int64, error)
}

// TimesheetRepository defines persistence for weekly timesheets.
type TimesheetRepository interface {
	Create(ctx context.Context, timesheet domain.Timesheet) (domain.Timesheet, error)
	Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error)
	// Update writes the timesheet only while it is still in status from.
	Update(ctx context.Context, timesheet domain.Timesheet, from domain.TimesheetStatus) (domain.Timesheet, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, filter domain.TimesheetFilter) ([]domain.Timesheet, int64, error)
	// ListBillable returns approved, un-invoiced timesheets of the client's
	// employees whose week starts within [from, to].
	ListBillable(ctx context.Context, tenantID, clientID string, from, to time.Time) ([]domain.Timesheet, error)
	ListSubmittedBefore(ctx context.Context, tenantID string, before time.Time) ([]domain.Timesheet, error)
	// EmployeesWithStatus returns the ids of employees having a timesheet for
	// weekStart in one of the statuses.
	EmployeesWithStatus(ctx context.Context, tenantID string, weekStart time.Time, statuses ...domain.TimesheetStatus) ([]string, error)
}

type LeaveRepository interface {
	Create(ctx context.Context, leave domain.LeaveRequest) (domain.LeaveRequest, error)
	Get(ctx context.Context, tenantID, id string) (domain.LeaveRequest, error)
	Update(ctx context.Context, leave domain.LeaveRequest, from domain.LeaveStatus) (domain.LeaveRequest, error)
	List(ctx context.Context, tenantID string, filter domain.LeaveFilter) ([]domain.LeaveRequest, int64, error)
}

// InvoiceRepository defines persistence for invoices.
type InvoiceRepository interface {
	// Create numbers the invoice from the tenant sequence, stores it and
	// stamps the timesheets in one transaction.
	Create(ctx context.Context, invoice domain.Invoice, timesheetIDs []string) (domain.Invoice, error)
	Get(ctx context.Context, tenantID, id string) (domain.Invoice, error)
	List(ctx context.Context, tenantID string, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error)
	// UpdateStatus moves the invoice from the given status. Voiding releases
	// its timesheets.
	UpdateStatus(ctx context.Context, invoice domain.Invoice, from domain.InvoiceStatus) (domain.Invoice, error)
	ListSentPastDue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification domain.Notification) (domain.Notification, error)
	List(ctx context.Context, tenantID, userID string, filter domain.NotificationFilter) ([]domain.Notification, int64, error)
	UnreadCount(ctx context.Context, tenantID, userID string) (int64, error)
	MarkRead(ctx context.Context, tenantID, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error)
}

// DashboardRepository runs the aggregation queries.
type DashboardRepository interface {
	HoursByStatus(ctx context.Context, tenantID string, from, to time.Time) (map[domain.TimesheetStatus]float64, error)
	CountByStatus(ctx context.Context, tenantID string, status domain.TimesheetStatus) (int64, error)
	CountActiveEmployees(ctx context.Context, tenantID string) (int64, error)
	InvoiceTotals(ctx context.Context, tenantID string, from, to time.Time) (map[domain.InvoiceStatus]decimal.Decimal, error)
	TopClients(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]domain.ClientHours, error)
	WeeklyHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]domain.WeekHours, error)
	LeaveHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) (float64, error)
}

// Cache is a byte cache shared between instances.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, event timepulse.Event) error
}

// Deduplicator claims a key once per ttl window.
type Deduplicator interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type WebhookSender interface {
	Post(ctx context.Context, url string, payload any) error
}

type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

// Authorizer decides policy actions for a requester against a subject.
type Authorizer interface {
	Authorize(ctx context.Context, requester domain.Requester, action string, subject map[string]any) error
}

type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification) error
}

type Extractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (extract.Result, error)
}
