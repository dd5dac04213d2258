package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
)

// --- repositories ---

type memTenants struct {
	mu      sync.Mutex
	tenants map[string]domain.Tenant
}

func newMemTenants(tenants ...domain.Tenant) *memTenants {
	m := &memTenants{tenants: map[string]domain.Tenant{}}
	for _, t := range tenants {
		m.tenants[t.ID] = t
	}
	return m
}

func (m *memTenants) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.Slug == t.Slug {
			return domain.Tenant{}, domain.ConflictError{Message: "slug taken"}
		}
	}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *memTenants) Get(ctx context.Context, id string) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return domain.Tenant{}, domain.NotFoundError{Resource: "tenant"}
	}
	return t, nil
}

func (m *memTenants) Update(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
	return t, nil
}

func (m *memTenants) ListReminderEnabled(ctx context.Context) ([]domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tenant
	for _, t := range m.tenants {
		if t.ReminderEnabled {
			out = append(out, t)
		}
	}
	return out, nil
}

type memUsers struct {
	users []domain.User
}

func (m *memUsers) Create(ctx context.Context, u domain.User) (domain.User, error) {
	m.users = append(m.users, u)
	return u, nil
}

func (m *memUsers) Get(ctx context.Context, tenantID, id string) (domain.User, error) {
	for _, u := range m.users {
		if u.TenantID == tenantID && u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) GetByEmployee(ctx context.Context, tenantID, employeeID string) (domain.User, error) {
	for _, u := range m.users {
		if u.TenantID == tenantID && u.EmployeeID != nil && *u.EmployeeID == employeeID {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) ListByRoles(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if u.TenantID != tenantID {
			continue
		}
		if len(roles) == 0 {
			out = append(out, u)
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

type memEmployees struct {
	employees map[string]domain.Employee
}

func newMemEmployees(employees ...domain.Employee) *memEmployees {
	m := &memEmployees{employees: map[string]domain.Employee{}}
	for _, e := range employees {
		m.employees[e.ID] = e
	}
	return m
}

func (m *memEmployees) Create(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	m.employees[e.ID] = e
	return e, nil
}

func (m *memEmployees) Get(ctx context.Context, tenantID, id string) (domain.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.TenantID != tenantID {
		return domain.Employee{}, domain.NotFoundError{Resource: "employee"}
	}
	return e, nil
}

func (m *memEmployees) Update(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	m.employees[e.ID] = e
	return e, nil
}

func (m *memEmployees) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.employees, id)
	return nil
}

func (m *memEmployees) List(ctx context.Context, tenantID string, filter domain.EmployeeFilter) ([]domain.Employee, int64, error) {
	var out []domain.Employee
	for _, e := range m.employees {
		if e.TenantID == tenantID && strings.Contains(strings.ToLower(e.FullName()+" "+e.Email), strings.ToLower(filter.Query)) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memEmployees) ListActive(ctx context.Context, tenantID string) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, e := range m.employees {
		if e.TenantID == tenantID && e.Status == domain.EmployeeActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEmployees) CountActiveByClient(ctx context.Context, tenantID, clientID string) (int64, error) {
	var n int64
	for _, e := range m.employees {
		if e.TenantID == tenantID && e.Status == domain.EmployeeActive && e.ClientID != nil && *e.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

type memClients struct {
	clients map[string]domain.Client
	deleted []string
}

func newMemClients(clients ...domain.Client) *memClients {
	m := &memClients{clients: map[string]domain.Client{}}
	for _, c := range clients {
		m.clients[c.ID] = c
	}
	return m
}

func (m *memClients) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	m.clients[c.ID] = c
	return c, nil
}

func (m *memClients) Get(ctx context.Context, tenantID, id string) (domain.Client, error) {
	c, ok := m.clients[id]
	if !ok || c.TenantID != tenantID {
		return domain.Client{}, domain.NotFoundError{Resource: "client"}
	}
	return c, nil
}

func (m *memClients) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	m.clients[c.ID] = c
	return c, nil
}

func (m *memClients) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.clients, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memClients) List(ctx context.Context, tenantID string, filter domain.DirectoryFilter) ([]domain.Client, int64, error) {
	var out []domain.Client
	for _, c := range m.clients {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

type memTimesheets struct {
	mu     sync.Mutex
	sheets map[string]domain.Timesheet
	// employees resolves the client placement for ListBillable.
	employees *memEmployees
}

func newMemTimesheets(employees *memEmployees, sheets ...domain.Timesheet) *memTimesheets {
	m := &memTimesheets{sheets: map[string]domain.Timesheet{}, employees: employees}
	for _, ts := range sheets {
		m.sheets[ts.ID] = ts
	}
	return m
}

func (m *memTimesheets) Create(ctx context.Context, ts domain.Timesheet) (domain.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sheets {
		if existing.TenantID == ts.TenantID && existing.EmployeeID == ts.EmployeeID && existing.WeekStart.Equal(ts.WeekStart) {
			return domain.Timesheet{}, domain.ConflictError{Message: "timesheet already exists for this week"}
		}
	}
	m.sheets[ts.ID] = ts
	return ts, nil
}

func (m *memTimesheets) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.sheets[id]
	if !ok || ts.TenantID != tenantID {
		return domain.Timesheet{}, domain.NotFoundError{Resource: "timesheet"}
	}
	return ts, nil
}

func (m *memTimesheets) Update(ctx context.Context, ts domain.Timesheet, from domain.TimesheetStatus) (domain.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sheets[ts.ID]
	if !ok || current.TenantID != ts.TenantID {
		return domain.Timesheet{}, domain.NotFoundError{Resource: "timesheet"}
	}
	if current.Status != from {
		return domain.Timesheet{}, domain.ConflictError{Message: "timesheet status changed concurrently"}
	}
	m.sheets[ts.ID] = ts
	return ts, nil
}

func (m *memTimesheets) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sheets, id)
	return nil
}

func (m *memTimesheets) List(ctx context.Context, tenantID string, filter domain.TimesheetFilter) ([]domain.Timesheet, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Timesheet
	for _, ts := range m.sheets {
		if ts.TenantID == tenantID && (filter.Status == "" || ts.Status == filter.Status) {
			out = append(out, ts)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memTimesheets) ListBillable(ctx context.Context, tenantID, clientID string, from, to time.Time) ([]domain.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Timesheet
	for _, ts := range m.sheets {
		if ts.TenantID != tenantID || ts.Status != domain.TimesheetApproved || ts.InvoiceID != nil {
			continue
		}
		if ts.WeekStart.Before(from) || ts.WeekStart.After(to) {
			continue
		}
		client := ts.ClientID
		if client == nil {
			if e, ok := m.employees.employees[ts.EmployeeID]; ok {
				client = e.ClientID
			}
		}
		if client == nil || *client != clientID {
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out, nil
}

func (m *memTimesheets) ListSubmittedBefore(ctx context.Context, tenantID string, before time.Time) ([]domain.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Timesheet
	for _, ts := range m.sheets {
		if ts.TenantID == tenantID && ts.Status == domain.TimesheetSubmitted && ts.SubmittedAt != nil && ts.SubmittedAt.Before(before) {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (m *memTimesheets) EmployeesWithStatus(ctx context.Context, tenantID string, weekStart time.Time, statuses ...domain.TimesheetStatus) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ts := range m.sheets {
		if ts.TenantID != tenantID || !ts.WeekStart.Equal(weekStart) {
			continue
		}
		for _, s := range statuses {
			if ts.Status == s {
				out = append(out, ts.EmployeeID)
			}
		}
	}
	return out, nil
}

type memLeaves struct {
	leaves map[string]domain.LeaveRequest
}

func (m *memLeaves) Create(ctx context.Context, l domain.LeaveRequest) (domain.LeaveRequest, error) {
	m.leaves[l.ID] = l
	return l, nil
}

func (m *memLeaves) Get(ctx context.Context, tenantID, id string) (domain.LeaveRequest, error) {
	l, ok := m.leaves[id]
	if !ok || l.TenantID != tenantID {
		return domain.LeaveRequest{}, domain.NotFoundError{Resource: "leave request"}
	}
	return l, nil
}

func (m *memLeaves) Update(ctx context.Context, l domain.LeaveRequest, from domain.LeaveStatus) (domain.LeaveRequest, error) {
	current, ok := m.leaves[l.ID]
	if !ok || current.TenantID != l.TenantID {
		return domain.LeaveRequest{}, domain.NotFoundError{Resource: "leave request"}
	}
	if current.Status != from {
		return domain.LeaveRequest{}, domain.ConflictError{Message: "leave request status changed concurrently"}
	}
	m.leaves[l.ID] = l
	return l, nil
}

func (m *memLeaves) List(ctx context.Context, tenantID string, filter domain.LeaveFilter) ([]domain.LeaveRequest, int64, error) {
	var out []domain.LeaveRequest
	for _, l := range m.leaves {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

// memInvoices numbers invoices from memTenants and stamps memTimesheets the
// way the database transaction does.
type memInvoices struct {
	invoices   map[string]domain.Invoice
	tenants    *memTenants
	timesheets *memTimesheets
}

func (m *memInvoices) Create(ctx context.Context, inv domain.Invoice, timesheetIDs []string) (domain.Invoice, error) {
	tenant, err := m.tenants.Get(ctx, inv.TenantID)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv.Number = domain.InvoiceNumber(tenant.InvoicePrefix, inv.IssueDate.Year(), tenant.NextInvoiceSeq)
	tenant.NextInvoiceSeq++
	_, _ = m.tenants.Update(ctx, tenant)

	for _, id := range timesheetIDs {
		ts := m.timesheets.sheets[id]
		invoiceID := inv.ID
		ts.InvoiceID = &invoiceID
		m.timesheets.sheets[id] = ts
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memInvoices) Get(ctx context.Context, tenantID, id string) (domain.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return domain.Invoice{}, domain.NotFoundError{Resource: "invoice"}
	}
	return inv, nil
}

func (m *memInvoices) List(ctx context.Context, tenantID string, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memInvoices) UpdateStatus(ctx context.Context, inv domain.Invoice, from domain.InvoiceStatus) (domain.Invoice, error) {
	current, ok := m.invoices[inv.ID]
	if !ok {
		return domain.Invoice{}, domain.NotFoundError{Resource: "invoice"}
	}
	if current.Status != from {
		return domain.Invoice{}, domain.ConflictError{Message: "invoice status changed"}
	}
	if inv.Status == domain.InvoiceVoid {
		for id, ts := range m.timesheets.sheets {
			if ts.InvoiceID != nil && *ts.InvoiceID == inv.ID {
				ts.InvoiceID = nil
				m.timesheets.sheets[id] = ts
			}
		}
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memInvoices) ListSentPastDue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.Status == domain.InvoiceSent && inv.DueDate.Before(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

type memNotifications struct {
	mu    sync.Mutex
	items []domain.Notification
	fail  error
}

func (m *memNotifications) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return domain.Notification{}, m.fail
	}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memNotifications) List(ctx context.Context, tenantID, userID string, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.items {
		if n.TenantID == tenantID && n.UserID == userID && (!filter.UnreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memNotifications) UnreadCount(ctx context.Context, tenantID, userID string) (int64, error) {
	items, _, _ := m.List(ctx, tenantID, userID, domain.NotificationFilter{UnreadOnly: true})
	return int64(len(items)), nil
}

func (m *memNotifications) MarkRead(ctx context.Context, tenantID, userID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.items {
		if n.ID == id && n.TenantID == tenantID && n.UserID == userID {
			m.items[i].ReadAt = &at
			return nil
		}
	}
	return domain.NotFoundError{Resource: "notification"}
}

func (m *memNotifications) MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, item := range m.items {
		if item.TenantID == tenantID && item.UserID == userID && item.ReadAt == nil {
			m.items[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

// --- services ---

// fakeAccess allows the roles in allow and records the subjects it saw.
type fakeAccess struct {
	allow    map[domain.Role]bool
	subjects []map[string]any
}

func allowRoles(roles ...domain.Role) *fakeAccess {
	a := &fakeAccess{allow: map[domain.Role]bool{}}
	for _, r := range roles {
		a.allow[r] = true
	}
	return a
}

func (a *fakeAccess) Authorize(ctx context.Context, requester domain.Requester, action string, subject map[string]any) error {
	a.subjects = append(a.subjects, subject)
	if !a.allow[requester.Role] {
		return domain.ForbiddenError{Action: action}
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (f *fakeMailer) Send(ctx context.Context, email domain.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return nil
}

type memDedup struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (d *memDedup) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = map[string]bool{}
	}
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

type fakePublisher struct {
	channels []string
	events   []timepulse.Event
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, event timepulse.Event) error {
	f.channels = append(f.channels, channel)
	f.events = append(f.events, event)
	return f.err
}

type fakeWebhook struct {
	mu   sync.Mutex
	urls []string
	// block holds Post until closed when set.
	block chan struct{}
}

func (f *fakeWebhook) Post(ctx context.Context, url string, payload any) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return nil
}

func (f *fakeWebhook) posted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type memCache struct {
	items map[string][]byte
	gets  int
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.gets++
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.items[key] = value
	return nil
}

// --- helpers ---

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

func date(s string) time.Time {
	t, err := timepulse.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
