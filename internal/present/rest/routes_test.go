package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/config"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
	"github.com/totegamma/timepulse/internal/service"
	"github.com/totegamma/timepulse/internal/usecase"
)

// --- workflow mocks ---

type mockEmployeeRepo struct {
	employees map[string]domain.Employee
}

func (m *mockEmployeeRepo) Create(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	m.employees[e.ID] = e
	return e, nil
}
func (m *mockEmployeeRepo) Get(ctx context.Context, tenantID, id string) (domain.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.TenantID != tenantID {
		return domain.Employee{}, domain.NotFoundError{Resource: "employee"}
	}
	return e, nil
}
func (m *mockEmployeeRepo) Update(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	m.employees[e.ID] = e
	return e, nil
}
func (m *mockEmployeeRepo) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.employees, id)
	return nil
}
func (m *mockEmployeeRepo) List(ctx context.Context, tenantID string, filter domain.EmployeeFilter) ([]domain.Employee, int64, error) {
	return nil, 0, nil
}
func (m *mockEmployeeRepo) ListActive(ctx context.Context, tenantID string) ([]domain.Employee, error) {
	return nil, nil
}
func (m *mockEmployeeRepo) CountActiveByClient(ctx context.Context, tenantID, clientID string) (int64, error) {
	return 0, nil
}

type mockTimesheetRepo struct {
	sheets map[string]domain.Timesheet
}

func (m *mockTimesheetRepo) Create(ctx context.Context, ts domain.Timesheet) (domain.Timesheet, error) {
	m.sheets[ts.ID] = ts
	return ts, nil
}
func (m *mockTimesheetRepo) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	ts, ok := m.sheets[id]
	if !ok || ts.TenantID != tenantID {
		return domain.Timesheet{}, domain.NotFoundError{Resource: "timesheet"}
	}
	return ts, nil
}
func (m *mockTimesheetRepo) Update(ctx context.Context, ts domain.Timesheet, from domain.TimesheetStatus) (domain.Timesheet, error) {
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
func (m *mockTimesheetRepo) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.sheets, id)
	return nil
}
func (m *mockTimesheetRepo) List(ctx context.Context, tenantID string, filter domain.TimesheetFilter) ([]domain.Timesheet, int64, error) {
	var out []domain.Timesheet
	for _, ts := range m.sheets {
		if ts.TenantID == tenantID && (filter.Status == "" || ts.Status == filter.Status) {
			out = append(out, ts)
		}
	}
	return out, int64(len(out)), nil
}
func (m *mockTimesheetRepo) ListBillable(ctx context.Context, tenantID, clientID string, from, to time.Time) ([]domain.Timesheet, error) {
	var out []domain.Timesheet
	for _, ts := range m.sheets {
		if ts.TenantID != tenantID || ts.Status != domain.TimesheetApproved || ts.InvoiceID != nil {
			continue
		}
		if ts.ClientID == nil || *ts.ClientID != clientID {
			continue
		}
		if ts.WeekStart.Before(from) || ts.WeekStart.After(to) {
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (m *mockTimesheetRepo) ListSubmittedBefore(ctx context.Context, tenantID string, before time.Time) ([]domain.Timesheet, error) {
	return nil, nil
}
func (m *mockTimesheetRepo) EmployeesWithStatus(ctx context.Context, tenantID string, weekStart time.Time, statuses ...domain.TimesheetStatus) ([]string, error) {
	return nil, nil
}

type mockLeaveRepo struct {
	leaves map[string]domain.LeaveRequest
}

func (m *mockLeaveRepo) Create(ctx context.Context, l domain.LeaveRequest) (domain.LeaveRequest, error) {
	m.leaves[l.ID] = l
	return l, nil
}
func (m *mockLeaveRepo) Get(ctx context.Context, tenantID, id string) (domain.LeaveRequest, error) {
	l, ok := m.leaves[id]
	if !ok || l.TenantID != tenantID {
		return domain.LeaveRequest{}, domain.NotFoundError{Resource: "leave request"}
	}
	return l, nil
}
func (m *mockLeaveRepo) Update(ctx context.Context, l domain.LeaveRequest, from domain.LeaveStatus) (domain.LeaveRequest, error) {
	if m.leaves[l.ID].Status != from {
		return domain.LeaveRequest{}, domain.ConflictError{Message: "leave request status changed concurrently"}
	}
	m.leaves[l.ID] = l
	return l, nil
}
func (m *mockLeaveRepo) List(ctx context.Context, tenantID string, filter domain.LeaveFilter) ([]domain.LeaveRequest, int64, error) {
	var out []domain.LeaveRequest
	for _, l := range m.leaves {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

type mockInvoiceRepo struct {
	invoices   map[string]domain.Invoice
	timesheets *mockTimesheetRepo
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv domain.Invoice, timesheetIDs []string) (domain.Invoice, error) {
	inv.Number = "INV-0001"
	m.invoices[inv.ID] = inv
	for _, id := range timesheetIDs {
		ts := m.timesheets.sheets[id]
		ts.InvoiceID = &inv.ID
		m.timesheets.sheets[id] = ts
	}
	return inv, nil
}
func (m *mockInvoiceRepo) Get(ctx context.Context, tenantID, id string) (domain.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return domain.Invoice{}, domain.NotFoundError{Resource: "invoice"}
	}
	return inv, nil
}
func (m *mockInvoiceRepo) List(ctx context.Context, tenantID string, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}
func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, inv domain.Invoice, from domain.InvoiceStatus) (domain.Invoice, error) {
	if m.invoices[inv.ID].Status != from {
		return domain.Invoice{}, domain.ConflictError{Message: "invoice status changed concurrently"}
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}
func (m *mockInvoiceRepo) ListSentPastDue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error) {
	return nil, nil
}

type mockNotificationRepo struct {
	items []domain.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	m.items = append(m.items, n)
	return n, nil
}
func (m *mockNotificationRepo) List(ctx context.Context, tenantID, userID string, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	for _, n := range m.items {
		if n.TenantID == tenantID && n.UserID == userID && (!filter.UnreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}
func (m *mockNotificationRepo) UnreadCount(ctx context.Context, tenantID, userID string) (int64, error) {
	items, _, _ := m.List(ctx, tenantID, userID, domain.NotificationFilter{UnreadOnly: true})
	return int64(len(items)), nil
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, tenantID, userID, id string, at time.Time) error {
	for i, n := range m.items {
		if n.ID == id && n.TenantID == tenantID && n.UserID == userID {
			m.items[i].ReadAt = &at
			return nil
		}
	}
	return domain.NotFoundError{Resource: "notification"}
}
func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error) {
	var updated int64
	for i, n := range m.items {
		if n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			m.items[i].ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

type workflow struct {
	e             *echo.Echo
	timesheets    *mockTimesheetRepo
	leaves        *mockLeaveRepo
	invoices      *mockInvoiceRepo
	notifications *mockNotificationRepo
}

func newWorkflowServer(t *testing.T, maxUploadBytes int) *workflow {
	t.Helper()

	tenants := &mockTenantRepo{tenants: map[string]domain.Tenant{
		"t1": {ID: "t1", Name: "Acme", Slug: "acme", Currency: "USD", PaymentTermsDays: 30},
	}}
	users := &mockUserRepo{}
	clientID := "c1"
	clients := &mockClientRepo{clients: []domain.Client{{ID: clientID, TenantID: "t1", Name: "Initech"}}}
	employees := &mockEmployeeRepo{employees: map[string]domain.Employee{
		"e1": {
			ID: "e1", TenantID: "t1", FirstName: "Ada", LastName: "Lovelace",
			Status: domain.EmployeeActive, ClientID: &clientID, BillRate: decimal.NewFromInt(100),
		},
	}}
	w := &workflow{
		timesheets:    &mockTimesheetRepo{sheets: map[string]domain.Timesheet{}},
		leaves:        &mockLeaveRepo{leaves: map[string]domain.LeaveRequest{}},
		notifications: &mockNotificationRepo{},
	}
	w.invoices = &mockInvoiceRepo{invoices: map[string]domain.Invoice{}, timesheets: w.timesheets}
	now := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	var cfg config.Config
	cfg.ApplyDefaults()
	if maxUploadBytes > 0 {
		cfg.Extract.MaxUploadBytes = maxUploadBytes
	}

	access := service.NewAccessService(tenants, users)
	notifier := usecase.NewNotificationUsecase(w.notifications, tenants, nil, nil, nil, now)
	timesheet := usecase.NewTimesheetUsecase(w.timesheets, employees, clients, users, access, notifier, nil, now)

	h := NewHandler(cfg, Usecases{
		Tenant:       usecase.NewTenantUsecase(tenants, users, nopPolicyCache{}, now),
		Client:       usecase.NewClientUsecase(clients, employees, now),
		Timesheet:    timesheet,
		Extraction:   usecase.NewExtractionUsecase(extract.NewExtractor(nil, 0, nil), timesheet),
		Leave:        usecase.NewLeaveUsecase(w.leaves, employees, users, access, notifier, nil, now),
		Invoice:      usecase.NewInvoiceUsecase(w.invoices, tenants, clients, employees, w.timesheets, access, now),
		Notification: notifier,
	})

	w.e = echo.New()
	h.RegisterRoutes(w.e)
	return w
}

func as(role, userID string) map[string]string {
	return map[string]string{
		domain.TenantIDHeader:      "t1",
		domain.RequesterIDHeader:   userID,
		domain.RequesterRoleHeader: role,
	}
}

func upload(t *testing.T, e *echo.Echo, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheets/extract", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	for k, v := range as("manager", "u-manager") {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- timesheets ---

func TestTimesheetRoutes(t *testing.T) {
	w := newWorkflowServer(t, 0)
	employee := as("employee", "u-employee")
	manager := as("manager", "u-manager")

	rec := do(w.e, http.MethodPost, "/api/v1/timesheets", map[string]any{
		"employeeId": "e1",
		"weekStart":  "2024-03-13",
		"dailyHours": []float64{8, 8, 8, 8, 8, 0, 0},
	}, employee)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ts := decode[domain.Timesheet](t, rec)
	assert.Equal(t, domain.TimesheetDraft, ts.Status)
	assert.Equal(t, 40.0, ts.TotalHours)
	assert.Equal(t, "2024-03-11", ts.WeekStart.Format(timepulse.DateLayout))
	require.NotNil(t, ts.ClientID)
	assert.Equal(t, "c1", *ts.ClientID)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/approve", nil, manager)
	assert.Equal(t, http.StatusConflict, rec.Code, "draft cannot be approved")

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/submit", nil, employee)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.TimesheetSubmitted, decode[domain.Timesheet](t, rec).Status)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/submit", nil, employee)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/approve", nil, employee)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/reject", map[string]any{"reason": " "}, manager)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"reason"`)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/reject", map[string]any{"reason": "missing friday"}, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rejected := decode[domain.Timesheet](t, rec)
	assert.Equal(t, domain.TimesheetRejected, rejected.Status)
	assert.Equal(t, "missing friday", rejected.RejectionReason)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/submit", nil, employee)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(w.e, http.MethodPost, "/api/v1/timesheets/"+ts.ID+"/approve", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[domain.Timesheet](t, rec)
	assert.Equal(t, domain.TimesheetApproved, approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, "u-manager", *approved.ReviewerID)

	rec = do(w.e, http.MethodPut, "/api/v1/timesheets/"+ts.ID, map[string]any{"notes": "late edit"}, employee)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(w.e, http.MethodDelete, "/api/v1/timesheets/"+ts.ID, nil, employee)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(w.e, http.MethodGet, "/api/v1/timesheets?status=approved", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[struct{ Total int64 }](t, rec).Total)
}

func TestTimesheetRouteValidation(t *testing.T) {
	w := newWorkflowServer(t, 0)
	employee := as("employee", "u-employee")

	rec := do(w.e, http.MethodPost, "/api/v1/timesheets", map[string]any{
		"employeeId": "e1",
		"weekStart":  "11/03/2024",
	}, employee)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"weekStart"`)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets", map[string]any{
		"employeeId": "e1",
		"weekStart":  "2024-03-11",
		"dailyHours": []float64{25, 0, 0, 0, 0, 0, 0},
	}, employee)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/timesheets", map[string]any{
		"employeeId": "e1",
		"clientId":   "c-other-tenant",
		"weekStart":  "2024-03-11",
	}, employee)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(w.e, http.MethodGet, "/api/v1/timesheets/missing", nil, employee)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- extraction ---

var weekText = []byte("Employee: Ada Lovelace\nMon 8 Tue 8 Wed 8 Thu 8 Fri 8\nTotal 40\n")

func TestExtractRoutePreview(t *testing.T) {
	w := newWorkflowServer(t, 0)

	rec := upload(t, w.e, "week.txt", weekText, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	outcome := decode[usecase.ExtractionOutcome](t, rec)
	assert.Nil(t, outcome.Timesheet)
	assert.True(t, outcome.Result.Valid)
	assert.Equal(t, extract.StrategyText, outcome.Result.Strategy)
	assert.Equal(t, timepulse.DailyHours{8, 8, 8, 8, 8, 0, 0}, outcome.Result.DailyHours)
	assert.Empty(t, w.timesheets.sheets)
}

func TestExtractRouteCreatesDraft(t *testing.T) {
	w := newWorkflowServer(t, 0)

	rec := upload(t, w.e, "week.txt", weekText, map[string]string{"employeeId": "e1", "weekStart": "2024-03-11"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	outcome := decode[usecase.ExtractionOutcome](t, rec)
	require.NotNil(t, outcome.Timesheet)
	assert.Equal(t, domain.SourceUpload, outcome.Timesheet.Source)
	assert.Equal(t, domain.TimesheetDraft, outcome.Timesheet.Status)
	assert.Equal(t, 40.0, outcome.Timesheet.TotalHours)
	assert.Contains(t, w.timesheets.sheets, outcome.Timesheet.ID)
}

func TestExtractRouteRejectsBadUploads(t *testing.T) {
	w := newWorkflowServer(t, 0)

	rec := upload(t, w.e, "", nil, map[string]string{"employeeId": "e1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")

	rec = upload(t, w.e, "week.exe", []byte("MZ"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"file"`)

	rec = upload(t, w.e, "week.txt", weekText, map[string]string{"employeeId": "e1", "weekStart": "March 11"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"weekStart"`)
}

func TestExtractRouteTooLarge(t *testing.T) {
	w := newWorkflowServer(t, 16)

	rec := upload(t, w.e, "week.txt", weekText, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"exceeds the 16 byte limit","field":"file"}`, rec.Body.String())
}

// --- leave ---

func TestLeaveRoutes(t *testing.T) {
	w := newWorkflowServer(t, 0)
	employee := as("employee", "u-employee")
	manager := as("manager", "u-manager")

	rec := do(w.e, http.MethodPost, "/api/v1/leave-requests", map[string]any{
		"employeeId": "e1",
		"kind":       "vacation",
		"startDate":  "2024-03-18",
		"endDate":    "2024-03-24",
	}, employee)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	leave := decode[domain.LeaveRequest](t, rec)
	assert.Equal(t, domain.LeavePending, leave.Status)
	assert.Equal(t, 40.0, leave.Hours)

	rec = do(w.e, http.MethodPost, "/api/v1/leave-requests", map[string]any{
		"employeeId": "e1",
		"kind":       "sabbatical",
		"startDate":  "2024-03-18",
		"endDate":    "2024-03-18",
	}, employee)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"kind"`)

	rec = do(w.e, http.MethodPost, "/api/v1/leave-requests/"+leave.ID+"/approve", nil, employee)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/leave-requests/"+leave.ID+"/reject", map[string]any{}, manager)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/leave-requests/"+leave.ID+"/approve", map[string]any{"note": "enjoy"}, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[domain.LeaveRequest](t, rec)
	assert.Equal(t, domain.LeaveApproved, approved.Status)
	assert.Equal(t, "enjoy", approved.ReviewNote)

	rec = do(w.e, http.MethodPost, "/api/v1/leave-requests/"+leave.ID+"/reject", map[string]any{"note": "changed my mind"}, manager)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(w.e, http.MethodGet, "/api/v1/leave-requests", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[struct{ Total int64 }](t, rec).Total)
}

// --- invoices ---

func TestInvoiceRoutes(t *testing.T) {
	w := newWorkflowServer(t, 0)
	employee := as("employee", "u-employee")
	manager := as("manager", "u-manager")

	clientID := "c1"
	w.timesheets.sheets["ts-1"] = domain.Timesheet{
		ID: "ts-1", TenantID: "t1", EmployeeID: "e1", ClientID: &clientID,
		WeekStart:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		DailyHours: timepulse.DailyHours{8, 8, 8, 8, 8, 0, 0},
		TotalHours: 40,
		Status:     domain.TimesheetApproved,
	}
	period := map[string]any{"clientId": "c1", "periodStart": "2024-03-01", "periodEnd": "2024-03-31"}

	rec := do(w.e, http.MethodPost, "/api/v1/invoices/generate", period, employee)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/generate", map[string]any{
		"clientId": "c1", "periodStart": "2024-03-31", "periodEnd": "2024-03-01",
	}, manager)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"periodEnd"`)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/generate", period, manager)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invoice := decode[domain.Invoice](t, rec)
	assert.Equal(t, domain.InvoiceDraft, invoice.Status)
	assert.Equal(t, "INV-0001", invoice.Number)
	require.Len(t, invoice.Lines, 1)
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(4000)), invoice.Total.String())
	assert.Equal(t, "2024-04-14", invoice.DueDate.Format(timepulse.DateLayout))
	require.NotNil(t, w.timesheets.sheets["ts-1"].InvoiceID)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/generate", period, manager)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "timesheets are already invoiced")

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/pay", nil, manager)
	assert.Equal(t, http.StatusConflict, rec.Code, "a draft is sent before it is paid")

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/send", nil, employee)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/send", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := decode[domain.Invoice](t, rec)
	assert.Equal(t, domain.InvoiceSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/pay", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.InvoicePaid, decode[domain.Invoice](t, rec).Status)

	rec = do(w.e, http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/void", nil, manager)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "paid")

	rec = do(w.e, http.MethodGet, "/api/v1/invoices/"+invoice.ID, nil, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.InvoicePaid, decode[domain.Invoice](t, rec).Status)

	rec = do(w.e, http.MethodGet, "/api/v1/invoices/missing", nil, manager)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(w.e, http.MethodGet, "/api/v1/invoices", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[struct{ Total int64 }](t, rec).Total)
}

// --- notifications ---

func TestNotificationRoutes(t *testing.T) {
	w := newWorkflowServer(t, 0)
	me := as("employee", "u-1")

	w.notifications.items = []domain.Notification{
		{ID: "n1", TenantID: "t1", UserID: "u-1", Kind: domain.NotifyTimesheetApproved, Title: "Approved"},
		{ID: "n2", TenantID: "t1", UserID: "u-1", Kind: domain.NotifyTimesheetRejected, Title: "Rejected"},
		{ID: "n3", TenantID: "t1", UserID: "u-2", Kind: domain.NotifyTimesheetApproved, Title: "Approved"},
	}

	rec := do(w.e, http.MethodGet, "/api/v1/notifications", nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[struct{ Total int64 }](t, rec).Total)

	rec = do(w.e, http.MethodGet, "/api/v1/notifications/unread-count", nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())

	rec = do(w.e, http.MethodPost, "/api/v1/notifications/n1/read", nil, me)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(w.e, http.MethodPost, "/api/v1/notifications/n3/read", nil, me)
	assert.Equal(t, http.StatusNotFound, rec.Code, "someone else's notification")

	rec = do(w.e, http.MethodGet, "/api/v1/notifications?unread=true", nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[struct{ Total int64 }](t, rec).Total)

	rec = do(w.e, http.MethodPost, "/api/v1/notifications/read-all", nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	anonymous := map[string]string{domain.TenantIDHeader: "t1"}
	rec = do(w.e, http.MethodPost, "/api/v1/notifications/read-all", nil, anonymous)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
