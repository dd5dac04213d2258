package rest

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/config"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/present/rest/middleware"
	"github.com/totegamma/timepulse/internal/present/rest/presenter"
	"github.com/totegamma/timepulse/internal/usecase"
)

const defaultDashboardWeeks = 12

type Usecases struct {
	Tenant       *usecase.TenantUsecase
	Employee     *usecase.EmployeeUsecase
	Client       *usecase.ClientUsecase
	Vendor       *usecase.VendorUsecase
	Timesheet    *usecase.TimesheetUsecase
	Extraction   *usecase.ExtractionUsecase
	Leave        *usecase.LeaveUsecase
	Invoice      *usecase.InvoiceUsecase
	Notification *usecase.NotificationUsecase
	Dashboard    *usecase.DashboardUsecase
}

type Handler struct {
	config config.Config
	uc     Usecases
	now    func() time.Time
}

func NewHandler(config config.Config, uc Usecases) *Handler {
	return &Handler{
		config: config,
		uc:     uc,
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealthz)
	e.GET("/.well-known/timepulse", h.handleWellKnown)

	api := e.Group("/api/v1", middleware.IdentifyRequester)
	api.POST("/tenants", h.handleCreateTenant)

	t := api.Group("", middleware.RequireTenant)
	t.GET("/tenant", h.handleGetTenant)
	t.PUT("/tenant", h.handleUpdateTenant)
	t.POST("/users", h.handleCreateUser)
	t.GET("/users", h.handleListUsers)

	t.POST("/employees", h.handleCreateEmployee)
	t.GET("/employees", h.handleListEmployees)
	t.GET("/employees/:id", h.handleGetEmployee)
	t.PUT("/employees/:id", h.handleUpdateEmployee)
	t.DELETE("/employees/:id", h.handleDeleteEmployee)

	t.POST("/clients", h.handleCreateClient)
	t.GET("/clients", h.handleListClients)
	t.GET("/clients/:id", h.handleGetClient)
	t.PUT("/clients/:id", h.handleUpdateClient)
	t.DELETE("/clients/:id", h.handleDeleteClient)

	t.POST("/vendors", h.handleCreateVendor)
	t.GET("/vendors", h.handleListVendors)
	t.GET("/vendors/:id", h.handleGetVendor)
	t.PUT("/vendors/:id", h.handleUpdateVendor)
	t.DELETE("/vendors/:id", h.handleDeleteVendor)

	t.POST("/timesheets", h.handleCreateTimesheet)
	t.GET("/timesheets", h.handleListTimesheets)
	t.POST("/timesheets/extract", h.handleExtractTimesheet)
	t.GET("/timesheets/:id", h.handleGetTimesheet)
	t.PUT("/timesheets/:id", h.handleUpdateTimesheet)
	t.DELETE("/timesheets/:id", h.handleDeleteTimesheet)
	t.POST("/timesheets/:id/submit", h.handleSubmitTimesheet)
	t.POST("/timesheets/:id/approve", h.handleApproveTimesheet)
	t.POST("/timesheets/:id/reject", h.handleRejectTimesheet)

	t.POST("/leave-requests", h.handleCreateLeave)
	t.GET("/leave-requests", h.handleListLeave)
	t.POST("/leave-requests/:id/approve", h.handleApproveLeave)
	t.POST("/leave-requests/:id/reject", h.handleRejectLeave)

	t.POST("/invoices/generate", h.handleGenerateInvoice)
	t.GET("/invoices", h.handleListInvoices)
	t.GET("/invoices/:id", h.handleGetInvoice)
	t.POST("/invoices/:id/send", h.handleSendInvoice)
	t.POST("/invoices/:id/pay", h.handlePayInvoice)
	t.POST("/invoices/:id/void", h.handleVoidInvoice)

	t.GET("/notifications", h.handleListNotifications)
	t.GET("/notifications/unread-count", h.handleUnreadCount)
	t.POST("/notifications/read-all", h.handleMarkAllRead)
	t.POST("/notifications/:id/read", h.handleMarkRead)

	t.GET("/dashboard/summary", h.handleDashboardSummary)
	t.GET("/dashboard/employees/:id", h.handleEmployeeDashboard)
}

func (h *Handler) handleHealthz(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	info := timepulse.ServiceInfo{
		Name:    "timepulse",
		Version: timepulse.Version,
		Endpoints: map[string]timepulse.Endpoint{
			"timesheets.list": {
				Template: "/api/v1/timesheets",
				Method:   "GET",
				Query:    &[]string{"employeeId", "clientId", "status", "from", "to", "limit", "offset"},
			},
			"timesheets.extract": {
				Template: "/api/v1/timesheets/extract",
				Method:   "POST",
			},
			"invoices.generate": {
				Template: "/api/v1/invoices/generate",
				Method:   "POST",
			},
			"notifications.list": {
				Template: "/api/v1/notifications",
				Method:   "GET",
				Query:    &[]string{"unread", "limit", "offset"},
			},
			"dashboard.summary": {
				Template: "/api/v1/dashboard/summary",
				Method:   "GET",
				Query:    &[]string{"from", "to"},
			},
		},
	}
	return presenter.OK(c, info)
}

// --- query helpers ---

func pageParam(c echo.Context) (domain.Page, error) {
	var page domain.Page
	if s := c.QueryParam("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return page, domain.ValidationError{Field: "limit", Message: "must be an integer"}
		}
		page.Limit = limit
	}
	if s := c.QueryParam("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			return page, domain.ValidationError{Field: "offset", Message: "must be an integer"}
		}
		page.Offset = offset
	}
	return page.Normalize(), nil
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	t, err := timepulse.ParseDate(s)
	if err != nil {
		return nil, domain.ValidationError{Field: name, Message: err.Error()}
	}
	return &t, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := timepulse.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: field, Message: err.Error()}
	}
	return t, nil
}

// --- tenant & users ---

type createTenantRequest struct {
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Timezone         string           `json:"timezone"`
	Currency         string           `json:"currency"`
	TaxRate          *decimal.Decimal `json:"taxRate"`
	InvoicePrefix    string           `json:"invoicePrefix"`
	PaymentTermsDays int              `json:"paymentTermsDays"`
	ReminderEnabled  bool             `json:"reminderEnabled"`
	WebhookURL       string           `json:"webhookUrl"`
}

func (h *Handler) handleCreateTenant(c echo.Context) error {
	ctx := c.Request().Context()

	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	tenant := domain.Tenant{
		Name:             req.Name,
		Slug:             req.Slug,
		Timezone:         req.Timezone,
		Currency:         req.Currency,
		InvoicePrefix:    req.InvoicePrefix,
		PaymentTermsDays: req.PaymentTermsDays,
		ReminderEnabled:  req.ReminderEnabled,
		WebhookURL:       req.WebhookURL,
	}
	if req.TaxRate != nil {
		tenant.TaxRate = *req.TaxRate
	}

	created, err := h.uc.Tenant.Create(ctx, tenant)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleGetTenant(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	tenant, err := h.uc.Tenant.Get(ctx, requester.TenantID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, tenant)
}

func (h *Handler) handleUpdateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var settings domain.TenantSettings
	if err := c.Bind(&settings); err != nil {
		return presenter.BadRequest(c, err)
	}

	tenant, err := h.uc.Tenant.UpdateSettings(ctx, requester, settings)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, tenant)
}

func (h *Handler) handleCreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	if requester.Role != domain.RoleAdmin {
		return presenter.Error(c, domain.ForbiddenError{Action: "user.create"})
	}

	var user domain.User
	if err := c.Bind(&user); err != nil {
		return presenter.BadRequest(c, err)
	}
	user.TenantID = requester.TenantID

	created, err := h.uc.Tenant.CreateUser(ctx, user)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var roles []domain.Role
	if s := c.QueryParam("role"); s != "" {
		for _, r := range strings.Split(s, ",") {
			roles = append(roles, domain.Role(strings.TrimSpace(r)))
		}
	}

	users, err := h.uc.Tenant.ListUsers(ctx, requester.TenantID, roles...)
	if err != nil {
		return presenter.Error(c, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return presenter.OK(c, users)
}

// --- directory ---

func (h *Handler) handleCreateEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var employee domain.Employee
	if err := c.Bind(&employee); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.uc.Employee.Create(ctx, requester.TenantID, employee)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListEmployees(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	filter := domain.EmployeeFilter{
		Query:    c.QueryParam("q"),
		Status:   domain.EmployeeStatus(c.QueryParam("status")),
		ClientID: c.QueryParam("clientId"),
		Page:     page,
	}

	items, total, err := h.uc.Employee.List(ctx, requester.TenantID, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleGetEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	employee, err := h.uc.Employee.Get(ctx, requester.TenantID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, employee)
}

func (h *Handler) handleUpdateEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var employee domain.Employee
	if err := c.Bind(&employee); err != nil {
		return presenter.BadRequest(c, err)
	}
	employee.ID = c.Param("id")

	updated, err := h.uc.Employee.Update(ctx, requester.TenantID, employee)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	if err := h.uc.Employee.Delete(ctx, requester.TenantID, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleCreateClient(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var client domain.Client
	if err := c.Bind(&client); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.uc.Client.Create(ctx, requester.TenantID, client)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListClients(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	items, total, err := h.uc.Client.List(ctx, requester.TenantID, domain.DirectoryFilter{Query: c.QueryParam("q"), Page: page})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleGetClient(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	client, err := h.uc.Client.Get(ctx, requester.TenantID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, client)
}

func (h *Handler) handleUpdateClient(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var client domain.Client
	if err := c.Bind(&client); err != nil {
		return presenter.BadRequest(c, err)
	}
	client.ID = c.Param("id")

	updated, err := h.uc.Client.Update(ctx, requester.TenantID, client)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteClient(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	if err := h.uc.Client.Delete(ctx, requester.TenantID, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleCreateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var vendor domain.Vendor
	if err := c.Bind(&vendor); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.uc.Vendor.Create(ctx, requester.TenantID, vendor)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListVendors(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	items, total, err := h.uc.Vendor.List(ctx, requester.TenantID, domain.DirectoryFilter{Query: c.QueryParam("q"), Page: page})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleGetVendor(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	vendor, err := h.uc.Vendor.Get(ctx, requester.TenantID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, vendor)
}

func (h *Handler) handleUpdateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var vendor domain.Vendor
	if err := c.Bind(&vendor); err != nil {
		return presenter.BadRequest(c, err)
	}
	vendor.ID = c.Param("id")

	updated, err := h.uc.Vendor.Update(ctx, requester.TenantID, vendor)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteVendor(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	if err := h.uc.Vendor.Delete(ctx, requester.TenantID, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

// --- timesheets ---

type timesheetRequest struct {
	EmployeeID string               `json:"employeeId"`
	ClientID   *string              `json:"clientId,omitempty"`
	WeekStart  string               `json:"weekStart"`
	DailyHours timepulse.DailyHours `json:"dailyHours"`
	Notes      string               `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (h *Handler) handleCreateTimesheet(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var req timesheetRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	weekStart, err := parseDate("weekStart", req.WeekStart)
	if err != nil {
		return presenter.Error(c, err)
	}

	created, err := h.uc.Timesheet.Create(ctx, requester.TenantID, usecase.TimesheetInput{
		EmployeeID: req.EmployeeID,
		ClientID:   req.ClientID,
		WeekStart:  weekStart,
		DailyHours: req.DailyHours,
		Notes:      req.Notes,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListTimesheets(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	from, err := dateParam(c, "from")
	if err != nil {
		return presenter.Error(c, err)
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return presenter.Error(c, err)
	}

	filter := domain.TimesheetFilter{
		EmployeeID: c.QueryParam("employeeId"),
		ClientID:   c.QueryParam("clientId"),
		Status:     domain.TimesheetStatus(c.QueryParam("status")),
		From:       from,
		To:         to,
		Page:       page,
	}

	items, total, err := h.uc.Timesheet.List(ctx, requester.TenantID, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleGetTimesheet(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	ts, err := h.uc.Timesheet.Get(ctx, requester.TenantID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ts)
}

func (h *Handler) handleUpdateTimesheet(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var update usecase.TimesheetUpdate
	if err := c.Bind(&update); err != nil {
		return presenter.BadRequest(c, err)
	}

	ts, err := h.uc.Timesheet.Update(ctx, requester.TenantID, c.Param("id"), update)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ts)
}

func (h *Handler) handleDeleteTimesheet(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	if err := h.uc.Timesheet.Delete(ctx, requester.TenantID, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleSubmitTimesheet(c echo.Context) error {
	ctx := c.Request().Context()

	ts, err := h.uc.Timesheet.Submit(ctx, middleware.Requester(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ts)
}

func (h *Handler) handleApproveTimesheet(c echo.Context) error {
	ctx := c.Request().Context()

	ts, err := h.uc.Timesheet.Approve(ctx, middleware.Requester(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ts)
}

func (h *Handler) handleRejectTimesheet(c echo.Context) error {
	ctx := c.Request().Context()

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	ts, err := h.uc.Timesheet.Reject(ctx, middleware.Requester(ctx), c.Param("id"), req.Reason)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ts)
}

// handleExtractTimesheet previews the hours found in an uploaded file. With
// employeeId and weekStart form values it also stores them as a draft.
func (h *Handler) handleExtractTimesheet(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	fh, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "file is required")
	}
	if fh.Size > int64(h.config.Extract.MaxUploadBytes) {
		return presenter.TooLarge(c, "file", h.config.Extract.MaxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(h.config.Extract.MaxUploadBytes)+1))
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(data) > h.config.Extract.MaxUploadBytes {
		return presenter.TooLarge(c, "file", h.config.Extract.MaxUploadBytes)
	}

	input := usecase.ExtractionInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		EmployeeID:  c.FormValue("employeeId"),
	}
	if s := c.FormValue("weekStart"); s != "" {
		weekStart, err := parseDate("weekStart", s)
		if err != nil {
			return presenter.Error(c, err)
		}
		input.WeekStart = &weekStart
	}

	outcome, err := h.uc.Extraction.Extract(ctx, requester.TenantID, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	if outcome.Timesheet != nil {
		return presenter.Created(c, outcome)
	}
	return presenter.OK(c, outcome)
}

// --- leave ---

type leaveRequest struct {
	EmployeeID string           `json:"employeeId"`
	Kind       domain.LeaveKind `json:"kind"`
	StartDate  string           `json:"startDate"`
	EndDate    string           `json:"endDate"`
	Hours      float64          `json:"hours"`
	Reason     string           `json:"reason"`
}

func (h *Handler) handleCreateLeave(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	var req leaveRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return presenter.Error(c, err)
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return presenter.Error(c, err)
	}

	created, err := h.uc.Leave.Create(ctx, requester.TenantID, domain.LeaveRequest{
		EmployeeID: req.EmployeeID,
		Kind:       req.Kind,
		StartDate:  start,
		EndDate:    end,
		Hours:      req.Hours,
		Reason:     req.Reason,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListLeave(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	filter := domain.LeaveFilter{
		EmployeeID: c.QueryParam("employeeId"),
		Status:     domain.LeaveStatus(c.QueryParam("status")),
		Page:       page,
	}

	items, total, err := h.uc.Leave.List(ctx, requester.TenantID, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleApproveLeave(c echo.Context) error {
	ctx := c.Request().Context()

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	leave, err := h.uc.Leave.Approve(ctx, middleware.Requester(ctx), c.Param("id"), req.Note)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, leave)
}

func (h *Handler) handleRejectLeave(c echo.Context) error {
	ctx := c.Request().Context()

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	leave, err := h.uc.Leave.Reject(ctx, middleware.Requester(ctx), c.Param("id"), req.Note)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, leave)
}

// --- invoices ---

type generateInvoiceRequest struct {
	ClientID    string `json:"clientId"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

func (h *Handler) handleGenerateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	var req generateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	start, err := parseDate("periodStart", req.PeriodStart)
	if err != nil {
		return presenter.Error(c, err)
	}
	end, err := parseDate("periodEnd", req.PeriodEnd)
	if err != nil {
		return presenter.Error(c, err)
	}

	invoice, err := h.uc.Invoice.Generate(ctx, middleware.Requester(ctx), usecase.GenerateInvoiceInput{
		ClientID:    req.ClientID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, invoice)
}

func (h *Handler) handleListInvoices(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	filter := domain.InvoiceFilter{
		ClientID: c.QueryParam("clientId"),
		Status:   domain.InvoiceStatus(c.QueryParam("status")),
		Page:     page,
	}

	items, total, err := h.uc.Invoice.List(ctx, requester.TenantID, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleGetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	invoice, err := h.uc.Invoice.Get(ctx, requester.TenantID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, invoice)
}

func (h *Handler) handleSendInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoice, err := h.uc.Invoice.Send(ctx, middleware.Requester(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, invoice)
}

func (h *Handler) handlePayInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoice, err := h.uc.Invoice.Pay(ctx, middleware.Requester(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, invoice)
}

func (h *Handler) handleVoidInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoice, err := h.uc.Invoice.Void(ctx, middleware.Requester(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, invoice)
}

// --- notifications ---

func (h *Handler) handleListNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	page, err := pageParam(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	filter := domain.NotificationFilter{
		UnreadOnly: c.QueryParam("unread") == "true",
		Page:       page,
	}

	items, total, err := h.uc.Notification.List(ctx, requester.TenantID, requester.UserID, filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.List(c, items, total, page)
}

func (h *Handler) handleUnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	count, err := h.uc.Notification.UnreadCount(ctx, requester.TenantID, requester.UserID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"count": count})
}

func (h *Handler) handleMarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	err := h.uc.Notification.MarkRead(ctx, requester.TenantID, requester.UserID, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleMarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	updated, err := h.uc.Notification.MarkAllRead(ctx, requester.TenantID, requester.UserID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"updated": updated})
}

// --- dashboard ---

// dashboardRange defaults to the last twelve weeks up to today.
func (h *Handler) dashboardRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := dateParam(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	today, _ := timepulse.ParseDate(h.now().UTC().Format(timepulse.DateLayout))
	if to == nil {
		to = &today
	}
	if from == nil {
		start := timepulse.WeekStart(*to).AddDate(0, 0, -7*(defaultDashboardWeeks-1))
		from = &start
	}
	return *from, *to, nil
}

func (h *Handler) handleDashboardSummary(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	from, to, err := h.dashboardRange(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	summary, err := h.uc.Dashboard.Summary(ctx, requester.TenantID, from, to)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, summary)
}

func (h *Handler) handleEmployeeDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	requester := middleware.Requester(ctx)

	from, to, err := h.dashboardRange(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	summary, err := h.uc.Dashboard.EmployeeSummary(ctx, requester.TenantID, c.Param("id"), from, to)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, summary)
}
