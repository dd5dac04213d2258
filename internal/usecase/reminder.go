package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
)

type ReminderOptions struct {
	SubmissionGraceDays int
	ApprovalStaleDays   int
	Concurrency         int
	DedupTTL            time.Duration
	PublicURL           string
}

// ReminderSummary counts what one pass did.
type ReminderSummary struct {
	Tenants            int `json:"tenants"`
	MissingSubmissions int `json:"missingSubmissions"`
	StaleApprovals     int `json:"staleApprovals"`
	OverdueInvoices    int `json:"overdueInvoices"`
	EmailsSent         int `json:"emailsSent"`
	Errors             int `json:"errors"`
}

func (s *ReminderSummary) add(o ReminderSummary) {
	s.Tenants += o.Tenants
	s.MissingSubmissions += o.MissingSubmissions
	s.StaleApprovals += o.StaleApprovals
	s.OverdueInvoices += o.OverdueInvoices
	s.EmailsSent += o.EmailsSent
	s.Errors += o.Errors
}

// OverdueMarker moves past-due invoices to overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, tenantID string, now time.Time) ([]domain.Invoice, error)
}

type ReminderUsecase struct {
	tenants    TenantRepository
	employees  EmployeeRepository
	timesheets TimesheetRepository
	users      UserRepository
	invoices   OverdueMarker
	notifier   Notifier
	mailer     Mailer
	dedup      Deduplicator
	logger     *zap.Logger
	opts       ReminderOptions
	now        Clock
}

func NewReminderUsecase(
	tenants TenantRepository,
	employees EmployeeRepository,
	timesheets TimesheetRepository,
	users UserRepository,
	invoices OverdueMarker,
	notifier Notifier,
	mailer Mailer,
	dedup Deduplicator,
	logger *zap.Logger,
	opts ReminderOptions,
	now Clock,
) *ReminderUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 20 * time.Hour
	}
	return &ReminderUsecase{
		tenants:    tenants,
		employees:  employees,
		timesheets: timesheets,
		users:      users,
		invoices:   invoices,
		notifier:   notifier,
		mailer:     mailer,
		dedup:      dedup,
		logger:     logger,
		opts:       opts,
		now:        now,
	}
}

// Run performs one reminder pass over every tenant with reminders enabled.
// A failing tenant is logged and counted; the others still run.
func (uc *ReminderUsecase) Run(ctx context.Context) (ReminderSummary, error) {
	ctx, span := tracer.Start(ctx, "Reminder.Usecase.Run")
	defer span.End()

	tenants, err := uc.tenants.ListReminderEnabled(ctx)
	if err != nil {
		span.RecordError(err)
		return ReminderSummary{}, errors.Wrap(err, "Reminder.Usecase.Run")
	}

	now := uc.now()
	var (
		mu      sync.Mutex
		summary ReminderSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for _, tenant := range tenants {
		g.Go(func() error {
			result, err := uc.runTenant(gctx, tenant, now)
			result.Tenants = 1
			if err != nil {
				result.Errors++
				uc.logger.Error("reminder pass failed for tenant", zap.String("tenant", tenant.ID), zap.Error(err))
			}
			mu.Lock()
			summary.add(result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("tenants", summary.Tenants),
		attribute.Int("emails", summary.EmailsSent),
	)
	uc.logger.Info("reminder pass finished",
		zap.Int("tenants", summary.Tenants),
		zap.Int("missingSubmissions", summary.MissingSubmissions),
		zap.Int("staleApprovals", summary.StaleApprovals),
		zap.Int("overdueInvoices", summary.OverdueInvoices),
		zap.Int("emailsSent", summary.EmailsSent),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (uc *ReminderUsecase) runTenant(ctx context.Context, tenant domain.Tenant, now time.Time) (ReminderSummary, error) {
	ctx, span := tracer.Start(ctx, "Reminder.Usecase.runTenant")
	defer span.End()
	span.SetAttributes(attribute.String("tenant", tenant.ID))

	var summary ReminderSummary
	local := now.In(tenant.Location())

	if err := uc.missingSubmissions(ctx, tenant, local, &summary); err != nil {
		return summary, errors.Wrap(err, "missing submissions")
	}
	if err := uc.staleApprovals(ctx, tenant, local, &summary); err != nil {
		return summary, errors.Wrap(err, "stale approvals")
	}
	if err := uc.overdueInvoices(ctx, tenant, now, &summary); err != nil {
		return summary, errors.Wrap(err, "overdue invoices")
	}
	return summary, nil
}

// calendarDate drops the zone so it compares with stored week dates.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (uc *ReminderUsecase) missingSubmissions(ctx context.Context, tenant domain.Tenant, local time.Time, summary *ReminderSummary) error {
	week := calendarDate(timepulse.WeekStart(local)).AddDate(0, 0, -7)
	graceEnd := week.AddDate(0, 0, 7+uc.opts.SubmissionGraceDays)
	if calendarDate(local).Before(graceEnd) {
		return nil
	}

	employees, err := uc.employees.ListActive(ctx, tenant.ID)
	if err != nil {
		return err
	}
	done, err := uc.timesheets.EmployeesWithStatus(ctx, tenant.ID, week, domain.TimesheetSubmitted, domain.TimesheetApproved)
	if err != nil {
		return err
	}
	submitted := make(map[string]bool, len(done))
	for _, id := range done {
		submitted[id] = true
	}

	weekLabel := week.Format(timepulse.DateLayout)
	for _, employee := range employees {
		if submitted[employee.ID] {
			continue
		}
		if employee.StartDate != nil && employee.StartDate.After(week.AddDate(0, 0, 6)) {
			continue
		}
		if !uc.claim(ctx, tenant.ID, domain.NotifyMissingTimesheet, employee.ID, weekLabel, summary) {
			continue
		}
		summary.MissingSubmissions++

		link := uc.opts.PublicURL + "/timesheets?week=" + weekLabel
		body, err := renderMail(missingTimesheetMail, map[string]any{
			"Name":   employee.FullName(),
			"Week":   weekLabel,
			"Tenant": tenant.Name,
			"Link":   link,
		})
		if err != nil {
			return err
		}
		uc.send(ctx, domain.Email{
			To:      []string{employee.Email},
			Subject: fmt.Sprintf("Timesheet missing for the week of %s", weekLabel),
			Body:    body,
		}, summary)

		user, err := uc.users.GetByEmployee(ctx, tenant.ID, employee.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				summary.Errors++
				uc.logger.Warn("failed to find employee user", zap.String("employee", employee.ID), zap.Error(err))
			}
			continue
		}
		uc.notify(ctx, domain.Notification{
			TenantID: tenant.ID,
			UserID:   user.ID,
			Kind:     domain.NotifyMissingTimesheet,
			Title:    "Timesheet missing",
			Body:     fmt.Sprintf("Please submit your timesheet for the week of %s.", weekLabel),
			Link:     "/timesheets?week=" + weekLabel,
			Payload:  map[string]any{"weekStart": weekLabel, "employeeId": employee.ID},
		}, summary)
	}
	return nil
}

type staleLine struct {
	Employee  string
	Week      string
	Hours     float64
	Submitted string
}

func (uc *ReminderUsecase) staleApprovals(ctx context.Context, tenant domain.Tenant, local time.Time, summary *ReminderSummary) error {
	cutoff := local.Add(-time.Duration(uc.opts.ApprovalStaleDays) * 24 * time.Hour)
	sheets, err := uc.timesheets.ListSubmittedBefore(ctx, tenant.ID, cutoff)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		return nil
	}
	summary.StaleApprovals += len(sheets)

	approvers, err := uc.users.ListByRoles(ctx, tenant.ID, approverRoles...)
	if err != nil {
		return err
	}

	names := map[string]string{}
	nameOf := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := id
		if employee, err := uc.employees.Get(ctx, tenant.ID, id); err == nil {
			name = employee.FullName()
		}
		names[id] = name
		return name
	}

	today := calendarDate(local).Format(timepulse.DateLayout)
	for _, approver := range approvers {
		var lines []staleLine
		for _, ts := range sheets {
			if approver.EmployeeID != nil && *approver.EmployeeID == ts.EmployeeID {
				continue
			}
			line := staleLine{
				Employee: nameOf(ts.EmployeeID),
				Week:     ts.WeekStart.Format(timepulse.DateLayout),
				Hours:    ts.TotalHours,
			}
			if ts.SubmittedAt != nil {
				line.Submitted = ts.SubmittedAt.In(local.Location()).Format(timepulse.DateLayout)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		if !uc.claim(ctx, tenant.ID, domain.NotifyPendingApprovals, approver.ID, today, summary) {
			continue
		}

		body, err := renderMail(pendingApprovalsMail, map[string]any{
			"Name":  approver.Name,
			"Lines": lines,
			"Days":  uc.opts.ApprovalStaleDays,
			"Link":  uc.opts.PublicURL + "/timesheets?status=submitted",
		})
		if err != nil {
			return err
		}
		uc.send(ctx, domain.Email{
			To:      []string{approver.Email},
			Subject: fmt.Sprintf("%d timesheets waiting for approval", len(lines)),
			Body:    body,
		}, summary)
		uc.notify(ctx, domain.Notification{
			TenantID: tenant.ID,
			UserID:   approver.ID,
			Kind:     domain.NotifyPendingApprovals,
			Title:    "Timesheets waiting for approval",
			Body:     fmt.Sprintf("%d timesheets have waited more than %d days.", len(lines), uc.opts.ApprovalStaleDays),
			Link:     "/timesheets?status=submitted",
			Payload:  map[string]any{"count": len(lines)},
		}, summary)
	}
	return nil
}

func (uc *ReminderUsecase) overdueInvoices(ctx context.Context, tenant domain.Tenant, now time.Time, summary *ReminderSummary) error {
	if uc.invoices == nil {
		return nil
	}
	moved, err := uc.invoices.MarkOverdue(ctx, tenant.ID, now)
	if err != nil {
		return err
	}
	if len(moved) == 0 {
		return nil
	}
	summary.OverdueInvoices += len(moved)

	admins, err := uc.users.ListByRoles(ctx, tenant.ID, domain.RoleAdmin)
	if err != nil {
		return err
	}

	body, err := renderMail(overdueInvoicesMail, map[string]any{
		"Tenant":   tenant.Name,
		"Invoices": moved,
		"Link":     uc.opts.PublicURL + "/invoices?status=overdue",
	})
	if err != nil {
		return err
	}

	for _, admin := range admins {
		uc.send(ctx, domain.Email{
			To:      []string{admin.Email},
			Subject: fmt.Sprintf("%d invoices are overdue", len(moved)),
			Body:    body,
		}, summary)
		for _, invoice := range moved {
			uc.notify(ctx, domain.Notification{
				TenantID: tenant.ID,
				UserID:   admin.ID,
				Kind:     domain.NotifyInvoiceOverdue,
				Title:    fmt.Sprintf("Invoice %s is overdue", invoice.Number),
				Body: fmt.Sprintf("Invoice %s for %s %s was due on %s.",
					invoice.Number, invoice.Total.StringFixed(2), invoice.Currency, invoice.DueDate.Format(timepulse.DateLayout)),
				Link:    "/invoices/" + invoice.ID,
				Payload: map[string]any{"invoiceId": invoice.ID},
			}, summary)
		}
	}
	return nil
}

func dedupKey(tenantID, kind, subject, period string) string {
	return fmt.Sprintf("reminder:%016x", xxh3.HashString(tenantID+"|"+kind+"|"+subject+"|"+period))
}

// claim reports whether this reminder has not been sent in the dedup window.
func (uc *ReminderUsecase) claim(ctx context.Context, tenantID, kind, subject, period string, summary *ReminderSummary) bool {
	if uc.dedup == nil {
		return true
	}
	ok, err := uc.dedup.Claim(ctx, dedupKey(tenantID, kind, subject, period), uc.opts.DedupTTL)
	if err != nil {
		summary.Errors++
		uc.logger.Warn("reminder dedup failed", zap.String("kind", kind), zap.String("subject", subject), zap.Error(err))
		return false
	}
	return ok
}

func (uc *ReminderUsecase) send(ctx context.Context, email domain.Email, summary *ReminderSummary) {
	if uc.mailer == nil || len(email.To) == 0 || email.To[0] == "" {
		return
	}
	if err := uc.mailer.Send(ctx, email); err != nil {
		summary.Errors++
		uc.logger.Warn("failed to send reminder email", zap.Strings("to", email.To), zap.Error(err))
		return
	}
	summary.EmailsSent++
}

func (uc *ReminderUsecase) notify(ctx context.Context, n domain.Notification, summary *ReminderSummary) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, n); err != nil {
		summary.Errors++
		uc.logger.Warn("failed to store reminder notification", zap.String("kind", n.Kind), zap.Error(err))
	}
}
