package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
)

// approverRoles are notified of submissions and reminded of stale ones.
var approverRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleReviewer}

type TimesheetInput struct {
	EmployeeID string               `json:"employeeId"`
	ClientID   *string              `json:"clientId,omitempty"`
	WeekStart  time.Time            `json:"weekStart"`
	DailyHours timepulse.DailyHours `json:"dailyHours"`
	Notes      string               `json:"notes"`
}

type TimesheetUpdate struct {
	ClientID   *string               `json:"clientId,omitempty"`
	DailyHours *timepulse.DailyHours `json:"dailyHours,omitempty"`
	Notes      *string               `json:"notes,omitempty"`
}

type TimesheetUsecase struct {
	repo      TimesheetRepository
	employees EmployeeRepository
	clients   ClientRepository
	users     UserRepository
	access    Authorizer
	notifier  Notifier
	logger    *zap.Logger
	now       Clock
}

func NewTimesheetUsecase(
	repo TimesheetRepository,
	employees EmployeeRepository,
	clients ClientRepository,
	users UserRepository,
	access Authorizer,
	notifier Notifier,
	logger *zap.Logger,
	now Clock,
) *TimesheetUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &TimesheetUsecase{
		repo:      repo,
		employees: employees,
		clients:   clients,
		users:     users,
		access:    access,
		notifier:  notifier,
		logger:    logger,
		now:       now,
	}
}

func (uc *TimesheetUsecase) Create(ctx context.Context, tenantID string, input TimesheetInput) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Create")
	defer span.End()

	ts, err := uc.build(ctx, tenantID, input)
	if err != nil {
		return domain.Timesheet{}, err
	}
	ts.Source = domain.SourceManual

	created, err := uc.repo.Create(ctx, ts)
	if err != nil {
		span.RecordError(err)
		return domain.Timesheet{}, errors.Wrap(err, "Timesheet.Usecase.Create")
	}
	return created, nil
}

// CreateFromExtraction stores an extraction result as a draft for the
// employee's week.
func (uc *TimesheetUsecase) CreateFromExtraction(ctx context.Context, tenantID, employeeID string, weekStart time.Time, result extract.Result) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.CreateFromExtraction")
	defer span.End()

	notes := fmt.Sprintf("extracted via %s", result.Strategy)
	if len(result.Warnings) > 0 {
		notes += ": " + strings.Join(result.Warnings, "; ")
	}

	ts, err := uc.build(ctx, tenantID, TimesheetInput{
		EmployeeID: employeeID,
		WeekStart:  weekStart,
		DailyHours: result.DailyHours,
		Notes:      notes,
	})
	if err != nil {
		return domain.Timesheet{}, err
	}
	confidence := result.Confidence
	ts.Source = domain.SourceUpload
	ts.Confidence = &confidence

	created, err := uc.repo.Create(ctx, ts)
	if err != nil {
		span.RecordError(err)
		return domain.Timesheet{}, errors.Wrap(err, "Timesheet.Usecase.CreateFromExtraction")
	}
	return created, nil
}

func (uc *TimesheetUsecase) build(ctx context.Context, tenantID string, input TimesheetInput) (domain.Timesheet, error) {
	if err := required("employeeId", input.EmployeeID); err != nil {
		return domain.Timesheet{}, err
	}
	if input.WeekStart.IsZero() {
		return domain.Timesheet{}, domain.ValidationError{Field: "weekStart", Message: "is required"}
	}
	if err := domain.ValidateHours(input.DailyHours); err != nil {
		return domain.Timesheet{}, err
	}

	employee, err := uc.employees.Get(ctx, tenantID, input.EmployeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Timesheet{}, domain.ValidationError{Field: "employeeId", Message: "unknown employee"}
		}
		return domain.Timesheet{}, err
	}

	clientID := input.ClientID
	if clientID == nil {
		clientID = employee.ClientID
	} else if err := uc.checkClient(ctx, tenantID, *clientID); err != nil {
		return domain.Timesheet{}, err
	}

	now := uc.now()
	return domain.Timesheet{
		ID:         newID(),
		TenantID:   tenantID,
		EmployeeID: employee.ID,
		ClientID:   clientID,
		WeekStart:  timepulse.WeekStart(input.WeekStart),
		DailyHours: input.DailyHours,
		TotalHours: timepulse.RoundHours(input.DailyHours.Total()),
		Status:     domain.TimesheetDraft,
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// checkClient makes sure the client belongs to the tenant.
func (uc *TimesheetUsecase) checkClient(ctx context.Context, tenantID, clientID string) error {
	if _, err := uc.clients.Get(ctx, tenantID, clientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFoundError{Resource: "client"}
		}
		return err
	}
	return nil
}

func (uc *TimesheetUsecase) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Get")
	defer span.End()

	return uc.repo.Get(ctx, tenantID, id)
}

func (uc *TimesheetUsecase) List(ctx context.Context, tenantID string, filter domain.TimesheetFilter) ([]domain.Timesheet, int64, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	if filter.From != nil {
		from := timepulse.WeekStart(*filter.From)
		filter.From = &from
	}
	return uc.repo.List(ctx, tenantID, filter)
}

// Update changes hours, notes or client while the timesheet is editable.
// A rejected timesheet stays rejected until it is submitted again.
func (uc *TimesheetUsecase) Update(ctx context.Context, tenantID, id string, update TimesheetUpdate) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Update")
	defer span.End()

	ts, err := uc.repo.Get(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if !ts.Editable() {
		return domain.Timesheet{}, domain.InvalidTransitionError{Resource: "timesheet", From: string(ts.Status), To: "edited"}
	}

	if update.DailyHours != nil {
		if err := domain.ValidateHours(*update.DailyHours); err != nil {
			return domain.Timesheet{}, err
		}
		ts.DailyHours = *update.DailyHours
		ts.TotalHours = timepulse.RoundHours(ts.DailyHours.Total())
	}
	if update.Notes != nil {
		ts.Notes = *update.Notes
	}
	if update.ClientID != nil {
		if err := uc.checkClient(ctx, tenantID, *update.ClientID); err != nil {
			return domain.Timesheet{}, err
		}
		ts.ClientID = update.ClientID
	}
	ts.UpdatedAt = uc.now()

	updated, err := uc.repo.Update(ctx, ts, ts.Status)
	if err != nil {
		span.RecordError(err)
		return domain.Timesheet{}, errors.Wrap(err, "Timesheet.Usecase.Update")
	}
	return updated, nil
}

func (uc *TimesheetUsecase) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Delete")
	defer span.End()

	ts, err := uc.repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if ts.Status != domain.TimesheetDraft {
		return domain.InvalidTransitionError{Resource: "timesheet", From: string(ts.Status), To: "deleted"}
	}
	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *TimesheetUsecase) Submit(ctx context.Context, requester domain.Requester, id string) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Submit")
	defer span.End()

	ts, err := uc.repo.Get(ctx, requester.TenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if !ts.Status.CanTransition(domain.TimesheetSubmitted) {
		return domain.Timesheet{}, domain.InvalidTransitionError{Resource: "timesheet", From: string(ts.Status), To: string(domain.TimesheetSubmitted)}
	}
	if ts.TotalHours <= 0 {
		return domain.Timesheet{}, domain.ValidationError{Field: "dailyHours", Message: "cannot submit a timesheet without hours"}
	}

	from := ts.Status
	now := uc.now()
	ts.Status = domain.TimesheetSubmitted
	ts.SubmittedAt = &now
	ts.ReviewedAt = nil
	ts.ReviewerID = nil
	ts.RejectionReason = ""
	ts.UpdatedAt = now

	updated, err := uc.repo.Update(ctx, ts, from)
	if err != nil {
		span.RecordError(err)
		return domain.Timesheet{}, errors.Wrap(err, "Timesheet.Usecase.Submit")
	}

	uc.notifyApprovers(ctx, updated)
	return updated, nil
}

func (uc *TimesheetUsecase) Approve(ctx context.Context, requester domain.Requester, id string) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Approve")
	defer span.End()

	return uc.review(ctx, requester, id, domain.TimesheetApproved, "")
}

func (uc *TimesheetUsecase) Reject(ctx context.Context, requester domain.Requester, id, reason string) (domain.Timesheet, error) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.Reject")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Timesheet{}, domain.ValidationError{Field: "reason", Message: "is required when rejecting"}
	}
	return uc.review(ctx, requester, id, domain.TimesheetRejected, reason)
}

func (uc *TimesheetUsecase) review(ctx context.Context, requester domain.Requester, id string, to domain.TimesheetStatus, reason string) (domain.Timesheet, error) {
	ts, err := uc.repo.Get(ctx, requester.TenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if !ts.Status.CanTransition(to) {
		return domain.Timesheet{}, domain.InvalidTransitionError{Resource: "timesheet", From: string(ts.Status), To: string(to)}
	}

	if err := uc.checkNotSelf(ctx, requester, ts.EmployeeID); err != nil {
		return domain.Timesheet{}, err
	}
	err = uc.access.Authorize(ctx, requester, domain.ActionApproveTimesheet, map[string]any{
		"employeeId": ts.EmployeeID,
		"totalHours": ts.TotalHours,
	})
	if err != nil {
		return domain.Timesheet{}, err
	}

	from := ts.Status
	now := uc.now()
	reviewer := requester.UserID
	ts.Status = to
	ts.ReviewedAt = &now
	ts.ReviewerID = &reviewer
	ts.RejectionReason = reason
	ts.UpdatedAt = now

	updated, err := uc.repo.Update(ctx, ts, from)
	if err != nil {
		return domain.Timesheet{}, errors.Wrap(err, "Timesheet.Usecase.review")
	}

	uc.notifyEmployee(ctx, updated)
	return updated, nil
}

// checkNotSelf refuses a review of the requester's own timesheet whatever
// the tenant policy says.
func (uc *TimesheetUsecase) checkNotSelf(ctx context.Context, requester domain.Requester, employeeID string) error {
	if requester.UserID == "" {
		return domain.ForbiddenError{Action: domain.ActionApproveTimesheet}
	}
	user, err := uc.users.Get(ctx, requester.TenantID, requester.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmployeeID != nil && *user.EmployeeID == employeeID {
		return domain.ForbiddenError{Action: "review own timesheet"}
	}
	return nil
}

func (uc *TimesheetUsecase) notifyApprovers(ctx context.Context, ts domain.Timesheet) {
	ctx, span := tracer.Start(ctx, "Timesheet.Usecase.notifyApprovers")
	defer span.End()

	approvers, err := uc.users.ListByRoles(ctx, ts.TenantID, approverRoles...)
	if err != nil {
		span.RecordError(err)
		uc.logger.Warn("failed to list approvers", zap.String("tenant", ts.TenantID), zap.Error(err))
		return
	}

	employeeName := ts.EmployeeID
	if employee, err := uc.employees.Get(ctx, ts.TenantID, ts.EmployeeID); err == nil {
		employeeName = employee.FullName()
	}

	span.SetAttributes(attribute.Int("approvers", len(approvers)))
	for _, approver := range approvers {
		if approver.EmployeeID != nil && *approver.EmployeeID == ts.EmployeeID {
			continue
		}
		uc.notify(ctx, domain.Notification{
			TenantID: ts.TenantID,
			UserID:   approver.ID,
			Kind:     domain.NotifyTimesheetSubmitted,
			Title:    "Timesheet submitted",
			Body:     fmt.Sprintf("%s submitted %.2f hours for the week of %s.", employeeName, ts.TotalHours, ts.WeekStart.Format(timepulse.DateLayout)),
			Link:     "/timesheets/" + ts.ID,
			Payload:  map[string]any{"timesheetId": ts.ID, "employeeId": ts.EmployeeID},
		})
	}
}

func (uc *TimesheetUsecase) notifyEmployee(ctx context.Context, ts domain.Timesheet) {
	user, err := uc.users.GetByEmployee(ctx, ts.TenantID, ts.EmployeeID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("failed to find employee user", zap.String("employee", ts.EmployeeID), zap.Error(err))
		}
		return
	}

	n := domain.Notification{
		TenantID: ts.TenantID,
		UserID:   user.ID,
		Link:     "/timesheets/" + ts.ID,
		Payload:  map[string]any{"timesheetId": ts.ID, "status": string(ts.Status)},
	}
	week := ts.WeekStart.Format(timepulse.DateLayout)
	if ts.Status == domain.TimesheetApproved {
		n.Kind = domain.NotifyTimesheetApproved
		n.Title = "Timesheet approved"
		n.Body = fmt.Sprintf("Your timesheet for the week of %s was approved.", week)
	} else {
		n.Kind = domain.NotifyTimesheetRejected
		n.Title = "Timesheet rejected"
		n.Body = fmt.Sprintf("Your timesheet for the week of %s was rejected: %s", week, ts.RejectionReason)
	}
	uc.notify(ctx, n)
}

func (uc *TimesheetUsecase) notify(ctx context.Context, n domain.Notification) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, n); err != nil {
		uc.logger.Warn("failed to notify", zap.String("kind", n.Kind), zap.String("user", n.UserID), zap.Error(err))
	}
}
