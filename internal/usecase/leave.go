package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
)

type LeaveUsecase struct {
	repo      LeaveRepository
	employees EmployeeRepository
	users     UserRepository
	access    Authorizer
	notifier  Notifier
	logger    *zap.Logger
	now       Clock
}

func NewLeaveUsecase(
	repo LeaveRepository,
	employees EmployeeRepository,
	users UserRepository,
	access Authorizer,
	notifier Notifier,
	logger *zap.Logger,
	now Clock,
) *LeaveUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &LeaveUsecase{
		repo:      repo,
		employees: employees,
		users:     users,
		access:    access,
		notifier:  notifier,
		logger:    logger,
		now:       now,
	}
}

func (uc *LeaveUsecase) Create(ctx context.Context, tenantID string, leave domain.LeaveRequest) (domain.LeaveRequest, error) {
	ctx, span := tracer.Start(ctx, "Leave.Usecase.Create")
	defer span.End()

	if err := required("employeeId", leave.EmployeeID); err != nil {
		return domain.LeaveRequest{}, err
	}
	if !leave.Kind.Valid() {
		return domain.LeaveRequest{}, domain.ValidationError{Field: "kind", Message: "must be vacation, sick, personal or unpaid"}
	}
	if leave.StartDate.IsZero() || leave.EndDate.IsZero() {
		return domain.LeaveRequest{}, domain.ValidationError{Field: "startDate", Message: "start and end dates are required"}
	}
	if leave.EndDate.Before(leave.StartDate) {
		return domain.LeaveRequest{}, domain.ValidationError{Field: "endDate", Message: "must not be before startDate"}
	}
	if leave.Hours < 0 {
		return domain.LeaveRequest{}, domain.ValidationError{Field: "hours", Message: "must not be negative"}
	}
	if leave.Hours == 0 {
		leave.Hours = defaultLeaveHours(leave.StartDate, leave.EndDate)
	}

	if _, err := uc.employees.Get(ctx, tenantID, leave.EmployeeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.LeaveRequest{}, domain.ValidationError{Field: "employeeId", Message: "unknown employee"}
		}
		return domain.LeaveRequest{}, err
	}

	leave.ID = newID()
	leave.TenantID = tenantID
	leave.Status = domain.LeavePending
	leave.Hours = timepulse.RoundHours(leave.Hours)
	leave.ReviewerID = nil
	leave.ReviewedAt = nil
	leave.CreatedAt = uc.now()

	created, err := uc.repo.Create(ctx, leave)
	if err != nil {
		span.RecordError(err)
		return domain.LeaveRequest{}, errors.Wrap(err, "Leave.Usecase.Create")
	}
	return created, nil
}

// defaultLeaveHours counts eight hours per weekday in the inclusive range.
func defaultLeaveHours(start, end time.Time) float64 {
	hours := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			hours += 8
		}
	}
	return hours
}

func (uc *LeaveUsecase) List(ctx context.Context, tenantID string, filter domain.LeaveFilter) ([]domain.LeaveRequest, int64, error) {
	ctx, span := tracer.Start(ctx, "Leave.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, filter)
}

func (uc *LeaveUsecase) Approve(ctx context.Context, requester domain.Requester, id, note string) (domain.LeaveRequest, error) {
	ctx, span := tracer.Start(ctx, "Leave.Usecase.Approve")
	defer span.End()

	return uc.review(ctx, requester, id, domain.LeaveApproved, note)
}

func (uc *LeaveUsecase) Reject(ctx context.Context, requester domain.Requester, id, note string) (domain.LeaveRequest, error) {
	ctx, span := tracer.Start(ctx, "Leave.Usecase.Reject")
	defer span.End()

	if strings.TrimSpace(note) == "" {
		return domain.LeaveRequest{}, domain.ValidationError{Field: "reason", Message: "is required when rejecting"}
	}
	return uc.review(ctx, requester, id, domain.LeaveRejected, note)
}

func (uc *LeaveUsecase) review(ctx context.Context, requester domain.Requester, id string, to domain.LeaveStatus, note string) (domain.LeaveRequest, error) {
	leave, err := uc.repo.Get(ctx, requester.TenantID, id)
	if err != nil {
		return domain.LeaveRequest{}, err
	}
	if leave.Status != domain.LeavePending {
		return domain.LeaveRequest{}, domain.InvalidTransitionError{Resource: "leave request", From: string(leave.Status), To: string(to)}
	}

	err = uc.access.Authorize(ctx, requester, domain.ActionApproveLeave, map[string]any{
		"employeeId": leave.EmployeeID,
		"kind":       string(leave.Kind),
		"hours":      leave.Hours,
	})
	if err != nil {
		return domain.LeaveRequest{}, err
	}

	now := uc.now()
	reviewer := requester.UserID
	leave.Status = to
	leave.ReviewerID = &reviewer
	leave.ReviewNote = strings.TrimSpace(note)
	leave.ReviewedAt = &now

	updated, err := uc.repo.Update(ctx, leave, domain.LeavePending)
	if err != nil {
		return domain.LeaveRequest{}, errors.Wrap(err, "Leave.Usecase.review")
	}

	if user, err := uc.users.GetByEmployee(ctx, leave.TenantID, leave.EmployeeID); err == nil && uc.notifier != nil {
		n := domain.Notification{
			TenantID: leave.TenantID,
			UserID:   user.ID,
			Kind:     domain.NotifyLeaveReviewed,
			Title:    fmt.Sprintf("Leave request %s", updated.Status),
			Body: fmt.Sprintf("Your %s leave from %s to %s was %s.",
				updated.Kind,
				updated.StartDate.Format(timepulse.DateLayout),
				updated.EndDate.Format(timepulse.DateLayout),
				updated.Status,
			),
			Payload: map[string]any{"leaveRequestId": updated.ID, "status": string(updated.Status)},
		}
		if err := uc.notifier.Notify(ctx, n); err != nil {
			uc.logger.Warn("failed to notify", zap.String("kind", n.Kind), zap.Error(err))
		}
	}

	return updated, nil
}
