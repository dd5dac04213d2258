package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

func timesheetToModel(ts domain.Timesheet) (models.Timesheet, error) {
	hours, err := json.Marshal(ts.DailyHours)
	if err != nil {
		return models.Timesheet{}, err
	}
	return models.Timesheet{
		ID:              ts.ID,
		TenantID:        ts.TenantID,
		EmployeeID:      ts.EmployeeID,
		ClientID:        ts.ClientID,
		WeekStart:       ts.WeekStart,
		DailyHours:      datatypes.JSON(hours),
		TotalHours:      ts.TotalHours,
		Status:          string(ts.Status),
		Notes:           ts.Notes,
		Source:          string(ts.Source),
		Confidence:      ts.Confidence,
		SubmittedAt:     ts.SubmittedAt,
		ReviewedAt:      ts.ReviewedAt,
		ReviewerID:      ts.ReviewerID,
		RejectionReason: ts.RejectionReason,
		InvoiceID:       ts.InvoiceID,
		CDate:           ts.CreatedAt,
		MDate:           ts.UpdatedAt,
	}, nil
}

func timesheetFromModel(m models.Timesheet) (domain.Timesheet, error) {
	var hours timepulse.DailyHours
	if len(m.DailyHours) > 0 {
		if err := json.Unmarshal(m.DailyHours, &hours); err != nil {
			return domain.Timesheet{}, err
		}
	}
	return domain.Timesheet{
		ID:              m.ID,
		TenantID:        m.TenantID,
		EmployeeID:      m.EmployeeID,
		ClientID:        m.ClientID,
		WeekStart:       m.WeekStart.UTC(),
		DailyHours:      hours,
		TotalHours:      m.TotalHours,
		Status:          domain.TimesheetStatus(m.Status),
		Notes:           m.Notes,
		Source:          domain.TimesheetSource(m.Source),
		Confidence:      m.Confidence,
		SubmittedAt:     m.SubmittedAt,
		ReviewedAt:      m.ReviewedAt,
		ReviewerID:      m.ReviewerID,
		RejectionReason: m.RejectionReason,
		InvoiceID:       m.InvoiceID,
		CreatedAt:       m.CDate,
		UpdatedAt:       m.MDate,
	}, nil
}

func timesheetsFromModels(rows []models.Timesheet) ([]domain.Timesheet, error) {
	out := make([]domain.Timesheet, 0, len(rows))
	for _, m := range rows {
		ts, err := timesheetFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (r *TimesheetRepository) Create(ctx context.Context, timesheet domain.Timesheet) (domain.Timesheet, error) {
	m, err := timesheetToModel(timesheet)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		err = translate(err, "timesheet")
		if errors.Is(err, domain.ErrConflict) {
			return domain.Timesheet{}, domain.ConflictError{Message: "timesheet already exists for this week"}
		}
		return domain.Timesheet{}, err
	}
	return timesheetFromModel(m)
}

func (r *TimesheetRepository) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	var m models.Timesheet
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.Timesheet{}, translate(err, "timesheet")
	}
	return timesheetFromModel(m)
}

func (r *TimesheetRepository) Update(ctx context.Context, timesheet domain.Timesheet, from domain.TimesheetStatus) (domain.Timesheet, error) {
	m, err := timesheetToModel(timesheet)
	if err != nil {
		return domain.Timesheet{}, err
	}
	res := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Where("tenant_id = ? AND id = ? AND status = ?", timesheet.TenantID, timesheet.ID, string(from)).
		Select("*").
		Omit(clause.Associations, "id", "tenant_id", "employee_id", "week_start", "c_date", "invoice_id").
		Updates(&m)
	if res.Error != nil {
		return domain.Timesheet{}, translate(res.Error, "timesheet")
	}
	if res.RowsAffected == 0 {
		return domain.Timesheet{}, missedUpdate(r.db.WithContext(ctx), &models.Timesheet{}, timesheet.TenantID, timesheet.ID, "timesheet")
	}
	return r.Get(ctx, timesheet.TenantID, timesheet.ID)
}

func (r *TimesheetRepository) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.Timesheet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "timesheet"}
	}
	return nil
}

func (r *TimesheetRepository) List(ctx context.Context, tenantID string, filter domain.TimesheetFilter) ([]domain.Timesheet, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Timesheet{}).Where("tenant_id = ?", tenantID)
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.From != nil {
		q = q.Where("week_start >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("week_start <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Timesheet
	if err := paginate(q, filter.Page).Order("week_start DESC, employee_id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out, err := timesheetsFromModels(rows)
	return out, total, err
}

func (r *TimesheetRepository) ListBillable(ctx context.Context, tenantID, clientID string, from, to time.Time) ([]domain.Timesheet, error) {
	var rows []models.Timesheet
	err := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Select("timesheets.*").
		Joins("JOIN employees e ON e.id = timesheets.employee_id").
		Where("timesheets.tenant_id = ?", tenantID).
		Where("timesheets.status = ? AND timesheets.invoice_id IS NULL", string(domain.TimesheetApproved)).
		Where("timesheets.week_start BETWEEN ? AND ?", from, to).
		Where("COALESCE(timesheets.client_id, e.client_id) = ?", clientID).
		Order("timesheets.week_start, e.last_name, e.first_name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return timesheetsFromModels(rows)
}

func (r *TimesheetRepository) ListSubmittedBefore(ctx context.Context, tenantID string, before time.Time) ([]domain.Timesheet, error) {
	var rows []models.Timesheet
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND submitted_at < ?", tenantID, string(domain.TimesheetSubmitted), before).
		Order("submitted_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return timesheetsFromModels(rows)
}

func (r *TimesheetRepository) EmployeesWithStatus(ctx context.Context, tenantID string, weekStart time.Time, statuses ...domain.TimesheetStatus) ([]string, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Where("tenant_id = ? AND week_start = ? AND status IN ?", tenantID, weekStart, names).
		Distinct().
		Pluck("employee_id", &ids).Error
	return ids, err
}

type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

func leaveToModel(l domain.LeaveRequest) models.LeaveRequest {
	return models.LeaveRequest{
		ID:         l.ID,
		TenantID:   l.TenantID,
		EmployeeID: l.EmployeeID,
		Kind:       string(l.Kind),
		StartDate:  l.StartDate,
		EndDate:    l.EndDate,
		Hours:      l.Hours,
		Reason:     l.Reason,
		Status:     string(l.Status),
		ReviewerID: l.ReviewerID,
		ReviewNote: l.ReviewNote,
		ReviewedAt: l.ReviewedAt,
		CDate:      l.CreatedAt,
	}
}

func leaveFromModel(m models.LeaveRequest) domain.LeaveRequest {
	return domain.LeaveRequest{
		ID:         m.ID,
		TenantID:   m.TenantID,
		EmployeeID: m.EmployeeID,
		Kind:       domain.LeaveKind(m.Kind),
		StartDate:  m.StartDate.UTC(),
		EndDate:    m.EndDate.UTC(),
		Hours:      m.Hours,
		Reason:     m.Reason,
		Status:     domain.LeaveStatus(m.Status),
		ReviewerID: m.ReviewerID,
		ReviewNote: m.ReviewNote,
		ReviewedAt: m.ReviewedAt,
		CreatedAt:  m.CDate,
	}
}

func (r *LeaveRepository) Create(ctx context.Context, leave domain.LeaveRequest) (domain.LeaveRequest, error) {
	m := leaveToModel(leave)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.LeaveRequest{}, translate(err, "leave request")
	}
	return leaveFromModel(m), nil
}

func (r *LeaveRepository) Get(ctx context.Context, tenantID, id string) (domain.LeaveRequest, error) {
	var m models.LeaveRequest
	if err := r.db.WithContext(ctx).Take(&m, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return domain.LeaveRequest{}, translate(err, "leave request")
	}
	return leaveFromModel(m), nil
}

func (r *LeaveRepository) Update(ctx context.Context, leave domain.LeaveRequest, from domain.LeaveStatus) (domain.LeaveRequest, error) {
	m := leaveToModel(leave)
	res := r.db.WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Where("tenant_id = ? AND id = ? AND status = ?", leave.TenantID, leave.ID, string(from)).
		Select("status", "reviewer_id", "review_note", "reviewed_at", "hours", "reason").
		Updates(&m)
	if res.Error != nil {
		return domain.LeaveRequest{}, translate(res.Error, "leave request")
	}
	if res.RowsAffected == 0 {
		return domain.LeaveRequest{}, missedUpdate(r.db.WithContext(ctx), &models.LeaveRequest{}, leave.TenantID, leave.ID, "leave request")
	}
	return r.Get(ctx, leave.TenantID, leave.ID)
}

func (r *LeaveRepository) List(ctx context.Context, tenantID string, filter domain.LeaveFilter) ([]domain.LeaveRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.LeaveRequest{}).Where("tenant_id = ?", tenantID)
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LeaveRequest
	if err := paginate(q, filter.Page).Order("start_date DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.LeaveRequest, 0, len(rows))
	for _, m := range rows {
		out = append(out, leaveFromModel(m))
	}
	return out, total, nil
}
