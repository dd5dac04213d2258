package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

// DashboardRepository runs the reporting aggregates. Hours only count
// timesheets whose week starts inside the range.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) HoursByStatus(ctx context.Context, tenantID string, from, to time.Time) (map[domain.TimesheetStatus]float64, error) {
	type row struct {
		Status string  `gorm:"column:status"`
		Hours  float64 `gorm:"column:hours"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Select("status, COALESCE(SUM(total_hours), 0) AS hours").
		Where("tenant_id = ? AND week_start BETWEEN ? AND ?", tenantID, from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.TimesheetStatus]float64, len(rows))
	for _, it := range rows {
		out[domain.TimesheetStatus(it.Status)] = it.Hours
	}
	return out, nil
}

func (r *DashboardRepository) CountByStatus(ctx context.Context, tenantID string, status domain.TimesheetStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(status)).
		Count(&n).Error
	return n, err
}

func (r *DashboardRepository) CountActiveEmployees(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.EmployeeActive)).
		Count(&n).Error
	return n, err
}

func (r *DashboardRepository) InvoiceTotals(ctx context.Context, tenantID string, from, to time.Time) (map[domain.InvoiceStatus]decimal.Decimal, error) {
	type row struct {
		Status string          `gorm:"column:status"`
		Total  decimal.Decimal `gorm:"column:total"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("status, COALESCE(SUM(total), 0) AS total").
		Where("tenant_id = ? AND issue_date BETWEEN ? AND ?", tenantID, from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.InvoiceStatus]decimal.Decimal, len(rows))
	for _, it := range rows {
		out[domain.InvoiceStatus(it.Status)] = it.Total
	}
	return out, nil
}

func (r *DashboardRepository) TopClients(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]domain.ClientHours, error) {
	var rows []domain.ClientHours
	err := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Select("c.id AS client_id, c.name AS name, SUM(timesheets.total_hours) AS hours").
		Joins("JOIN employees e ON e.id = timesheets.employee_id").
		Joins("JOIN clients c ON c.id = COALESCE(timesheets.client_id, e.client_id)").
		Where("timesheets.tenant_id = ? AND timesheets.status = ?", tenantID, string(domain.TimesheetApproved)).
		Where("timesheets.week_start BETWEEN ? AND ?", from, to).
		Group("c.id, c.name").
		Order("hours DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardRepository) WeeklyHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]domain.WeekHours, error) {
	type row struct {
		WeekStart time.Time `gorm:"column:week_start"`
		Hours     float64   `gorm:"column:hours"`
	}

	q := r.db.WithContext(ctx).
		Model(&models.Timesheet{}).
		Select("week_start, SUM(total_hours) AS hours").
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.TimesheetApproved)).
		Where("week_start BETWEEN ? AND ?", from, to)
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	}

	var rows []row
	if err := q.Group("week_start").Order("week_start").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.WeekHours, 0, len(rows))
	for _, it := range rows {
		out = append(out, domain.WeekHours{WeekStart: it.WeekStart.UTC(), Hours: it.Hours})
	}
	return out, nil
}

// LeaveHours sums approved leave overlapping the range.
func (r *DashboardRepository) LeaveHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) (float64, error) {
	var hours float64
	err := r.db.WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Select("COALESCE(SUM(hours), 0)").
		Where("tenant_id = ? AND employee_id = ? AND status = ?", tenantID, employeeID, string(domain.LeaveApproved)).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Scan(&hours).Error
	return hours, err
}
