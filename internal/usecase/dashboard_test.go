package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/timepulse/internal/domain"
)

type stubDashboardRepo struct {
	calls int
}

func (s *stubDashboardRepo) HoursByStatus(ctx context.Context, tenantID string, from, to time.Time) (map[domain.TimesheetStatus]float64, error) {
	s.calls++
	return map[domain.TimesheetStatus]float64{
		domain.TimesheetApproved:  120.5,
		domain.TimesheetSubmitted: 40,
	}, nil
}

func (s *stubDashboardRepo) CountByStatus(ctx context.Context, tenantID string, status domain.TimesheetStatus) (int64, error) {
	return 3, nil
}

func (s *stubDashboardRepo) CountActiveEmployees(ctx context.Context, tenantID string) (int64, error) {
	return 12, nil
}

func (s *stubDashboardRepo) InvoiceTotals(ctx context.Context, tenantID string, from, to time.Time) (map[domain.InvoiceStatus]decimal.Decimal, error) {
	return map[domain.InvoiceStatus]decimal.Decimal{
		domain.InvoiceSent:    dec("1000.10"),
		domain.InvoiceOverdue: dec("250"),
		domain.InvoicePaid:    dec("5000"),
	}, nil
}

func (s *stubDashboardRepo) TopClients(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]domain.ClientHours, error) {
	return []domain.ClientHours{{ClientID: "c1", Name: "Globex", Hours: 80}}, nil
}

func (s *stubDashboardRepo) WeeklyHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]domain.WeekHours, error) {
	if employeeID != "" {
		return []domain.WeekHours{{WeekStart: date("2024-03-04"), Hours: 40}, {WeekStart: date("2024-03-11"), Hours: 32.25}}, nil
	}
	return []domain.WeekHours{
		{WeekStart: date("2024-03-04"), Hours: 60.5},
		{WeekStart: date("2024-03-11"), Hours: 60},
	}, nil
}

func (s *stubDashboardRepo) LeaveHours(ctx context.Context, tenantID, employeeID string, from, to time.Time) (float64, error) {
	return 8, nil
}

func TestDashboardSummary(t *testing.T) {
	repo := &stubDashboardRepo{}
	cache := &memCache{items: map[string][]byte{}}
	uc := NewDashboardUsecase(repo, cache, nil)

	summary, err := uc.Summary(context.Background(), tenantID, date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)

	assert.Equal(t, 120.5, summary.ApprovedHours)
	assert.Equal(t, int64(3), summary.PendingApprovals)
	assert.Equal(t, int64(12), summary.ActiveEmployees)
	assert.True(t, dec("1250.10").Equal(summary.Outstanding), summary.Outstanding.String())
	assert.Equal(t, []string{"2024-03-04", "2024-03-11"}, summary.WeeklyHours.Keys())

	raw, err := json.Marshal(summary.WeeklyHours)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-03-04":60.5,"2024-03-11":60}`, string(raw))

	// the second call is served from the cache
	cached, err := uc.Summary(context.Background(), tenantID, date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, summary.ApprovedHours, cached.ApprovedHours)
	assert.Equal(t, summary.WeeklyHours.Keys(), cached.WeeklyHours.Keys())
	assert.Len(t, cache.items, 1)

	_, err = uc.Summary(context.Background(), tenantID, date("2024-03-31"), date("2024-03-01"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDashboardEmployeeSummary(t *testing.T) {
	uc := NewDashboardUsecase(&stubDashboardRepo{}, nil, nil)

	summary, err := uc.EmployeeSummary(context.Background(), tenantID, "emp-1", date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)

	assert.Equal(t, 72.25, summary.TotalHours)
	assert.Equal(t, 8.0, summary.LeaveHours)
	v, ok := summary.WeeklyHours.Get("2024-03-11")
	require.True(t, ok)
	assert.Equal(t, 32.25, v)
}
