package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/utils"
)

const (
	dashboardCacheTTL = 60 * time.Second
	topClientsLimit   = 5
)

type DashboardUsecase struct {
	repo   DashboardRepository
	cache  Cache
	logger *zap.Logger
}

func NewDashboardUsecase(repo DashboardRepository, cache Cache, logger *zap.Logger) *DashboardUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardUsecase{repo: repo, cache: cache, logger: logger}
}

func dashboardKey(tenantID, kind string, from, to time.Time, id string) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", tenantID, kind, from.Format(timepulse.DateLayout), to.Format(timepulse.DateLayout), id)
	return fmt.Sprintf("dashboard:%016x", xxh3.HashString(raw))
}

// cached serves key from the cache or fills it with load. Cache failures
// only cost the shortcut.
func cached[T any](ctx context.Context, uc *DashboardUsecase, key string, load func(context.Context) (T, error)) (T, error) {
	if uc.cache != nil {
		raw, found, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("dashboard cache get failed", zap.String("key", key), zap.Error(err))
		} else if found {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if uc.cache != nil {
		raw, err := json.Marshal(value)
		if err == nil {
			err = uc.cache.Set(ctx, key, raw, dashboardCacheTTL)
		}
		if err != nil {
			uc.logger.Warn("dashboard cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return domain.ValidationError{Field: "from", Message: "from and to are required"}
	}
	if to.Before(from) {
		return domain.ValidationError{Field: "to", Message: "must not be before from"}
	}
	return nil
}

// Summary aggregates the tenant's hours and billing over [from, to].
func (uc *DashboardUsecase) Summary(ctx context.Context, tenantID string, from, to time.Time) (domain.DashboardSummary, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Usecase.Summary")
	defer span.End()

	if err := checkRange(from, to); err != nil {
		return domain.DashboardSummary{}, err
	}

	key := dashboardKey(tenantID, "summary", from, to, "")
	return cached(ctx, uc, key, func(ctx context.Context) (domain.DashboardSummary, error) {
		summary := domain.DashboardSummary{From: from, To: to}

		var weeks []domain.WeekHours
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			summary.HoursByStatus, err = uc.repo.HoursByStatus(gctx, tenantID, from, to)
			return err
		})
		g.Go(func() (err error) {
			summary.PendingApprovals, err = uc.repo.CountByStatus(gctx, tenantID, domain.TimesheetSubmitted)
			return err
		})
		g.Go(func() (err error) {
			summary.ActiveEmployees, err = uc.repo.CountActiveEmployees(gctx, tenantID)
			return err
		})
		g.Go(func() (err error) {
			summary.InvoiceTotals, err = uc.repo.InvoiceTotals(gctx, tenantID, from, to)
			return err
		})
		g.Go(func() (err error) {
			summary.TopClients, err = uc.repo.TopClients(gctx, tenantID, from, to, topClientsLimit)
			return err
		})
		g.Go(func() (err error) {
			weeks, err = uc.repo.WeeklyHours(gctx, tenantID, "", from, to)
			return err
		})
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return domain.DashboardSummary{}, errors.Wrap(err, "Dashboard.Usecase.Summary")
		}

		if summary.HoursByStatus == nil {
			summary.HoursByStatus = map[domain.TimesheetStatus]float64{}
		}
		if summary.InvoiceTotals == nil {
			summary.InvoiceTotals = map[domain.InvoiceStatus]decimal.Decimal{}
		}
		if summary.TopClients == nil {
			summary.TopClients = []domain.ClientHours{}
		}
		summary.ApprovedHours = timepulse.RoundHours(summary.HoursByStatus[domain.TimesheetApproved])
		summary.Outstanding = summary.InvoiceTotals[domain.InvoiceSent].Add(summary.InvoiceTotals[domain.InvoiceOverdue])
		summary.WeeklyHours = weeklySeries(weeks)
		return summary, nil
	})
}

// EmployeeSummary reports one employee's approved hours per week and leave
// over [from, to].
func (uc *DashboardUsecase) EmployeeSummary(ctx context.Context, tenantID, employeeID string, from, to time.Time) (domain.EmployeeSummary, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Usecase.EmployeeSummary")
	defer span.End()

	if err := checkRange(from, to); err != nil {
		return domain.EmployeeSummary{}, err
	}

	key := dashboardKey(tenantID, "employee", from, to, employeeID)
	return cached(ctx, uc, key, func(ctx context.Context) (domain.EmployeeSummary, error) {
		summary := domain.EmployeeSummary{EmployeeID: employeeID, From: from, To: to}

		var weeks []domain.WeekHours
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			weeks, err = uc.repo.WeeklyHours(gctx, tenantID, employeeID, from, to)
			return err
		})
		g.Go(func() (err error) {
			summary.LeaveHours, err = uc.repo.LeaveHours(gctx, tenantID, employeeID, from, to)
			return err
		})
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return domain.EmployeeSummary{}, errors.Wrap(err, "Dashboard.Usecase.EmployeeSummary")
		}

		for _, w := range weeks {
			summary.TotalHours += w.Hours
		}
		summary.TotalHours = timepulse.RoundHours(summary.TotalHours)
		summary.WeeklyHours = weeklySeries(weeks)
		return summary, nil
	})
}

func weeklySeries(weeks []domain.WeekHours) *utils.OrderedMap[float64] {
	series := utils.NewOrderedMap[float64]()
	for _, w := range weeks {
		series.Set(w.WeekStart.Format(timepulse.DateLayout), timepulse.RoundHours(w.Hours))
	}
	return series
}
