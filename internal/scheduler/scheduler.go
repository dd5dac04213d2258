package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse/internal/usecase"
)

type ReminderRunner interface {
	Run(ctx context.Context) (usecase.ReminderSummary, error)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs the reminder pass on a cron schedule. A pass that is still
// running when the next one is due causes that one to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  ReminderRunner
	logger  *zap.Logger
	timeout time.Duration
}

func New(spec string, runner ReminderRunner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{sugar: logger.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		logger:  logger,
		timeout: 30 * time.Minute,
	}

	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single reminder pass and logs its summary.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("reminder pass failed", zap.Error(err))
		return
	}
	s.logger.Info("reminder pass finished",
		zap.Duration("took", time.Since(start)),
		zap.Int("tenants", summary.Tenants),
		zap.Int("missingSubmissions", summary.MissingSubmissions),
		zap.Int("staleApprovals", summary.StaleApprovals),
		zap.Int("overdueInvoices", summary.OverdueInvoices),
		zap.Int("emailsSent", summary.EmailsSent),
		zap.Int("errors", summary.Errors),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running pass to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
