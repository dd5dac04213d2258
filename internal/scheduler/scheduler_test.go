package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/timepulse/internal/usecase"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(ctx context.Context) (usecase.ReminderSummary, error) {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return usecase.ReminderSummary{}, errors.New("pass must carry a deadline")
	}
	return usecase.ReminderSummary{Tenants: 2, EmailsSent: 3}, r.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every tuesday", &countingRunner{}, nil)
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	runner := &countingRunner{}
	s, err := New("0 9,17 * * *", runner, nil)
	require.NoError(t, err)

	s.RunOnce()
	assert.Equal(t, int32(1), runner.calls.Load())

	runner.err = errors.New("db down")
	s.RunOnce()
	assert.Equal(t, int32(2), runner.calls.Load())

	require.Len(t, s.cron.Entries(), 1)

	s.Start()
	s.Stop(context.Background())
}
