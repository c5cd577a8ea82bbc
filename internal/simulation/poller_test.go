// internal/simulation/poller_test.go
package simulation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riigikogu-radar/internal/models"
)

func staticStatus(job *models.SimulationJob) StatusFunc {
	return func(ctx context.Context, id string) (*models.SimulationJob, error) {
		return job, nil
	}
}

func TestPoller_Defaults(t *testing.T) {
	p := NewPoller()
	assert.Equal(t, 2*time.Second, p.Interval)
	assert.Equal(t, 30, p.MaxAttempts)
}

func TestPoller_ReturnsTerminalJob(t *testing.T) {
	tests := []struct {
		name   string
		status models.JobStatus
	}{
		{name: "complete job", status: models.StatusComplete},
		{name: "error job", status: models.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Poller{Interval: time.Millisecond, MaxAttempts: 3}
			job, err := p.Wait(context.Background(), "sim-1", staticStatus(&models.SimulationJob{
				ID:     "sim-1",
				Status: tt.status,
			}))
			require.NoError(t, err, "a job-side terminal state is a successful poll")
			assert.Equal(t, tt.status, job.Status)
		})
	}
}

func TestPoller_WaitsThroughRunning(t *testing.T) {
	var calls int64
	fetch := func(ctx context.Context, id string) (*models.SimulationJob, error) {
		n := atomic.AddInt64(&calls, 1)
		status := models.StatusRunning
		if n >= 4 {
			status = models.StatusComplete
		}
		return &models.SimulationJob{ID: id, Status: status}, nil
	}

	p := Poller{Interval: time.Millisecond, MaxAttempts: 10}
	job, err := p.Wait(context.Background(), "sim-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, job.Status)
	assert.Equal(t, int64(4), atomic.LoadInt64(&calls))
}

func TestPoller_ClientTimeout(t *testing.T) {
	var calls int64
	fetch := func(ctx context.Context, id string) (*models.SimulationJob, error) {
		atomic.AddInt64(&calls, 1)
		return &models.SimulationJob{ID: id, Status: models.StatusRunning}, nil
	}

	p := Poller{Interval: time.Millisecond, MaxAttempts: 5}
	_, err := p.Wait(context.Background(), "sim-1", fetch)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientTimeout)
	assert.Equal(t, int64(5), atomic.LoadInt64(&calls), "attempt budget is exact")

	// A client timeout is a give-up, not a job failure: the job may still be
	// running server-side and its status is untouched.
	job, ferr := fetch(context.Background(), "sim-1")
	require.NoError(t, ferr)
	assert.Equal(t, models.StatusRunning, job.Status)
}

func TestPoller_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("network down")
	fetch := func(ctx context.Context, id string) (*models.SimulationJob, error) {
		return nil, boom
	}

	p := Poller{Interval: time.Millisecond, MaxAttempts: 3}
	_, err := p.Wait(context.Background(), "sim-1", fetch)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrClientTimeout)
}

func TestPoller_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Poller{Interval: time.Second, MaxAttempts: 30}
	_, err := p.Wait(ctx, "sim-1", staticStatus(&models.SimulationJob{
		ID:     "sim-1",
		Status: models.StatusRunning,
	}))
	assert.ErrorIs(t, err, context.Canceled)
}
