// internal/simulation/poller.go
package simulation

import (
	"context"
	"errors"
	"time"

	"riigikogu-radar/internal/models"
)

// ErrClientTimeout is returned when a poller exhausts its attempt budget
// before the job reaches a terminal state. It is a client-side give-up, not
// a job failure: the job may still complete on the server afterwards.
var ErrClientTimeout = errors.New("simulation polling timed out")

// StatusFunc fetches the current state of a simulation job.
type StatusFunc func(ctx context.Context, id string) (*models.SimulationJob, error)

// Poller implements the polling contract callers must follow after
// submitting a simulation: fixed interval, bounded attempts. Polling is
// read-only, so any number of concurrent pollers can share one job id.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewPoller returns the default contract: 30 polls at 2-second intervals,
// a 60-second budget.
func NewPoller() Poller {
	return Poller{
		Interval:    2 * time.Second,
		MaxAttempts: 30,
	}
}

// Wait polls fetch until the job reaches complete or error, the attempt
// budget runs out (ErrClientTimeout) or ctx is cancelled. A job-side error
// status is a successful poll: the terminal job is returned with nil error.
func (p Poller) Wait(ctx context.Context, id string, fetch StatusFunc) (*models.SimulationJob, error) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		job, err := fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Interval):
		}
	}
	return nil, ErrClientTimeout
}
