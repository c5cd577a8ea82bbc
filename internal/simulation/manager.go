// internal/simulation/manager.go
package simulation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/common/metrics"
	"riigikogu-radar/internal/common/observability"
	"riigikogu-radar/internal/models"
	"riigikogu-radar/internal/oracle"
)

// Roster is the parliamentary data store contract consumed by the manager.
type Roster interface {
	ListActiveMembers(ctx context.Context) ([]models.Member, error)
}

// Options bound the background dispatch. Zero values fall back to defaults
// matching the config loader.
type Options struct {
	MaxConcurrent int           // simultaneous oracle calls
	MaxRetries    int           // transient retries per member, on top of the first attempt
	RetryBackoff  time.Duration // base delay between retries
}

func (o *Options) applyDefaults() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 8
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 250 * time.Millisecond
	}
}

// Manager owns simulation jobs end to end: it creates them, drives the
// pending → running → complete|error state machine in the background and
// answers status queries. Create and GetStatus never block on oracle work.
type Manager struct {
	store  *Store
	roster Roster
	oracle oracle.Client
	opts   Options
	logger logger.Logger
	obs    *observability.Observability

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(store *Store, roster Roster, oracleClient oracle.Client, opts Options, log logger.Logger, obs *observability.Observability) *Manager {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:  store,
		roster: roster,
		oracle: oracleClient,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "simulation-manager"}),
		obs:    obs,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Create validates the bill, registers a pending job and schedules the
// background run. It returns immediately; a full-roster simulation can take
// minutes and callers are expected to poll GetStatus.
func (m *Manager) Create(ctx context.Context, bill models.BillInput) (*models.SimulationJob, error) {
	if strings.TrimSpace(bill.Title) == "" {
		return nil, apperrors.NewValidationError("title must not be empty")
	}

	now := time.Now().UTC()
	job := &models.SimulationJob{
		ID:        uuid.NewString(),
		Bill:      bill,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.Put(job)

	metrics.SimulationsStarted.Inc()
	metrics.SimulationsActive.Inc()

	m.wg.Add(1)
	go m.run(job.ID, bill)

	m.logger.Info("simulation accepted", map[string]interface{}{
		"simulationId": job.ID,
		"title":        bill.Title,
	})

	return m.store.Get(job.ID)
}

// GetStatus returns the current snapshot of a job. Read-only and idempotent:
// concurrent pollers observe identical state for a terminal job.
func (m *Manager) GetStatus(ctx context.Context, id string) (*models.SimulationJob, error) {
	return m.store.Get(id)
}

// Close stops accepting background work and waits for in-flight runs to wind
// down, up to the ctx deadline. Unfinished jobs end up in the error state.
func (m *Manager) Close(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drives one job from pending to a terminal state.
func (m *Manager) run(id string, bill models.BillInput) {
	defer m.wg.Done()

	start := time.Now()
	log := m.logger.WithFields(map[string]interface{}{"simulationId": id})

	// Dispatch has begun; the roster fetch is already background work.
	m.store.MarkRunning(id, 0)

	members, err := m.roster.ListActiveMembers(m.ctx)
	if err != nil {
		log.WithError(err).Error("roster fetch failed", nil)
		m.finish(id, start, models.StatusError, apperrors.AsStandard(err).Details)
		return
	}

	m.store.MarkRunning(id, len(members))
	log.Info("simulation running", map[string]interface{}{"members": len(members)})

	var (
		mu        sync.Mutex
		results   = make([]models.PredictionResponse, 0, len(members))
		omitted   int
		completed int
	)

	sem := make(chan struct{}, m.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for _, member := range members {
		select {
		case <-m.ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(member models.Member) {
				defer wg.Done()
				defer func() { <-sem }()

				pred, err := m.predictWithRetry(member, bill)

				mu.Lock()
				defer mu.Unlock()
				completed++
				if err != nil {
					omitted++
					log.WithError(err).Warn("member prediction omitted", map[string]interface{}{
						"slug": member.Slug,
					})
				} else {
					results = append(results, *pred)
				}
				m.store.SetProgress(id, completed)
			}(member)
		}
		if m.ctx.Err() != nil {
			break
		}
	}

	wg.Wait()

	if m.ctx.Err() != nil {
		m.finish(id, start, models.StatusError, "server shutting down before simulation finished")
		return
	}

	if len(results) == 0 {
		m.finish(id, start, models.StatusError, "prediction failed for every active member")
		return
	}

	// Concurrent workers append in completion order; sort so repeated reads
	// of a terminal job are byte-identical.
	sort.Slice(results, func(i, j int) bool { return results[i].Slug < results[j].Slug })

	summary := Aggregate(results)
	m.store.Complete(id, results, summary)
	m.finish(id, start, models.StatusComplete, "")

	log.Info("simulation complete", map[string]interface{}{
		"predictions": len(results),
		"omitted":     omitted,
		"outcome":     summary.PredictedOutcome,
	})
}

// predictWithRetry calls the oracle for one member, retrying transient
// failures up to the configured bound. A fatal error or an exhausted budget
// records the member as omitted; it never fails the whole job.
func (m *Manager) predictWithRetry(member models.Member, bill models.BillInput) (*models.PredictionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= m.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-m.ctx.Done():
				return nil, m.ctx.Err()
			case <-time.After(m.opts.RetryBackoff * time.Duration(attempt)):
			}
		}

		callStart := time.Now()
		pred, err := m.oracle.Predict(m.ctx, member, bill)
		metrics.OracleCallDuration.Observe(time.Since(callStart).Seconds())

		if err == nil {
			metrics.OracleCalls.WithLabelValues("success").Inc()
			return pred, nil
		}

		lastErr = err
		if !apperrors.IsRetryable(err) {
			metrics.OracleCalls.WithLabelValues("fatal").Inc()
			return nil, err
		}
		metrics.OracleCalls.WithLabelValues("transient").Inc()
	}
	return nil, lastErr
}

// finish records the terminal transition and its metrics. The error reason is
// only applied when the status is error.
func (m *Manager) finish(id string, start time.Time, status models.JobStatus, reason string) {
	if status == models.StatusError {
		m.store.Fail(id, reason)
	}

	elapsed := time.Since(start)
	metrics.SimulationsActive.Dec()
	metrics.SimulationsFinished.WithLabelValues(string(status)).Inc()
	metrics.SimulationDuration.Observe(elapsed.Seconds())

	if m.obs != nil {
		m.obs.RecordJobProcessed(context.Background(), string(status))
		m.obs.RecordJobDuration(context.Background(), elapsed, string(status))
	}
}
