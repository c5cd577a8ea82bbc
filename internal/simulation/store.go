// internal/simulation/store.go
package simulation

import (
	"context"
	"sync"
	"time"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/models"
)

// Store holds simulation jobs for their whole lifecycle. It is the only
// mutable shared state in the service: one writer per job (the manager),
// any number of concurrent readers. Readers always get a deep-copied
// snapshot, so a terminal transition is observed atomically — never a
// complete status with missing predictions or summary.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*models.SimulationJob
	retention time.Duration
	logger    logger.Logger
}

func NewStore(retention time.Duration, log logger.Logger) *Store {
	return &Store{
		jobs:      make(map[string]*models.SimulationJob),
		retention: retention,
		logger:    log.WithFields(map[string]interface{}{"component": "job-store"}),
	}
}

// Put registers a freshly created job.
func (s *Store) Put(job *models.SimulationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of the job, or SIMULATION_NOT_FOUND if the id is
// unknown or the job has been evicted.
func (s *Store) Get(id string) (*models.SimulationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(id)
	}
	return snapshot(job), nil
}

// MarkRunning moves a pending job to running. No-op on terminal jobs.
func (s *Store) MarkRunning(id string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Status = models.StatusRunning
	job.Progress = &models.Progress{Total: total}
	job.UpdatedAt = time.Now().UTC()
}

// SetProgress records how many member predictions have resolved so far.
func (s *Store) SetProgress(id string, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() || job.Progress == nil {
		return
	}
	job.Progress.Completed = completed
	job.UpdatedAt = time.Now().UTC()
}

// Complete publishes predictions and summary together with the terminal
// status, under one lock acquisition. Ignored if the job already terminated.
func (s *Store) Complete(id string, predictions []models.PredictionResponse, summary models.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Status = models.StatusComplete
	job.Predictions = predictions
	job.Summary = &summary
	if job.Progress != nil {
		job.Progress.Completed = job.Progress.Total
	}
	job.UpdatedAt = time.Now().UTC()
}

// Fail moves a job to the error terminal state with a human-readable reason.
func (s *Store) Fail(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Status = models.StatusError
	job.Error = reason
	job.UpdatedAt = time.Now().UTC()
}

// Len reports the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// RunJanitor evicts terminal jobs older than the retention window until ctx
// is cancelled. Pending and running jobs are never evicted, whatever their
// age, so an in-flight job cannot vanish under its manager.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictExpired(time.Now().UTC())
		}
	}
}

func (s *Store) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && now.Sub(job.UpdatedAt) > s.retention {
			delete(s.jobs, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("evicted expired simulations", map[string]interface{}{
			"count":     evicted,
			"remaining": len(s.jobs),
		})
	}
}

// snapshot deep-copies a job so callers can never observe or cause a
// mutation of stored state.
func snapshot(job *models.SimulationJob) *models.SimulationJob {
	out := *job
	if job.Progress != nil {
		p := *job.Progress
		out.Progress = &p
	}
	if job.Summary != nil {
		sum := *job.Summary
		out.Summary = &sum
	}
	if job.Predictions != nil {
		preds := make([]models.PredictionResponse, len(job.Predictions))
		copy(preds, job.Predictions)
		for i := range preds {
			if preds[i].Features != nil {
				feats := make([]models.FeatureContribution, len(preds[i].Features))
				copy(feats, preds[i].Features)
				preds[i].Features = feats
			}
		}
		out.Predictions = preds
	}
	if job.Bill.Initiators != nil {
		inits := make([]string, len(job.Bill.Initiators))
		copy(inits, job.Bill.Initiators)
		out.Bill.Initiators = inits
	}
	return &out
}
