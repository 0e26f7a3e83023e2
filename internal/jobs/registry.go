package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

var (
	// ErrNotFound is returned for unknown job ids, including jobs already
	// removed by the retention sweep.
	ErrNotFound = errors.New("job not found")
	// ErrTerminalState is returned when an update would move a job out of
	// completed or failed.
	ErrTerminalState = errors.New("job is in a terminal state")
)

// SweepConfig bounds job retention. Zero fields fall back to defaults.
type SweepConfig struct {
	Interval        time.Duration
	MaxAge          time.Duration
	CompletedMaxAge time.Duration
}

const (
	defaultSweepInterval   = 5 * time.Minute
	defaultMaxAge          = 24 * time.Hour
	defaultCompletedMaxAge = 1 * time.Hour
)

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Interval <= 0 {
		c.Interval = defaultSweepInterval
	}
	if c.MaxAge <= 0 {
		c.MaxAge = defaultMaxAge
	}
	if c.CompletedMaxAge <= 0 {
		c.CompletedMaxAge = defaultCompletedMaxAge
	}
	return c
}

// Update carries a partial job mutation. Nil fields are left untouched.
type Update struct {
	Status   *types.JobStatus
	Progress *int
	Payload  map[string]any
	Result   any
	Error    *string
}

// Registry owns the lifecycle of asynchronous work items. Job state is
// ephemeral: there is no cancellation or timeout contract, a job stuck in
// processing is reclaimed only by the age-based sweep.
type Registry struct {
	store Store
	log   *logger.Logger
	sweep SweepConfig

	now func() time.Time
}

func NewRegistry(store Store, baseLog *logger.Logger, sweep SweepConfig) *Registry {
	return &Registry{
		store: store,
		log:   baseLog.With("component", "JobRegistry"),
		sweep: sweep.withDefaults(),
		now:   time.Now,
	}
}

// CreateJob allocates a new job with status created and progress 0.
func (r *Registry) CreateJob(jobType string, payload map[string]any) *types.Job {
	now := r.now()
	job := &types.Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    types.JobStatusCreated,
		Progress:  0,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.Put(job)
	r.log.Debug("Job created", "job_id", job.ID, "job_type", jobType)
	return job.Clone()
}

func (r *Registry) GetJob(id string) (*types.Job, error) {
	job, ok := r.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

// UpdateJob merges the given fields into the job and bumps UpdatedAt. The
// status/progress/error invariants are normalized on every write: progress
// is 100 exactly for completed jobs and the error message is kept only on
// failed jobs.
func (r *Registry) UpdateJob(id string, upd Update) (*types.Job, error) {
	job, found, err := r.store.Mutate(id, func(j *types.Job) error {
		if upd.Status != nil {
			next := *upd.Status
			if !next.Valid() {
				return fmt.Errorf("invalid job status %q", next)
			}
			if j.Status.Terminal() && next != j.Status {
				return ErrTerminalState
			}
			if next == types.JobStatusFailed && upd.Error == nil && j.Error == "" {
				return fmt.Errorf("failed status requires an error message")
			}
			j.Status = next
		}
		if upd.Progress != nil {
			j.Progress = clampProgress(*upd.Progress)
		}
		if upd.Payload != nil {
			j.Payload = upd.Payload
		}
		if upd.Result != nil {
			j.Result = upd.Result
		}
		if upd.Error != nil {
			j.Error = *upd.Error
		}

		switch j.Status {
		case types.JobStatusCompleted:
			j.Progress = 100
			j.Error = ""
		case types.JobStatusFailed:
			// keep progress where it stopped
		default:
			if j.Progress >= 100 {
				j.Progress = 99
			}
			j.Error = ""
		}
		j.UpdatedAt = r.now()
		return nil
	})
	if !found {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// SetJobStatus is a convenience wrapper over UpdateJob. errMsg is required
// when status is failed.
func (r *Registry) SetJobStatus(id string, status types.JobStatus, progress *int, errMsg string) (*types.Job, error) {
	upd := Update{Status: &status, Progress: progress}
	if errMsg != "" {
		upd.Error = &errMsg
	}
	return r.UpdateJob(id, upd)
}

// SetJobResult forces completion: status completed, progress 100, result set.
func (r *Registry) SetJobResult(id string, result any) (*types.Job, error) {
	status := types.JobStatusCompleted
	return r.UpdateJob(id, Update{Status: &status, Result: result})
}

// FailJob forces status failed with the given message.
func (r *Registry) FailJob(id string, errMsg string) (*types.Job, error) {
	if errMsg == "" {
		errMsg = "unknown error"
	}
	status := types.JobStatusFailed
	return r.UpdateJob(id, Update{Status: &status, Error: &errMsg})
}

func (r *Registry) ListJobs() []*types.Job {
	return r.store.List()
}

func (r *Registry) GetJobsByType(jobType string) []*types.Job {
	var out []*types.Job
	for _, j := range r.store.List() {
		if j.Type == jobType {
			out = append(out, j)
		}
	}
	return out
}

func (r *Registry) GetJobsByStatus(status types.JobStatus) []*types.Job {
	var out []*types.Job
	for _, j := range r.store.List() {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out
}

func (r *Registry) Stats() types.JobStats {
	stats := types.JobStats{
		ByStatus: make(map[types.JobStatus]int),
		ByType:   make(map[string]int),
	}
	for _, j := range r.store.List() {
		stats.Total++
		stats.ByStatus[j.Status]++
		stats.ByType[j.Type]++
	}
	return stats
}

// Start launches the background retention sweep. It stops when ctx is done.
func (r *Registry) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.sweep.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.sweepOnce()
				if removed > 0 {
					r.log.Info("Job sweep removed expired jobs", "removed", removed, "remaining", r.store.Len())
				}
			}
		}
	}()
}

// sweepOnce deletes jobs past retention. It iterates over a snapshot and
// deletes per id, so foreground operations are never blocked for the whole
// pass.
func (r *Registry) sweepOnce() int {
	now := r.now()
	removed := 0
	for _, j := range r.store.List() {
		age := now.Sub(j.CreatedAt)
		expired := age > r.sweep.MaxAge ||
			(j.Status == types.JobStatusCompleted && age > r.sweep.CompletedMaxAge)
		if expired {
			r.store.Delete(j.ID)
			removed++
		}
	}
	return removed
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
