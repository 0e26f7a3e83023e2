package jobs

import (
	"sync"

	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

// Store is the narrow persistence boundary for job state. The default
// backing is an in-process map; a shared backing store can be swapped in
// later without touching registry callers.
type Store interface {
	// Put inserts or replaces a job.
	Put(job *types.Job)
	// Get returns a copy of the job, or false when absent.
	Get(id string) (*types.Job, bool)
	// Mutate applies fn to the job under the store's lock. fn sees the live
	// record; returning an error discards the mutation. The returned job is
	// a copy. found is false when the id is unknown.
	Mutate(id string, fn func(*types.Job) error) (job *types.Job, found bool, err error)
	// Delete removes a job if present.
	Delete(id string)
	// List returns a point-in-time snapshot of all jobs.
	List() []*types.Job
	// Len returns the current number of jobs.
	Len() int
}

type memoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*types.Job
}

func NewMemoryStore() Store {
	return &memoryStore{jobs: make(map[string]*types.Job)}
}

func (s *memoryStore) Put(job *types.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
}

func (s *memoryStore) Get(id string) (*types.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return j.Clone(), true
}

func (s *memoryStore) Mutate(id string, fn func(*types.Job) error) (*types.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, false, nil
	}
	if err := fn(j); err != nil {
		return nil, true, err
	}
	return j.Clone(), true, nil
}

func (s *memoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

func (s *memoryStore) List() []*types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out
}

func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
