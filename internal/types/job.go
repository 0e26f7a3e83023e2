package types

import "time"

type JobStatus string

const (
	JobStatusCreated    JobStatus = "created"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusCreated, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Job is a tracked unit of asynchronous work. Progress is 0-100 and reaches
// 100 exactly when the job completes; Error is set exactly when it fails.
type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Payload   map[string]any `json:"payload,omitempty"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Payload != nil {
		cp.Payload = make(map[string]any, len(j.Payload))
		for k, v := range j.Payload {
			cp.Payload[k] = v
		}
	}
	return &cp
}

// JobStats aggregates registry contents for observability endpoints.
type JobStats struct {
	Total    int                `json:"total"`
	ByStatus map[JobStatus]int  `json:"by_status"`
	ByType   map[string]int     `json:"by_type"`
}
