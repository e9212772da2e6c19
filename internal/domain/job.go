package domain

import "time"

// Backend enumerates the generation backends.
type Backend string

const (
	BackendImage Backend = "image"
	BackendEdit  Backend = "edit"
	BackendVideo Backend = "video"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further provider interaction happens for a job
// in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Job tracks one generation request from admission to expiry.
type Job struct {
	ID          string
	Status      Status
	Request     Request
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time
	Result      *Result
	Error       string
	RetryCount  int
}

// Clone returns a copy safe to hand out as a snapshot: timestamps and the
// result structure are duplicated. Artifact byte slices are shared; they are
// write-once and never mutated after completion.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.StartedAt = cloneTime(j.StartedAt)
	out.CompletedAt = cloneTime(j.CompletedAt)
	out.ExpiresAt = cloneTime(j.ExpiresAt)
	out.Result = j.Result.clone()
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
