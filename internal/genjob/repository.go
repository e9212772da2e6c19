package genjob

import "mediaforge/internal/domain"

// Repository is the id-to-record mapping behind a Store. Implementations
// need no internal locking; the owning Store serializes every call. A
// durable implementation can replace the in-memory one without touching the
// orchestration logic.
type Repository interface {
	Insert(job *domain.Job)
	Get(id string) (*domain.Job, bool)
	Delete(id string)
	List() []*domain.Job
}

// memoryRepository keeps records in a plain map for the lifetime of the
// process.
type memoryRepository struct {
	jobs map[string]*domain.Job
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{jobs: make(map[string]*domain.Job)}
}

func (r *memoryRepository) Insert(job *domain.Job) {
	r.jobs[job.ID] = job
}

func (r *memoryRepository) Get(id string) (*domain.Job, bool) {
	job, ok := r.jobs[id]
	return job, ok
}

func (r *memoryRepository) Delete(id string) {
	delete(r.jobs, id)
}

func (r *memoryRepository) List() []*domain.Job {
	out := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out
}

var _ Repository = (*memoryRepository)(nil)
