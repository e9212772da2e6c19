// Package genjob implements the job orchestration core shared by all
// generation backends: admission-controlled creation, background execution
// against a provider adapter, snapshot reads, and retention sweeping.
package genjob

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
)

// Options tunes one backend's store. Zero values fall back to defaults;
// video backends typically run with a longer poll interval and TTL than
// image backends.
type Options struct {
	// MaxConcurrent caps jobs in pending or processing. Create rejects
	// beyond it.
	MaxConcurrent int

	// PollInterval is the wait between long-running operation polls.
	PollInterval time.Duration

	// MaxPollAttempts bounds the poll loop; exceeding it fails the job
	// with a timeout error.
	MaxPollAttempts int

	// ResultTTL is how long a completed result stays downloadable.
	ResultTTL time.Duration

	// MaxAge deletes any record this long after creation, whatever its
	// status.
	MaxAge time.Duration

	// SweepInterval is the cadence of the expiry sweeper.
	SweepInterval time.Duration
}

const (
	DefaultMaxConcurrent   = 5
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollAttempts = 30
	DefaultResultTTL       = time.Hour
	DefaultMaxAge          = 24 * time.Hour
	DefaultSweepInterval   = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if o.ResultTTL <= 0 {
		o.ResultTTL = DefaultResultTTL
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	return o
}

// Store is the authoritative id-to-record mapping for one backend. All
// repository access and record field writes happen under mu; reads hand out
// clones.
type Store struct {
	adapter Adapter
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	repo Repository
}

// NewStore builds a store for one backend. Close must be called on shutdown
// to cancel in-flight provider calls.
func NewStore(adapter Adapter, opts Options, logger zerolog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		adapter: adapter,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("component", "genjob").Str("backend", string(adapter.Backend())).Logger(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		repo:    newMemoryRepository(),
	}
}

// Backend reports which backend this store serves.
func (s *Store) Backend() domain.Backend {
	return s.adapter.Backend()
}

// Options returns the effective tuning of this store.
func (s *Store) Options() Options {
	return s.opts
}

// Create admits a new job and dispatches its execution in the background.
// The capacity check and the record insert hold the same lock, so two
// concurrent creates can never both claim the last free slot. The returned
// snapshot always has status pending.
func (s *Store) Create(req domain.Request) (*domain.Job, error) {
	s.mu.Lock()
	if s.inFlightLocked() >= s.opts.MaxConcurrent {
		s.mu.Unlock()
		return nil, domain.ErrAdmissionRejected
	}
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.StatusPending,
		Request:   req,
		CreatedAt: s.now(),
	}
	s.repo.Insert(job)
	snapshot := job.Clone()
	s.mu.Unlock()

	s.logger.Info().Str("job_id", job.ID).Str("model", req.Model).Msg("job admitted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(job.ID)
	}()

	return snapshot, nil
}

// Get returns a snapshot of the job, or false if the id is unknown.
func (s *Store) Get(id string) (*domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.repo.Get(id)
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Stats counts jobs by status.
func (s *Store) Stats() map[domain.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.Status]int)
	for _, job := range s.repo.List() {
		counts[job.Status]++
	}
	return counts
}

// FetchArtifact downloads a remotely hosted artifact through this store's
// adapter.
func (s *Store) FetchArtifact(ctx context.Context, uri string) ([]byte, string, error) {
	return s.adapter.FetchArtifact(ctx, uri)
}

// Sweep applies retention rules as of now: completed records past their
// expiry transition to expired and drop their payload, and any record older
// than MaxAge is deleted. Re-sweeping an already-expired record is a no-op.
func (s *Store) Sweep(now time.Time) (expired, deleted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.repo.List() {
		if now.Sub(job.CreatedAt) > s.opts.MaxAge {
			s.repo.Delete(job.ID)
			deleted++
			continue
		}
		if job.Status == domain.StatusCompleted && job.ExpiresAt != nil && now.After(*job.ExpiresAt) {
			job.Status = domain.StatusExpired
			// Artifact bytes are released on expiry; the record stays
			// around (until MaxAge) so lookups can report expired
			// instead of not found.
			job.Result = nil
			expired++
		}
	}
	return expired, deleted
}

// Close cancels in-flight provider calls and waits for background execution
// to settle.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) inFlightLocked() int {
	n := 0
	for _, job := range s.repo.List() {
		if job.Status == domain.StatusPending || job.Status == domain.StatusProcessing {
			n++
		}
	}
	return n
}

// mutate applies fn to the live record if it still exists. The sweeper may
// have deleted the record while execution was off-lock; in that case the
// mutation is dropped.
func (s *Store) mutate(id string, fn func(*domain.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.repo.Get(id); ok {
		fn(job)
	}
}
