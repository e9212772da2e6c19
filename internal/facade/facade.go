// Package facade merges the per-backend job stores behind one consumer
// contract. Job ids are opaque to callers, so lookups try each backend's
// store in a fixed priority order and tag the response with the backend
// that resolved it.
package facade

import (
	"context"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/genjob"
	"mediaforge/internal/validate"
)

// JobView is a job snapshot tagged with the backend that owns it.
type JobView struct {
	Backend domain.Backend
	Job     *domain.Job
}

// Service is the single entry point for create, status, download, and stats
// across all backends.
type Service struct {
	stores []*genjob.Store
	logger zerolog.Logger
}

// New builds the facade. Store order is the lookup priority order.
func New(logger zerolog.Logger, stores ...*genjob.Store) *Service {
	return &Service{
		stores: stores,
		logger: logger.With().Str("component", "facade").Logger(),
	}
}

// Create validates the request for the named backend and admits a job.
// Validation failures are returned before any record exists.
func (s *Service) Create(backend domain.Backend, req domain.Request) (*domain.Job, error) {
	store := s.storeFor(backend)
	if store == nil {
		return nil, domain.ErrUnknownBackend
	}
	if err := validate.Request(backend, req); err != nil {
		return nil, err
	}
	return store.Create(req)
}

// Status locates the job across backends and returns its snapshot.
func (s *Service) Status(id string) (*JobView, error) {
	view, _, err := s.find(id)
	return view, err
}

// Download returns the bytes and media type of one artifact of a completed
// job. Remote-hosted artifacts are fetched through the owning backend's
// adapter on demand.
func (s *Service) Download(ctx context.Context, id string, index int) ([]byte, string, error) {
	view, store, err := s.find(id)
	if err != nil {
		return nil, "", err
	}
	job := view.Job
	switch job.Status {
	case domain.StatusCompleted:
	case domain.StatusExpired:
		return nil, "", domain.ErrJobExpired
	default:
		return nil, "", domain.ErrNotReady
	}
	if index < 0 || index >= job.Result.ArtifactCount() {
		return nil, "", domain.ErrNotFound
	}
	if remote := job.Result.Remote; remote != nil {
		return store.FetchArtifact(ctx, remote.URI)
	}
	artifact := job.Result.Artifacts[index]
	return artifact.Data, artifact.MediaType, nil
}

// Stats merges per-store status counts, keyed by backend.
func (s *Service) Stats() map[domain.Backend]map[domain.Status]int {
	out := make(map[domain.Backend]map[domain.Status]int, len(s.stores))
	for _, store := range s.stores {
		out[store.Backend()] = store.Stats()
	}
	return out
}

func (s *Service) storeFor(backend domain.Backend) *genjob.Store {
	for _, store := range s.stores {
		if store.Backend() == backend {
			return store
		}
	}
	return nil
}

func (s *Service) find(id string) (*JobView, *genjob.Store, error) {
	for _, store := range s.stores {
		if job, ok := store.Get(id); ok {
			return &JobView{Backend: store.Backend(), Job: job}, store, nil
		}
	}
	return nil, nil, domain.ErrNotFound
}
