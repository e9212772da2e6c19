package genjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/domain"
)

type fakeAdapter struct {
	backend domain.Backend
	submit  func(ctx context.Context, req domain.Request) (*Submission, error)
	poll    func(ctx context.Context, handle string) (*Operation, error)
	fetch   func(ctx context.Context, uri string) ([]byte, string, error)
}

func (f *fakeAdapter) Backend() domain.Backend {
	if f.backend == "" {
		return domain.BackendImage
	}
	return f.backend
}

func (f *fakeAdapter) Submit(ctx context.Context, req domain.Request) (*Submission, error) {
	if f.submit != nil {
		return f.submit(ctx, req)
	}
	return &Submission{Result: pngResult()}, nil
}

func (f *fakeAdapter) Poll(ctx context.Context, handle string) (*Operation, error) {
	if f.poll != nil {
		return f.poll(ctx, handle)
	}
	return nil, errors.New("poll not implemented")
}

func (f *fakeAdapter) FetchArtifact(ctx context.Context, uri string) ([]byte, string, error) {
	if f.fetch != nil {
		return f.fetch(ctx, uri)
	}
	return nil, "", errors.New("fetch not implemented")
}

func pngResult() *domain.Result {
	return &domain.Result{Artifacts: []domain.Artifact{{MediaType: "image/png", Data: []byte("png")}}}
}

func testRequest() domain.Request {
	return domain.Request{Prompt: "a lighthouse at dawn", Model: "gemini-2.5-flash-image", AspectRatio: "1:1"}
}

func fastOptions() Options {
	return Options{PollInterval: time.Millisecond, MaxPollAttempts: 10}
}

func waitForStatus(t *testing.T, s *Store, id string, want domain.Status) *domain.Job {
	t.Helper()
	var job *domain.Job
	require.Eventually(t, func() bool {
		got, ok := s.Get(id)
		if !ok {
			return false
		}
		job = got
		return got.Status == want
	}, 2*time.Second, 2*time.Millisecond, "job never reached %s", want)
	return job
}

func TestCreateEnforcesConcurrencyCeiling(t *testing.T) {
	release := make(chan struct{})
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &Submission{Result: pngResult()}, nil
	}}
	s := NewStore(adapter, Options{MaxConcurrent: 5}, zerolog.Nop())
	defer s.Close()

	for i := 0; i < 5; i++ {
		job, err := s.Create(testRequest())
		require.NoError(t, err)
		require.Equal(t, domain.StatusPending, job.Status)
	}

	_, err := s.Create(testRequest())
	require.ErrorIs(t, err, domain.ErrAdmissionRejected)

	close(release)
	require.Eventually(t, func() bool {
		return s.Stats()[domain.StatusCompleted] == 5
	}, 2*time.Second, 2*time.Millisecond)

	// Completions freed the slots.
	_, err = s.Create(testRequest())
	require.NoError(t, err)
}

func TestImmediateResultCompletesJob(t *testing.T) {
	s := NewStore(&fakeAdapter{}, Options{}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	require.Nil(t, job.ExpiresAt)

	done := waitForStatus(t, s, job.ID, domain.StatusCompleted)
	require.NotNil(t, done.Result)
	require.Equal(t, 1, done.Result.ArtifactCount())
	require.Empty(t, done.Error)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.ExpiresAt)
	require.True(t, done.ExpiresAt.After(*done.CompletedAt))
}

func TestPollLoopCompletesAfterExactlyNPolls(t *testing.T) {
	var polls int32
	adapter := &fakeAdapter{
		submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
			return &Submission{OperationHandle: "op-1"}, nil
		},
		poll: func(ctx context.Context, handle string) (*Operation, error) {
			require.Equal(t, "op-1", handle)
			if atomic.AddInt32(&polls, 1) < 3 {
				return &Operation{Done: false}, nil
			}
			return &Operation{Done: true, Result: pngResult()}, nil
		},
	}
	s := NewStore(adapter, fastOptions(), zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	done := waitForStatus(t, s, job.ID, domain.StatusCompleted)
	require.EqualValues(t, 3, atomic.LoadInt32(&polls))
	require.NotNil(t, done.Result)
	require.Zero(t, done.RetryCount)
}

func TestPollLoopTimesOutAfterMaxAttempts(t *testing.T) {
	var polls int32
	adapter := &fakeAdapter{
		submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
			return &Submission{OperationHandle: "op-1"}, nil
		},
		poll: func(ctx context.Context, handle string) (*Operation, error) {
			atomic.AddInt32(&polls, 1)
			return &Operation{Done: false}, nil
		},
	}
	s := NewStore(adapter, Options{PollInterval: time.Millisecond, MaxPollAttempts: 4}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	failed := waitForStatus(t, s, job.ID, domain.StatusFailed)
	require.EqualValues(t, 4, atomic.LoadInt32(&polls))
	require.Contains(t, failed.Error, "generation timed out")
	require.Nil(t, failed.Result)
	require.Nil(t, failed.ExpiresAt)
}

func TestTransientPollFaultsBumpRetryCount(t *testing.T) {
	var polls int32
	adapter := &fakeAdapter{
		submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
			return &Submission{OperationHandle: "op-1"}, nil
		},
		poll: func(ctx context.Context, handle string) (*Operation, error) {
			if atomic.AddInt32(&polls, 1) <= 2 {
				return nil, errors.New("connection reset")
			}
			return &Operation{Done: true, Result: pngResult()}, nil
		},
	}
	s := NewStore(adapter, fastOptions(), zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	done := waitForStatus(t, s, job.ID, domain.StatusCompleted)
	require.Equal(t, 2, done.RetryCount)
}

func TestSubmitErrorFailsJob(t *testing.T) {
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		return nil, errors.New("quota exhausted")
	}}
	s := NewStore(adapter, Options{}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	failed := waitForStatus(t, s, job.ID, domain.StatusFailed)
	require.Equal(t, "provider: quota exhausted", failed.Error)
}

func TestProviderReportedFailureFailsJob(t *testing.T) {
	adapter := &fakeAdapter{
		submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
			return &Submission{OperationHandle: "op-1"}, nil
		},
		poll: func(ctx context.Context, handle string) (*Operation, error) {
			return &Operation{Done: true, Error: "safety filters rejected the prompt"}, nil
		},
	}
	s := NewStore(adapter, fastOptions(), zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	failed := waitForStatus(t, s, job.ID, domain.StatusFailed)
	require.Equal(t, "provider: safety filters rejected the prompt", failed.Error)
	require.NotContains(t, failed.Error, "timed out")
}

func TestAdapterPanicConvertsToFailed(t *testing.T) {
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		panic("nil map write")
	}}
	s := NewStore(adapter, Options{}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	failed := waitForStatus(t, s, job.ID, domain.StatusFailed)
	require.Contains(t, failed.Error, "internal fault")
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewStore(&fakeAdapter{}, Options{}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	done := waitForStatus(t, s, job.ID, domain.StatusCompleted)
	done.Status = domain.StatusFailed
	done.Result.Artifacts = nil

	again, ok := s.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, domain.StatusCompleted, again.Status)
	require.Equal(t, 1, again.Result.ArtifactCount())

	_, ok = s.Get("unknown")
	require.False(t, ok)
}

func TestStatsCountsByStatus(t *testing.T) {
	release := make(chan struct{})
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &Submission{Result: pngResult()}, nil
	}}
	s := NewStore(adapter, Options{MaxConcurrent: 3}, zerolog.Nop())
	defer s.Close()

	for i := 0; i < 2; i++ {
		_, err := s.Create(testRequest())
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return s.Stats()[domain.StatusProcessing] == 2
	}, 2*time.Second, 2*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		return s.Stats()[domain.StatusCompleted] == 2
	}, 2*time.Second, 2*time.Millisecond)
}

func TestStatusNeverRegressesFromTerminal(t *testing.T) {
	statuses := make(chan domain.Status, 64)
	adapter := &fakeAdapter{
		submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
			return &Submission{OperationHandle: "op-1"}, nil
		},
		poll: func(ctx context.Context, handle string) (*Operation, error) {
			return &Operation{Done: true, Result: pngResult()}, nil
		},
	}
	s := NewStore(adapter, fastOptions(), zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, ok := s.Get(job.ID)
		require.True(t, ok)
		select {
		case statuses <- got.Status:
		default:
		}
		if got.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(statuses)

	// Observed statuses must follow pending -> processing -> completed.
	order := map[domain.Status]int{
		domain.StatusPending:    0,
		domain.StatusProcessing: 1,
		domain.StatusCompleted:  2,
	}
	last := -1
	for st := range statuses {
		rank, ok := order[st]
		require.True(t, ok, "unexpected status %s", st)
		require.GreaterOrEqual(t, rank, last)
		last = rank
	}
	require.Equal(t, 2, last)
}
