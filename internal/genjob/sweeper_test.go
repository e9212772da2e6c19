package genjob

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/domain"
)

func TestSweepExpiresCompletedPastTTL(t *testing.T) {
	s := NewStore(&fakeAdapter{}, Options{ResultTTL: time.Hour}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	done := waitForStatus(t, s, job.ID, domain.StatusCompleted)

	// Before expiry nothing happens.
	expired, deleted := s.Sweep(done.ExpiresAt.Add(-time.Minute))
	require.Zero(t, expired)
	require.Zero(t, deleted)

	expired, deleted = s.Sweep(done.ExpiresAt.Add(time.Minute))
	require.Equal(t, 1, expired)
	require.Zero(t, deleted)

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, domain.StatusExpired, got.Status)
	require.Nil(t, got.Result)
	require.NotNil(t, got.ExpiresAt)

	// Re-sweeping an expired record is a no-op.
	expired, deleted = s.Sweep(done.ExpiresAt.Add(2 * time.Minute))
	require.Zero(t, expired)
	require.Zero(t, deleted)
}

func TestSweepDeletesRecordsPastMaxAge(t *testing.T) {
	s := NewStore(&fakeAdapter{}, Options{MaxAge: 24 * time.Hour}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	waitForStatus(t, s, job.ID, domain.StatusCompleted)

	expired, deleted := s.Sweep(job.CreatedAt.Add(25 * time.Hour))
	require.Zero(t, expired)
	require.Equal(t, 1, deleted)

	_, ok := s.Get(job.ID)
	require.False(t, ok)
}

func TestSweepDeletesFailedJobsByAgeOnly(t *testing.T) {
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		return nil, context.DeadlineExceeded
	}}
	s := NewStore(adapter, Options{MaxAge: 24 * time.Hour}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	waitForStatus(t, s, job.ID, domain.StatusFailed)

	// Failed jobs never expire; they only age out.
	expired, deleted := s.Sweep(job.CreatedAt.Add(23 * time.Hour))
	require.Zero(t, expired)
	require.Zero(t, deleted)

	_, deleted = s.Sweep(job.CreatedAt.Add(25 * time.Hour))
	require.Equal(t, 1, deleted)
}

func TestSweepLeavesInFlightJobsAlone(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	adapter := &fakeAdapter{submit: func(ctx context.Context, req domain.Request) (*Submission, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &Submission{Result: pngResult()}, nil
	}}
	s := NewStore(adapter, Options{ResultTTL: time.Hour, MaxAge: 24 * time.Hour}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	waitForStatus(t, s, job.ID, domain.StatusProcessing)

	expired, deleted := s.Sweep(job.CreatedAt.Add(2 * time.Hour))
	require.Zero(t, expired)
	require.Zero(t, deleted)

	got, ok := s.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, domain.StatusProcessing, got.Status)
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	s := NewStore(&fakeAdapter{}, Options{
		ResultTTL:     time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	}, zerolog.Nop())
	defer s.Close()

	job, err := s.Create(testRequest())
	require.NoError(t, err)
	waitForStatus(t, s, job.ID, domain.StatusCompleted)

	sweeper := NewSweeper(zerolog.Nop())
	require.NoError(t, sweeper.Register(s))
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		got, ok := s.Get(job.ID)
		return ok && got.Status == domain.StatusExpired
	}, 2*time.Second, 5*time.Millisecond)
}
