package genjob

import (
	"errors"
	"fmt"
	"time"

	"mediaforge/internal/domain"
)

// ErrGenerationTimeout marks a job failed because the provider never
// reported completion within the configured poll budget, as opposed to a
// provider-signaled failure.
var ErrGenerationTimeout = errors.New("generation timed out")

// execute drives one job from pending to a terminal state. It owns every
// field of the record until then. Nothing may escape this method: any fault,
// including a panic in the adapter, becomes a failed transition so no job is
// ever left in processing.
func (s *Store) execute(id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_id", id).Interface("panic", r).Msg("execution panicked")
			s.fail(id, fmt.Sprintf("internal fault: %v", r))
		}
	}()

	req, ok := s.markProcessing(id)
	if !ok {
		return
	}

	sub, err := s.adapter.Submit(s.ctx, req)
	if err != nil {
		s.fail(id, "provider: "+err.Error())
		return
	}
	if sub.Result != nil {
		s.complete(id, sub.Result)
		return
	}
	s.pollUntilDone(id, sub.OperationHandle)
}

// pollUntilDone waits a fixed interval between polls until the operation
// reports done or the attempt budget runs out. A failed poll call counts
// against the budget but only bumps the job's retry counter.
func (s *Store) pollUntilDone(id, handle string) {
	for attempt := 1; attempt <= s.opts.MaxPollAttempts; attempt++ {
		select {
		case <-s.ctx.Done():
			s.fail(id, "aborted: store shutting down")
			return
		case <-time.After(s.opts.PollInterval):
		}

		op, err := s.adapter.Poll(s.ctx, handle)
		if err != nil {
			s.logger.Warn().Str("job_id", id).Int("attempt", attempt).Err(err).Msg("poll failed")
			s.mutate(id, func(j *domain.Job) { j.RetryCount++ })
			continue
		}
		if !op.Done {
			continue
		}
		if op.Error != "" {
			s.fail(id, "provider: "+op.Error)
			return
		}
		s.complete(id, op.Result)
		return
	}
	s.fail(id, fmt.Sprintf("%s after %d polls", ErrGenerationTimeout, s.opts.MaxPollAttempts))
}

// markProcessing transitions the job and returns a copy of its request. It
// returns false if the record was already deleted.
func (s *Store) markProcessing(id string) (domain.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.repo.Get(id)
	if !ok {
		return domain.Request{}, false
	}
	now := s.now()
	job.Status = domain.StatusProcessing
	job.StartedAt = &now
	return job.Request, true
}

func (s *Store) complete(id string, res *domain.Result) {
	now := s.now()
	expires := now.Add(s.opts.ResultTTL)
	s.mutate(id, func(j *domain.Job) {
		j.Status = domain.StatusCompleted
		j.CompletedAt = &now
		j.ExpiresAt = &expires
		j.Result = res
	})
	s.logger.Info().Str("job_id", id).Time("expires_at", expires).Msg("job completed")
}

func (s *Store) fail(id, msg string) {
	s.mutate(id, func(j *domain.Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = domain.StatusFailed
		j.Error = msg
	})
	s.logger.Warn().Str("job_id", id).Str("error", msg).Msg("job failed")
}
