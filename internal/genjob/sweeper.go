package genjob

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper runs each registered store's retention sweep on that store's own
// interval. One scheduler carries every backend; stores stay independent
// because each gets its own cron entry.
type Sweeper struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func NewSweeper(logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(),
		logger: logger.With().Str("component", "sweeper").Logger(),
	}
}

// Register schedules periodic sweeps for the store at its configured
// SweepInterval.
func (s *Sweeper) Register(store *Store) error {
	interval := store.Options().SweepInterval
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		expired, deleted := store.Sweep(store.now())
		if expired > 0 || deleted > 0 {
			s.logger.Info().
				Str("backend", string(store.Backend())).
				Int("expired", expired).
				Int("deleted", deleted).
				Msg("sweep applied retention")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep for %s: %w", store.Backend(), err)
	}
	return nil
}

// Start begins running scheduled sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
