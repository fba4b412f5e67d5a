// Package maintenance runs periodic housekeeping for the gateway's SQLite
// store: WAL checkpointing and a row-count snapshot in the log. Retention
// of idempotency records and pending actions is deliberately not handled
// here; both tables are append-only audit state.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/opsgate/opsgate/internal/store/sqlite"
	"github.com/robfig/cron/v3"
)

// Store is the slice of the SQLite store the scheduler needs.
type Store interface {
	Checkpoint(ctx context.Context) error
	CollectStats(ctx context.Context) (sqlite.Stats, error)
}

// Scheduler runs the housekeeping job on a cron schedule.
// A tick is skipped when the previous run is still in flight.
type Scheduler struct {
	store    Store
	schedule string
	logger   *slog.Logger

	cron    *cron.Cron
	runLock sync.Mutex
	cancel  context.CancelFunc
}

// New creates a scheduler. schedule is a five-field cron expression.
func New(store Store, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    store,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins executing the housekeeping job.
// Returns an error if the schedule expression is invalid.
func (s *Scheduler) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	_, err := s.cron.AddFunc(s.schedule, func() {
		// TryLock is atomic; if the previous tick still runs, skip this one.
		if !s.runLock.TryLock() {
			s.logger.Warn("maintenance: job still running, skipping tick")
			return
		}
		defer s.runLock.Unlock()

		if err := s.run(ctx); err != nil {
			s.logger.Error("maintenance: job failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("maintenance: invalid schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("maintenance: scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) run(ctx context.Context) error {
	if err := s.store.Checkpoint(ctx); err != nil {
		return err
	}

	stats, err := s.store.CollectStats(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("maintenance: store stats",
		"customers", stats.Customers,
		"tickets", stats.Tickets,
		"pending_open", stats.PendingOpen,
		"idempotency_records", stats.IdempotencyRecords,
	)
	return nil
}
