package groomer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrBusy is returned when a grooming run is requested while a
// previous one is still in flight.
var ErrBusy = errors.New("grooming run already in progress")

// Scheduler serializes grooming runs. A busy flag guards against
// overlapping runs in-process, a file lock guards against a second
// process, and a timeout force-releases the flag when a run wedges.
type Scheduler struct {
	log     *slog.Logger
	timeout time.Duration
	lock    *flock.Flock

	mu        sync.Mutex
	busy      bool
	busySince time.Time
	runs      int
}

// NewScheduler returns a scheduler guarding runs with the given lock
// file. An empty lockPath disables cross-process locking; a zero
// timeout disables force-release.
func NewScheduler(lockPath string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{log: logger, timeout: timeout}
	if lockPath != "" {
		s.lock = flock.New(lockPath)
	}
	return s
}

// Runs reports how many grooming runs have been started.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunOnce executes the groomers sequentially under the run lock.
// Groomer failures do not stop the remaining groomers; all errors are
// joined into the return value.
func (s *Scheduler) RunOnce(ctx context.Context, groomers ...Groomer) error {
	runID := uuid.NewString()
	if err := s.acquire(runID); err != nil {
		return err
	}
	defer s.release()

	start := time.Now()
	s.log.Info("grooming run starting", "run", runID)

	var errs []error
	for _, g := range groomers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := g.Run(ctx); err != nil {
			s.log.Error("groomer failed", "run", runID, "groomer", g.Name(), "error", err)
			errs = append(errs, err)
		}
	}

	s.log.Info("grooming run finished", "run", runID, "elapsed", time.Since(start))
	return errors.Join(errs...)
}

// Loop runs the groomers immediately and then on every tick until the
// context is canceled. A busy tick is skipped, not queued.
func (s *Scheduler) Loop(ctx context.Context, interval time.Duration, groomers ...Groomer) {
	s.logRunError(s.RunOnce(ctx, groomers...))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logRunError(s.RunOnce(ctx, groomers...))
		}
	}
}

func (s *Scheduler) logRunError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		s.log.Info("previous grooming run still in progress, skipping")
	case errors.Is(err, context.Canceled):
	default:
		s.log.Error("grooming run failed", "error", err)
	}
}

func (s *Scheduler) acquire(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		if s.timeout <= 0 || time.Since(s.busySince) <= s.timeout {
			return ErrBusy
		}
		// a wedged run has exceeded its budget: steal the flag
		s.log.Warn("forcing release of stuck grooming run",
			"run", runID, "stuck_for", time.Since(s.busySince))
		s.busy = false
	}

	if s.lock != nil {
		held, err := s.lock.TryLock()
		if err != nil {
			return err
		}
		if !held {
			return ErrBusy
		}
	}

	s.busy = true
	s.busySince = time.Now()
	s.runs++
	return nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}
