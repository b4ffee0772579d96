// Package revocation holds the revoked-token store and its retention sweep.
package revocation

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"session-service/internal/obs"
	"session-service/internal/revocation/repository"
)

// Sweeper periodically deletes revocation records whose tokens have expired.
// Storage hygiene only: an expired token is rejected on expiry grounds before
// the store is ever consulted.
type Sweeper struct {
	repo      repository.Repository
	log       *zap.Logger
	scheduler *gocron.Scheduler
}

// NewSweeper returns a Sweeper over the given repository.
func NewSweeper(repo repository.Repository, log *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:      repo,
		log:       log,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sweep every interval and returns immediately.
func (s *Sweeper) Start(interval time.Duration) {
	_, _ = s.scheduler.Every(interval).Do(s.sweep)
	s.scheduler.StartAsync()
}

// Stop halts the scheduler. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.sweepAt(ctx, time.Now().UTC())
}

func (s *Sweeper) sweepAt(ctx context.Context, now time.Time) {
	deleted, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		s.log.Warn("revocation sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		obs.SweptRecordsTotal.Add(float64(deleted))
		s.log.Info("swept expired revocation records", zap.Int64("deleted", deleted))
	}
}
