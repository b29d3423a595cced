package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
)

// LockName guards the sweep so only one replica runs it at a time.
const LockName = "roomescape-sweeper"

type Store interface {
	FindFiltered(ctx context.Context, f reservation.Filter) ([]reservation.Reservation, error)
	FindByID(ctx context.Context, id int64) (reservation.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// Sweeper removes waiting-list entries for dates that have already passed.
// Such entries can never be promoted.
type Sweeper struct {
	Store     Store
	Locker    reservation.Locker
	Publisher reservation.Publisher
	Interval  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s Sweeper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// RunOnce deletes stale waiting entries and returns how many were removed.
func (s Sweeper) RunOnce(ctx context.Context) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	unlock, err := s.Locker.Lock(ctx, LockName)
	if err != nil {
		return 0, err
	}
	defer unlock()

	y, m, d := s.now().Date()
	before := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	waiting := reservation.StatusWaiting
	rows, err := s.Store.FindFiltered(ctx, reservation.Filter{DateTo: &before, Status: &waiting})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, r := range rows {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		removed, err := s.sweepOne(ctx, r.ID, r.Slot())
		if errors.Is(err, reservation.ErrBusy) {
			s.logger().Info("slot busy, leaving for next sweep", slog.Int64("reservation_id", r.ID))
			continue
		}
		if err != nil {
			return total, err
		}
		if removed == nil {
			continue
		}
		total++
		if s.Publisher == nil {
			continue
		}
		evt := reservation.Event{Type: reservation.EventCanceled, Reservation: *removed, OccurredAt: s.now()}
		if err := s.Publisher.Publish(ctx, evt); err != nil {
			s.logger().Warn("publish sweep event", slog.Int64("reservation_id", r.ID), slog.Any("error", err))
		}
	}
	return total, nil
}

// sweepOne deletes reservation id under its slot lock, the same lock
// cancellation and promotion take. It returns nil when the row is gone or
// no longer waiting by the time the lock is held.
func (s Sweeper) sweepOne(ctx context.Context, id int64, slot reservation.Slot) (*reservation.Reservation, error) {
	unlock, err := s.Locker.Lock(ctx, slot.Key())
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := s.Store.FindByID(ctx, id)
	if errors.Is(err, reservation.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if r.Status != reservation.StatusWaiting {
		return nil, nil
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	log := s.logger()

	sweep := func() {
		n, err := s.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Warn("sweep skipped", slog.Any("error", err))
			return
		}
		if n > 0 {
			log.Info("removed stale waiting reservations", slog.Int("count", n))
		}
	}

	log.Info("starting sweep loop", slog.Duration("interval", interval))
	sweep()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper exiting")
			return
		case <-t.C:
			sweep()
		}
	}
}
