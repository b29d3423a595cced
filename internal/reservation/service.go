package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Store persists reservations. Lookups of a single row return an error
// wrapping ErrNotFound when nothing matches.
type Store interface {
	FindAll(ctx context.Context) ([]Reservation, error)
	FindFiltered(ctx context.Context, f Filter) ([]Reservation, error)
	FindByMember(ctx context.Context, memberID int64) ([]Reservation, error)
	FindByID(ctx context.Context, id int64) (Reservation, error)
	// FindBySlot returns the slot's reservations ordered by id.
	FindBySlot(ctx context.Context, s Slot) ([]Reservation, error)
	FindTheme(ctx context.Context, id int64) (Theme, error)
	FindTime(ctx context.Context, id int64) (TimeSlot, error)
	FindTimes(ctx context.Context) ([]TimeSlot, error)
	FindConfirmedTimeIDs(ctx context.Context, date time.Time, themeID int64) ([]int64, error)
	Insert(ctx context.Context, r Reservation) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	// InTx runs fn against a Store bound to one transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

// Locker serializes work on a slot across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Event is a reservation lifecycle notification.
type Event struct {
	Type        string
	Reservation Reservation
	OccurredAt  time.Time
}

const (
	EventCreated  = "reservation.created"
	EventCanceled = "reservation.canceled"
	EventPromoted = "reservation.promoted"
)

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Service owns reservation state: slot exclusivity, the waiting list and
// ownership checks.
type Service struct {
	store     Store
	locker    Locker
	publisher Publisher
	log       *slog.Logger

	now func() time.Time
	loc *time.Location
}

func NewService(store Store, locker Locker, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		locker:    locker,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
		loc:       time.Local,
	}
}

func (s *Service) FindAll(ctx context.Context) (ReservationsResponse, error) {
	rs, err := s.store.FindAll(ctx)
	if err != nil {
		return ReservationsResponse{}, err
	}
	return NewReservationsResponse(rs), nil
}

func (s *Service) FindFiltered(ctx context.Context, req ReservationSearchRequest) (ReservationsResponse, error) {
	f, err := req.Filter()
	if err != nil {
		return ReservationsResponse{}, err
	}
	rs, err := s.store.FindFiltered(ctx, f)
	if err != nil {
		return ReservationsResponse{}, err
	}
	return NewReservationsResponse(rs), nil
}

// FindWaitingWithRank lists a member's reservations with their queue rank.
func (s *Service) FindWaitingWithRank(ctx context.Context, memberID int64) (WaitingWithRanksResponse, error) {
	rs, err := s.store.FindByMember(ctx, memberID)
	if err != nil {
		return WaitingWithRanksResponse{}, err
	}
	out := make([]WaitingWithRankResponse, 0, len(rs))
	for _, r := range rs {
		rank := 0
		if r.Status == StatusWaiting {
			if rank, err = s.waitingRank(ctx, r); err != nil {
				return WaitingWithRanksResponse{}, err
			}
		}
		out = append(out, WaitingWithRankResponse{
			ID:      r.ID,
			Theme:   r.ThemeName,
			Date:    r.Date.Format(DateLayout),
			StartAt: r.StartAt,
			Status:  r.Status,
			Rank:    rank,
		})
	}
	return WaitingWithRanksResponse{Reservations: out}, nil
}

func (s *Service) waitingRank(ctx context.Context, r Reservation) (int, error) {
	slot, err := s.store.FindBySlot(ctx, r.Slot())
	if err != nil {
		return 0, err
	}
	rank := 0
	for _, other := range slot {
		if other.Status != StatusWaiting {
			continue
		}
		rank++
		if other.ID == r.ID {
			return rank, nil
		}
	}
	// r left the queue after it was listed.
	return 0, nil
}

// FindTimeInfos lists every time slot for a theme on a date, flagging the
// ones already taken by a confirmed reservation.
func (s *Service) FindTimeInfos(ctx context.Context, date time.Time, themeID int64) (ReservationTimeInfosResponse, error) {
	times, err := s.store.FindTimes(ctx)
	if err != nil {
		return ReservationTimeInfosResponse{}, err
	}
	booked, err := s.store.FindConfirmedTimeIDs(ctx, date, themeID)
	if err != nil {
		return ReservationTimeInfosResponse{}, err
	}
	taken := make(map[int64]bool, len(booked))
	for _, id := range booked {
		taken[id] = true
	}
	out := make([]ReservationTimeInfoResponse, 0, len(times))
	for _, t := range times {
		out = append(out, ReservationTimeInfoResponse{TimeID: t.ID, StartAt: t.StartAt, AlreadyBooked: taken[t.ID]})
	}
	return ReservationTimeInfosResponse{Times: out}, nil
}

// Add books a slot for memberID. The first member on a free slot gets a
// confirmed reservation; later members join the waiting list.
func (s *Service) Add(ctx context.Context, req ReservationRequest, memberID int64) (ReservationResponse, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return ReservationResponse{}, err
	}
	if _, err := s.store.FindTheme(ctx, req.ThemeID); err != nil {
		return ReservationResponse{}, fmt.Errorf("theme %d: %w", req.ThemeID, err)
	}
	ts, err := s.store.FindTime(ctx, req.TimeID)
	if err != nil {
		return ReservationResponse{}, fmt.Errorf("time %d: %w", req.TimeID, err)
	}
	start, err := slotStart(date, ts.StartAt, s.loc)
	if err != nil {
		return ReservationResponse{}, err
	}
	if !start.After(s.now()) {
		return ReservationResponse{}, fmt.Errorf("%w: %s %s has already passed", ErrValidation, req.Date, ts.StartAt)
	}

	slot := Slot{ThemeID: req.ThemeID, Date: date, TimeID: req.TimeID}
	unlock, err := s.locker.Lock(ctx, slot.Key())
	if err != nil {
		return ReservationResponse{}, err
	}
	defer unlock()

	existing, err := s.store.FindBySlot(ctx, slot)
	if err != nil {
		return ReservationResponse{}, err
	}
	status := StatusConfirmed
	for _, r := range existing {
		if r.MemberID == memberID {
			return ReservationResponse{}, fmt.Errorf("%w: member already holds reservation %d for this slot", ErrConflict, r.ID)
		}
		if r.Status == StatusConfirmed {
			status = StatusWaiting
		}
	}

	id, err := s.store.Insert(ctx, Reservation{
		MemberID: memberID,
		ThemeID:  slot.ThemeID,
		Date:     slot.Date,
		TimeID:   slot.TimeID,
		Status:   status,
	})
	if err != nil {
		return ReservationResponse{}, err
	}
	created, err := s.store.FindByID(ctx, id)
	if err != nil {
		return ReservationResponse{}, err
	}
	s.log.Info("reservation created",
		slog.Int64("id", created.ID), slog.Int64("member_id", memberID), slog.String("status", string(status)))
	s.publish(ctx, EventCreated, created)
	return NewReservationResponse(created), nil
}

// Remove cancels a reservation on behalf of caller. Only the owner or an
// admin may do so.
func (s *Service) Remove(ctx context.Context, id int64, caller Caller) error {
	return s.withLockedReservation(ctx, id, caller, func(r Reservation) error {
		return s.cancel(ctx, r)
	})
}

// UpdateStatus applies an admin status transition.
func (s *Service) UpdateStatus(ctx context.Context, caller Caller, id int64, rawStatus string) error {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return err
	}
	return s.withLockedReservation(ctx, id, caller, func(r Reservation) error {
		if r.Status == status {
			return nil
		}
		switch status {
		case StatusCanceled:
			return s.cancel(ctx, r)
		case StatusConfirmed:
			return s.confirm(ctx, r)
		default:
			return fmt.Errorf("%w: cannot move reservation %d from %s to %s", ErrConflict, id, r.Status, status)
		}
	})
}

// withLockedReservation holds the reservation's slot lock while fn runs and
// passes fn the row as read under that lock. The first read only locates
// the slot; status and ownership are checked again on the fresh row.
func (s *Service) withLockedReservation(ctx context.Context, id int64, caller Caller, fn func(Reservation) error) error {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManage(r) {
		return fmt.Errorf("%w: reservation %d belongs to another member", ErrForbidden, id)
	}

	unlock, err := s.locker.Lock(ctx, r.Slot().Key())
	if err != nil {
		return err
	}
	defer unlock()

	fresh, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManage(fresh) {
		return fmt.Errorf("%w: reservation %d belongs to another member", ErrForbidden, id)
	}
	return fn(fresh)
}

// confirm promotes r. The caller holds r's slot lock.
func (s *Service) confirm(ctx context.Context, r Reservation) error {
	slot, err := s.store.FindBySlot(ctx, r.Slot())
	if err != nil {
		return err
	}
	for _, other := range slot {
		if other.Status == StatusConfirmed {
			return fmt.Errorf("%w: slot already confirmed by reservation %d", ErrConflict, other.ID)
		}
	}
	if err := s.store.UpdateStatus(ctx, r.ID, StatusConfirmed); err != nil {
		return err
	}
	r.Status = StatusConfirmed
	s.log.Info("reservation confirmed", slog.Int64("id", r.ID))
	s.publish(ctx, EventPromoted, r)
	return nil
}

// cancel deletes r and, if it held the slot, promotes the oldest waiting
// reservation in the same transaction. The caller holds r's slot lock.
func (s *Service) cancel(ctx context.Context, r Reservation) error {
	var promoted *Reservation
	err := s.store.InTx(ctx, func(tx Store) error {
		if err := tx.Delete(ctx, r.ID); err != nil {
			return err
		}
		if r.Status != StatusConfirmed {
			return nil
		}
		rest, err := tx.FindBySlot(ctx, r.Slot())
		if err != nil {
			return err
		}
		for _, w := range rest {
			if w.Status != StatusWaiting {
				continue
			}
			if err := tx.UpdateStatus(ctx, w.ID, StatusConfirmed); err != nil {
				return err
			}
			w.Status = StatusConfirmed
			promoted = &w
			return nil
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("reservation canceled", slog.Int64("id", r.ID), slog.Int64("member_id", r.MemberID))
	s.publish(ctx, EventCanceled, r)
	if promoted != nil {
		s.log.Info("waiting reservation promoted", slog.Int64("id", promoted.ID))
		s.publish(ctx, EventPromoted, *promoted)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, typ string, r Reservation) {
	if s.publisher == nil {
		return
	}
	evt := Event{Type: typ, Reservation: r, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, evt); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish reservation event", slog.String("type", typ), slog.Int64("id", r.ID), slog.Any("error", err))
	}
}
