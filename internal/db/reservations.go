package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/jmoiron/sqlx"
)

// ReservationStore is the MySQL implementation of reservation.Store.
type ReservationStore struct {
	db *DB
	q  sqlx.ExtContext
}

func NewReservationStore(d *DB) *ReservationStore {
	return &ReservationStore{db: d, q: d.DB}
}

var _ reservation.Store = (*ReservationStore)(nil)

type reservationRow struct {
	ID         int64     `db:"id"`
	MemberID   int64     `db:"member_id"`
	MemberName string    `db:"member_name"`
	ThemeID    int64     `db:"theme_id"`
	ThemeName  string    `db:"theme_name"`
	Date       time.Time `db:"date"`
	TimeID     int64     `db:"time_id"`
	StartAt    string    `db:"start_at"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r reservationRow) model() reservation.Reservation {
	return reservation.Reservation{
		ID:         r.ID,
		MemberID:   r.MemberID,
		MemberName: r.MemberName,
		ThemeID:    r.ThemeID,
		ThemeName:  r.ThemeName,
		Date:       r.Date,
		TimeID:     r.TimeID,
		StartAt:    r.StartAt,
		Status:     reservation.Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func models(rows []reservationRow) []reservation.Reservation {
	out := make([]reservation.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out
}

const selectReservations = `SELECT r.id, r.member_id, m.name AS member_name, r.theme_id, t.name AS theme_name,
	r.date, r.time_id, rt.start_at, r.status, r.created_at
	FROM reservations r
	JOIN members m ON m.id=r.member_id
	JOIN themes t ON t.id=r.theme_id
	JOIN reservation_times rt ON rt.id=r.time_id`

const orderByCalendar = " ORDER BY r.date ASC, rt.start_at ASC, r.id ASC"

// filterQuery builds the search statement; nil filter fields add no clause.
func filterQuery(f reservation.Filter) (string, []any) {
	where := []string{}
	args := []any{}
	if f.ThemeID != nil {
		where = append(where, "r.theme_id=?")
		args = append(args, *f.ThemeID)
	}
	if f.MemberID != nil {
		where = append(where, "r.member_id=?")
		args = append(args, *f.MemberID)
	}
	if f.DateFrom != nil {
		where = append(where, "r.date>=?")
		args = append(args, f.DateFrom.Format(reservation.DateLayout))
	}
	if f.DateTo != nil {
		where = append(where, "r.date<=?")
		args = append(args, f.DateTo.Format(reservation.DateLayout))
	}
	if f.Status != nil {
		where = append(where, "r.status=?")
		args = append(args, string(*f.Status))
	}

	q := selectReservations
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q + orderByCalendar, args
}

func (s *ReservationStore) selectRows(ctx context.Context, query string, args ...any) ([]reservation.Reservation, error) {
	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, err
	}
	return models(rows), nil
}

func (s *ReservationStore) FindAll(ctx context.Context) ([]reservation.Reservation, error) {
	return s.selectRows(ctx, selectReservations+orderByCalendar)
}

func (s *ReservationStore) FindFiltered(ctx context.Context, f reservation.Filter) ([]reservation.Reservation, error) {
	q, args := filterQuery(f)
	return s.selectRows(ctx, q, args...)
}

func (s *ReservationStore) FindByMember(ctx context.Context, memberID int64) ([]reservation.Reservation, error) {
	return s.selectRows(ctx, selectReservations+" WHERE r.member_id=?"+orderByCalendar, memberID)
}

func (s *ReservationStore) FindBySlot(ctx context.Context, slot reservation.Slot) ([]reservation.Reservation, error) {
	return s.selectRows(ctx, selectReservations+" WHERE r.theme_id=? AND r.date=? AND r.time_id=? ORDER BY r.id ASC",
		slot.ThemeID, slot.Date.Format(reservation.DateLayout), slot.TimeID)
}

func (s *ReservationStore) FindByID(ctx context.Context, id int64) (reservation.Reservation, error) {
	var row reservationRow
	err := sqlx.GetContext(ctx, s.q, &row, selectReservations+" WHERE r.id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.Reservation{}, fmt.Errorf("reservation %d: %w", id, reservation.ErrNotFound)
	}
	if err != nil {
		return reservation.Reservation{}, err
	}
	return row.model(), nil
}

func (s *ReservationStore) FindTheme(ctx context.Context, id int64) (reservation.Theme, error) {
	var t struct {
		ID          int64  `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		Thumbnail   string `db:"thumbnail"`
	}
	err := sqlx.GetContext(ctx, s.q, &t, "SELECT id, name, description, thumbnail FROM themes WHERE id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.Theme{}, reservation.ErrNotFound
	}
	if err != nil {
		return reservation.Theme{}, err
	}
	return reservation.Theme{ID: t.ID, Name: t.Name, Description: t.Description, Thumbnail: t.Thumbnail}, nil
}

type timeRow struct {
	ID      int64  `db:"id"`
	StartAt string `db:"start_at"`
}

func (s *ReservationStore) FindTime(ctx context.Context, id int64) (reservation.TimeSlot, error) {
	var t timeRow
	err := sqlx.GetContext(ctx, s.q, &t, "SELECT id, start_at FROM reservation_times WHERE id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.TimeSlot{}, reservation.ErrNotFound
	}
	if err != nil {
		return reservation.TimeSlot{}, err
	}
	return reservation.TimeSlot{ID: t.ID, StartAt: t.StartAt}, nil
}

func (s *ReservationStore) FindTimes(ctx context.Context) ([]reservation.TimeSlot, error) {
	var rows []timeRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, "SELECT id, start_at FROM reservation_times ORDER BY start_at ASC"); err != nil {
		return nil, err
	}
	out := make([]reservation.TimeSlot, 0, len(rows))
	for _, t := range rows {
		out = append(out, reservation.TimeSlot{ID: t.ID, StartAt: t.StartAt})
	}
	return out, nil
}

func (s *ReservationStore) FindConfirmedTimeIDs(ctx context.Context, date time.Time, themeID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, s.q, &ids,
		"SELECT time_id FROM reservations WHERE date=? AND theme_id=? AND status=?",
		date.Format(reservation.DateLayout), themeID, string(reservation.StatusConfirmed))
	return ids, err
}

func (s *ReservationStore) Insert(ctx context.Context, r reservation.Reservation) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO reservations (member_id, theme_id, date, time_id, status) VALUES (?,?,?,?,?)",
		r.MemberID, r.ThemeID, r.Date.Format(reservation.DateLayout), r.TimeID, string(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *ReservationStore) UpdateStatus(ctx context.Context, id int64, status reservation.Status) error {
	res, err := s.q.ExecContext(ctx, "UPDATE reservations SET status=? WHERE id=?", string(status), id)
	if err != nil {
		return err
	}
	return affectedOne(res, id)
}

func (s *ReservationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	return affectedOne(res, id)
}

func affectedOne(res sql.Result, id int64) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("reservation %d: %w", id, reservation.ErrNotFound)
	}
	return nil
}

// InTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (s *ReservationStore) InTx(ctx context.Context, fn func(reservation.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&ReservationStore{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
