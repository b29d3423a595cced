package lock

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
)

// MySQL caps advisory lock names at 64 characters.
const maxNameLen = 64

// Advisory is one held MySQL named lock, pinned to its own connection.
type Advisory struct {
	conn     *sql.Conn
	lockName string
	acquired bool
}

func Acquire(ctx context.Context, db *sql.DB, name string, timeoutSeconds int) (*Advisory, error) {
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("lock name %q exceeds %d characters", name, maxNameLen)
	}
	c, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	a := &Advisory{conn: c, lockName: name}
	var got sql.NullInt64

	qctx := ctx
	if timeoutSeconds > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second+500*time.Millisecond)
		defer cancel()
	}

	if err := c.QueryRowContext(qctx, "SELECT GET_LOCK(?, ?)", name, timeoutSeconds).Scan(&got); err != nil {
		_ = c.Close()
		if qctx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: waiting for %q: %v", reservation.ErrBusy, name, err)
		}
		return nil, err
	}
	if err := checkResult(name, got); err != nil {
		_ = c.Close()
		return nil, err
	}
	a.acquired = true
	return a, nil
}

// checkResult interprets GET_LOCK: 1 is acquired, 0 is a timeout and NULL
// an error on the server side. Both failures mean another holder won.
func checkResult(name string, got sql.NullInt64) error {
	if got.Valid && got.Int64 == 1 {
		return nil
	}
	return fmt.Errorf("%w: could not acquire MySQL advisory lock %q (result=%v)", reservation.ErrBusy, name, got)
}

func (a *Advisory) Release() {
	if a == nil || a.conn == nil {
		return
	}
	if a.acquired {
		if _, err := a.conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", a.lockName); err != nil {
			slog.Warn("release advisory lock", slog.String("name", a.lockName), slog.Any("error", err))
		}
	}
	_ = a.conn.Close()
}

// MySQL serializes reservation slots across API replicas with GET_LOCK.
type MySQL struct {
	DB             *sql.DB
	TimeoutSeconds int
}

func (m MySQL) Lock(ctx context.Context, key string) (func(), error) {
	a, err := Acquire(ctx, m.DB, key, m.TimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return a.Release, nil
}
