package reservation

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusWaiting   Status = "WAITING"
	// StatusCanceled is only a transition target; canceled rows are removed.
	StatusCanceled Status = "CANCELED"
)

// ParseStatus accepts a status name in any letter case.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusConfirmed, StatusWaiting, StatusCanceled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
}

type Reservation struct {
	ID         int64
	MemberID   int64
	MemberName string
	ThemeID    int64
	ThemeName  string
	Date       time.Time
	TimeID     int64
	StartAt    string
	Status     Status
	CreatedAt  time.Time
}

func (r Reservation) Slot() Slot {
	return Slot{ThemeID: r.ThemeID, Date: r.Date, TimeID: r.TimeID}
}

// Slot is the unit of exclusivity: one confirmed reservation per slot.
type Slot struct {
	ThemeID int64
	Date    time.Time
	TimeID  int64
}

// Key names the slot for advisory locking.
func (s Slot) Key() string {
	return fmt.Sprintf("reservation-slot:%d:%s:%d", s.ThemeID, s.Date.Format(DateLayout), s.TimeID)
}

type Theme struct {
	ID          int64
	Name        string
	Description string
	Thumbnail   string
}

type TimeSlot struct {
	ID      int64
	StartAt string
}

// Filter narrows a reservation query; nil fields match everything.
type Filter struct {
	ThemeID  *int64
	MemberID *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Status   *Status
}

// Caller is the resolved identity of whoever issued a request.
type Caller struct {
	MemberID int64
	Admin    bool
}

func (c Caller) CanManage(r Reservation) bool {
	return c.Admin || c.MemberID == r.MemberID
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, raw)
	}
	return d, nil
}

// slotStart returns the wall-clock start of a slot in loc.
func slotStart(date time.Time, startAt string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" 15:04", date.Format(DateLayout)+" "+strings.TrimSpace(startAt), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot start %q: %w", startAt, err)
	}
	return t, nil
}
