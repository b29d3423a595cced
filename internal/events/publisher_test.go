package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	evt := reservation.Event{
		Type:       reservation.EventCreated,
		OccurredAt: at,
		Reservation: reservation.Reservation{
			ID:       42,
			MemberID: 7,
			ThemeID:  1,
			TimeID:   2,
			Date:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Status:   reservation.StatusConfirmed,
		},
	}

	msg, err := newMessage(evt)
	require.NoError(t, err)

	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "reservation.created", string(msg.Headers[0].Value))

	var p payload
	require.NoError(t, json.Unmarshal(msg.Value, &p))
	_, err = uuid.Parse(p.EventID)
	require.NoError(t, err)
	assert.Equal(t, p.EventID, string(msg.Headers[1].Value))

	p.EventID = ""
	assert.Equal(t, payload{
		Type:          "reservation.created",
		ReservationID: 42,
		MemberID:      7,
		ThemeID:       1,
		Date:          "2024-05-01",
		TimeID:        2,
		Status:        "CONFIRMED",
		OccurredAt:    "2024-04-01T09:30:00Z",
	}, p)
}

func TestNewMessageIDsAreUnique(t *testing.T) {
	a, err := newMessage(reservation.Event{Type: reservation.EventCanceled})
	require.NoError(t, err)
	b, err := newMessage(reservation.Event{Type: reservation.EventCanceled})
	require.NoError(t, err)
	assert.NotEqual(t, string(a.Headers[1].Value), string(b.Headers[1].Value))
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), reservation.Event{}))
}
