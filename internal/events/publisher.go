package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes reservation lifecycle events to one topic, keyed by
// reservation id so a reservation's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt reservation.Event) error {
	msg, err := newMessage(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

type payload struct {
	EventID       string `json:"eventId"`
	Type          string `json:"type"`
	ReservationID int64  `json:"reservationId"`
	MemberID      int64  `json:"memberId"`
	ThemeID       int64  `json:"themeId"`
	Date          string `json:"date"`
	TimeID        int64  `json:"timeId"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurredAt"`
}

func newMessage(evt reservation.Event) (kafka.Message, error) {
	r := evt.Reservation
	id := uuid.NewString()
	value, err := json.Marshal(payload{
		EventID:       id,
		Type:          evt.Type,
		ReservationID: r.ID,
		MemberID:      r.MemberID,
		ThemeID:       r.ThemeID,
		Date:          r.Date.Format(reservation.DateLayout),
		TimeID:        r.TimeID,
		Status:        string(r.Status),
		OccurredAt:    evt.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(strconv.FormatInt(r.ID, 10)),
		Value:   value,
		Time:    evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
			{Key: "event-id", Value: []byte(id)},
		},
	}, nil
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, reservation.Event) error { return nil }
