// Package events publishes appointment lifecycle events to Kafka so
// downstream consumers (reminders, analytics) can react to bookings without
// polling the store. Publishing is best effort: a broker outage never fails
// the booking operation that triggered the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types emitted by the appointment lifecycle.
const (
	TypeCreated     = "appointment.created"
	TypeRescheduled = "appointment.rescheduled"
	TypeCancelled   = "appointment.cancelled"
	TypeCompleted   = "appointment.completed"
)

// AppointmentEvent is the wire payload for a lifecycle transition.
type AppointmentEvent struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	MechanicID    string    `json:"mechanic_id,omitempty"`
	Service       string    `json:"service"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits appointment events. The zero-value-style NewNop publisher
// is used when no brokers are configured.
type Publisher interface {
	Publish(ctx context.Context, ev AppointmentEvent)
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafka creates a Kafka-backed publisher. Events are keyed by appointment
// ID so transitions for one appointment stay ordered within a partition.
func NewKafka(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &kafkaPublisher{writer: writer, logger: logger}
}

func (p *kafkaPublisher) Publish(ctx context.Context, ev AppointmentEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Str("type", ev.Type).Msg("marshal appointment event failed")
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(ev.AppointmentID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error().Err(err).
			Str("type", ev.Type).
			Str("appointment_id", ev.AppointmentID).
			Msg("publish appointment event failed")
	}
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct{}

// NewNop returns a publisher that drops every event.
func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, AppointmentEvent) {}
func (nopPublisher) Close() error                              { return nil }
