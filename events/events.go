// Package events carries booking lifecycle notifications from the services to
// out-of-band sinks (message broker, websocket clients, email). Publishing is
// best effort: sinks log their own failures and never fail the operation that
// produced the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingCancelled Type = "booking.cancelled"
	BookingCompleted Type = "booking.completed"
	BookingUpdated   Type = "booking.updated"
	BookingReminder  Type = "booking.reminder"
	ReviewCreated    Type = "review.created"
)

type Event struct {
	Type        Type      `json:"type"`
	BookingID   uuid.UUID `json:"bookingId"`
	StudentID   uuid.UUID `json:"studentId"`
	TutorID     uuid.UUID `json:"tutorId"`
	Status      string    `json:"status,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	SessionDate string    `json:"sessionDate,omitempty"`
	StartTime   string    `json:"startTime,omitempty"`
	EndTime     string    `json:"endTime,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Recipients lists the users an event concerns.
func (e Event) Recipients() []uuid.UUID {
	return []uuid.UUID{e.StudentID, e.TutorID}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Nop discards every event.
var Nop Publisher = nop{}

// Multi fans an event out to every sink. A failing sink is logged and does not
// stop delivery to the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("event", string(event.Type)).Str("booking_id", event.BookingID.String()).Msg("event sink failed")
		}
	}
	return nil
}
