package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestMultiDeliversPastFailingSink(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}
	m := Multi{failing, nil, ok}

	ev := Event{Type: BookingCreated, BookingID: uuid.New()}
	if err := m.Publish(context.Background(), ev); err != nil {
		t.Fatalf("multi should swallow sink errors, got %v", err)
	}
	if len(failing.got) != 1 || len(ok.got) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(failing.got), len(ok.got))
	}
}

func TestRecipients(t *testing.T) {
	student, tutor := uuid.New(), uuid.New()
	ev := Event{StudentID: student, TutorID: tutor}
	r := ev.Recipients()
	if len(r) != 2 || r[0] != student || r[1] != tutor {
		t.Fatalf("unexpected recipients %v", r)
	}
}
