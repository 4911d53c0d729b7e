package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/google/uuid"
)

type fakeConn struct {
	mu       sync.Mutex
	got      []events.Event
	fail     bool
	closed   bool
	deadline time.Time
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.got = append(c.got, v.(events.Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubDeliversToParties(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	student, tutor, outsider := uuid.New(), uuid.New(), uuid.New()
	sc, tc, oc := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register(ctx, &Client{UserID: student, Conn: sc})
	hub.Register(ctx, &Client{UserID: tutor, Conn: tc})
	hub.Register(ctx, &Client{UserID: outsider, Conn: oc})

	_ = hub.Publish(ctx, events.Event{Type: events.BookingCreated, StudentID: student, TutorID: tutor})
	waitFor(t, func() bool { return sc.count() == 1 && tc.count() == 1 })
	if oc.count() != 0 {
		t.Fatalf("outsider received an event")
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.deadline.IsZero() {
		t.Fatalf("writes must carry a deadline")
	}
}

func TestHubDropsBrokenConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	user := uuid.New()
	broken := &fakeConn{fail: true}
	hub.Register(ctx, &Client{UserID: user, Conn: broken})
	waitFor(t, func() bool { return hub.Connected(user) == 1 })

	_ = hub.Publish(ctx, events.Event{Type: events.BookingCancelled, StudentID: user, TutorID: uuid.New()})
	waitFor(t, func() bool { return hub.Connected(user) == 0 })
	broken.mu.Lock()
	defer broken.mu.Unlock()
	if !broken.closed {
		t.Fatalf("broken connection not closed")
	}
}

// stalledConn blocks every write until it is closed.
type stalledConn struct {
	once    sync.Once
	release chan struct{}
	mu      sync.Mutex
	closed  bool
}

func (c *stalledConn) WriteJSON(interface{}) error {
	<-c.release
	return errors.New("use of closed connection")
}

func (c *stalledConn) SetWriteDeadline(time.Time) error { return nil }

func (c *stalledConn) Close() error {
	c.once.Do(func() { close(c.release) })
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestHubStalledClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	hub.clientBuffer = 2
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	student, tutor := uuid.New(), uuid.New()
	stuck := &stalledConn{release: make(chan struct{})}
	defer stuck.Close()
	healthy := &fakeConn{}
	hub.Register(ctx, &Client{UserID: student, Conn: stuck})
	hub.Register(ctx, &Client{UserID: tutor, Conn: healthy})

	for i := 1; i <= 6; i++ {
		_ = hub.Publish(ctx, events.Event{Type: events.BookingUpdated, StudentID: student, TutorID: tutor})
		waitFor(t, func() bool { return healthy.count() == i })
	}
	waitFor(t, func() bool { return hub.Connected(student) == 0 })
	stuck.mu.Lock()
	defer stuck.mu.Unlock()
	if !stuck.closed {
		t.Fatalf("stalled connection not closed")
	}
	if hub.Connected(tutor) != 1 {
		t.Fatalf("healthy client must stay connected")
	}
}
