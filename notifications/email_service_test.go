package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
)

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f[id], nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (m *fakeMailer) Send(_ context.Context, toEmail, _, subject, _ string) error {
	m.mu.Lock()
	m.sent = append(m.sent, toEmail+"|"+subject)
	n := len(m.sent)
	m.mu.Unlock()
	if n == 2 {
		close(m.done)
	}
	return nil
}

func TestEmailNotifierSendsToBothParties(t *testing.T) {
	student := &models.User{ID: uuid.New(), FullName: "Sam", Email: "sam@example.com"}
	tutor := &models.User{ID: uuid.New(), FullName: "Ada", Email: "ada@example.com"}
	mailer := &fakeMailer{done: make(chan struct{})}
	n := NewEmailNotifier(mailer, fakeUsers{student.ID: student, tutor.ID: tutor}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	ev := events.Event{Type: events.BookingCancelled, StudentID: student.ID, TutorID: tutor.ID, Subject: "Algebra", Reason: "sick"}
	if err := n.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("emails not delivered")
	}
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if !strings.HasPrefix(mailer.sent[0], "sam@example.com|") || !strings.HasPrefix(mailer.sent[1], "ada@example.com|") {
		t.Fatalf("unexpected recipients %v", mailer.sent)
	}
}

func TestEmailNotifierSkipsSilentEvents(t *testing.T) {
	n := NewEmailNotifier(&fakeMailer{}, fakeUsers{}, 1)
	for i := 0; i < 3; i++ {
		if err := n.Publish(context.Background(), events.Event{Type: events.BookingUpdated}); err != nil {
			t.Fatalf("updates are not mailed and never fill the queue: %v", err)
		}
	}
	if err := n.Publish(context.Background(), events.Event{Type: events.BookingCreated}); err != nil {
		t.Fatalf("first mail should queue: %v", err)
	}
	if err := n.Publish(context.Background(), events.Event{Type: events.BookingCreated}); err == nil {
		t.Fatalf("expected queue-full error")
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	ev := events.Event{
		Type:        events.BookingCancelled,
		Subject:     `Algebra <a href="https://evil.test">claim refund</a>`,
		Reason:      "<script>alert(1)</script>",
		SessionDate: "2025-03-10",
		StartTime:   "09:00",
		EndTime:     "10:00",
	}
	msg, ok := render(ev, &models.User{FullName: "Sam <b>Bold</b>"})
	if !ok {
		t.Fatalf("cancellations are mailed")
	}
	for _, raw := range []string{"<a href", "<script>", "<b>"} {
		if strings.Contains(msg.html, raw) {
			t.Fatalf("unescaped %q in %s", raw, msg.html)
		}
	}
	for _, escaped := range []string{"&lt;a href=", "&lt;script&gt;", "Sam &lt;b&gt;Bold&lt;/b&gt;"} {
		if !strings.Contains(msg.html, escaped) {
			t.Fatalf("expected %q in %s", escaped, msg.html)
		}
	}
	if !strings.Contains(msg.html, "2025-03-10 from 09:00 to 10:00") {
		t.Fatalf("session time missing from %s", msg.html)
	}

	quiet, _ := render(events.Event{Type: events.BookingCancelled, Subject: "Algebra"}, nil)
	if strings.Contains(quiet.html, "Reason:") || !strings.Contains(quiet.html, "Hi there,") {
		t.Fatalf("unexpected body %s", quiet.html)
	}
}

func TestBrevoSend(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := NewBrevoService("key", "noreply@skillbridge.test", "Skill Bridge")
	svc.Endpoint = srv.URL
	if err := svc.Send(context.Background(), "sam@example.com", "", "Hello", "<p>hi</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.To[0]["name"] != "sam" || got.Subject != "Hello" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if err := svc.Send(context.Background(), "not-an-email", "", "Hello", ""); err == nil {
		t.Fatalf("expected invalid recipient error")
	}
	if NewBrevoService("", "a@b.c", "x") != nil {
		t.Fatalf("missing key must disable the service")
	}
}
