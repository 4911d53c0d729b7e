package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	client      *http.Client
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when any credential is missing.
func NewBrevoService(apiKey, senderEmail, senderName string) *BrevoService {
	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Warn().Msg("email service not configured, missing BREVO_API_KEY, EMAIL_SENDER or EMAIL_SENDER_NAME")
		return nil
	}
	return &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Endpoint:    brevoEndpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *BrevoService) Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}
	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := s.client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo api status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error
}

// UserLookup resolves event participants to their contact details.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type delivery struct {
	event events.Event
}

// EmailNotifier turns booking events into emails for both parties. Publish
// only enqueues; Run drains the queue.
type EmailNotifier struct {
	mailer Mailer
	users  UserLookup
	queue  chan delivery
}

func NewEmailNotifier(mailer Mailer, users UserLookup, buffer int) *EmailNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &EmailNotifier{mailer: mailer, users: users, queue: make(chan delivery, buffer)}
}

func (n *EmailNotifier) Publish(_ context.Context, event events.Event) error {
	if _, ok := emailKinds[event.Type]; !ok {
		return nil
	}
	select {
	case n.queue <- delivery{event: event}:
		return nil
	default:
		return fmt.Errorf("email queue full, dropping %s for booking %s", event.Type, event.BookingID)
	}
}

// Run sends queued emails until ctx is done.
func (n *EmailNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-n.queue:
			n.deliver(ctx, d.event)
		}
	}
}

func (n *EmailNotifier) deliver(ctx context.Context, event events.Event) {
	for _, id := range event.Recipients() {
		user, err := n.users.GetUser(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("user_id", id.String()).Msg("email recipient lookup failed")
			continue
		}
		msg, ok := render(event, user)
		if !ok {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err = n.mailer.Send(sendCtx, user.Email, user.FullName, msg.subject, msg.html)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("to", user.Email).Str("event", string(event.Type)).Msg("failed to send email")
			continue
		}
		log.Info().Str("to", user.Email).Str("event", string(event.Type)).Msg("email sent")
	}
}

type message struct {
	subject string
	html    string
}

type emailKind struct {
	subject  string
	template string
}

var emailKinds = map[events.Type]emailKind{
	events.BookingCreated:   {subject: "Your session is booked", template: "created"},
	events.BookingCancelled: {subject: "Your session was cancelled", template: "cancelled"},
	events.BookingCompleted: {subject: "Session completed", template: "completed"},
	events.BookingReminder:  {subject: "Reminder: your session starts soon", template: "reminder"},
}

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "created"}}<h1>Session booked</h1><p>Hi {{.Name}},</p><p>A {{.Subject}} session is confirmed for {{.When}}.</p>{{end}}
{{define "cancelled"}}<h1>Session cancelled</h1><p>Hi {{.Name}},</p><p>The {{.Subject}} session on {{.When}} was cancelled.</p>{{with .Reason}}<p>Reason: {{.}}</p>{{end}}{{end}}
{{define "completed"}}<h1>Session completed</h1><p>Hi {{.Name}},</p><p>The {{.Subject}} session on {{.When}} is marked complete. Students can now leave a review.</p>{{end}}
{{define "reminder"}}<h1>Session reminder</h1><p>Hi {{.Name}},</p><p>Your {{.Subject}} session starts on {{.When}}.</p>{{end}}
`))

type emailData struct {
	Name    string
	Subject string
	When    string
	Reason  string
}

// render builds the email for event. ok is false for event types that do not
// produce mail. User supplied text is HTML escaped.
func render(event events.Event, to *models.User) (message, bool) {
	kind, ok := emailKinds[event.Type]
	if !ok {
		return message{}, false
	}
	data := emailData{
		Name:    "there",
		Subject: event.Subject,
		When:    fmt.Sprintf("%s from %s to %s", event.SessionDate, event.StartTime, event.EndTime),
		Reason:  event.Reason,
	}
	if to != nil && to.FullName != "" {
		data.Name = to.FullName
	}
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, kind.template, data); err != nil {
		log.Error().Err(err).Str("event", string(event.Type)).Msg("failed to render email")
		return message{}, false
	}
	return message{subject: kind.subject, html: body.String()}, true
}
