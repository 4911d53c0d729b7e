package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PDFRenderer turns an HTML document into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePDF prints HTML through a headless Chrome instance.
type ChromePDF struct {
	Timeout time.Duration
}

func (r ChromePDF) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print receipt: %w", err)
	}
	return pdf, nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 48px; color: #1f2933; }
h1 { font-size: 22px; margin-bottom: 4px; }
table { border-collapse: collapse; width: 100%; margin-top: 24px; }
td { padding: 8px 0; border-bottom: 1px solid #e4e7eb; }
td.label { color: #616e7c; width: 40%; }
.total { font-size: 18px; font-weight: bold; }
</style>
</head>
<body>
<h1>Skill Bridge session receipt</h1>
<div>Receipt {{.Number}} issued {{.IssuedAt}}</div>
<table>
<tr><td class="label">Student</td><td>{{.Student}}</td></tr>
<tr><td class="label">Tutor</td><td>{{.Tutor}}</td></tr>
<tr><td class="label">Subject</td><td>{{.Subject}}</td></tr>
<tr><td class="label">Session</td><td>{{.Date}}, {{.Start}} to {{.End}} ({{.Duration}} min)</td></tr>
<tr><td class="label">Completed</td><td>{{.CompletedAt}}</td></tr>
<tr><td class="label total">Total</td><td class="total">{{.Price}}</td></tr>
</table>
</body>
</html>
`))

type receiptView struct {
	Number      string
	IssuedAt    string
	Student     string
	Tutor       string
	Subject     string
	Date        string
	Start       string
	End         string
	Duration    int
	CompletedAt string
	Price       string
}

type Receipt struct {
	BookingID uuid.UUID
	PDF       []byte
	// URL is set when the receipt was archived to media storage.
	URL string
}

// ReceiptService renders PDF receipts for completed sessions and optionally
// archives them.
type ReceiptService struct {
	store    Store
	renderer PDFRenderer
	media    MediaStore
	loc      *time.Location
	now      func() time.Time
}

func NewReceiptService(store Store, renderer PDFRenderer, media MediaStore, loc *time.Location) *ReceiptService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReceiptService{store: store, renderer: renderer, media: media, loc: loc, now: time.Now}
}

func (s *ReceiptService) RenderHTML(b *models.Booking) (string, error) {
	view := receiptView{
		Number:   b.ID.String()[:8],
		IssuedAt: s.now().In(s.loc).Format("January 2, 2006"),
		Subject:  b.Subject,
		Date:     b.SessionDate.Format("Monday, January 2, 2006"),
		Start:    b.StartTime,
		End:      b.EndTime,
		Duration: b.Duration,
		Price:    b.Price.StringFixed(2),
	}
	if b.Student != nil {
		view.Student = b.Student.FullName
	}
	if b.Tutor != nil {
		view.Tutor = b.Tutor.FullName
	}
	if b.CompletedAt != nil {
		view.CompletedAt = b.CompletedAt.In(s.loc).Format("January 2, 2006 15:04")
	}
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generate renders the receipt of a completed booking for one of its parties
// or an administrator.
func (s *ReceiptService) Generate(ctx context.Context, bookingID uuid.UUID, actor Actor) (*Receipt, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapBookingView, Owners{Student: booking.StudentID, Tutor: booking.TutorID}); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingCompleted {
		return nil, InvalidState("receipts are only issued for completed sessions")
	}
	html, err := s.RenderHTML(booking)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{BookingID: booking.ID, PDF: pdf}
	if s.media != nil {
		url, err := s.media.UploadRaw(ctx, pdf, "receipts/"+booking.ID.String())
		if err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("receipt archive failed")
		} else {
			receipt.URL = url
		}
	}
	return receipt, nil
}
