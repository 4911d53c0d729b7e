package services

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	DefaultGraceMinutes = 15
	defaultTutorNotes   = "Session completed"
)

type CreateBookingInput struct {
	TutorID      uuid.UUID `json:"tutorId" validate:"required"`
	Subject      string    `json:"subject" validate:"required,max=255"`
	SessionDate  string    `json:"sessionDate" validate:"required,isodate"`
	StartTime    string    `json:"startTime" validate:"required,hhmm"`
	EndTime      string    `json:"endTime" validate:"required,hhmm"`
	StudentNotes *string   `json:"studentNotes"`
}

type UpdateBookingInput struct {
	Status       *models.BookingStatus `json:"status" validate:"omitempty,bookingstatus"`
	TutorNotes   *string               `json:"tutorNotes"`
	CancelReason *string               `json:"cancelReason"`
}

type BookingOptions struct {
	Location *time.Location
	// GraceMinutes is how long after a session's end completion stays blocked.
	GraceMinutes int
	// RequireWindow rejects bookings outside the tutor's active windows.
	RequireWindow bool
	Publisher     events.Publisher
	Now           func() time.Time
}

// BookingService owns the booking state machine:
//
//	PENDING -> CONFIRMED -> COMPLETED | NO_SHOW
//	PENDING | CONFIRMED -> CANCELLED
//
// COMPLETED, CANCELLED and NO_SHOW are terminal.
type BookingService struct {
	store         Store
	loc           *time.Location
	grace         time.Duration
	requireWindow bool
	publisher     events.Publisher
	now           func() time.Time
}

func NewBookingService(store Store, opts BookingOptions) *BookingService {
	s := &BookingService{
		store:         store,
		loc:           opts.Location,
		grace:         time.Duration(opts.GraceMinutes) * time.Minute,
		requireWindow: opts.RequireWindow,
		publisher:     opts.Publisher,
		now:           opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if opts.GraceMinutes < 0 {
		s.grace = DefaultGraceMinutes * time.Minute
	}
	if s.publisher == nil {
		s.publisher = events.Nop
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Price is hourlyRate * minutes / 60 rounded half away from zero to cents.
func Price(hourlyRate decimal.Decimal, minutes int) decimal.Decimal {
	return hourlyRate.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(60)).Round(2)
}

func (s *BookingService) publish(ctx context.Context, typ events.Type, b *models.Booking, reason string) {
	ev := events.Event{
		Type:        typ,
		BookingID:   b.ID,
		StudentID:   b.StudentID,
		TutorID:     b.TutorID,
		Status:      string(b.Status),
		Subject:     b.Subject,
		SessionDate: b.SessionDay(),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Reason:      reason,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("booking_id", b.ID.String()).Str("event", string(typ)).Msg("publish failed")
	}
}

func (s *BookingService) Create(ctx context.Context, studentID uuid.UUID, in CreateBookingInput) (*models.Booking, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, Validation("subject is required")
	}
	date, err := utils.ParseDate(in.SessionDate)
	if err != nil {
		return nil, Validation("sessionDate must be a YYYY-MM-DD date")
	}
	start, err := utils.ClockMinutes(in.StartTime)
	if err != nil {
		return nil, Validation("startTime: %v", err)
	}
	end, err := utils.ClockMinutes(in.EndTime)
	if err != nil {
		return nil, Validation("endTime: %v", err)
	}
	if end <= start {
		return nil, Validation("endTime must be after startTime")
	}
	if in.TutorID == studentID {
		return nil, Validation("you cannot book a session with yourself")
	}

	booking := &models.Booking{
		StudentID:    studentID,
		TutorID:      in.TutorID,
		Subject:      subject,
		SessionDate:  date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Duration:     end - start,
		Status:       models.BookingConfirmed,
		StudentNotes: in.StudentNotes,
	}
	err = s.store.Transaction(ctx, func(tx Store) error {
		profile, err := tx.LockTutorProfile(ctx, in.TutorID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return NotFound("tutor profile not found")
			}
			return err
		}
		if !profile.IsAvailable {
			return Unavailable("tutor is not currently accepting bookings")
		}
		if s.requireWindow {
			windows, err := tx.ListActiveWindows(ctx, profile.ID)
			if err != nil {
				return err
			}
			if !coveredBy(windows, models.DayOf(date.Weekday()), in.StartTime, in.EndTime) {
				return Unavailable("requested time is outside the tutor's availability")
			}
		}
		sameDay, err := tx.ListTutorBookingsOn(ctx, in.TutorID, date)
		if err != nil {
			return err
		}
		for _, other := range sameDay {
			if other.Status == models.BookingCancelled {
				continue
			}
			if other.StartTime < in.EndTime && in.StartTime < other.EndTime {
				return Conflict("tutor already has a session from %s to %s on %s", other.StartTime, other.EndTime, other.SessionDay())
			}
		}
		booking.TutorProfileID = profile.ID
		booking.Price = Price(profile.HourlyRate, booking.Duration)
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("booking_id", booking.ID.String()).Str("tutor_id", booking.TutorID.String()).
		Str("student_id", studentID.String()).Msg("booking created")
	s.publish(ctx, events.BookingCreated, booking, "")
	return booking, nil
}

func coveredBy(windows []models.AvailabilityWindow, day models.DayOfWeek, start, end string) bool {
	for _, w := range windows {
		if w.IsActive && w.DayOfWeek == day && w.StartTime <= start && end <= w.EndTime {
			return true
		}
	}
	return false
}

// Get returns a booking to one of its parties or an administrator.
func (s *BookingService) Get(ctx context.Context, bookingID uuid.UUID, actor Actor) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapBookingView, Owners{Student: booking.StudentID, Tutor: booking.TutorID}); err != nil {
		return nil, err
	}
	return booking, nil
}

// Update applies a generic patch. A CANCELLED status takes the cancellation
// path and COMPLETED takes the completion path, which carries the tutor's
// notes. Notes cannot ride along with a cancellation.
func (s *BookingService) Update(ctx context.Context, bookingID uuid.UUID, actor Actor, in UpdateBookingInput) (*models.Booking, error) {
	if in.Status != nil {
		switch *in.Status {
		case models.BookingCancelled:
			if in.TutorNotes != nil {
				return nil, Validation("tutorNotes cannot be set when cancelling a booking")
			}
			return s.Cancel(ctx, bookingID, actor.UserID, in.CancelReason)
		case models.BookingCompleted:
			return s.MarkComplete(ctx, bookingID, actor.UserID, in.TutorNotes)
		}
	}

	var booking *models.Booking
	changed := false
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		owners := Owners{Student: b.StudentID, Tutor: b.TutorID}
		if err := Authorize(actor, CapBookingParty, owners); err != nil {
			return err
		}
		if in.TutorNotes != nil {
			if err := Authorize(actor, CapBookingTutor, owners); err != nil {
				return err
			}
		}
		if in.Status != nil {
			if err := checkTransition(b.Status, *in.Status, actor, owners); err != nil {
				return err
			}
			if *in.Status != b.Status {
				b.Status = *in.Status
				changed = true
			}
		}
		if in.TutorNotes != nil {
			b.TutorNotes = in.TutorNotes
			changed = true
		}
		booking = b
		if !changed {
			return nil
		}
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		log.Info().Str("booking_id", booking.ID.String()).Str("status", string(booking.Status)).Msg("booking updated")
		s.publish(ctx, events.BookingUpdated, booking, "")
	}
	return booking, nil
}

// checkTransition admits PENDING -> CONFIRMED (tutor) and
// CONFIRMED -> NO_SHOW (either party). Re-asserting the current status of a
// live booking is a no-op.
func checkTransition(from, to models.BookingStatus, actor Actor, owners Owners) error {
	if !to.Valid() {
		return Validation("unknown booking status %q", to)
	}
	switch {
	case from == to && !from.Terminal():
		return nil
	case from == models.BookingPending && to == models.BookingConfirmed:
		return Authorize(actor, CapBookingTutor, owners)
	case from == models.BookingConfirmed && to == models.BookingNoShow:
		return nil
	}
	return InvalidState("cannot move booking from %s to %s", from, to)
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID, reason *string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := Authorize(Actor{UserID: requesterID}, CapBookingParty, Owners{Student: b.StudentID, Tutor: b.TutorID}); err != nil {
			return err
		}
		if b.Status.Terminal() {
			return InvalidState("a %s booking cannot be cancelled", strings.ToLower(string(b.Status)))
		}
		now := s.now().UTC()
		by := requesterID
		b.Status = models.BookingCancelled
		b.CancelledBy = &by
		b.CancelReason = reason
		b.CancelledAt = &now
		booking = b
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("booking_id", booking.ID.String()).Str("cancelled_by", requesterID.String()).Msg("booking cancelled")
	r := ""
	if reason != nil {
		r = *reason
	}
	s.publish(ctx, events.BookingCancelled, booking, r)
	return booking, nil
}

// SessionEnd is the instant a booking's session ends in the reference zone.
func (s *BookingService) SessionEnd(b *models.Booking) (time.Time, error) {
	return utils.WallClock(b.SessionDate, b.EndTime, s.loc)
}

// MarkComplete moves a CONFIRMED booking to COMPLETED once the session end
// plus the grace period has passed. The status change and the tutor's
// session counter are written in one transaction.
func (s *BookingService) MarkComplete(ctx context.Context, bookingID, tutorID uuid.UUID, tutorNotes *string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := Authorize(Actor{UserID: tutorID}, CapBookingTutor, Owners{Student: b.StudentID, Tutor: b.TutorID}); err != nil {
			return err
		}
		if b.Status != models.BookingConfirmed {
			return InvalidState("only confirmed bookings can be completed, this one is %s", b.Status)
		}
		end, err := s.SessionEnd(b)
		if err != nil {
			return err
		}
		now := s.now()
		allowedAt := end.Add(s.grace)
		if now.Before(allowedAt) {
			return TooEarly(ceilMinutes(allowedAt.Sub(now)))
		}

		notes := defaultTutorNotes
		if tutorNotes != nil && strings.TrimSpace(*tutorNotes) != "" {
			notes = *tutorNotes
		}
		completedAt := now.UTC()
		b.Status = models.BookingCompleted
		b.TutorNotes = &notes
		b.CompletedAt = &completedAt
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.IncrementSessionCount(ctx, b.TutorProfileID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("booking_id", booking.ID.String()).Str("tutor_id", tutorID.String()).Msg("booking completed")
	s.publish(ctx, events.BookingCompleted, booking, "")
	return booking, nil
}

func ceilMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func (s *BookingService) Stats(ctx context.Context, actor Actor) (models.BookingStats, error) {
	return s.store.CountBookings(ctx, ScopeFor(actor))
}

type BookingList struct {
	Data []models.Booking `json:"data"`
	Meta PageMeta         `json:"meta"`
}

// ListMine returns every booking of the actor in a single page.
func (s *BookingService) ListMine(ctx context.Context, actor Actor) (BookingList, error) {
	bookings, err := s.store.ListBookings(ctx, ScopeFor(actor))
	if err != nil {
		return BookingList{}, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	total := int64(len(bookings))
	return BookingList{Data: bookings, Meta: newPageMeta(total, 1, len(bookings))}, nil
}
