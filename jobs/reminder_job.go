package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// BookingSource lists the confirmed bookings on the given calendar dates.
type BookingSource interface {
	ListConfirmedBookingsOn(ctx context.Context, dates []time.Time) ([]models.Booking, error)
}

// Claimer ensures one replica sends each reminder.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ReminderJob emits booking.reminder for confirmed sessions starting within
// [now+Lead, now+Lead+Window).
type ReminderJob struct {
	Bookings  BookingSource
	Publisher events.Publisher
	Claims    Claimer
	Location  *time.Location
	Lead      time.Duration
	Window    time.Duration
	Now       func() time.Time
}

func (j *ReminderJob) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *ReminderJob) window() time.Duration {
	if j.Window <= 0 {
		return 5 * time.Minute
	}
	return j.Window
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run performs one sweep and returns how many reminders were sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}
	from := j.now().Add(j.Lead).In(loc)
	to := from.Add(j.window())

	dates := []time.Time{calendarDate(from)}
	if last := calendarDate(to); !last.Equal(dates[0]) {
		dates = append(dates, last)
	}
	bookings, err := j.Bookings.ListConfirmedBookingsOn(ctx, dates)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range bookings {
		b := &bookings[i]
		start, err := utils.WallClock(b.SessionDate, b.StartTime, loc)
		if err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("booking has malformed start time")
			continue
		}
		if start.Before(from) || !start.Before(to) {
			continue
		}
		if j.Claims != nil {
			ok, err := j.Claims.Claim(ctx, b.ID.String(), j.Lead+j.window())
			if err != nil {
				log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("reminder claim failed, sending anyway")
			} else if !ok {
				continue
			}
		}
		ev := events.Event{
			Type:        events.BookingReminder,
			BookingID:   b.ID,
			StudentID:   b.StudentID,
			TutorID:     b.TutorID,
			Status:      string(b.Status),
			Subject:     b.Subject,
			SessionDate: b.SessionDay(),
			StartTime:   b.StartTime,
			EndTime:     b.EndTime,
			OccurredAt:  j.now().UTC(),
		}
		if err := j.Publisher.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("reminder publish failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Schedule registers the job on c. Each tick runs with its own timeout
// derived from ctx.
func (j *ReminderJob) Schedule(ctx context.Context, c *cron.Cron, schedule string) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		n, err := j.Run(runCtx)
		if err != nil {
			log.Error().Err(err).Msg("reminder sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("count", n).Msg("session reminders sent")
		}
	})
}
