package models

import (
	"time"

	"github.com/google/uuid"
)

type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdays = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

func (d DayOfWeek) Valid() bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// DayOf maps a calendar weekday onto the enumerated day.
func DayOf(w time.Weekday) DayOfWeek {
	return weekdays[w]
}

// AvailabilityWindow is a recurring weekly slot. Times are zero-padded "HH:mm".
type AvailabilityWindow struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TutorProfileID uuid.UUID `gorm:"type:uuid;not null;index:idx_window_tutor_day" json:"tutorProfileId"`
	DayOfWeek      DayOfWeek `gorm:"size:10;not null;index:idx_window_tutor_day" json:"dayOfWeek"`
	StartTime      string    `gorm:"size:5;not null" json:"startTime"`
	EndTime        string    `gorm:"size:5;not null" json:"endTime"`
	IsActive       bool      `gorm:"not null" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Overlaps reports whether two windows intersect under [start, end) semantics.
func (w AvailabilityWindow) Overlaps(start, end string) bool {
	return w.StartTime < end && start < w.EndTime
}
