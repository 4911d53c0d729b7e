package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingNoShow
}

type Booking struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID      uuid.UUID `gorm:"type:uuid;not null;index" json:"studentId"`
	TutorID        uuid.UUID `gorm:"type:uuid;not null;index:idx_booking_tutor_date" json:"tutorId"`
	TutorProfileID uuid.UUID `gorm:"type:uuid;not null" json:"tutorProfileId"`
	Subject        string    `gorm:"size:255;not null" json:"subject"`
	// SessionDate holds the calendar date at midnight UTC.
	SessionDate time.Time       `gorm:"type:date;not null;index:idx_booking_tutor_date" json:"sessionDate"`
	StartTime   string          `gorm:"size:5;not null" json:"startTime"`
	EndTime     string          `gorm:"size:5;not null" json:"endTime"`
	Duration    int             `gorm:"not null" json:"duration"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Status      BookingStatus   `gorm:"size:20;not null;default:'CONFIRMED'" json:"status"`

	StudentNotes *string `gorm:"type:text" json:"studentNotes,omitempty"`
	TutorNotes   *string `gorm:"type:text" json:"tutorNotes,omitempty"`

	CancelledBy  *uuid.UUID `gorm:"type:uuid" json:"cancelledBy,omitempty"`
	CancelReason *string    `gorm:"type:text" json:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	Student *User `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Tutor   *User `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionDay is the calendar date formatted as YYYY-MM-DD.
func (b Booking) SessionDay() string {
	return b.SessionDate.Format("2006-01-02")
}

// BookingStats counts bookings by status for one scope.
type BookingStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	NoShow    int64 `json:"noShow"`
}
