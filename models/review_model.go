package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"bookingId"`
	StudentID      uuid.UUID `gorm:"type:uuid;not null" json:"studentId"`
	TutorID        uuid.UUID `gorm:"type:uuid;not null;index" json:"tutorId"`
	TutorProfileID uuid.UUID `gorm:"type:uuid;not null" json:"tutorProfileId"`
	Rating         int       `gorm:"not null" json:"rating"`
	Comment        *string   `gorm:"type:text" json:"comment,omitempty"`

	TutorResponse *string    `gorm:"type:text" json:"tutorResponse,omitempty"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	// IsVisible is false once an administrator hides the review.
	IsVisible bool `gorm:"not null" json:"isVisible"`

	Student *User `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
