package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TutorProfile is a tutor's bookable offering. UserID is unique: one profile per user.
type TutorProfile struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Title           string                      `gorm:"size:255;not null" json:"title"`
	Headline        *string                     `gorm:"size:255" json:"headline,omitempty"`
	Description     *string                     `gorm:"type:text" json:"description,omitempty"`
	Education       *string                     `gorm:"type:text" json:"education,omitempty"`
	HourlyRate      decimal.Decimal             `gorm:"type:numeric(10,2);not null" json:"hourlyRate"`
	ExperienceYears int                         `gorm:"not null;default:0" json:"experienceYears"`
	IsAvailable     bool                        `gorm:"not null" json:"isAvailable"`
	Rating          *decimal.Decimal            `gorm:"type:numeric(3,2)" json:"rating"`
	ReviewCount     int                         `gorm:"not null;default:0" json:"reviewCount"`
	SessionCount    int                         `gorm:"not null;default:0" json:"sessionCount"`
	Subjects        datatypes.JSONSlice[string] `json:"subjects"`

	Categories []*Category `gorm:"many2many:tutor_categories;" json:"categories,omitempty"`
	User       *User       `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
