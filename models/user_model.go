package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountBanned    AccountStatus = "BANNED"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountSuspended, AccountBanned:
		return true
	}
	return false
}

type User struct {
	ID       uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string        `gorm:"size:255;not null" json:"fullName"`
	Email    string        `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password string        `gorm:"not null" json:"-"`
	Role     Role          `gorm:"size:20;not null;default:'STUDENT'" json:"role"`
	Status   AccountStatus `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`

	ProfilePictureURL *string `gorm:"size:255" json:"profilePictureUrl,omitempty"`
	TimeZone          *string `gorm:"size:100" json:"timeZone,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
