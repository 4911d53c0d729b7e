package services

import (
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
)

// Actor is the caller identity resolved upstream from the access token.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

type Capability int

const (
	// CapBookingParty: the actor is the student or the tutor on the booking.
	CapBookingParty Capability = iota
	CapBookingTutor
	CapBookingStudent
	// CapBookingView: a party, or an administrator.
	CapBookingView
	CapWindowOwner
	CapReviewTutor
	CapAdmin
)

// Owners names the users that hold a resource. Only the fields relevant to the
// checked capability need to be set.
type Owners struct {
	Student uuid.UUID
	Tutor   uuid.UUID
	Owner   uuid.UUID
}

// Authorize is the single place where role and ownership rules are decided.
func Authorize(actor Actor, capability Capability, owners Owners) error {
	if actor.UserID == uuid.Nil {
		return Unauthorized("authentication required")
	}
	switch capability {
	case CapBookingParty:
		if actor.UserID == owners.Student || actor.UserID == owners.Tutor {
			return nil
		}
		return Unauthorized("you are not a participant in this booking")
	case CapBookingView:
		if actor.IsAdmin() || actor.UserID == owners.Student || actor.UserID == owners.Tutor {
			return nil
		}
		return Unauthorized("you are not a participant in this booking")
	case CapBookingTutor:
		if actor.UserID == owners.Tutor {
			return nil
		}
		return Unauthorized("only the tutor of this booking can do that")
	case CapBookingStudent:
		if actor.UserID == owners.Student {
			return nil
		}
		return Unauthorized("only the student of this booking can do that")
	case CapWindowOwner:
		if actor.UserID == owners.Owner {
			return nil
		}
		return Unauthorized("you do not own this availability window")
	case CapReviewTutor:
		if actor.UserID == owners.Tutor {
			return nil
		}
		return Unauthorized("only the reviewed tutor can respond")
	case CapAdmin:
		if actor.IsAdmin() {
			return nil
		}
		return Unauthorized("admin access required")
	}
	return Unauthorized("operation not permitted")
}
