package services

import (
	"errors"
	"testing"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
)

func TestAuthorize(t *testing.T) {
	student, tutor, admin := uuid.New(), uuid.New(), uuid.New()
	owners := Owners{Student: student, Tutor: tutor}

	cases := []struct {
		name       string
		actor      Actor
		capability Capability
		ok         bool
	}{
		{"student is party", Actor{UserID: student, Role: models.RoleStudent}, CapBookingParty, true},
		{"tutor is party", Actor{UserID: tutor, Role: models.RoleTutor}, CapBookingParty, true},
		{"admin is not party", Actor{UserID: admin, Role: models.RoleAdmin}, CapBookingParty, false},
		{"admin can view", Actor{UserID: admin, Role: models.RoleAdmin}, CapBookingView, true},
		{"student is not tutor", Actor{UserID: student, Role: models.RoleStudent}, CapBookingTutor, false},
		{"tutor is not student", Actor{UserID: tutor, Role: models.RoleTutor}, CapBookingStudent, false},
		{"admin capability", Actor{UserID: admin, Role: models.RoleAdmin}, CapAdmin, true},
		{"tutor lacks admin", Actor{UserID: tutor, Role: models.RoleTutor}, CapAdmin, false},
		{"anonymous", Actor{}, CapBookingView, false},
	}
	for _, tc := range cases {
		err := Authorize(tc.actor, tc.capability, owners)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected UNAUTHORIZED, got %v", tc.name, err)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	err := TooEarly(7)
	if !errors.Is(err, ErrTooEarly) || errors.Is(err, ErrOverlap) {
		t.Fatalf("kind matching broken")
	}
	if KindOf(err) != KindTooEarly {
		t.Fatalf("expected TOO_EARLY, got %s", KindOf(err))
	}
	if KindOf(errors.New("boom")) != "" {
		t.Fatalf("plain errors have no kind")
	}
}
