package services

import (
	"context"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the services depend on. Lookups that find
// nothing return an error matching ErrNotFound; unique violations match
// ErrConflict.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	CreateTutorProfile(ctx context.Context, profile *models.TutorProfile) error
	GetTutorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error)
	// LockTutorProfile loads the profile owned by userID and holds a row lock on
	// it until the surrounding transaction ends.
	LockTutorProfile(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error)
	SaveTutorProfile(ctx context.Context, profile *models.TutorProfile) error
	ReplaceTutorCategories(ctx context.Context, profile *models.TutorProfile, categories []*models.Category) error
	IncrementSessionCount(ctx context.Context, profileID uuid.UUID) error
	SetTutorRating(ctx context.Context, profileID uuid.UUID, rating *decimal.Decimal, count int) error
	SearchTutors(ctx context.Context, filter TutorFilter) ([]models.TutorProfile, int64, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategories(ctx context.Context, ids []uuid.UUID) ([]*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	CreateWindow(ctx context.Context, window *models.AvailabilityWindow) error
	GetWindow(ctx context.Context, id uuid.UUID) (*models.AvailabilityWindow, error)
	SaveWindow(ctx context.Context, window *models.AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	// ListActiveWindows returns the active windows of a profile ordered by
	// day and start time.
	ListActiveWindows(ctx context.Context, profileID uuid.UUID) ([]models.AvailabilityWindow, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// LockBooking is GetBooking with a row lock. Only meaningful inside
	// Transaction.
	LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	SaveBooking(ctx context.Context, booking *models.Booking) error
	// ListBookings orders by session date then start time, newest first.
	ListBookings(ctx context.Context, scope BookingScope) ([]models.Booking, error)
	CountBookings(ctx context.Context, scope BookingScope) (models.BookingStats, error)
	// ListTutorBookingsOn returns the tutor's bookings on date that are not
	// cancelled.
	ListTutorBookingsOn(ctx context.Context, tutorID uuid.UUID, date time.Time) ([]models.Booking, error)
	ListConfirmedBookingsOn(ctx context.Context, dates []time.Time) ([]models.Booking, error)

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ReviewExists(ctx context.Context, bookingID uuid.UUID) (bool, error)
	SaveReview(ctx context.Context, review *models.Review) error
	ListVisibleReviews(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error)
	// VisibleRatings returns the ratings of the visible reviews of a profile.
	VisibleRatings(ctx context.Context, profileID uuid.UUID) ([]int, error)
}

// BookingScope restricts booking queries. A zero scope matches every booking.
type BookingScope struct {
	StudentID *uuid.UUID
	TutorID   *uuid.UUID
}

// ScopeFor maps an actor onto the bookings it may list.
func ScopeFor(actor Actor) BookingScope {
	id := actor.UserID
	switch actor.Role {
	case models.RoleAdmin:
		return BookingScope{}
	case models.RoleTutor:
		return BookingScope{TutorID: &id}
	default:
		return BookingScope{StudentID: &id}
	}
}

type UserFilter struct {
	Page   int
	Limit  int
	Search string
}

const (
	SortByRating     = "rating"
	SortByRate       = "rate"
	SortByExperience = "experience"
)

// TutorFilter is the validated search input for the tutor directory.
type TutorFilter struct {
	CategoryID    *uuid.UUID
	Subject       string
	MinRating     *decimal.Decimal
	MaxRate       *decimal.Decimal
	AvailableOnly bool
	Page          int
	Limit         int
	SortBy        string
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize applies paging defaults and rejects unknown sort keys.
func (f *TutorFilter) Normalize() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	switch f.SortBy {
	case "":
		f.SortBy = SortByRating
	case SortByRating, SortByRate, SortByExperience:
	default:
		return Validation("unknown sort key %q", f.SortBy)
	}
	if f.MinRating != nil && (f.MinRating.IsNegative() || f.MinRating.GreaterThan(decimal.NewFromInt(5))) {
		return Validation("minRating must be between 0 and 5")
	}
	return nil
}

func (f UserFilter) normalized() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newPageMeta(total int64, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
