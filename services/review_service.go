package services

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CreateReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type RespondInput struct {
	Response string `json:"response" validate:"required,max=2000"`
}

type ReviewService struct {
	store     Store
	publisher events.Publisher
	now       func() time.Time
}

func NewReviewService(store Store, publisher events.Publisher) *ReviewService {
	if publisher == nil {
		publisher = events.Nop
	}
	return &ReviewService{store: store, publisher: publisher, now: time.Now}
}

// averageRating is the mean of ratings rounded to two places, or nil when
// there are none.
func averageRating(ratings []int) *decimal.Decimal {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
	return &avg
}

func recomputeRating(ctx context.Context, tx Store, profileID uuid.UUID) error {
	ratings, err := tx.VisibleRatings(ctx, profileID)
	if err != nil {
		return err
	}
	return tx.SetTutorRating(ctx, profileID, averageRating(ratings), len(ratings))
}

// Create records the student's review of a completed booking and refreshes
// the tutor's rating in the same transaction.
func (s *ReviewService) Create(ctx context.Context, studentID, bookingID uuid.UUID, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, Validation("rating must be between 1 and 5")
	}
	var review *models.Review
	err := s.store.Transaction(ctx, func(tx Store) error {
		booking, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := Authorize(Actor{UserID: studentID}, CapBookingStudent, Owners{Student: booking.StudentID, Tutor: booking.TutorID}); err != nil {
			return err
		}
		if booking.Status != models.BookingCompleted {
			return InvalidState("only completed sessions can be reviewed")
		}
		exists, err := tx.ReviewExists(ctx, booking.ID)
		if err != nil {
			return err
		}
		if exists {
			return Conflict("this booking has already been reviewed")
		}
		review = &models.Review{
			BookingID:      booking.ID,
			StudentID:      studentID,
			TutorID:        booking.TutorID,
			TutorProfileID: booking.TutorProfileID,
			Rating:         in.Rating,
			Comment:        in.Comment,
			IsVisible:      true,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, booking.TutorProfileID)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("review_id", review.ID.String()).Str("booking_id", bookingID.String()).Int("rating", review.Rating).Msg("review created")
	ev := events.Event{
		Type:       events.ReviewCreated,
		BookingID:  bookingID,
		StudentID:  review.StudentID,
		TutorID:    review.TutorID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("review_id", review.ID.String()).Msg("publish failed")
	}
	return review, nil
}

// Respond sets the tutor's public reply. A second reply replaces the first.
func (s *ReviewService) Respond(ctx context.Context, tutorID, reviewID uuid.UUID, in RespondInput) (*models.Review, error) {
	response := strings.TrimSpace(in.Response)
	if response == "" {
		return nil, Validation("response is required")
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(Actor{UserID: tutorID}, CapReviewTutor, Owners{Tutor: review.TutorID}); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	review.TutorResponse = &response
	review.RespondedAt = &now
	if err := s.store.SaveReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Hide removes a review from public listings and from the tutor's rating.
func (s *ReviewService) Hide(ctx context.Context, actor Actor, reviewID uuid.UUID) (*models.Review, error) {
	if err := Authorize(actor, CapAdmin, Owners{}); err != nil {
		return nil, err
	}
	var review *models.Review
	err := s.store.Transaction(ctx, func(tx Store) error {
		r, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if !r.IsVisible {
			review = r
			return nil
		}
		r.IsVisible = false
		if err := tx.SaveReview(ctx, r); err != nil {
			return err
		}
		review = r
		return recomputeRating(ctx, tx, r.TutorProfileID)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("review_id", reviewID.String()).Str("admin_id", actor.UserID.String()).Msg("review hidden")
	return review, nil
}

func (s *ReviewService) ListForTutor(ctx context.Context, tutorUserID uuid.UUID) ([]models.Review, error) {
	if _, err := s.store.GetTutorProfileByUser(ctx, tutorUserID); err != nil {
		return nil, err
	}
	reviews, err := s.store.ListVisibleReviews(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
