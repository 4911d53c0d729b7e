package database

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/anjiri1684/skill_bridge/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements services.Store on top of GORM.
type Store struct {
	db *gorm.DB
}

var _ services.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx services.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error, "user")
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Save(user).Error, "user")
}

func (s *Store) ListUsers(ctx context.Context, filter services.UserFilter) ([]models.User, int64, error) {
	q := s.conn(ctx).Model(&models.User{})
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + term + "%"
		q = q.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "users")
	}
	var users []models.User
	err := q.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err, "users")
	}
	return users, total, nil
}

func (s *Store) CreateTutorProfile(ctx context.Context, profile *models.TutorProfile) error {
	return translate(s.conn(ctx).Omit("User").Create(profile).Error, "tutor profile")
}

func (s *Store) GetTutorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error) {
	var profile models.TutorProfile
	err := s.conn(ctx).
		Preload("User").
		Preload("Categories").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, translate(err, "tutor profile")
	}
	return &profile, nil
}

func (s *Store) LockTutorProfile(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error) {
	var profile models.TutorProfile
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, translate(err, "tutor profile")
	}
	return &profile, nil
}

func (s *Store) SaveTutorProfile(ctx context.Context, profile *models.TutorProfile) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(profile).Error, "tutor profile")
}

func (s *Store) ReplaceTutorCategories(ctx context.Context, profile *models.TutorProfile, categories []*models.Category) error {
	err := s.conn(ctx).Model(profile).Association("Categories").Replace(categories)
	return translate(err, "tutor categories")
}

func (s *Store) IncrementSessionCount(ctx context.Context, profileID uuid.UUID) error {
	res := s.conn(ctx).Model(&models.TutorProfile{}).
		Where("id = ?", profileID).
		UpdateColumn("session_count", gorm.Expr("session_count + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "tutor profile")
	}
	if res.RowsAffected == 0 {
		return services.NotFound("tutor profile not found")
	}
	return nil
}

func (s *Store) SetTutorRating(ctx context.Context, profileID uuid.UUID, rating *decimal.Decimal, count int) error {
	var value interface{} = gorm.Expr("NULL")
	if rating != nil {
		value = *rating
	}
	err := s.conn(ctx).Model(&models.TutorProfile{}).
		Where("id = ?", profileID).
		UpdateColumns(map[string]interface{}{"rating": value, "review_count": count}).Error
	return translate(err, "tutor profile")
}

var tutorOrder = map[string]string{
	services.SortByRating:     "rating DESC NULLS LAST, review_count DESC",
	services.SortByRate:       "hourly_rate ASC",
	services.SortByExperience: "experience_years DESC",
}

func (s *Store) SearchTutors(ctx context.Context, filter services.TutorFilter) ([]models.TutorProfile, int64, error) {
	q := s.conn(ctx).Model(&models.TutorProfile{})
	if filter.CategoryID != nil {
		q = q.Where("id IN (?)", s.conn(ctx).Table("tutor_categories").
			Select("tutor_profile_id").
			Where("category_id = ?", *filter.CategoryID))
	}
	if subject := strings.TrimSpace(filter.Subject); subject != "" {
		like := "%" + subject + "%"
		q = q.Where("title ILIKE ? OR subjects::text ILIKE ?", like, like)
	}
	if filter.MinRating != nil {
		q = q.Where("rating >= ?", *filter.MinRating)
	}
	if filter.MaxRate != nil {
		q = q.Where("hourly_rate <= ?", *filter.MaxRate)
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "tutors")
	}
	var tutors []models.TutorProfile
	err := q.Preload("User").
		Preload("Categories").
		Order(tutorOrder[filter.SortBy]).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&tutors).Error
	if err != nil {
		return nil, 0, translate(err, "tutors")
	}
	return tutors, total, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.conn(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translate(err, "categories")
	}
	return categories, nil
}

func (s *Store) FindCategories(ctx context.Context, ids []uuid.UUID) ([]*models.Category, error) {
	var categories []*models.Category
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, translate(err, "categories")
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.conn(ctx).Create(category).Error, "category")
}

func (s *Store) CreateWindow(ctx context.Context, window *models.AvailabilityWindow) error {
	return translate(s.conn(ctx).Create(window).Error, "availability window")
}

func (s *Store) GetWindow(ctx context.Context, id uuid.UUID) (*models.AvailabilityWindow, error) {
	var window models.AvailabilityWindow
	if err := s.conn(ctx).First(&window, "id = ?", id).Error; err != nil {
		return nil, translate(err, "availability window")
	}
	return &window, nil
}

func (s *Store) SaveWindow(ctx context.Context, window *models.AvailabilityWindow) error {
	return translate(s.conn(ctx).Save(window).Error, "availability window")
}

func (s *Store) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.AvailabilityWindow{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "availability window")
	}
	if res.RowsAffected == 0 {
		return services.NotFound("availability window not found")
	}
	return nil
}

func (s *Store) ListActiveWindows(ctx context.Context, profileID uuid.UUID) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := s.conn(ctx).
		Where("tutor_profile_id = ? AND is_active = ?", profileID, true).
		Order("day_of_week ASC, start_time ASC").
		Find(&windows).Error
	if err != nil {
		return nil, translate(err, "availability windows")
	}
	return windows, nil
}

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(booking).Error, "booking")
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.conn(ctx).
		Preload("Student").
		Preload("Tutor").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "booking")
	}
	return &booking, nil
}

// LockBooking reads the booking with a row lock held until the surrounding
// transaction ends.
func (s *Store) LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Student").
		Preload("Tutor").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "booking")
	}
	return &booking, nil
}

func (s *Store) SaveBooking(ctx context.Context, booking *models.Booking) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(booking).Error, "booking")
}

func scoped(q *gorm.DB, scope services.BookingScope) *gorm.DB {
	if scope.StudentID != nil {
		q = q.Where("student_id = ?", *scope.StudentID)
	}
	if scope.TutorID != nil {
		q = q.Where("tutor_id = ?", *scope.TutorID)
	}
	return q
}

func (s *Store) ListBookings(ctx context.Context, scope services.BookingScope) ([]models.Booking, error) {
	var bookings []models.Booking
	err := scoped(s.conn(ctx), scope).
		Preload("Student").
		Preload("Tutor").
		Order("session_date DESC, start_time DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, translate(err, "bookings")
	}
	return bookings, nil
}

func (s *Store) CountBookings(ctx context.Context, scope services.BookingScope) (models.BookingStats, error) {
	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	err := scoped(s.conn(ctx).Model(&models.Booking{}), scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.BookingStats{}, translate(err, "booking stats")
	}
	var stats models.BookingStats
	for _, r := range rows {
		stats.Total += r.Count
		switch r.Status {
		case models.BookingPending:
			stats.Pending = r.Count
		case models.BookingConfirmed:
			stats.Confirmed = r.Count
		case models.BookingCompleted:
			stats.Completed = r.Count
		case models.BookingCancelled:
			stats.Cancelled = r.Count
		case models.BookingNoShow:
			stats.NoShow = r.Count
		}
	}
	return stats, nil
}

func (s *Store) ListTutorBookingsOn(ctx context.Context, tutorID uuid.UUID, date time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.conn(ctx).
		Where("tutor_id = ? AND session_date = ? AND status <> ?", tutorID, date.Format(utils.DateLayout), models.BookingCancelled).
		Find(&bookings).Error
	if err != nil {
		return nil, translate(err, "bookings")
	}
	return bookings, nil
}

func (s *Store) ListConfirmedBookingsOn(ctx context.Context, dates []time.Time) ([]models.Booking, error) {
	days := make([]string, 0, len(dates))
	for _, d := range dates {
		days = append(days, d.Format(utils.DateLayout))
	}
	var bookings []models.Booking
	err := s.conn(ctx).
		Preload("Student").
		Preload("Tutor").
		Where("status = ? AND session_date IN ?", models.BookingConfirmed, days).
		Find(&bookings).Error
	if err != nil {
		return nil, translate(err, "bookings")
	}
	return bookings, nil
}

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(review).Error, "review")
}

func (s *Store) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.conn(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err, "review")
	}
	return &review, nil
}

func (s *Store) ReviewExists(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Review{}).Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return false, translate(err, "review")
	}
	return count > 0, nil
}

func (s *Store) SaveReview(ctx context.Context, review *models.Review) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(review).Error, "review")
}

func (s *Store) ListVisibleReviews(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.conn(ctx).
		Preload("Student").
		Where("tutor_id = ? AND is_visible = ?", tutorID, true).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, translate(err, "reviews")
	}
	return reviews, nil
}

func (s *Store) VisibleRatings(ctx context.Context, profileID uuid.UUID) ([]int, error) {
	var ratings []int
	err := s.conn(ctx).Model(&models.Review{}).
		Where("tutor_profile_id = ? AND is_visible = ?", profileID, true).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, translate(err, "reviews")
	}
	return ratings, nil
}
