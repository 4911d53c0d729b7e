package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memData struct {
	users      map[uuid.UUID]models.User
	profiles   map[uuid.UUID]models.TutorProfile
	categories map[uuid.UUID]models.Category
	windows    map[uuid.UUID]models.AvailabilityWindow
	bookings   map[uuid.UUID]models.Booking
	reviews    map[uuid.UUID]models.Review
}

func (d *memData) clone() *memData {
	c := &memData{
		users:      make(map[uuid.UUID]models.User, len(d.users)),
		profiles:   make(map[uuid.UUID]models.TutorProfile, len(d.profiles)),
		categories: make(map[uuid.UUID]models.Category, len(d.categories)),
		windows:    make(map[uuid.UUID]models.AvailabilityWindow, len(d.windows)),
		bookings:   make(map[uuid.UUID]models.Booking, len(d.bookings)),
		reviews:    make(map[uuid.UUID]models.Review, len(d.reviews)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.windows {
		c.windows[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.reviews {
		c.reviews[k] = v
	}
	return c
}

// memStore is an in-memory Store. Transactions are serialized and roll back
// by restoring a snapshot.
type memStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool

	// failIncrement, when set, is returned by IncrementSessionCount.
	failIncrement error
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		data: &memData{
			users:      map[uuid.UUID]models.User{},
			profiles:   map[uuid.UUID]models.TutorProfile{},
			categories: map[uuid.UUID]models.Category{},
			windows:    map[uuid.UUID]models.AvailabilityWindow{},
			bookings:   map[uuid.UUID]models.Booking{},
			reviews:    map[uuid.UUID]models.Review{},
		},
	}
}

func (m *memStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	tx := &memStore{mu: m.mu, data: m.data, inTx: true, failIncrement: m.failIncrement}
	if err := fn(tx); err != nil {
		*m.data = *snapshot
		return err
	}
	return nil
}

func newID() uuid.UUID { return uuid.New() }

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	defer m.lock()()
	for _, u := range m.data.users {
		if u.Email == user.Email {
			return Conflict("duplicate email")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = newID()
	}
	user.CreatedAt = time.Now()
	m.data.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer m.lock()()
	u, ok := m.data.users[id]
	if !ok {
		return nil, NotFound("user not found")
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer m.lock()()
	for _, u := range m.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, NotFound("user not found")
}

func (m *memStore) SaveUser(ctx context.Context, user *models.User) error {
	defer m.lock()()
	m.data.users[user.ID] = *user
	return nil
}

func (m *memStore) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	defer m.lock()()
	var all []models.User
	for _, u := range m.data.users {
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.FullName+" "+u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := int64(len(all))
	start := (filter.Page - 1) * filter.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memStore) CreateTutorProfile(ctx context.Context, profile *models.TutorProfile) error {
	defer m.lock()()
	for _, p := range m.data.profiles {
		if p.UserID == profile.UserID {
			return Conflict("duplicate tutor profile")
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = newID()
	}
	m.data.profiles[profile.ID] = *profile
	return nil
}

func (m *memStore) profileByUser(userID uuid.UUID) (*models.TutorProfile, error) {
	for _, p := range m.data.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, NotFound("tutor profile not found")
}

func (m *memStore) GetTutorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error) {
	defer m.lock()()
	return m.profileByUser(userID)
}

func (m *memStore) LockTutorProfile(ctx context.Context, userID uuid.UUID) (*models.TutorProfile, error) {
	defer m.lock()()
	return m.profileByUser(userID)
}

func (m *memStore) SaveTutorProfile(ctx context.Context, profile *models.TutorProfile) error {
	defer m.lock()()
	m.data.profiles[profile.ID] = *profile
	return nil
}

func (m *memStore) ReplaceTutorCategories(ctx context.Context, profile *models.TutorProfile, categories []*models.Category) error {
	defer m.lock()()
	p := m.data.profiles[profile.ID]
	p.Categories = categories
	profile.Categories = categories
	m.data.profiles[profile.ID] = p
	return nil
}

func (m *memStore) IncrementSessionCount(ctx context.Context, profileID uuid.UUID) error {
	defer m.lock()()
	if m.failIncrement != nil {
		return m.failIncrement
	}
	p, ok := m.data.profiles[profileID]
	if !ok {
		return NotFound("tutor profile not found")
	}
	p.SessionCount++
	m.data.profiles[profileID] = p
	return nil
}

func (m *memStore) SetTutorRating(ctx context.Context, profileID uuid.UUID, rating *decimal.Decimal, count int) error {
	defer m.lock()()
	p := m.data.profiles[profileID]
	p.Rating = rating
	p.ReviewCount = count
	m.data.profiles[profileID] = p
	return nil
}

func (m *memStore) SearchTutors(ctx context.Context, filter TutorFilter) ([]models.TutorProfile, int64, error) {
	defer m.lock()()
	var all []models.TutorProfile
	for _, p := range m.data.profiles {
		if filter.AvailableOnly && !p.IsAvailable {
			continue
		}
		if filter.MaxRate != nil && p.HourlyRate.GreaterThan(*filter.MaxRate) {
			continue
		}
		if filter.MinRating != nil && (p.Rating == nil || p.Rating.LessThan(*filter.MinRating)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].HourlyRate.LessThan(all[j].HourlyRate) })
	return all, int64(len(all)), nil
}

func (m *memStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	defer m.lock()()
	var out []models.Category
	for _, c := range m.data.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) FindCategories(ctx context.Context, ids []uuid.UUID) ([]*models.Category, error) {
	defer m.lock()()
	var out []*models.Category
	for id := range uniqueIDs(ids) {
		if c, ok := m.data.categories[id]; ok {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memStore) CreateCategory(ctx context.Context, category *models.Category) error {
	defer m.lock()()
	for _, c := range m.data.categories {
		if c.Slug == category.Slug || c.Name == category.Name {
			return Conflict("duplicate category")
		}
	}
	category.ID = newID()
	m.data.categories[category.ID] = *category
	return nil
}

func (m *memStore) CreateWindow(ctx context.Context, window *models.AvailabilityWindow) error {
	defer m.lock()()
	window.ID = newID()
	m.data.windows[window.ID] = *window
	return nil
}

func (m *memStore) GetWindow(ctx context.Context, id uuid.UUID) (*models.AvailabilityWindow, error) {
	defer m.lock()()
	w, ok := m.data.windows[id]
	if !ok {
		return nil, NotFound("availability window not found")
	}
	return &w, nil
}

func (m *memStore) SaveWindow(ctx context.Context, window *models.AvailabilityWindow) error {
	defer m.lock()()
	m.data.windows[window.ID] = *window
	return nil
}

func (m *memStore) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	defer m.lock()()
	if _, ok := m.data.windows[id]; !ok {
		return NotFound("availability window not found")
	}
	delete(m.data.windows, id)
	return nil
}

func (m *memStore) ListActiveWindows(ctx context.Context, profileID uuid.UUID) ([]models.AvailabilityWindow, error) {
	defer m.lock()()
	var out []models.AvailabilityWindow
	for _, w := range m.data.windows {
		if w.TutorProfileID == profileID && w.IsActive {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	defer m.lock()()
	booking.ID = newID()
	booking.CreatedAt = time.Now()
	m.data.bookings[booking.ID] = *booking
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	defer m.lock()()
	b, ok := m.data.bookings[id]
	if !ok {
		return nil, NotFound("booking not found")
	}
	return &b, nil
}

// LockBooking relies on Transaction holding the store mutex for the row lock.
func (m *memStore) LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return m.GetBooking(ctx, id)
}

func (m *memStore) SaveBooking(ctx context.Context, booking *models.Booking) error {
	defer m.lock()()
	m.data.bookings[booking.ID] = *booking
	return nil
}

func inScope(b models.Booking, scope BookingScope) bool {
	if scope.StudentID != nil && b.StudentID != *scope.StudentID {
		return false
	}
	if scope.TutorID != nil && b.TutorID != *scope.TutorID {
		return false
	}
	return true
}

func (m *memStore) ListBookings(ctx context.Context, scope BookingScope) ([]models.Booking, error) {
	defer m.lock()()
	var out []models.Booking
	for _, b := range m.data.bookings {
		if inScope(b, scope) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.After(out[j].SessionDate)
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (m *memStore) CountBookings(ctx context.Context, scope BookingScope) (models.BookingStats, error) {
	defer m.lock()()
	var st models.BookingStats
	for _, b := range m.data.bookings {
		if !inScope(b, scope) {
			continue
		}
		st.Total++
		switch b.Status {
		case models.BookingPending:
			st.Pending++
		case models.BookingConfirmed:
			st.Confirmed++
		case models.BookingCompleted:
			st.Completed++
		case models.BookingCancelled:
			st.Cancelled++
		case models.BookingNoShow:
			st.NoShow++
		}
	}
	return st, nil
}

func (m *memStore) ListTutorBookingsOn(ctx context.Context, tutorID uuid.UUID, date time.Time) ([]models.Booking, error) {
	defer m.lock()()
	var out []models.Booking
	for _, b := range m.data.bookings {
		if b.TutorID == tutorID && b.SessionDate.Equal(date) && b.Status != models.BookingCancelled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListConfirmedBookingsOn(ctx context.Context, dates []time.Time) ([]models.Booking, error) {
	defer m.lock()()
	var out []models.Booking
	for _, b := range m.data.bookings {
		if b.Status != models.BookingConfirmed {
			continue
		}
		for _, d := range dates {
			if b.SessionDate.Equal(d) {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) CreateReview(ctx context.Context, review *models.Review) error {
	defer m.lock()()
	for _, r := range m.data.reviews {
		if r.BookingID == review.BookingID {
			return Conflict("duplicate review")
		}
	}
	review.ID = newID()
	review.CreatedAt = time.Now()
	m.data.reviews[review.ID] = *review
	return nil
}

func (m *memStore) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	defer m.lock()()
	r, ok := m.data.reviews[id]
	if !ok {
		return nil, NotFound("review not found")
	}
	return &r, nil
}

func (m *memStore) ReviewExists(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	defer m.lock()()
	for _, r := range m.data.reviews {
		if r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SaveReview(ctx context.Context, review *models.Review) error {
	defer m.lock()()
	m.data.reviews[review.ID] = *review
	return nil
}

func (m *memStore) ListVisibleReviews(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error) {
	defer m.lock()()
	var out []models.Review
	for _, r := range m.data.reviews {
		if r.TutorID == tutorID && r.IsVisible {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) VisibleRatings(ctx context.Context, profileID uuid.UUID) ([]int, error) {
	defer m.lock()()
	var out []int
	for _, r := range m.data.reviews {
		if r.TutorProfileID == profileID && r.IsVisible {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

// fixtures

func (m *memStore) addUser(name string, role models.Role) *models.User {
	u := &models.User{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:     role,
		Status:   models.AccountActive,
	}
	if err := m.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (m *memStore) addTutor(name string, rate string) (*models.User, *models.TutorProfile) {
	u := m.addUser(name, models.RoleTutor)
	p := &models.TutorProfile{
		UserID:      u.ID,
		Title:       name + " tutoring",
		HourlyRate:  decimal.RequireFromString(rate),
		IsAvailable: true,
	}
	if err := m.CreateTutorProfile(context.Background(), p); err != nil {
		panic(err)
	}
	return u, p
}

func (m *memStore) profile(id uuid.UUID) models.TutorProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.profiles[id]
}

func (m *memStore) windowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.windows)
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.bookings)
}
