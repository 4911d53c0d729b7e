package services

import (
	"context"
	"sort"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AddWindowInput struct {
	DayOfWeek models.DayOfWeek `json:"dayOfWeek" validate:"required,weekday"`
	StartTime string           `json:"startTime" validate:"required,hhmm"`
	EndTime   string           `json:"endTime" validate:"required,hhmm"`
}

type UpdateWindowInput struct {
	DayOfWeek *models.DayOfWeek `json:"dayOfWeek" validate:"omitempty,weekday"`
	StartTime *string           `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   *string           `json:"endTime" validate:"omitempty,hhmm"`
	IsActive  *bool             `json:"isActive"`
}

// AvailabilityService manages tutors' recurring weekly windows. Active windows
// of one tutor on one day never overlap.
type AvailabilityService struct {
	store Store
	locks *utils.KeyedMutex
}

func NewAvailabilityService(store Store) *AvailabilityService {
	return &AvailabilityService{store: store, locks: utils.NewKeyedMutex()}
}

func validateWindow(day models.DayOfWeek, start, end string) error {
	if !day.Valid() {
		return Validation("invalid day of week %q", day)
	}
	s, err := utils.ClockMinutes(start)
	if err != nil {
		return Validation("startTime: %v", err)
	}
	e, err := utils.ClockMinutes(end)
	if err != nil {
		return Validation("endTime: %v", err)
	}
	if s >= e {
		return Validation("startTime must be before endTime")
	}
	return nil
}

func lockKey(profileID uuid.UUID, day models.DayOfWeek) string {
	return profileID.String() + "/" + string(day)
}

// lockDays takes the in-process locks for every day in days, in a stable
// order, and returns a func releasing all of them.
func (s *AvailabilityService) lockDays(profileID uuid.UUID, days ...models.DayOfWeek) func() {
	seen := make(map[models.DayOfWeek]bool, len(days))
	keys := make([]string, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		keys = append(keys, lockKey(profileID, d))
	}
	sort.Strings(keys)
	unlocks := make([]func(), 0, len(keys))
	for _, k := range keys {
		unlocks = append(unlocks, s.locks.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// findOverlap returns the first active window on day that intersects
// [start, end), ignoring the window with id skip.
func findOverlap(windows []models.AvailabilityWindow, day models.DayOfWeek, start, end string, skip uuid.UUID) *models.AvailabilityWindow {
	for i := range windows {
		w := windows[i]
		if w.ID == skip || w.DayOfWeek != day || !w.IsActive {
			continue
		}
		if w.Overlaps(start, end) {
			return &windows[i]
		}
	}
	return nil
}

func overlapError(w *models.AvailabilityWindow) error {
	return Overlap("window overlaps existing %s %s-%s", w.DayOfWeek, w.StartTime, w.EndTime)
}

func (s *AvailabilityService) AddWindow(ctx context.Context, tutorUserID uuid.UUID, in AddWindowInput) (*models.AvailabilityWindow, error) {
	if err := validateWindow(in.DayOfWeek, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	profile, err := s.store.GetTutorProfileByUser(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockDays(profile.ID, in.DayOfWeek)
	defer unlock()

	window := &models.AvailabilityWindow{
		TutorProfileID: profile.ID,
		DayOfWeek:      in.DayOfWeek,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		IsActive:       true,
	}
	err = s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.LockTutorProfile(ctx, tutorUserID); err != nil {
			return err
		}
		existing, err := tx.ListActiveWindows(ctx, profile.ID)
		if err != nil {
			return err
		}
		if w := findOverlap(existing, in.DayOfWeek, in.StartTime, in.EndTime, uuid.Nil); w != nil {
			return overlapError(w)
		}
		return tx.CreateWindow(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("tutor_profile_id", profile.ID.String()).Str("window_id", window.ID.String()).
		Str("day", string(window.DayOfWeek)).Msg("availability window added")
	return window, nil
}

// ListForTutor groups the tutor's active windows by day, each day sorted by
// start time. Days without windows are absent.
func (s *AvailabilityService) ListForTutor(ctx context.Context, tutorUserID uuid.UUID) (map[models.DayOfWeek][]models.AvailabilityWindow, error) {
	profile, err := s.store.GetTutorProfileByUser(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}
	windows, err := s.store.ListActiveWindows(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[models.DayOfWeek][]models.AvailabilityWindow)
	for _, w := range windows {
		grouped[w.DayOfWeek] = append(grouped[w.DayOfWeek], w)
	}
	for day := range grouped {
		list := grouped[day]
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime < list[j].StartTime })
	}
	return grouped, nil
}

// ownedWindow loads a window and checks that requester owns its profile.
func (s *AvailabilityService) ownedWindow(ctx context.Context, windowID, requesterID uuid.UUID) (*models.AvailabilityWindow, *models.TutorProfile, error) {
	window, err := s.store.GetWindow(ctx, windowID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.store.GetTutorProfileByUser(ctx, requesterID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, nil, Authorize(Actor{UserID: requesterID}, CapWindowOwner, Owners{})
		}
		return nil, nil, err
	}
	owner := requesterID
	if profile.ID != window.TutorProfileID {
		owner = uuid.Nil
	}
	if err := Authorize(Actor{UserID: requesterID}, CapWindowOwner, Owners{Owner: owner}); err != nil {
		return nil, nil, err
	}
	return window, profile, nil
}

// Update patches a window. The merged result is re-validated and, when
// active, re-checked against its siblings on the resulting day.
func (s *AvailabilityService) Update(ctx context.Context, windowID, requesterID uuid.UUID, in UpdateWindowInput) (*models.AvailabilityWindow, error) {
	window, profile, err := s.ownedWindow(ctx, windowID, requesterID)
	if err != nil {
		return nil, err
	}
	merged := *window
	if in.DayOfWeek != nil {
		merged.DayOfWeek = *in.DayOfWeek
	}
	if in.StartTime != nil {
		merged.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		merged.EndTime = *in.EndTime
	}
	if in.IsActive != nil {
		merged.IsActive = *in.IsActive
	}
	if err := validateWindow(merged.DayOfWeek, merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}

	unlock := s.lockDays(profile.ID, window.DayOfWeek, merged.DayOfWeek)
	defer unlock()

	err = s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.LockTutorProfile(ctx, requesterID); err != nil {
			return err
		}
		if merged.IsActive {
			existing, err := tx.ListActiveWindows(ctx, profile.ID)
			if err != nil {
				return err
			}
			if w := findOverlap(existing, merged.DayOfWeek, merged.StartTime, merged.EndTime, merged.ID); w != nil {
				return overlapError(w)
			}
		}
		return tx.SaveWindow(ctx, &merged)
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *AvailabilityService) Remove(ctx context.Context, windowID, requesterID uuid.UUID) error {
	window, _, err := s.ownedWindow(ctx, windowID, requesterID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteWindow(ctx, window.ID); err != nil {
		return err
	}
	log.Info().Str("window_id", window.ID.String()).Msg("availability window removed")
	return nil
}

// ToggleActive flips a window's active flag. Reactivation fails with OVERLAP
// when an active sibling now covers the same time.
func (s *AvailabilityService) ToggleActive(ctx context.Context, windowID, requesterID uuid.UUID) (*models.AvailabilityWindow, error) {
	window, profile, err := s.ownedWindow(ctx, windowID, requesterID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockDays(profile.ID, window.DayOfWeek)
	defer unlock()

	window.IsActive = !window.IsActive
	err = s.store.Transaction(ctx, func(tx Store) error {
		if window.IsActive {
			if _, err := tx.LockTutorProfile(ctx, requesterID); err != nil {
				return err
			}
			existing, err := tx.ListActiveWindows(ctx, profile.ID)
			if err != nil {
				return err
			}
			if w := findOverlap(existing, window.DayOfWeek, window.StartTime, window.EndTime, window.ID); w != nil {
				return overlapError(w)
			}
		}
		return tx.SaveWindow(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

// BulkAdd inserts all windows or none. Entries are checked against each
// other and against the tutor's existing active windows.
func (s *AvailabilityService) BulkAdd(ctx context.Context, tutorUserID uuid.UUID, in []AddWindowInput) ([]models.AvailabilityWindow, error) {
	if len(in) == 0 {
		return nil, Validation("at least one window is required")
	}
	days := make([]models.DayOfWeek, 0, len(in))
	for i, w := range in {
		if err := validateWindow(w.DayOfWeek, w.StartTime, w.EndTime); err != nil {
			e, _ := AsError(err)
			return nil, Validation("window %d: %s", i+1, e.Message)
		}
		days = append(days, w.DayOfWeek)
	}
	profile, err := s.store.GetTutorProfileByUser(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockDays(profile.ID, days...)
	defer unlock()

	created := make([]models.AvailabilityWindow, 0, len(in))
	err = s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.LockTutorProfile(ctx, tutorUserID); err != nil {
			return err
		}
		existing, err := tx.ListActiveWindows(ctx, profile.ID)
		if err != nil {
			return err
		}
		for _, w := range in {
			if hit := findOverlap(existing, w.DayOfWeek, w.StartTime, w.EndTime, uuid.Nil); hit != nil {
				return overlapError(hit)
			}
			window := models.AvailabilityWindow{
				TutorProfileID: profile.ID,
				DayOfWeek:      w.DayOfWeek,
				StartTime:      w.StartTime,
				EndTime:        w.EndTime,
				IsActive:       true,
			}
			if err := tx.CreateWindow(ctx, &window); err != nil {
				return err
			}
			existing = append(existing, window)
			created = append(created, window)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("tutor_profile_id", profile.ID.String()).Int("count", len(created)).Msg("availability windows added")
	return created, nil
}
