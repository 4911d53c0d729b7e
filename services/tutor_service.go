package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BecomeTutorInput struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Headline        *string         `json:"headline" validate:"omitempty,max=255"`
	Description     *string         `json:"description"`
	Education       *string         `json:"education"`
	HourlyRate      decimal.Decimal `json:"hourlyRate"`
	ExperienceYears int             `json:"experienceYears" validate:"gte=0"`
	Subjects        []string        `json:"subjects" validate:"omitempty,dive,required,max=100"`
	CategoryIDs     []uuid.UUID     `json:"categoryIds"`
}

type UpdateTutorInput struct {
	Title           *string          `json:"title" validate:"omitempty,max=255"`
	Headline        *string          `json:"headline" validate:"omitempty,max=255"`
	Description     *string          `json:"description"`
	Education       *string          `json:"education"`
	HourlyRate      *decimal.Decimal `json:"hourlyRate"`
	ExperienceYears *int             `json:"experienceYears" validate:"omitempty,gte=0"`
	IsAvailable     *bool            `json:"isAvailable"`
	Subjects        []string         `json:"subjects" validate:"omitempty,dive,required,max=100"`
	CategoryIDs     []uuid.UUID      `json:"categoryIds"`
}

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

// CategoryCache is an advisory read-through cache for the category list.
type CategoryCache interface {
	Categories(ctx context.Context) ([]models.Category, bool)
	StoreCategories(ctx context.Context, categories []models.Category)
	InvalidateCategories(ctx context.Context)
}

type noCache struct{}

func (noCache) Categories(context.Context) ([]models.Category, bool) { return nil, false }
func (noCache) StoreCategories(context.Context, []models.Category)   {}
func (noCache) InvalidateCategories(context.Context)                 {}

type TutorService struct {
	store Store
	cache CategoryCache
}

func NewTutorService(store Store, cache CategoryCache) *TutorService {
	if cache == nil {
		cache = noCache{}
	}
	return &TutorService{store: store, cache: cache}
}

func cleanSubjects(in []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return datatypes.JSONSlice[string](out)
}

func (s *TutorService) categories(ctx context.Context, tx Store, ids []uuid.UUID) ([]*models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cats, err := tx.FindCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(cats) != len(uniqueIDs(ids)) {
		return nil, Validation("one or more categories do not exist")
	}
	return cats, nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// MaxHourlyRate keeps a full day's booking price within the numeric(10,2)
// price column.
var MaxHourlyRate = decimal.NewFromInt(100000)

// hourlyRate rounds to cents before checking bounds, so a rate that rounds
// to zero is rejected.
func hourlyRate(in decimal.Decimal) (decimal.Decimal, error) {
	rate := in.Round(2)
	if !rate.IsPositive() {
		return decimal.Zero, Validation("hourlyRate must be at least 0.01")
	}
	if rate.GreaterThan(MaxHourlyRate) {
		return decimal.Zero, Validation("hourlyRate cannot exceed %s", MaxHourlyRate.String())
	}
	return rate, nil
}

// BecomeTutor creates the caller's tutor profile and promotes the account to
// TUTOR in one transaction. A user holds at most one profile.
func (s *TutorService) BecomeTutor(ctx context.Context, userID uuid.UUID, in BecomeTutorInput) (*models.TutorProfile, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Validation("title is required")
	}
	rate, err := hourlyRate(in.HourlyRate)
	if err != nil {
		return nil, err
	}
	if in.ExperienceYears < 0 {
		return nil, Validation("experienceYears cannot be negative")
	}

	var profile *models.TutorProfile
	err = s.store.Transaction(ctx, func(tx Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.GetTutorProfileByUser(ctx, userID); err == nil {
			return Conflict("you already have a tutor profile")
		} else if KindOf(err) != KindNotFound {
			return err
		}
		cats, err := s.categories(ctx, tx, in.CategoryIDs)
		if err != nil {
			return err
		}
		profile = &models.TutorProfile{
			UserID:          userID,
			Title:           strings.TrimSpace(in.Title),
			Headline:        in.Headline,
			Description:     in.Description,
			Education:       in.Education,
			HourlyRate:      rate,
			ExperienceYears: in.ExperienceYears,
			IsAvailable:     true,
			Subjects:        cleanSubjects(in.Subjects),
			Categories:      cats,
		}
		if err := tx.CreateTutorProfile(ctx, profile); err != nil {
			return err
		}
		if user.Role != models.RoleAdmin {
			user.Role = models.RoleTutor
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("tutor_profile_id", profile.ID.String()).Msg("tutor profile created")
	return profile, nil
}

func (s *TutorService) GetProfile(ctx context.Context, tutorUserID uuid.UUID) (*models.TutorProfile, error) {
	return s.store.GetTutorProfileByUser(ctx, tutorUserID)
}

func (s *TutorService) UpdateProfile(ctx context.Context, tutorUserID uuid.UUID, in UpdateTutorInput) (*models.TutorProfile, error) {
	var profile *models.TutorProfile
	err := s.store.Transaction(ctx, func(tx Store) error {
		p, err := tx.LockTutorProfile(ctx, tutorUserID)
		if err != nil {
			return err
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return Validation("title cannot be empty")
			}
			p.Title = title
		}
		if in.Headline != nil {
			p.Headline = in.Headline
		}
		if in.Description != nil {
			p.Description = in.Description
		}
		if in.Education != nil {
			p.Education = in.Education
		}
		if in.HourlyRate != nil {
			rate, err := hourlyRate(*in.HourlyRate)
			if err != nil {
				return err
			}
			p.HourlyRate = rate
		}
		if in.ExperienceYears != nil {
			if *in.ExperienceYears < 0 {
				return Validation("experienceYears cannot be negative")
			}
			p.ExperienceYears = *in.ExperienceYears
		}
		if in.IsAvailable != nil {
			p.IsAvailable = *in.IsAvailable
		}
		if in.Subjects != nil {
			p.Subjects = cleanSubjects(in.Subjects)
		}
		if err := tx.SaveTutorProfile(ctx, p); err != nil {
			return err
		}
		if in.CategoryIDs != nil {
			cats, err := s.categories(ctx, tx, in.CategoryIDs)
			if err != nil {
				return err
			}
			if err := tx.ReplaceTutorCategories(ctx, p, cats); err != nil {
				return err
			}
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

type TutorList struct {
	Data []models.TutorProfile `json:"data"`
	Meta PageMeta              `json:"meta"`
}

func (s *TutorService) Search(ctx context.Context, filter TutorFilter) (TutorList, error) {
	if err := filter.Normalize(); err != nil {
		return TutorList{}, err
	}
	tutors, total, err := s.store.SearchTutors(ctx, filter)
	if err != nil {
		return TutorList{}, err
	}
	if tutors == nil {
		tutors = []models.TutorProfile{}
	}
	return TutorList{Data: tutors, Meta: newPageMeta(total, filter.Page, filter.Limit)}, nil
}

func (s *TutorService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cats, ok := s.cache.Categories(ctx); ok {
		return cats, nil
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	s.cache.StoreCategories(ctx, cats)
	return cats, nil
}

var slugJunk = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	return strings.Trim(slugJunk.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *TutorService) CreateCategory(ctx context.Context, actor Actor, in CreateCategoryInput) (*models.Category, error) {
	if err := Authorize(actor, CapAdmin, Owners{}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	slug := Slugify(name)
	if slug == "" {
		return nil, Validation("category name must contain letters or digits")
	}
	category := &models.Category{Name: name, Slug: slug, Description: in.Description}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if KindOf(err) == KindConflict {
			return nil, Conflict("category %q already exists", name)
		}
		return nil, err
	}
	s.cache.InvalidateCategories(ctx)
	return category, nil
}
