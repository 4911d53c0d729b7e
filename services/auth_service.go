package services

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserInput struct {
	FullName          *string `json:"fullName" validate:"omitempty,min=1,max=255"`
	ProfilePictureURL *string `json:"profilePictureUrl" validate:"omitempty,url"`
	TimeZone          *string `json:"timeZone" validate:"omitempty,timezone"`
}

type UserList struct {
	Data []models.User `json:"data"`
	Meta PageMeta      `json:"meta"`
}

type AuthService struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(store Store, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &AuthService{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.FullName) == "" {
		return nil, Validation("full name and email are required")
	}
	if len(in.Password) < 8 {
		return nil, Validation("password must be at least 8 characters")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    email,
		Password: hash,
		Role:     models.RoleStudent,
		Status:   models.AccountActive,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if KindOf(err) == KindConflict {
			return nil, Conflict("an account with this email already exists")
		}
		return nil, err
	}
	log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login checks credentials and returns a signed HS256 token carrying the
// user id and role.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if KindOf(err) == KindNotFound {
			return "", nil, Unauthorized("invalid email or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, Unauthorized("invalid email or password")
	}
	if user.Status != models.AccountActive {
		return "", nil, Unauthorized("account is %s", strings.ToLower(string(user.Status)))
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     s.now().Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *AuthService) UpdateMe(ctx context.Context, userID uuid.UUID, in UpdateUserInput) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, Validation("full name cannot be empty")
		}
		user.FullName = name
	}
	if in.ProfilePictureURL != nil {
		user.ProfilePictureURL = in.ProfilePictureURL
	}
	if in.TimeZone != nil {
		if _, err := time.LoadLocation(*in.TimeZone); err != nil {
			return nil, Validation("unknown time zone %q", *in.TimeZone)
		}
		user.TimeZone = in.TimeZone
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserStatus suspends, bans or reactivates an account. Administrators
// cannot change their own status.
func (s *AuthService) SetUserStatus(ctx context.Context, actor Actor, userID uuid.UUID, status models.AccountStatus) (*models.User, error) {
	if err := Authorize(actor, CapAdmin, Owners{}); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, Validation("unknown account status %q", status)
	}
	if userID == actor.UserID {
		return nil, Validation("you cannot change your own status")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("status", string(status)).Str("admin_id", actor.UserID.String()).Msg("account status changed")
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actor Actor, filter UserFilter) (UserList, error) {
	if err := Authorize(actor, CapAdmin, Owners{}); err != nil {
		return UserList{}, err
	}
	filter = filter.normalized()
	users, total, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return UserList{}, err
	}
	if users == nil {
		users = []models.User{}
	}
	return UserList{Data: users, Meta: newPageMeta(total, filter.Page, filter.Limit)}, nil
}
