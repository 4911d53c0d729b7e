package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(store, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{FullName: "Sam Student", Email: " Sam@Example.com ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RoleStudent || user.Status != models.AccountActive || user.Email != "sam@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Password == "correct horse" {
		t.Fatalf("password stored in clear text")
	}
	if _, err := svc.Register(ctx, RegisterInput{FullName: "Dup", Email: "sam@example.com", Password: "another pass"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	token, _, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["user_id"] != user.ID.String() || claims["role"] != "STUDENT" {
		t.Fatalf("unexpected claims %v", claims)
	}

	if _, _, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "wrong"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if _, _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for unknown email, got %v", err)
	}
}

func TestSuspendedAccountCannotLogin(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(store, "test-secret", time.Hour)
	ctx := context.Background()
	admin := store.addUser("Root Admin", models.RoleAdmin)
	user, err := svc.Register(ctx, RegisterInput{FullName: "Sam", Email: "sam@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	adminActor := Actor{UserID: admin.ID, Role: models.RoleAdmin}

	if _, err := svc.SetUserStatus(ctx, Actor{UserID: user.ID, Role: models.RoleStudent}, admin.ID, models.AccountBanned); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, adminActor, admin.ID, models.AccountBanned); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected VALIDATION for self, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, adminActor, user.ID, "FROZEN"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected VALIDATION for unknown status, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, adminActor, user.ID, models.AccountSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, _, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "password1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for suspended account, got %v", err)
	}

	list, err := svc.ListUsers(ctx, adminActor, UserFilter{Search: "sam"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Meta.Total != 1 || list.Meta.Limit != 20 {
		t.Fatalf("unexpected meta %+v", list.Meta)
	}
	if _, err := svc.SetUserStatus(ctx, adminActor, uuid.New(), models.AccountActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
