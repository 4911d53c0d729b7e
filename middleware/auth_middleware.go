package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Protected verifies the bearer token and stores the caller's services.Actor
// in the request locals.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		ErrorHandler:   jwtError,
		SuccessHandler: resolveActor,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "kind": "UNAUTHENTICATED", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "kind": "UNAUTHENTICATED", "message": "Invalid or expired JWT"})
}

func resolveActor(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwtError(c, errors.New("invalid token"))
	}
	actor, err := actorFromClaims(token.Claims)
	if err != nil {
		return jwtError(c, err)
	}
	c.Locals(actorKey, actor)
	return c.Next()
}

func actorFromClaims(raw jwt.Claims) (services.Actor, error) {
	claims, ok := raw.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, errors.New("unexpected claims type")
	}
	idStr, _ := claims["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return services.Actor{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	role, _ := claims["role"].(string)
	switch models.Role(role) {
	case models.RoleStudent, models.RoleTutor, models.RoleAdmin:
	default:
		return services.Actor{}, fmt.Errorf("invalid role claim %q", role)
	}
	return services.Actor{UserID: id, Role: models.Role(role)}, nil
}

// ParseToken validates a raw token outside the HTTP middleware chain, as the
// websocket handshake needs.
func ParseToken(secret, raw string) (services.Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return services.Actor{}, err
	}
	if !token.Valid {
		return services.Actor{}, errors.New("invalid token")
	}
	return actorFromClaims(token.Claims)
}

// ActorFrom returns the caller resolved by Protected.
func ActorFrom(c *fiber.Ctx) services.Actor {
	actor, _ := c.Locals(actorKey).(services.Actor)
	return actor
}

// RoleRequired admits only callers holding one of roles.
func RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"kind":    services.KindUnauthorized,
			"message": "Forbidden: insufficient role",
		})
	}
}

func AdminRequired() fiber.Handler {
	return RoleRequired(models.RoleAdmin)
}

// AccountLookup loads the caller's account.
type AccountLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ActiveAccount rejects suspended and banned accounts. Core services trust
// that this ran upstream of every write.
func ActiveAccount(users AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		user, err := users.GetUser(c.UserContext(), actor.UserID)
		if err != nil {
			if services.KindOf(err) == services.KindNotFound {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  "error",
					"kind":    "UNAUTHENTICATED",
					"message": "account no longer exists",
				})
			}
			return err
		}
		if user.Status != models.AccountActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"kind":    services.KindUnauthorized,
				"message": "account is " + string(user.Status),
			})
		}
		return c.Next()
	}
}
