// middleware/user_context.go
package middleware

import (
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved caller: who they are and what they may do.
// It is attached to the request context by UserContextMiddleware and passed
// into services explicitly — nothing in this codebase reads ambient user state.
type Identity struct {
	UserID      string
	Role        string
	Username    string
	Email       string
	HackatimeID string
}

func (id Identity) IsAdmin() bool    { return id.Role == "admin" }
func (id Identity) IsReviewer() bool { return id.Role == "reviewer" || id.Role == "admin" }

const identityKey = "identity"

var errNoIdentity = errors.New("no identity in request context")

// UserContextMiddleware resolves the caller from the session token minted by
// the identity gateway (HS256 JWT in X-Session-Token). Secured routes reject
// requests without a valid token.
func UserContextMiddleware() fiber.Handler {
	secret := os.Getenv("SESSION_JWT_SECRET")
	if secret == "" {
		log.Fatal("❌ SESSION_JWT_SECRET is not set — cannot verify session tokens")
	}

	return func(c *fiber.Ctx) error {
		tokenString := c.Get("X-Session-Token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "session token missing — sign in first",
			})
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("🚫 [USER_CTX] Invalid session token on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired session token",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token claims"})
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token missing subject"})
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = "user"
		}

		ident := Identity{
			UserID: sub,
			Role:   role,
		}
		ident.Username, _ = claims["username"].(string)
		ident.Email, _ = claims["email"].(string)
		ident.HackatimeID, _ = claims["hackatime_id"].(string)

		c.Locals(identityKey, ident)
		return c.Next()
	}
}

// IdentityFrom returns the resolved caller for a secured route.
func IdentityFrom(c *fiber.Ctx) (Identity, error) {
	ident, ok := c.Locals(identityKey).(Identity)
	if !ok {
		return Identity{}, errNoIdentity
	}
	return ident, nil
}

// RequireReviewer gates a route to reviewer or admin callers.
func RequireReviewer() fiber.Handler {
	return requireRole(func(id Identity) bool { return id.IsReviewer() })
}

// RequireAdmin gates a route to admin callers.
func RequireAdmin() fiber.Handler {
	return requireRole(func(id Identity) bool { return id.IsAdmin() })
}

func requireRole(allowed func(Identity) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := IdentityFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !allowed(ident) {
			log.Printf("🚫 [USER_CTX] Role %q denied on %s", ident.Role, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}
		return c.Next()
	}
}
