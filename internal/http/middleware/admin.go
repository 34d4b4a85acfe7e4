package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"paperapi/internal/auth"
	"paperapi/internal/model"
)

const (
	// ActorLocalKey stores the authenticated model.Actor in Fiber's context locals.
	ActorLocalKey = "actor"
	// TokenCookie is the cookie that may carry the admin session token.
	TokenCookie = "admin_token"
)

// TokenVerifier resolves a session token to its caller.
type TokenVerifier interface {
	Verify(token string) (model.Actor, error)
}

// RequireAdmin admits only requests carrying a valid admin token for adminEmail.
// The token is read from "Authorization: Bearer" or the admin_token cookie.
// Missing or invalid tokens yield 401, non-admin callers 403.
func RequireAdmin(v TokenVerifier, adminEmail string) fiber.Handler {
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(TokenCookie)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		actor, err := v.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if !actor.IsAdmin() || strings.ToLower(actor.Email) != adminEmail {
			return fiber.NewError(fiber.StatusForbidden, "admin privileges required")
		}

		c.Locals(ActorLocalKey, actor)
		c.SetUserContext(auth.WithActor(c.UserContext(), actor))
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by RequireAdmin.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	if a, ok := c.Locals(ActorLocalKey).(model.Actor); ok {
		return a
	}
	a, _ := auth.ActorFrom(c.UserContext())
	return a
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
