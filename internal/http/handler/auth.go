package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"paperapi/internal/http/middleware"
	"paperapi/internal/model"
	"paperapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login exchanges the admin credentials for a session token. The token is
// returned in the body and set as the admin_token cookie.
//
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} loginResponse
// @Failure 400,401 {object} errorPayload
// @Router /api/admin/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}

		token, u, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     middleware.TokenCookie,
			Value:    token,
			Path:     "/",
			HTTPOnly: true,
			Secure:   c.Protocol() == "https" || strings.HasPrefix(c.Get("X-Forwarded-Proto"), "https"),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(loginResponse{Token: token, User: u})
	}
}

// CurrentUser returns the profile of the authenticated admin.
//
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401,404 {object} errorPayload
// @Router /api/auth/user [get]
func CurrentUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.CurrentUser(c.UserContext(), middleware.ActorFromCtx(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}
