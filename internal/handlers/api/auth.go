package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/captainbotgit/mission-control/internal/middleware"
)

const cookieMaxAge = 7 * 24 * time.Hour

// AuthHandler exchanges the dashboard token for a login cookie.
type AuthHandler struct {
	auth   *middleware.AuthMiddleware
	secure bool
}

// NewAuthHandler creates a new auth API handler. secure marks the cookie
// HTTPS-only.
func NewAuthHandler(auth *middleware.AuthMiddleware, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure}
}

// Login checks the submitted password and sets the token cookie.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !h.auth.Enabled() {
		return jsonSuccess(c, fiber.Map{"authenticated": true})
	}
	if !h.auth.Valid(body.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid access token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    body.Password,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return jsonSuccess(c, fiber.Map{"authenticated": true})
}

// Logout clears the token cookie.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	c.ClearCookie(middleware.CookieName)
	return jsonSuccess(c, fiber.Map{"authenticated": false})
}
