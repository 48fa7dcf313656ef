package middleware

import (
	"crypto/subtle"
	"net/url"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// CookieName is the cookie holding the dashboard token after login.
const CookieName = "dashboard_token"

// Paths reachable without a token.
var (
	publicPaths    = []string{"/login", "/api/auth", "/healthz", "/metrics", "/favicon.ico"}
	publicPrefixes = []string{"/static/"}
)

// AuthMiddleware gates requests on a shared dashboard token.
type AuthMiddleware struct {
	token string
}

// NewAuthMiddleware creates the middleware. An empty token disables auth.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: token}
}

// Enabled reports whether a token is configured.
func (m *AuthMiddleware) Enabled() bool {
	return m.token != ""
}

// Valid reports whether candidate matches the configured token.
func (m *AuthMiddleware) Valid(candidate string) bool {
	if !m.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(m.token)) == 1
}

// RequireAuth lets a request through when auth is disabled, the path is
// public, or the bearer header or cookie carries the token. API requests get
// a 401; pages are redirected to the login page.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	if !m.Enabled() || isPublic(c.Path()) {
		return c.Next()
	}

	if bearer, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok && m.Valid(bearer) {
		return c.Next()
	}
	if cookie := c.Cookies(CookieName); cookie != "" && m.Valid(cookie) {
		return c.Next()
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "Unauthorized",
		})
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To("/login?redirect=" + url.QueryEscape(c.Path()))
}

func isPublic(path string) bool {
	if slices.Contains(publicPaths, path) {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
