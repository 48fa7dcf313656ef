package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func newTestApp(token string) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(token).RequireAuth)
	ok := func(c fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/", ok)
	app.Get("/login", ok)
	app.Get("/healthz", ok)
	app.Get("/api/agents", ok)
	app.Get("/api/auth", ok)
	app.Get("/api/reviews/pending", ok)
	return app
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		path         string
		header       string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{name: "auth disabled", token: "", path: "/api/agents", wantStatus: http.StatusOK},
		{name: "public login page", token: "s3cret", path: "/login", wantStatus: http.StatusOK},
		{name: "public health", token: "s3cret", path: "/healthz", wantStatus: http.StatusOK},
		{name: "bearer token", token: "s3cret", path: "/api/agents", header: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "cookie token", token: "s3cret", path: "/", cookie: "s3cret", wantStatus: http.StatusOK},
		{name: "wrong bearer", token: "s3cret", path: "/api/agents", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme ignored", token: "s3cret", path: "/api/agents", header: "Basic s3cret", wantStatus: http.StatusUnauthorized},
		{name: "missing on api", token: "s3cret", path: "/api/agents", wantStatus: http.StatusUnauthorized},
		{name: "review queue needs a token", token: "s3cret", path: "/api/reviews/pending", wantStatus: http.StatusUnauthorized},
		{name: "agent bearer on review queue", token: "s3cret", path: "/api/reviews/pending", header: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "public login endpoint", token: "s3cret", path: "/api/auth", wantStatus: http.StatusOK},
		{name: "page redirects", token: "s3cret", path: "/", wantStatus: http.StatusSeeOther, wantLocation: "/login?redirect=%2F"},
		{name: "wrong cookie redirects", token: "s3cret", path: "/", cookie: "nope", wantStatus: http.StatusSeeOther, wantLocation: "/login?redirect=%2F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}

			resp, err := newTestApp(tt.token).Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantLocation != "" && resp.Header.Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", resp.Header.Get("Location"), tt.wantLocation)
			}
		})
	}
}

func TestValid(t *testing.T) {
	m := NewAuthMiddleware("s3cret")
	if !m.Valid("s3cret") {
		t.Error("expected matching token to be valid")
	}
	if m.Valid("s3cre") || m.Valid("") {
		t.Error("expected mismatched token to be invalid")
	}
	if !NewAuthMiddleware("").Valid("anything") {
		t.Error("expected any token to be valid when auth is disabled")
	}
}
