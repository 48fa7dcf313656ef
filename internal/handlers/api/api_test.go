package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainbotgit/mission-control/internal/deliverables"
	"github.com/captainbotgit/mission-control/internal/middleware"
	"github.com/captainbotgit/mission-control/internal/notify"
	"github.com/captainbotgit/mission-control/internal/review"
	"github.com/captainbotgit/mission-control/internal/sources"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Field  string          `json:"field"`
}

func newTestApp(t *testing.T, token string) *fiber.App {
	t.Helper()

	svc := review.NewService(review.Config{
		Tiers:    []review.Store{review.NewMemoryStore()},
		Slot:     notify.NewFileSlot(t.TempDir()),
		Reviewer: "boss",
	})
	reviews := NewReviewHandler(svc)
	dashboard := NewDashboardHandler(sources.NewHub(sources.Config{}))
	deliv := NewDeliverableHandler(deliverables.NewService(nil, nil, "boss", nil))
	auth := middleware.NewAuthMiddleware(token)
	authHandler := NewAuthHandler(auth, false)

	app := fiber.New()
	app.Use(auth.RequireAuth)
	api := app.Group("/api")
	api.Get("/reviews", reviews.List)
	api.Post("/reviews", reviews.Create)
	api.Get("/reviews/pending", reviews.Pending)
	api.Post("/reviews/submit", reviews.Submit)
	api.Post("/reviews/seed", reviews.Seed)
	api.Get("/reviews/history", reviews.History)
	api.Get("/reviews/:id", reviews.Get)
	api.Patch("/reviews/:id", reviews.Update)
	api.Get("/agents", dashboard.Agents)
	api.Get("/tasks", dashboard.Tasks)
	api.Get("/cron", dashboard.Cron)
	api.Get("/deliverables", deliv.List)
	api.Get("/webhooks/approve", deliv.DescribeApprove)
	api.Post("/auth", authHandler.Login)
	api.Delete("/auth", authHandler.Logout)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type reviewJSON struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Decision *struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
	} `json:"decision"`
	History []json.RawMessage `json:"history"`
}

func TestReviewLifecycle(t *testing.T) {
	app := newTestApp(t, "")

	resp, env := do(t, app, http.MethodPost, "/api/reviews", map[string]any{
		"title":       "Launch copy",
		"type":        "copy",
		"content":     "Hello world",
		"submittedBy": "Forge",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	created := decode[reviewJSON](t, env.Data)
	assert.Equal(t, "pending", created.Status)
	assert.Nil(t, created.Decision)

	resp, env = do(t, app, http.MethodGet, "/api/reviews/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = do(t, app, http.MethodPatch, "/api/reviews/"+created.ID, map[string]any{"status": "changes_requested", "comment": "shorter"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	resp, env = do(t, app, http.MethodPatch, "/api/reviews/"+created.ID, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	decided := decode[reviewJSON](t, env.Data)
	assert.Equal(t, "approved", decided.Status)
	assert.Len(t, decided.History, 1)

	resp, env = do(t, app, http.MethodGet, "/api/reviews?status=approved", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Reviews []reviewJSON `json:"reviews"`
		Count   int          `json:"count"`
		Source  string       `json:"source"`
	}](t, env.Data)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "memory", list.Source)

	resp, env = do(t, app, http.MethodGet, "/api/reviews/pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	poll := decode[review.PollResult](t, env.Data)
	assert.True(t, poll.HasNotification)
	require.Len(t, poll.RecentDecisions, 1)

	_, env = do(t, app, http.MethodGet, "/api/reviews/pending", nil)
	assert.False(t, decode[review.PollResult](t, env.Data).HasNotification, "read clears the slot")
}

func TestReviewErrors(t *testing.T) {
	app := newTestApp(t, "")

	resp, env := do(t, app, http.MethodPost, "/api/reviews", map[string]any{"title": "x", "type": "copy"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)

	resp, env = do(t, app, http.MethodPost, "/api/reviews", map[string]any{"title": "x", "type": "website", "submittedBy": "Forge"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "previewUrl", env.Field)

	resp, _ = do(t, app, http.MethodGet, "/api/reviews/rev_missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPatch, "/api/reviews/rev_missing", map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/reviews?status=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/reviews/submit", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/reviews/submit", map[string]any{
		"decisions": []map[string]any{{"id": "rev_1", "status": "pending"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSeedSubmitAndHistory(t *testing.T) {
	app := newTestApp(t, "")

	resp, env := do(t, app, http.MethodPost, "/api/reviews/seed", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	seeded := decode[review.SeedResult](t, env.Data)
	require.Equal(t, len(review.SampleDrafts), seeded.Created)

	resp, _ = do(t, app, http.MethodPost, "/api/reviews/seed", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = do(t, app, http.MethodPost, "/api/reviews/submit", map[string]any{
		"decisions": []map[string]any{
			{"id": seeded.IDs[0], "status": "approved"},
			{"id": seeded.IDs[1], "status": "rejected", "comment": "no"},
			{"id": "rev_unknown", "status": "approved"},
		},
		"decidedBy": "boss",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Error)
	batch := decode[review.BatchResult](t, env.Data)
	assert.Len(t, batch.Updated, 2)
	assert.Equal(t, review.Summary{Total: 2, Approved: 1, Rejected: 1}, batch.Summary)

	resp, env = do(t, app, http.MethodGet, "/api/reviews/history?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[review.HistoryResult](t, env.Data)
	assert.Len(t, history.History, 1)
}

func TestDashboardFallsBackToMock(t *testing.T) {
	app := newTestApp(t, "")

	resp, env := do(t, app, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	agents := decode[struct {
		Source string `json:"source"`
		Count  int    `json:"count"`
	}](t, env.Data)
	assert.Equal(t, sources.SourceMock, agents.Source)
	assert.Positive(t, agents.Count)

	resp, _ = do(t, app, http.MethodGet, "/api/tasks?status=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = do(t, app, http.MethodGet, "/api/cron", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"source":"mock"`)
}

func TestDeliverablesWithoutDatabase(t *testing.T) {
	app := newTestApp(t, "")

	resp, _ := do(t, app, http.MethodGet, "/api/deliverables", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, env := do(t, app, http.MethodGet, "/api/webhooks/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"webhookConfigured":false`)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, "s3cret")

	resp, _ := do(t, app, http.MethodGet, "/api/reviews", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/auth", map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader([]byte(`{"password":"s3cret"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
