// Package gateway talks to the orchestration gateway that schedules agent jobs.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/captainbotgit/mission-control/internal/models"
)

// ErrNotConfigured is returned when no gateway URL or token is set.
var ErrNotConfigured = errors.New("gateway not configured")

// Client fetches cron jobs from the gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a gateway client. Requests time out after timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has enough configuration to call out.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.token != ""
}

type cronListResponse struct {
	Jobs []cronJob `json:"jobs"`
}

// cronJob is the gateway's wire form. Run times arrive as RFC 3339 strings.
type cronJob struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Schedule      models.Schedule `json:"schedule"`
	SessionTarget string          `json:"sessionTarget"`
	Enabled       *bool           `json:"enabled"`
	LastRun       string          `json:"lastRun"`
	NextRun       string          `json:"nextRun"`
}

// ListCronJobs returns the gateway's scheduled jobs.
func (c *Client) ListCronJobs(ctx context.Context) ([]models.CronJob, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cron/list", nil)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var body cronListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	jobs := make([]models.CronJob, 0, len(body.Jobs))
	for _, j := range body.Jobs {
		job := models.CronJob{
			ID:            j.ID,
			Name:          j.Name,
			Schedule:      j.Schedule,
			SessionTarget: j.SessionTarget,
			Enabled:       j.Enabled == nil || *j.Enabled,
			LastRun:       parseTime(j.LastRun),
			NextRun:       parseTime(j.NextRun),
		}
		if job.SessionTarget == "" {
			job.SessionTarget = "main"
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
