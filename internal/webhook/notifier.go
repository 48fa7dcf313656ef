// Package webhook delivers deliverable approval events to an external
// automation endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/metrics"
	"github.com/captainbotgit/mission-control/internal/models"
)

// ErrNotConfigured is returned by Send when no endpoint is set.
var ErrNotConfigured = errors.New("approval webhook URL not configured")

// Delivery outcomes, also used as metric labels.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// ApprovalPayload is the JSON body posted when a deliverable is decided.
type ApprovalPayload struct {
	DeliverableID string              `json:"deliverableId"`
	Status        string              `json:"status"`
	Notes         string              `json:"notes,omitempty"`
	ApprovedBy    string              `json:"approvedBy"`
	Deliverable   *models.Deliverable `json:"deliverable"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Notifier posts approval payloads to a single endpoint.
type Notifier struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

// NewNotifier creates a notifier for url. An empty url makes every Send a
// no-op returning ErrNotConfigured.
func NewNotifier(url string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        log.Named("webhook"),
	}
}

// Configured reports whether an endpoint is set.
func (n *Notifier) Configured() bool {
	return n != nil && n.url != ""
}

// Send posts payload, retrying once on failure.
func (n *Notifier) Send(ctx context.Context, payload ApprovalPayload) error {
	if !n.Configured() {
		metrics.RecordWebhook(OutcomeSkipped)
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if lastErr = n.post(ctx, body); lastErr == nil {
			metrics.RecordWebhook(OutcomeSent)
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	n.log.Warn("approval webhook failed",
		zap.String("deliverable_id", payload.DeliverableID),
		zap.Error(lastErr),
	)
	metrics.RecordWebhook(OutcomeFailed)
	return lastErr
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
