package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnreachable is returned when a probed URL does not answer.
var ErrUnreachable = errors.New("url is unreachable")

// HTTPProber checks that a URL answers an HTTP request.
type HTTPProber struct {
	client       *http.Client
	allowPrivate bool
}

// NewHTTPProber creates a prober with the given timeout. When allowPrivate is
// false, URLs resolving to private or reserved addresses are refused.
func NewHTTPProber(timeout time.Duration, allowPrivate bool) *HTTPProber {
	return &HTTPProber{
		allowPrivate: allowPrivate,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// Probe performs a HEAD request against url. Any HTTP response counts as
// reachable, including error statuses.
func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	check := ValidateURLForProbe
	if p.allowPrivate {
		check = ValidateURL
	}
	if valid, msg := check(url); !valid {
		return fmt.Errorf("%w: %s", ErrUnreachable, msg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", "MissionControl-Prober/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: connection failed: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	return nil
}
