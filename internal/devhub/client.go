// Package devhub is the HTTP client for the DevHub org: the object-query
// service backing the pool table, the capacity limits endpoint, and the
// scratch org signup API. Every remote call goes through a bounded
// exponential-backoff retry; transient failures (network, 429, 5xx) are
// retried, everything else escalates to the caller immediately.
package devhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	apiVersion = "v52.0"

	maxAttempts     = 3
	initialInterval = 3 * time.Second
	maxInterval     = 30 * time.Second

	requestTimeout = 60 * time.Second
)

// Client talks to one org: the DevHub itself, or (via ForOrg) a freshly
// created scratch org when its own settings need changing.
type Client struct {
	httpClient  *http.Client
	instanceURL string
	accessToken string
	runID       string
	retryWait   time.Duration // initial backoff, shortened in tests
	log         zerolog.Logger
}

// New returns a client for the given instance. The run id correlates every
// request issued by one CLI invocation.
func New(instanceURL, accessToken string, log zerolog.Logger) *Client {
	runID := uuid.NewString()
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		instanceURL: strings.TrimRight(instanceURL, "/"),
		accessToken: accessToken,
		runID:       runID,
		retryWait:   initialInterval,
		log:         log.With().Str("instance", instanceURL).Str("run_id", runID).Logger(),
	}
}

// ForOrg returns a client bound to another org, keeping this client's run id.
func (c *Client) ForOrg(instanceURL, accessToken string) *Client {
	return &Client{
		httpClient:  c.httpClient,
		instanceURL: strings.TrimRight(instanceURL, "/"),
		accessToken: accessToken,
		runID:       c.runID,
		retryWait:   c.retryWait,
		log:         c.log.With().Str("org_instance", instanceURL).Logger(),
	}
}

// RunID returns the correlation id for this invocation.
func (c *Client) RunID() string { return c.runID }

// statusError is a non-2xx response body, preserved for the caller.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	// Network-level failures come back as transport errors; retry those.
	return true
}

// doJSON issues one request with retry, decoding the response into out when
// out is non-nil. Body is JSON-encoded when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	op := func() error {
		var rdr io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("encoding request: %w", err))
			}
			rdr = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.instanceURL+path, rdr)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("X-Request-Id", c.runID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			serr := &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			if !retryable(serr) {
				return backoff.Permanent(serr)
			}
			return serr
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
			}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt).
			Dur("backoff", next).
			Err(err).
			Msg("remote call failed, retrying")
	}

	err := backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx), notify)
	if err != nil {
		return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, attempt+1, err)
	}
	return nil
}

func dataPath(parts ...string) string {
	return "/services/data/" + apiVersion + "/" + strings.Join(parts, "/")
}

func queryEscape(q string) string {
	return url.QueryEscape(q)
}
