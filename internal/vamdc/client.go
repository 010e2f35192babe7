// Package vamdc speaks the TAP-like sync protocol of VAMDC nodes: HEAD
// probes for existence and truncation, GET fetches for XSAMS payloads.
package vamdc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// HeaderTruncated reports how much of the full result set one response
	// covers. Absent, "None" or "100" mean the response is complete.
	HeaderTruncated = "VAMDC-TRUNCATED"
	// HeaderRequestToken carries the server-assigned token for a query,
	// used to name the persisted payload.
	HeaderRequestToken = "VAMDC-REQUEST-TOKEN"
	// headerPrefix selects the count headers collected from probes.
	headerPrefix = "vamdc-"

	// truncationComplete is the sentinel meaning all results fit.
	truncationComplete = "100"
	truncationNone     = "None"

	// The User-Agent distinguishes exploratory traffic from runs that
	// accept truncated responses, for server-side telemetry.
	userAgentExploring = "spectral (VAMDC line retrieval)"
	userAgentAccepting = "spectral (VAMDC line retrieval; truncation accepted)"
)

// BuildQuery renders the VSS2 query text for one wavelength interval and
// species key.
func BuildQuery(lambdaMin, lambdaMax float64, inchiKey string) string {
	return fmt.Sprintf(
		"select * where (RadTransWavelength >= %g AND RadTransWavelength <= %g) AND ((InchiKey = '%s'))",
		lambdaMin, lambdaMax, inchiKey)
}

// RequestURL builds the full sync request URL for a node endpoint and query.
func RequestURL(tapEndpoint, query string) string {
	return tapEndpoint + "sync?LANG=VSS2&REQUEST=doQuery&FORMAT=XSAMS&QUERY=" + url.QueryEscape(query)
}

// ProbeResult is the outcome of one HEAD probe.
type ProbeResult struct {
	// HasData is true when the node answered with a success status.
	HasData bool
	// Truncated is true when the node reported a partial result set.
	Truncated bool
	// CountHeaders holds every VAMDC-* response header, keys lower-cased.
	CountHeaders map[string]string
}

// FetchResult is the outcome of one GET fetch.
type FetchResult struct {
	// Token is the server-assigned request token, empty if none was sent.
	Token string
	// Body is the raw XSAMS payload.
	Body []byte
}

// Config tunes the HTTP behaviour of a Client.
type Config struct {
	// Timeout bounds each HTTP call. Fetches can be large, so this is
	// long by default.
	Timeout time.Duration
	// RetryAttempts is the total number of fetch attempts.
	RetryAttempts int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Minute,
		RetryAttempts:  3,
		RetryBaseDelay: time.Second,
	}
}

// Client issues probe and fetch calls against node endpoints.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *zap.Logger

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewClient creates a client with the given config.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

func userAgent(acceptTruncation bool) string {
	if acceptTruncation {
		return userAgentAccepting
	}
	return userAgentExploring
}

// Probe issues one HEAD request. It is not retried: a failing probe drops
// only the fragment being probed.
func (c *Client) Probe(ctx context.Context, requestURL string, acceptTruncation bool) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, requestURL, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(acceptTruncation))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result := ProbeResult{CountHeaders: collectCountHeaders(resp.Header)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// No data at this node for this interval. Not an error.
		return result, nil
	}
	result.HasData = true

	truncation := resp.Header.Get(HeaderTruncated)
	switch truncation {
	case "", truncationNone, truncationComplete:
		result.Truncated = false
	default:
		result.Truncated = true
	}
	return result, nil
}

// Fetch issues the GET request for a leaf fragment, retrying transient
// transport failures with exponential backoff.
func (c *Client) Fetch(ctx context.Context, requestURL string, acceptTruncation bool) (FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryBaseDelay << uint(attempt-1)
			c.logger.Debug("retrying fetch",
				zap.String("url", requestURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay))
			c.sleep(delay)
		}

		result, err := c.fetchOnce(ctx, requestURL, acceptTruncation)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return FetchResult{}, fmt.Errorf("fetch exhausted %d attempts: %w", c.config.RetryAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, requestURL string, acceptTruncation bool) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(acceptTruncation))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Truncated transfer. Retryable.
		return FetchResult{}, fmt.Errorf("read payload: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FetchResult{}, fmt.Errorf("fetch returned HTTP %d", resp.StatusCode)
	}

	return FetchResult{
		Token: resp.Header.Get(HeaderRequestToken),
		Body:  body,
	}, nil
}

func collectCountHeaders(h http.Header) map[string]string {
	counts := make(map[string]string)
	for name, values := range h {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, headerPrefix) && len(values) > 0 {
			counts[lower] = values[0]
		}
	}
	return counts
}
