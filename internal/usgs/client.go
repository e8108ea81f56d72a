// Package usgs is a client for the USGS FDSN event web service.
package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jengzang/quake-explorer-go/internal/models"
)

// DefaultEndpoint is the FDSN event query endpoint
const DefaultEndpoint = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// ErrNotFound is returned when the service has no event for the request
var ErrNotFound = fmt.Errorf("usgs: %w", models.ErrRecordNotFound)

// maxBodySize caps a response body; a full 20000-event catalogue is well below it
const maxBodySize = 64 << 20

// StatusError is a non-success HTTP response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %s", e.Status)
}

// Temporary reports whether retrying the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Config configures a Client
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client queries a GeoJSON event endpoint. Requests are throttled by a
// shared token bucket so bursts of page sessions do not hammer the service.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewClient creates a new client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "quake-explorer/1.0"
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		userAgent: cfg.UserAgent,
	}
}

// Query performs GET dataSource?params and returns the flattened records.
// A 204 or an empty collection yields no records; a 404 yields ErrNotFound.
func (c *Client) Query(ctx context.Context, dataSource string, params map[string]string) ([]models.Record, error) {
	u, err := url.Parse(dataSource)
	if err != nil {
		return nil, fmt.Errorf("invalid data source %q: %w", dataSource, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Upstream request")

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return []models.Record{}, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return []models.Record{}, nil
	}
	return Decode(body)
}

// IsTemporary reports whether err is worth retrying
func IsTemporary(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, models.ErrRecordNotFound) && !errors.Is(err, context.Canceled)
}
