package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/couchcryptid/insurance-news-map/internal/observability"
	"golang.org/x/time/rate"
)

// Client implements domain.GeocodeProvider using the OpenStreetMap Nominatim
// search API. Nominatim is keyless and rate-sensitive, so every outbound call
// waits on a limiter enforcing a minimum spacing between requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. interval is the minimum spacing between
// outbound requests; zero disables spacing.
func NewClient(baseURL string, timeout, interval time.Duration, userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		limiter:   newLimiter(interval),
		metrics:   metrics,
		logger:    logger,
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Geocode looks up a free-text place name and returns at most one candidate.
func (c *Client) Geocode(ctx context.Context, name string) ([]domain.Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode rate limit: %w", err)
	}

	params := url.Values{
		"q":      {name},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	places, err := c.do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	out := make([]domain.Coordinates, 0, len(places))
	for _, p := range places {
		out = append(out, domain.Coordinates{
			Latitude:  parseCoordinate(p.Lat),
			Longitude: parseCoordinate(p.Lon),
		})
	}

	outcome := "success"
	if !out[0].Finite() {
		outcome = "invalid"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	c.logger.Debug("geocoded", "location", name, "display_name", places[0].DisplayName, "outcome", outcome)
	return out, nil
}

func (c *Client) do(req *http.Request) ([]place, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return places, nil
}

// parseCoordinate returns NaN for anything that is not a number so callers
// can reject it with a finiteness check.
func parseCoordinate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Nominatim API response types. Coordinates arrive as decimal strings.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
