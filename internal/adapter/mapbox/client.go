package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/observability"
)

// DefaultBaseURL is the Mapbox v5 places endpoint.
const DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode resolves a verbatim locality. A two-letter country code
// restricts the search to that country.
func (c *Client) ForwardGeocode(ctx context.Context, locality, country string) (domain.GeocodingResult, error) {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality,region"},
	}
	if cc := strings.ToLower(strings.TrimSpace(country)); len(cc) == 2 {
		params.Set("country", cc)
	}
	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(locality), params.Encode())
	return c.lookup(ctx, u, "forward")
}

// ReverseGeocode converts coordinates to place details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox paths are lon,lat.
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}
	u := fmt.Sprintf("%s/%.6f,%.6f.json?%s", c.baseURL, lon, lat, params.Encode())
	return c.lookup(ctx, u, "reverse")
}

func (c *Client) lookup(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	start := time.Now()
	result, err := c.do(ctx, fullURL, method)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		c.logger.Debug("mapbox lookup failed", "method", method, "error", err)
	case result.FormattedAddress == "":
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
	return result, err
}

func (c *Client) do(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode %s response: %w", method, err)
	}
	if len(body.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}
	return body.Features[0].result(), nil
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Lon, r.Lat = f.Center[0], f.Center[1]
	}
	return r
}
