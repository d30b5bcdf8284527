// Package gbif downloads occurrence records from the GBIF occurrence search
// API (https://api.gbif.org/v1/occurrence/search).
package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

// DefaultBaseURL is the public GBIF API root.
const DefaultBaseURL = "https://api.gbif.org/v1"

// pageSize is the largest page the search endpoint returns.
const pageSize = 300

// Columns are the Darwin Core terms copied from each search result, in
// table order.
var Columns = []string{
	"gbifID",
	"datasetKey",
	"basisOfRecord",
	"taxonKey",
	"scientificName",
	"species",
	"decimalLatitude",
	"decimalLongitude",
	"coordinateUncertaintyInMeters",
	"countryCode",
	"locality",
	"eventDate",
	"year",
	"month",
	"day",
}

// Config holds the client settings. There is no package-level state; each
// client carries its own.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Query selects occurrences. Zero fields are not sent. Limit caps the
// number of records returned; zero means one page.
type Query struct {
	TaxonKey      int
	Country       string
	Year          string // single year or range, e.g. "1990,2024"
	HasCoordinate bool
	Limit         int
}

// Client is a GBIF occurrence search client. It does not retry.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client from cfg.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type searchResponse struct {
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
	EndOfRecords bool             `json:"endOfRecords"`
	Count        int              `json:"count"`
	Results      []map[string]any `json:"results"`
}

// Search pages through the occurrence search endpoint and returns the
// records as a table with the Columns layout.
func (c *Client) Search(ctx context.Context, q Query) (*domain.Table, error) {
	if q.TaxonKey == 0 && q.Country == "" {
		return nil, errors.New("gbif search: a taxon key or a country is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = pageSize
	}

	var rows [][]any
	for offset := 0; len(rows) < limit; {
		n := min(pageSize, limit-len(rows))
		page, err := c.fetch(ctx, q, offset, n)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Results {
			row := make([]any, len(Columns))
			for i, col := range Columns {
				row[i] = rec[col]
			}
			rows = append(rows, row)
		}
		c.logger.Debug("gbif page", "offset", offset, "results", len(page.Results), "count", page.Count)
		if page.EndOfRecords || len(page.Results) == 0 {
			break
		}
		offset += len(page.Results)
	}
	return domain.NewTable(Columns, rows)
}

func (c *Client) fetch(ctx context.Context, q Query, offset, limit int) (*searchResponse, error) {
	params := url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	if q.TaxonKey != 0 {
		params.Set("taxonKey", strconv.Itoa(q.TaxonKey))
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Year != "" {
		params.Set("year", q.Year)
	}
	if q.HasCoordinate {
		params.Set("hasCoordinate", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/occurrence/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("occurrence search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gbif API error: status %d: %s", resp.StatusCode, body)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var page searchResponse
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}
