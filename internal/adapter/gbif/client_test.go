package gbif

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second, UserAgent: "occurrence-etl-test"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// pagedServer serves total occurrences of Huso huso in pages.
func pagedServer(t *testing.T, total int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "/occurrence/search", r.URL.Path)
		assert.Equal(t, "2481139", r.URL.Query().Get("taxonKey"))
		assert.Equal(t, "occurrence-etl-test", r.Header.Get("User-Agent"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		resp := searchResponse{Offset: offset, Limit: limit, Count: total}
		for i := offset; i < min(offset+limit, total); i++ {
			resp.Results = append(resp.Results, map[string]any{
				"gbifID":           strconv.Itoa(1000 + i),
				"species":          "Huso huso",
				"decimalLatitude":  45.1,
				"decimalLongitude": 29.6,
				"year":             2001,
				"extraField":       "ignored",
			})
		}
		resp.EndOfRecords = offset+limit >= total
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_Search_Pages(t *testing.T) {
	var calls int
	srv := pagedServer(t, 450, &calls)
	defer srv.Close()

	tbl, err := testClient(srv.URL).Search(context.Background(), Query{TaxonKey: 2481139, Limit: 1000})
	require.NoError(t, err)

	assert.Equal(t, 450, tbl.Len())
	assert.Equal(t, 2, calls)
	assert.Equal(t, Columns, tbl.Columns())

	rec := tbl.Records()[0]
	assert.Equal(t, "1000", rec["gbifID"])
	assert.Equal(t, json.Number("45.1"), rec["decimalLatitude"])
	assert.NotContains(t, rec, "extraField")
}

func TestClient_Search_Limit(t *testing.T) {
	var calls int
	srv := pagedServer(t, 450, &calls)
	defer srv.Close()

	tbl, err := testClient(srv.URL).Search(context.Background(), Query{TaxonKey: 2481139, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, tbl.Len())
	assert.Equal(t, 1, calls)
}

func TestClient_Search_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "RS", q.Get("country"))
		assert.Equal(t, "1990,2024", q.Get("year"))
		assert.Equal(t, "true", q.Get("hasCoordinate"))
		assert.Empty(t, q.Get("taxonKey"))
		_, _ = w.Write([]byte(`{"endOfRecords":true,"results":[]}`))
	}))
	defer srv.Close()

	tbl, err := testClient(srv.URL).Search(context.Background(), Query{Country: "RS", Year: "1990,2024", HasCoordinate: true})
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
}

func TestClient_Search_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), Query{TaxonKey: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = c.Search(context.Background(), Query{})
	require.Error(t, err)
}

func TestClient_Search_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), Query{TaxonKey: 1})
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, slog.Default())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 20*time.Second, c.httpClient.Timeout)
}
