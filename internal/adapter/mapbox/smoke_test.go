//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/occurrence-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Live API checks. Run with MAPBOX_TOKEN set:
//   go test -tags=mapbox ./internal/adapter/mapbox/ -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Skip("MAPBOX_TOKEN not set")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	result, err := smokeClient(t).ForwardGeocode(context.Background(), "Novi Sad", "RS")
	require.NoError(t, err)

	assert.InDelta(t, 45.26, result.Lat, 0.1)
	assert.InDelta(t, 19.83, result.Lon, 0.1)
	assert.Contains(t, result.FormattedAddress, "Novi Sad")
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	result, err := smokeClient(t).ReverseGeocode(context.Background(), 48.2082, 16.3738)
	require.NoError(t, err)
	assert.NotEmpty(t, result.FormattedAddress)
}

func TestSmoke_Cached(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "Vukovar", "HR")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), "Vukovar", "HR")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
