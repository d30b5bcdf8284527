package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

const basins = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"BASIN":"Sava"},"geometry":{"type":"Polygon","coordinates":[[[14,44],[20,44],[20,46.5],[14,46.5],[14,44]]]}},
 {"type":"Feature","properties":{"BASIN":"Tisza"},"geometry":{"type":"Polygon","coordinates":[[[19,45],[25,45],[25,49],[19,49],[19,45]]]}}
]}`

func writeBasins(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "basins.geojson")
	require.NoError(t, os.WriteFile(path, []byte(basins), 0o600))
	return path
}

func TestLayer_All(t *testing.T) {
	l, err := Layer(writeBasins(t), "", "")
	require.NoError(t, err)
	assert.Equal(t, geo.WGS84, l.CRS)
	assert.True(t, l.Contains(orb.Point{15, 45}))
	assert.True(t, l.Contains(orb.Point{24, 48}))
}

func TestLayer_Where(t *testing.T) {
	l, err := Layer(writeBasins(t), "", "BASIN = sava")
	require.NoError(t, err)
	assert.True(t, l.Contains(orb.Point{15, 45}))
	assert.False(t, l.Contains(orb.Point{24, 48}))

	_, err = Layer(writeBasins(t), "", "Sava")
	require.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("basins.kml", "")
	require.Error(t, err)

	_, err = Open(writeBasins(t), "EPSG:2154")
	require.Error(t, err)
}
