package domain

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coordinateTable(t *testing.T) *Table {
	t.Helper()
	return mustTable(t, []string{"decimalLatitude", "decimalLongitude", "species"},
		[]any{45.5, 16.2, "Huso huso"},
		[]any{"45.5", "abc", "Huso huso"},
		[]any{91.0, -181.0, "Zingel zingel"},
		[]any{nil, json.Number("20.1"), "Zingel zingel"},
		[]any{"NA", math.Inf(1), "Cottus gobio"},
		[]any{"-90", 180, "Cottus gobio"},
	)
}

func TestCheckCoordinates_Report(t *testing.T) {
	in := coordinateTable(t)

	_, report, err := CheckCoordinates(in, CoordinateOptions{
		Latitude:  "decimalLatitude",
		Longitude: "decimalLongitude",
	})
	require.NoError(t, err)

	assert.Equal(t, "decimalLatitude", report.Latitude.Column)
	assert.Empty(t, report.Latitude.CoercionFailed)
	assert.Equal(t, []int{2}, report.Latitude.OutOfRange)
	assert.Equal(t, []int{3, 4}, report.Latitude.Missing)

	assert.Equal(t, []int{1}, report.Longitude.CoercionFailed)
	assert.Equal(t, []int{2, 4}, report.Longitude.OutOfRange)
	assert.Empty(t, report.Longitude.Missing)

	assert.Equal(t, []int{1, 2, 4}, report.Invalid())
	assert.Equal(t, []int{1, 2, 3, 4}, report.Unusable())

	assert.Zero(t, report.Latitude.Changed, "changes are only counted when coercing")
}

func TestCheckCoordinates_Coerce(t *testing.T) {
	in := coordinateTable(t)

	out, report, err := CheckCoordinates(in, CoordinateOptions{
		Latitude:  "decimalLatitude",
		Longitude: "decimalLongitude",
		Coerce:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, in.Columns(), out.Columns(), "column set must not change")
	assert.Equal(t, []any{45.5, 45.5, 91.0, nil, nil, -90.0}, column(t, out, "decimalLatitude"))
	lon := column(t, out, "decimalLongitude")
	assert.Nil(t, lon[1])
	assert.Equal(t, 20.1, lon[3])
	assert.Equal(t, 180.0, lon[5])

	// "45.5" and "-90" on latitude; json 20.1 on longitude. "abc" failed
	// coercion and is not a change; the int 180 is not a string.
	assert.Equal(t, 2, report.Latitude.Changed)
	assert.Equal(t, 1, report.Longitude.Changed)

	assert.Equal(t, "45.5", column(t, in, "decimalLatitude")[1], "input must not change")
	assert.Equal(t, "abc", column(t, in, "decimalLongitude")[1], "input must not change")
}

func TestCheckCoordinates_ColumnCountPreserved(t *testing.T) {
	for _, coerce := range []bool{false, true} {
		in := coordinateTable(t)
		out, _, err := CheckCoordinates(in, CoordinateOptions{
			Latitude:  "decimalLatitude",
			Longitude: "decimalLongitude",
			Coerce:    coerce,
		})
		require.NoError(t, err)
		assert.Len(t, out.Columns(), 3)
		assert.Equal(t, in.Len(), out.Len())
	}
}

func TestCheckCoordinates_Verbose(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := CheckCoordinates(coordinateTable(t), CoordinateOptions{
		Latitude:  "decimalLatitude",
		Longitude: "decimalLongitude",
		Verbose:   true,
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "coordinate check")
}

func TestCheckCoordinates_StructuralErrors(t *testing.T) {
	_, _, err := CheckCoordinates(nil, CoordinateOptions{Latitude: "lat", Longitude: "lon"})
	require.ErrorIs(t, err, ErrConfiguration)

	_, _, err = CheckCoordinates(coordinateTable(t), CoordinateOptions{
		Latitude:  "decimalLatitude",
		Longitude: "lon",
	})
	var cfg *ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "longitude", cfg.Param)
}
