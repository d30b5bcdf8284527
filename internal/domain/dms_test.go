package domain

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDMS(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`34°30'00"N`, 34.5},
		{`34°30'00"S`, -34.5},
		{`16°22'30"E`, 16.375},
		{`16°22'30"w`, -16.375},
		{`45° 30′ 36″ N`, 45.51},
		{`0°0'36"S`, -0.01},
		{`48°12'7.5"N`, 48 + 12.0/60 + 7.5/3600},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDMS(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestParseDMS_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"45.5",
		`34°30'00"`,
		`34°30'00"X`,
		`34°60'00"N`,
		`34°30'60"N`,
		`-34°30'00"N`,
		`-0°30'00"N`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDMS(in)
			require.ErrorIs(t, err, ErrParse)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, in, pe.Value)
		})
	}
}

func TestDMS_Decimal_SignFromDegrees(t *testing.T) {
	cases := []struct {
		name string
		in   DMS
		want float64
	}{
		{"positive", DMS{45, 30, 0}, 45.5},
		{"negative", DMS{-45, 30, 0}, -45.5},
		{"negative ignores minute sign", DMS{-45, -30, 0}, -45.5},
		{"negative zero", DMS{math.Copysign(0, -1), 30, 0}, -0.5},
		{"zero degrees negative minutes", DMS{0, -30, 0}, -0.5},
		{"zero degrees negative seconds", DMS{0, 0, -36}, -0.01},
		{"zero degrees minutes decide", DMS{0, 30, -36}, 0.51},
		{"zero", DMS{0, 0, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Decimal()
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestDMS_Decimal_ComponentRange(t *testing.T) {
	_, err := DMS{10, 60, 0}.Decimal()
	require.ErrorIs(t, err, ErrParse)
	_, err = DMS{10, 0, -60}.Decimal()
	require.ErrorIs(t, err, ErrParse)
	_, err = DMS{math.NaN(), 0, 0}.Decimal()
	require.ErrorIs(t, err, ErrParse)
}

func TestDMS_RoundTrip(t *testing.T) {
	for lat := -90.0; lat <= 90.0; lat += 7.123457 {
		for lon := -180.0; lon <= 180.0; lon += 13.987651 {
			gotLat, err := ParseDMS(FormatDMS(lat, Latitude))
			require.NoError(t, err)
			gotLon, err := ParseDMS(FormatDMS(lon, Longitude))
			require.NoError(t, err)
			assert.InDelta(t, lat, gotLat, 1e-6)
			assert.InDelta(t, lon, gotLon, 1e-6)

			viaComponents, err := DecimalToDMS(lat).Decimal()
			require.NoError(t, err)
			assert.InDelta(t, lat, viaComponents, 1e-6)
		}
	}
}

func TestDecimalToDMS_SmallNegative(t *testing.T) {
	d := DecimalToDMS(-0.5)
	assert.True(t, math.Signbit(d.Degrees))
	assert.InDelta(t, 30, d.Minutes, 1e-9)

	v, err := d.Decimal()
	require.NoError(t, err)
	assert.InDelta(t, -0.5, v, 1e-12)
}

func TestFormatDMS(t *testing.T) {
	assert.Equal(t, `34°30'0"S`, FormatDMS(-34.5, Latitude))
	assert.Equal(t, `16°22'30"E`, FormatDMS(16.375, Longitude))
}

func TestParseDMSMode(t *testing.T) {
	m, err := ParseDMSMode("Separate")
	require.NoError(t, err)
	assert.Equal(t, SeparateDMS, m)

	_, err = ParseDMSMode("decimal")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNormalizeDMS_Symbolic(t *testing.T) {
	in := mustTable(t, []string{"lat", "lon", "species"},
		[]any{`34°30'00"N`, `16°22'30"E`, "Huso huso"},
		[]any{"garbage", `16°22'30"W`, "Acipenser ruthenus"},
		[]any{nil, `16°22'30"N`, "Zingel streber"},
	)

	var buf bytes.Buffer
	out, report, err := NormalizeDMS(in, NormalizeOptions{
		Mode:      SymbolicDMS,
		Latitude:  "lat",
		Longitude: "lon",
		Verbose:   true,
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})
	require.NoError(t, err)

	assert.Equal(t, []any{34.5, nil, nil}, column(t, out, "lat"))
	assert.Equal(t, []any{16.375, -16.375, nil}, column(t, out, "lon"))
	assert.Equal(t, 3, report.Converted)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, 1, report.Failures[0].Row)
	assert.Equal(t, "lat", report.Failures[0].Column)
	assert.Equal(t, "garbage", report.Failures[0].Value)
	assert.Equal(t, 2, report.Failures[1].Row)
	assert.Equal(t, "lon", report.Failures[1].Column)
	require.ErrorIs(t, report.Err(), ErrParse)

	assert.Equal(t, `34°30'00"N`, column(t, in, "lat")[0], "input must not change")
	assert.Contains(t, buf.String(), "dms normalization")
}

func TestNormalizeDMS_Separate(t *testing.T) {
	in := mustTable(t, []string{"lat_d", "lat_m", "lat_s", "lon_d", "lon_m", "lon_s"},
		[]any{45, 30, 0, -16, 22, 30},
		[]any{math.Copysign(0, -1), 30, 0, 0, -30, 0},
		[]any{95, 0, 0, 10, 0, 0},
		[]any{"x", 0, 0, 10, 61, 0},
	)

	out, report, err := NormalizeDMS(in, NormalizeOptions{
		Mode:       SeparateDMS,
		Latitude:   "lat_d",
		Longitude:  "lon_d",
		LatMinutes: "lat_m",
		LatSeconds: "lat_s",
		LonMinutes: "lon_m",
		LonSeconds: "lon_s",
	})
	require.NoError(t, err)

	assert.Equal(t, []any{45.5, -0.5, 95.0, nil}, column(t, out, "lat_d"), "range is left to the coordinate check")
	lon := column(t, out, "lon_d")
	assert.InDelta(t, -16.375, lon[0], 1e-12)
	assert.InDelta(t, -0.5, lon[1], 1e-12)
	assert.InDelta(t, 10.0, lon[2], 1e-12)
	assert.Nil(t, lon[3])

	rows := make([]int, 0, len(report.Failures))
	for _, f := range report.Failures {
		rows = append(rows, f.Row)
	}
	assert.ElementsMatch(t, []int{3, 3}, rows)
}

func TestNormalizeDMS_SeparateOutOfRangeIsAFinding(t *testing.T) {
	in := mustTable(t, []string{"lat", "lat_m", "lon", "lon_m"},
		[]any{95, 0, 10, 0},
		[]any{45, 15, 200, 30},
	)
	out, report, err := NormalizeDMS(in, NormalizeOptions{
		Mode:       SeparateDMS,
		Latitude:   "lat",
		Longitude:  "lon",
		LatMinutes: "lat_m",
		LonMinutes: "lon_m",
	})
	require.NoError(t, err)
	require.Empty(t, report.Failures)

	_, coords, err := CheckCoordinates(out, CoordinateOptions{Latitude: "lat", Longitude: "lon"})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, coords.Latitude.OutOfRange)
	assert.Equal(t, []int{1}, coords.Longitude.OutOfRange)
	assert.Empty(t, coords.Latitude.Missing)
	assert.Empty(t, coords.Longitude.Missing)

	symbolic, _, err := NormalizeDMS(mustTable(t, []string{"lat", "lon"}, []any{`95°0'0"N`, `10°0'0"E`}),
		NormalizeOptions{Mode: SymbolicDMS, Latitude: "lat", Longitude: "lon"})
	require.NoError(t, err)
	assert.Equal(t, column(t, out, "lat")[0], column(t, symbolic, "lat")[0], "both modes agree")
}

func TestNormalizeDMS_ConfigurationErrors(t *testing.T) {
	in := mustTable(t, []string{"lat", "lon"})

	_, _, err := NormalizeDMS(in, NormalizeOptions{Latitude: "lat", Longitude: "missing"})
	require.ErrorIs(t, err, ErrConfiguration)

	_, _, err = NormalizeDMS(in, NormalizeOptions{Mode: SeparateDMS, Latitude: "lat", Longitude: "lon"})
	require.ErrorIs(t, err, ErrConfiguration)

	_, _, err = NormalizeDMS(nil, NormalizeOptions{Latitude: "lat", Longitude: "lon"})
	require.ErrorIs(t, err, ErrConfiguration)
}
