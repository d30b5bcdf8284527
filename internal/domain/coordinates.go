package domain

import (
	"encoding/json"
	"log/slog"
	"math"
	"slices"
)

// CoordinateOptions binds the coordinate columns checked by CheckCoordinates.
// With Coerce set, numeric strings are rewritten as float64 in the returned
// table and non-numeric cells become missing.
type CoordinateOptions struct {
	Latitude  string
	Longitude string
	Coerce    bool

	Verbose bool
	Logger  *slog.Logger
}

// AxisReport holds the findings for one coordinate column. All index lists
// are zero-based row indices in ascending order.
type AxisReport struct {
	Column string
	// CoercionFailed lists cells that held a value that is not numeric.
	// Originally missing cells are listed in Missing instead.
	CoercionFailed []int
	OutOfRange     []int
	Missing        []int
	// Changed counts string cells rewritten as numbers.
	Changed int
}

// CoordinateReport holds the findings of CheckCoordinates.
type CoordinateReport struct {
	Latitude  AxisReport
	Longitude AxisReport
}

// Invalid returns the rows that failed coercion or the range check on
// either axis.
func (r *CoordinateReport) Invalid() []int {
	var rows []int
	rows = append(rows, r.Latitude.CoercionFailed...)
	rows = append(rows, r.Latitude.OutOfRange...)
	rows = append(rows, r.Longitude.CoercionFailed...)
	rows = append(rows, r.Longitude.OutOfRange...)
	slices.Sort(rows)
	return slices.Compact(rows)
}

// Unusable returns Invalid plus rows with a missing coordinate.
func (r *CoordinateReport) Unusable() []int {
	rows := r.Invalid()
	rows = append(rows, r.Latitude.Missing...)
	rows = append(rows, r.Longitude.Missing...)
	slices.Sort(rows)
	return slices.Compact(rows)
}

// CheckCoordinates checks that latitude and longitude are numeric and within
// WGS84 bounds. Bad rows are reported, never returned as errors; only a
// missing table or column fails the call. The input table is not modified.
func CheckCoordinates(t *Table, opts CoordinateOptions) (*Table, *CoordinateReport, error) {
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, nil, err
	}

	out := t
	if opts.Coerce {
		out = t.Clone()
	}
	report := &CoordinateReport{
		Latitude:  checkAxis(out, lat, 90, opts.Coerce),
		Longitude: checkAxis(out, lon, 180, opts.Coerce),
	}

	if opts.Verbose {
		logger(opts.Logger).Info("coordinate check",
			"rows", t.Len(),
			"lat_not_numeric", report.Latitude.CoercionFailed,
			"lat_out_of_range", report.Latitude.OutOfRange,
			"lon_not_numeric", report.Longitude.CoercionFailed,
			"lon_out_of_range", report.Longitude.OutOfRange,
			"changed", report.Latitude.Changed+report.Longitude.Changed,
		)
	}
	return out, report, nil
}

func checkAxis(t *Table, c Column, limit float64, coerce bool) AxisReport {
	r := AxisReport{Column: c.Name}
	for i := 0; i < t.Len(); i++ {
		raw := t.Value(i, c)
		if IsMissing(raw) {
			r.Missing = append(r.Missing, i)
			if coerce {
				t.SetValue(i, c, nil)
			}
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			r.CoercionFailed = append(r.CoercionFailed, i)
			if coerce {
				t.SetValue(i, c, nil)
			}
			continue
		}
		if coerce {
			if _, isFloat := raw.(float64); !isFloat {
				t.SetValue(i, c, v)
				if isStringCell(raw) {
					r.Changed++
				}
			}
		}
		if math.IsInf(v, 0) || v < -limit || v > limit {
			r.OutOfRange = append(r.OutOfRange, i)
		}
	}
	return r
}

func isStringCell(v any) bool {
	switch v.(type) {
	case string, json.Number:
		return true
	}
	return false
}
