package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// dmsRe matches symbolic coordinates such as 45°30'15"N or 16° 22′ 5.5″ E.
var dmsRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*[°º]\s*(\d+(?:\.\d+)?)\s*['′’]\s*(\d+(?:\.\d+)?)\s*(?:"|″|”|'')\s*([NSEWnsew])\s*$`)

// Axis identifies the coordinate a value belongs to.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "longitude"
	}
	return "latitude"
}

// DMS is a coordinate split into degrees, minutes, and seconds.
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
}

// Decimal converts separate-column DMS components to decimal degrees.
// The sign of Degrees (including negative zero) selects the hemisphere;
// minutes and seconds are magnitudes. When Degrees is +0 the sign of the
// first non-zero of Minutes and Seconds is used instead.
func (d DMS) Decimal() (float64, error) {
	if math.IsNaN(d.Degrees) || math.IsNaN(d.Minutes) || math.IsNaN(d.Seconds) {
		return 0, &ParseError{Row: -1, Value: d.String(), Reason: "NaN component"}
	}
	minutes, seconds := math.Abs(d.Minutes), math.Abs(d.Seconds)
	if minutes >= 60 {
		return 0, &ParseError{Row: -1, Value: d.String(), Reason: "minutes out of range"}
	}
	if seconds >= 60 {
		return 0, &ParseError{Row: -1, Value: d.String(), Reason: "seconds out of range"}
	}

	negative := math.Signbit(d.Degrees)
	if d.Degrees == 0 && !negative {
		switch {
		case d.Minutes != 0:
			negative = d.Minutes < 0
		case d.Seconds != 0:
			negative = d.Seconds < 0
		}
	}

	v := math.Abs(d.Degrees) + minutes/60 + seconds/3600
	if negative {
		v = -v
	}
	return v, nil
}

func (d DMS) String() string {
	return fmt.Sprintf("%g°%g'%g\"", d.Degrees, d.Minutes, d.Seconds)
}

// ParseDMS converts a symbolic coordinate (deg°min'sec"dir) to decimal
// degrees. Southern and western directions are negative.
func ParseDMS(s string) (float64, error) {
	m := dmsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Row: -1, Value: s, Reason: "not a deg°min'sec\"dir coordinate"}
	}
	deg, _ := strconv.ParseFloat(m[1], 64)
	if math.Signbit(deg) {
		return 0, &ParseError{Row: -1, Value: s, Reason: "negative degrees with a direction letter"}
	}
	mins, _ := strconv.ParseFloat(m[2], 64)
	secs, _ := strconv.ParseFloat(m[3], 64)

	v, err := DMS{Degrees: deg, Minutes: mins, Seconds: secs}.Decimal()
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Value = s
		}
		return 0, err
	}
	switch strings.ToUpper(m[4]) {
	case "S", "W":
		v = -v
	}
	return v, nil
}

// parseDMSAxis is ParseDMS with a check that the direction letter belongs
// to the axis.
func parseDMSAxis(s string, axis Axis) (float64, error) {
	v, err := ParseDMS(s)
	if err != nil {
		return 0, err
	}
	dir := strings.ToUpper(strings.TrimSpace(s))
	dir = dir[len(dir)-1:]
	ok := (axis == Latitude && (dir == "N" || dir == "S")) ||
		(axis == Longitude && (dir == "E" || dir == "W"))
	if !ok {
		return 0, &ParseError{Row: -1, Value: s, Reason: fmt.Sprintf("direction %s is not valid for %s", dir, axis)}
	}
	return v, nil
}

// DecimalToDMS splits decimal degrees into components. The sign is carried
// by Degrees; for values in (-1, 0) Degrees is negative zero.
func DecimalToDMS(dec float64) DMS {
	abs := math.Abs(dec)
	deg := math.Floor(abs)
	rem := (abs - deg) * 60
	mins := math.Floor(rem)
	secs := (rem - mins) * 60
	if dec < 0 {
		deg = -deg
		if deg == 0 {
			deg = math.Copysign(0, -1)
		}
	}
	return DMS{Degrees: deg, Minutes: mins, Seconds: secs}
}

// FormatDMS renders decimal degrees in symbolic form with a direction letter.
func FormatDMS(dec float64, axis Axis) string {
	d := DecimalToDMS(dec)
	dir := "N"
	switch {
	case axis == Latitude && dec < 0:
		dir = "S"
	case axis == Longitude && dec < 0:
		dir = "W"
	case axis == Longitude:
		dir = "E"
	}
	return fmt.Sprintf("%d°%d'%s\"%s", int(math.Abs(d.Degrees)), int(d.Minutes),
		strconv.FormatFloat(d.Seconds, 'f', -1, 64), dir)
}

// DMSMode selects how DMS coordinates are laid out in a table.
type DMSMode int

const (
	// SymbolicDMS holds one deg°min'sec"dir string per coordinate cell.
	SymbolicDMS DMSMode = iota
	// SeparateDMS holds degrees, minutes, and seconds in separate columns.
	SeparateDMS
)

// ParseDMSMode maps "symbolic" and "separate" to a DMSMode.
func ParseDMSMode(s string) (DMSMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "symbolic":
		return SymbolicDMS, nil
	case "separate", "separate-columns":
		return SeparateDMS, nil
	}
	return 0, configErr("mode", "unknown DMS mode %q", s)
}

// NormalizeOptions binds the columns used by NormalizeDMS. The minute and
// second columns are only used in SeparateDMS mode.
type NormalizeOptions struct {
	Mode       DMSMode
	Latitude   string
	Longitude  string
	LatMinutes string
	LatSeconds string
	LonMinutes string
	LonSeconds string

	Verbose bool
	Logger  *slog.Logger
}

// NormalizeReport lists rows whose coordinates could not be converted.
type NormalizeReport struct {
	Converted int
	Failures  []*ParseError
}

// Err joins all per-row failures, or returns nil when there are none.
func (r *NormalizeReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type dmsAxis struct {
	axis     Axis
	deg      Column
	min, sec *Column
}

// NormalizeDMS rewrites the latitude and longitude columns of a copy of t as
// decimal degrees. Cells that do not parse become missing and are listed in
// the report; missing input cells stay missing.
func NormalizeDMS(t *Table, opts NormalizeOptions) (*Table, *NormalizeReport, error) {
	axes, err := resolveDMSColumns(t, opts)
	if err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	report := &NormalizeReport{}
	for _, ax := range axes {
		for i := 0; i < out.Len(); i++ {
			raw := out.Value(i, ax.deg)
			if IsMissing(raw) {
				out.SetValue(i, ax.deg, nil)
				continue
			}
			v, err := normalizeCell(out, i, ax, opts.Mode)
			if err != nil {
				var pe *ParseError
				if !errors.As(err, &pe) {
					return nil, nil, err
				}
				pe.Row = i
				pe.Column = ax.deg.Name
				report.Failures = append(report.Failures, pe)
				out.SetValue(i, ax.deg, nil)
				continue
			}
			out.SetValue(i, ax.deg, v)
			report.Converted++
		}
	}

	if opts.Verbose {
		logger(opts.Logger).Info("dms normalization",
			"mode", opts.Mode,
			"converted", report.Converted,
			"failed", len(report.Failures),
		)
	}
	return out, report, nil
}

func (m DMSMode) String() string {
	if m == SeparateDMS {
		return "separate"
	}
	return "symbolic"
}

func normalizeCell(t *Table, i int, ax dmsAxis, mode DMSMode) (float64, error) {
	raw := t.Value(i, ax.deg)
	if mode == SymbolicDMS {
		s, ok := raw.(string)
		if !ok {
			return 0, &ParseError{Value: CellString(raw), Reason: "symbolic DMS value is not a string"}
		}
		return parseDMSAxis(s, ax.axis)
	}

	deg, ok := toFloat(raw)
	if !ok {
		return 0, &ParseError{Value: CellString(raw), Reason: "degrees are not numeric"}
	}
	d := DMS{Degrees: deg}
	var err error
	if d.Minutes, err = componentValue(t, i, ax.min, "minutes"); err != nil {
		return 0, err
	}
	if d.Seconds, err = componentValue(t, i, ax.sec, "seconds"); err != nil {
		return 0, err
	}
	return d.Decimal()
}

// componentValue reads an optional minutes or seconds column. A missing
// column or missing cell counts as zero.
func componentValue(t *Table, i int, c *Column, what string) (float64, error) {
	if c == nil {
		return 0, nil
	}
	raw := t.Value(i, *c)
	if IsMissing(raw) {
		return 0, nil
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, &ParseError{Value: CellString(raw), Reason: what + " are not numeric"}
	}
	return v, nil
}

func resolveDMSColumns(t *Table, opts NormalizeOptions) ([]dmsAxis, error) {
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, err
	}
	axes := []dmsAxis{{axis: Latitude, deg: lat}, {axis: Longitude, deg: lon}}
	if opts.Mode != SeparateDMS {
		return axes, nil
	}

	optional := func(role, name string) (*Column, error) {
		if name == "" {
			return nil, nil
		}
		c, err := t.Resolve(role, name)
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	if axes[0].min, err = optional("latitude minutes", opts.LatMinutes); err != nil {
		return nil, err
	}
	if axes[0].sec, err = optional("latitude seconds", opts.LatSeconds); err != nil {
		return nil, err
	}
	if axes[1].min, err = optional("longitude minutes", opts.LonMinutes); err != nil {
		return nil, err
	}
	if axes[1].sec, err = optional("longitude seconds", opts.LonSeconds); err != nil {
		return nil, err
	}
	if axes[0].min == nil && axes[0].sec == nil && axes[1].min == nil && axes[1].sec == nil {
		return nil, configErr("mode", "separate DMS mode needs minute or second columns")
	}
	return axes, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
