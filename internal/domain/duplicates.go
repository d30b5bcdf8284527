package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDuplicateFlag is the column written by FlagDuplicates when
// DuplicateOptions.FlagColumn is empty.
const DefaultDuplicateFlag = "duplicate_flag"

// DefaultDigits is the coordinate rounding used for duplicate keys when
// DuplicateOptions.Digits is zero.
const DefaultDigits = 4

// Special values for DuplicateOptions.Digits.
const (
	NoRounding   = -1 // compare coordinates at full precision
	WholeDegrees = -2 // round to zero decimals
)

// DuplicateMode selects what the detector does with duplicate groups.
type DuplicateMode int

const (
	// DeleteDuplicates keeps the first row of each group in original order.
	DeleteDuplicates DuplicateMode = iota
	// FlagDuplicates keeps every row and marks all group members.
	FlagDuplicates
)

func (m DuplicateMode) String() string {
	if m == FlagDuplicates {
		return "flag"
	}
	return "delete"
}

// DuplicateOptions binds the key columns. Exactly one of Dates and
// DateColumn must be set; DateColumn names a column that already holds a
// resolved date.
type DuplicateOptions struct {
	Latitude    string
	Longitude   string
	SpatialUnit string
	Species     string
	Dates       DateColumns
	DateColumn  string
	Digits      int
	Mode        DuplicateMode
	FlagColumn  string

	Verbose bool
	Logger  *slog.Logger
}

// DuplicateKey is the projected tuple two rows must share to be duplicates.
type DuplicateKey struct {
	Latitude    string
	Longitude   string
	SpatialUnit string
	Date        string
	Species     string
}

func (k DuplicateKey) String() string {
	return strings.Join([]string{k.Latitude, k.Longitude, k.SpatialUnit, k.Date, k.Species}, "|")
}

// RecordID derives a deterministic id from the key so that replaying the
// same occurrence yields the same id.
func RecordID(k DuplicateKey) string {
	hash := sha256.Sum256([]byte(k.String()))
	return "occ-" + hex.EncodeToString(hash[:8])
}

// DuplicateReport summarises a detector run. Ineligible rows had a missing
// key field and never match another row.
type DuplicateReport struct {
	Mode       DuplicateMode
	Total      int
	Flagged    int
	Removed    int
	Groups     int
	Ineligible []int
}

// DuplicateKeys builds the key of every row. The entry is nil when a key
// field is missing.
func DuplicateKeys(t *Table, opts DuplicateOptions) ([]*DuplicateKey, error) {
	digits, err := resolveDigits(opts.Digits)
	if err != nil {
		return nil, err
	}
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, err
	}
	unit, err := t.Resolve("spatial_unit", opts.SpatialUnit)
	if err != nil {
		return nil, err
	}
	species, err := t.Resolve("species", opts.Species)
	if err != nil {
		return nil, err
	}
	dates, err := dateKeys(t, opts)
	if err != nil {
		return nil, err
	}

	keys := make([]*DuplicateKey, t.Len())
	for i := range keys {
		la, ok := roundedCoordinate(t.Value(i, lat), digits)
		if !ok {
			continue
		}
		lo, ok := roundedCoordinate(t.Value(i, lon), digits)
		if !ok {
			continue
		}
		u, s := t.Value(i, unit), t.Value(i, species)
		if IsMissing(u) || IsMissing(s) || dates[i] == "" {
			continue
		}
		keys[i] = &DuplicateKey{
			Latitude:    la,
			Longitude:   lo,
			SpatialUnit: canonicalKey(u),
			Date:        dates[i],
			Species:     CellString(s),
		}
	}
	return keys, nil
}

func resolveDigits(d int) (int32, error) {
	switch {
	case d == 0:
		return DefaultDigits, nil
	case d == WholeDegrees:
		return 0, nil
	case d == NoRounding:
		return NoRounding, nil
	case d < 0:
		return 0, configErr("digits", "%d is not a valid number of decimals", d)
	}
	return int32(d), nil
}

func dateKeys(t *Table, opts DuplicateOptions) ([]string, error) {
	switch {
	case opts.DateColumn != "" && !opts.Dates.IsZero():
		return nil, configErr("dates", "give either date columns or a resolved date column, not both")
	case opts.DateColumn != "":
		c, err := t.Resolve("date", opts.DateColumn)
		if err != nil {
			return nil, err
		}
		out := make([]string, t.Len())
		for i := range out {
			if v := t.Value(i, c); !IsMissing(v) {
				out[i] = canonicalKey(v)
			}
		}
		return out, nil
	}
	resolved, _, err := ResolveDates(t, opts.Dates)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(resolved))
	for i, d := range resolved {
		out[i] = d.Key()
	}
	return out, nil
}

// roundedCoordinate renders v rounded half away from zero. Decimal rounding
// keeps the key exact, so 45.55555 and 45.55554999 never straddle a
// float64 representation boundary.
func roundedCoordinate(v any, digits int32) (string, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsInf(f, 0) {
		return "", false
	}
	if digits == NoRounding {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return decimal.NewFromFloat(f).Round(digits).String(), true
}

// DetectDuplicates groups rows on their duplicate key. In delete mode the
// returned table keeps the first row of each group; in flag mode it keeps
// every row and adds a bool flag column that is true for every member of a
// group of two or more. The input table is never modified.
func DetectDuplicates(t *Table, opts DuplicateOptions) (*Table, *DuplicateReport, error) {
	keys, err := DuplicateKeys(t, opts)
	if err != nil {
		return nil, nil, err
	}

	report := &DuplicateReport{Mode: opts.Mode, Total: t.Len()}
	groups := make(map[DuplicateKey][]int)
	for i, k := range keys {
		if k == nil {
			report.Ineligible = append(report.Ineligible, i)
			continue
		}
		groups[*k] = append(groups[*k], i)
	}

	flags := make([]bool, t.Len())
	for _, rows := range groups {
		if len(rows) < 2 {
			continue
		}
		report.Groups++
		report.Flagged += len(rows)
		for _, r := range rows {
			flags[r] = true
		}
	}

	var out *Table
	switch opts.Mode {
	case FlagDuplicates:
		name := opts.FlagColumn
		if name == "" {
			name = DefaultDuplicateFlag
		}
		values := make([]any, len(flags))
		for i, f := range flags {
			values[i] = f
		}
		out = t.Clone()
		if err := out.SetColumn(name, values); err != nil {
			return nil, nil, err
		}
	case DeleteDuplicates:
		var drop []int
		for i, k := range keys {
			if k != nil && groups[*k][0] != i {
				drop = append(drop, i)
			}
		}
		report.Removed = len(drop)
		out = t.Drop(drop)
	default:
		return nil, nil, configErr("mode", "unknown duplicate mode %d", opts.Mode)
	}

	if opts.Verbose {
		logger(opts.Logger).Info("duplicate check",
			"mode", opts.Mode.String(),
			"flagged", report.Flagged,
			"groups", report.Groups,
			"removed", report.Removed,
			"ineligible", len(report.Ineligible),
		)
	}
	return out, report, nil
}
