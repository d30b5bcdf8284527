package domain

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultMinYear is the lower bound used when a YearRange leaves Min unset.
// An unset Max falls back to the current year of the package clock.
const DefaultMinYear = 1900

// DefaultDateLayout reads dd/mm/yyyy dates with one or two digit day and
// month.
const DefaultDateLayout = "2/1/2006"

// DateMode is the temporal representation found in a table.
type DateMode int

const (
	YearOnly DateMode = iota + 1
	DayMonthYear
	DateString
)

func (m DateMode) String() string {
	switch m {
	case YearOnly:
		return "year"
	case DayMonthYear:
		return "day-month-year"
	case DateString:
		return "date"
	}
	return "unknown"
}

// DateColumns binds exactly one temporal representation: Year alone,
// Year with Month and Day, or Date alone.
type DateColumns struct {
	Year   string
	Month  string
	Day    string
	Date   string
	Layout string // layout for Date, DefaultDateLayout when empty
}

// IsZero reports whether no temporal column is bound.
func (c DateColumns) IsZero() bool {
	return c.Year == "" && c.Month == "" && c.Day == "" && c.Date == ""
}

// Mode returns the representation selected by the bound columns.
func (c DateColumns) Mode() (DateMode, error) {
	switch {
	case c.Date != "" && c.Year == "" && c.Month == "" && c.Day == "":
		return DateString, nil
	case c.Year != "" && c.Month == "" && c.Day == "" && c.Date == "":
		return YearOnly, nil
	case c.Year != "" && c.Month != "" && c.Day != "" && c.Date == "":
		return DayMonthYear, nil
	case c.IsZero():
		return 0, configErr("dates", "no date representation given")
	}
	return 0, configErr("dates", "ambiguous or incomplete date columns (year=%q month=%q day=%q date=%q)",
		c.Year, c.Month, c.Day, c.Date)
}

// ResolvedDate is the calendar value of one row. Month and Day are zero in
// year-only mode.
type ResolvedDate struct {
	Year    int
	Month   int
	Day     int
	Missing bool
}

// Key returns the canonical text of the date, empty when missing.
func (d ResolvedDate) Key() string {
	switch {
	case d.Missing:
		return ""
	case d.Month == 0:
		return strconv.Itoa(d.Year)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ResolveDates parses the temporal columns of every row. The first
// non-missing value that is not a valid date aborts the call with a
// *ParseError; the batch is treated as unusable rather than partially parsed.
func ResolveDates(t *Table, cols DateColumns) ([]ResolvedDate, DateMode, error) {
	mode, err := cols.Mode()
	if err != nil {
		return nil, 0, err
	}
	if t == nil {
		return nil, 0, configErr("table", "input is not a table")
	}

	var year, month, day, date Column
	switch mode {
	case YearOnly:
		if year, err = t.Resolve("year", cols.Year); err != nil {
			return nil, 0, err
		}
	case DayMonthYear:
		if year, err = t.Resolve("year", cols.Year); err != nil {
			return nil, 0, err
		}
		if month, err = t.Resolve("month", cols.Month); err != nil {
			return nil, 0, err
		}
		if day, err = t.Resolve("day", cols.Day); err != nil {
			return nil, 0, err
		}
	case DateString:
		if date, err = t.Resolve("date", cols.Date); err != nil {
			return nil, 0, err
		}
	}
	layout := cols.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}

	out := make([]ResolvedDate, t.Len())
	for i := range out {
		var d ResolvedDate
		var err error
		switch mode {
		case YearOnly:
			d, err = resolveYear(t.Value(i, year))
			if err != nil {
				return nil, 0, withCell(err, i, year)
			}
		case DayMonthYear:
			d, err = resolveTriple(t, i, year, month, day)
			if err != nil {
				return nil, 0, err
			}
		case DateString:
			d, err = resolveDateString(t.Value(i, date), layout)
			if err != nil {
				return nil, 0, withCell(err, i, date)
			}
		}
		out[i] = d
	}
	return out, mode, nil
}

func withCell(err error, row int, c Column) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Row = row
		pe.Column = c.Name
		return pe
	}
	return err
}

func resolveYear(v any) (ResolvedDate, error) {
	if IsMissing(v) {
		return ResolvedDate{Missing: true}, nil
	}
	y, err := parseInteger(v, "year")
	if err != nil {
		return ResolvedDate{}, err
	}
	return ResolvedDate{Year: y}, nil
}

func resolveTriple(t *Table, i int, yc, mc, dc Column) (ResolvedDate, error) {
	yv, mv, dv := t.Value(i, yc), t.Value(i, mc), t.Value(i, dc)
	if IsMissing(yv) || IsMissing(mv) || IsMissing(dv) {
		return ResolvedDate{Missing: true}, nil
	}
	y, err := parseInteger(yv, "year")
	if err != nil {
		return ResolvedDate{}, withCell(err, i, yc)
	}
	m, err := parseInteger(mv, "month")
	if err != nil {
		return ResolvedDate{}, withCell(err, i, mc)
	}
	d, err := parseInteger(dv, "day")
	if err != nil {
		return ResolvedDate{}, withCell(err, i, dc)
	}
	if !validDate(y, m, d) {
		return ResolvedDate{}, &ParseError{
			Row:    i,
			Column: yc.Name + "/" + mc.Name + "/" + dc.Name,
			Value:  fmt.Sprintf("%d-%d-%d", y, m, d),
			Reason: "not a calendar date",
		}
	}
	return ResolvedDate{Year: y, Month: m, Day: d}, nil
}

func resolveDateString(v any, layout string) (ResolvedDate, error) {
	if IsMissing(v) {
		return ResolvedDate{Missing: true}, nil
	}
	s := strings.TrimSpace(CellString(v))
	ts, err := time.Parse(layout, s)
	if err != nil {
		return ResolvedDate{}, &ParseError{Value: s, Reason: "date does not match layout " + layout}
	}
	return ResolvedDate{Year: ts.Year(), Month: int(ts.Month()), Day: ts.Day()}, nil
}

// parseInteger accepts integers, integral floats, and integer strings such
// as "2021" or "2021.0".
func parseInteger(v any, what string) (int, error) {
	f, ok := toFloat(v)
	if !ok || math.IsInf(f, 0) {
		return 0, &ParseError{Value: CellString(v), Reason: what + " is not numeric"}
	}
	if f != math.Trunc(f) {
		return 0, &ParseError{Value: CellString(v), Reason: what + " is not an integer"}
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, &ParseError{Value: CellString(v), Reason: what + " is too large"}
	}
	return int(f), nil
}

func validDate(y, m, d int) bool {
	if m < 1 || m > 12 || d < 1 {
		return false
	}
	ts := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return ts.Year() == y && int(ts.Month()) == m && ts.Day() == d
}

// YearRange is an inclusive year bound. Zero fields take the documented
// defaults: DefaultMinYear and the current year.
type YearRange struct {
	Min int
	Max int
}

func (r YearRange) resolve() (YearRange, error) {
	if r.Min == 0 {
		r.Min = DefaultMinYear
	}
	if r.Max == 0 {
		r.Max = clock.Now().Year()
	}
	if r.Min > r.Max {
		return r, configErr("range", "min year %d is after max year %d", r.Min, r.Max)
	}
	return r, nil
}

// TemporalOptions configures CheckDates.
type TemporalOptions struct {
	Columns DateColumns
	Range   YearRange

	Verbose bool
	Logger  *slog.Logger
}

// TemporalReport lists rows whose date is missing or outside the range.
type TemporalReport struct {
	Mode       DateMode
	Range      YearRange
	Missing    []int
	OutOfRange []int
	Dates      []ResolvedDate
}

// Invalid returns missing and out-of-range rows in ascending order.
func (r *TemporalReport) Invalid() []int {
	out := make([]int, 0, len(r.Missing)+len(r.OutOfRange))
	i, j := 0, 0
	for i < len(r.Missing) || j < len(r.OutOfRange) {
		switch {
		case j >= len(r.OutOfRange) || (i < len(r.Missing) && r.Missing[i] < r.OutOfRange[j]):
			out = append(out, r.Missing[i])
			i++
		default:
			out = append(out, r.OutOfRange[j])
			j++
		}
	}
	return out
}

// CheckDates resolves the temporal columns and reports missing dates and
// years outside the inclusive range.
func CheckDates(t *Table, opts TemporalOptions) (*TemporalReport, error) {
	rng, err := opts.Range.resolve()
	if err != nil {
		return nil, err
	}
	dates, mode, err := ResolveDates(t, opts.Columns)
	if err != nil {
		return nil, err
	}

	report := &TemporalReport{Mode: mode, Range: rng, Dates: dates}
	for i, d := range dates {
		switch {
		case d.Missing:
			report.Missing = append(report.Missing, i)
		case d.Year < rng.Min || d.Year > rng.Max:
			report.OutOfRange = append(report.OutOfRange, i)
		}
	}

	if opts.Verbose {
		logger(opts.Logger).Info("date check",
			"mode", mode,
			"min_year", rng.Min,
			"max_year", rng.Max,
			"missing", report.Missing,
			"out_of_range", report.OutOfRange,
		)
	}
	return report, nil
}
