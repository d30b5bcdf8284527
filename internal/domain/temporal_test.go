package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, year int) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })
}

func TestDateColumns_Mode(t *testing.T) {
	cases := []struct {
		name    string
		cols    DateColumns
		want    DateMode
		wantErr bool
	}{
		{name: "year", cols: DateColumns{Year: "year"}, want: YearOnly},
		{name: "triple", cols: DateColumns{Year: "year", Month: "month", Day: "day"}, want: DayMonthYear},
		{name: "date", cols: DateColumns{Date: "eventDate"}, want: DateString},
		{name: "none", cols: DateColumns{}, wantErr: true},
		{name: "year and date", cols: DateColumns{Year: "year", Date: "eventDate"}, wantErr: true},
		{name: "missing day", cols: DateColumns{Year: "year", Month: "month"}, wantErr: true},
		{name: "month only", cols: DateColumns{Month: "month"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cols.Mode()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckDates_YearOnly(t *testing.T) {
	in := mustTable(t, []string{"year"},
		[]any{2001},
		[]any{2050},
		[]any{"NA"},
		[]any{"1899"},
		[]any{"2021.0"},
		[]any{nil},
	)

	report, err := CheckDates(in, TemporalOptions{
		Columns: DateColumns{Year: "year"},
		Range:   YearRange{Min: 1900, Max: 2024},
	})
	require.NoError(t, err)

	assert.Equal(t, YearOnly, report.Mode)
	assert.Equal(t, []int{2, 5}, report.Missing)
	assert.Equal(t, []int{1, 3}, report.OutOfRange)
	assert.Equal(t, []int{1, 2, 3, 5}, report.Invalid())
	assert.Equal(t, 2021, report.Dates[4].Year)
	assert.NotContains(t, report.Missing, 1, "an out-of-range year is not missing")
}

func TestCheckDates_BoundsInclusive(t *testing.T) {
	in := mustTable(t, []string{"year"}, []any{1900}, []any{2024})

	report, err := CheckDates(in, TemporalOptions{
		Columns: DateColumns{Year: "year"},
		Range:   YearRange{Min: 1900, Max: 2024},
	})
	require.NoError(t, err)
	assert.Empty(t, report.OutOfRange)
}

func TestCheckDates_DefaultRangeUsesClock(t *testing.T) {
	freezeClock(t, 2024)
	in := mustTable(t, []string{"year"}, []any{1900}, []any{2024}, []any{2025}, []any{1850})

	report, err := CheckDates(in, TemporalOptions{Columns: DateColumns{Year: "year"}})
	require.NoError(t, err)
	assert.Equal(t, YearRange{Min: DefaultMinYear, Max: 2024}, report.Range)
	assert.Equal(t, []int{2, 3}, report.OutOfRange)
}

func TestCheckDates_InvertedRange(t *testing.T) {
	in := mustTable(t, []string{"year"}, []any{2000})
	_, err := CheckDates(in, TemporalOptions{
		Columns: DateColumns{Year: "year"},
		Range:   YearRange{Min: 2020, Max: 2000},
	})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCheckDates_DayMonthYear(t *testing.T) {
	in := mustTable(t, []string{"day", "month", "year"},
		[]any{29, 2, 2020},
		[]any{1, 1, 1800},
		[]any{nil, 5, 2010},
	)

	report, err := CheckDates(in, TemporalOptions{
		Columns: DateColumns{Year: "year", Month: "month", Day: "day"},
		Range:   YearRange{Min: 1900, Max: 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, DayMonthYear, report.Mode)
	assert.Equal(t, []int{2}, report.Missing)
	assert.Equal(t, []int{1}, report.OutOfRange)
	assert.Equal(t, "2020-02-29", report.Dates[0].Key())
}

func TestCheckDates_DateString(t *testing.T) {
	in := mustTable(t, []string{"eventDate"},
		[]any{"05/06/2011"},
		[]any{"5/6/2011"},
		[]any{""},
	)

	report, err := CheckDates(in, TemporalOptions{
		Columns: DateColumns{Date: "eventDate"},
		Range:   YearRange{Min: 1900, Max: 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, report.Missing)
	assert.Equal(t, ResolvedDate{Year: 2011, Month: 6, Day: 5}, report.Dates[0])
	assert.Equal(t, report.Dates[0], report.Dates[1])
}

func TestCheckDates_FailFast(t *testing.T) {
	cases := []struct {
		name   string
		cols   DateColumns
		header []string
		rows   [][]any
		row    int
		column string
	}{
		{
			name:   "year text",
			cols:   DateColumns{Year: "year"},
			header: []string{"year"},
			rows:   [][]any{{2001}, {"two thousand"}, {"also bad"}},
			row:    1,
			column: "year",
		},
		{
			name:   "fractional year",
			cols:   DateColumns{Year: "year"},
			header: []string{"year"},
			rows:   [][]any{{2001.5}},
			row:    0,
			column: "year",
		},
		{
			name:   "impossible day",
			cols:   DateColumns{Year: "y", Month: "m", Day: "d"},
			header: []string{"d", "m", "y"},
			rows:   [][]any{{1, 1, 2000}, {31, 4, 2000}},
			row:    1,
			column: "y/m/d",
		},
		{
			name:   "bad date string",
			cols:   DateColumns{Date: "eventDate"},
			header: []string{"eventDate"},
			rows:   [][]any{{"2011-06-05"}},
			row:    0,
			column: "eventDate",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := mustTable(t, tc.header, tc.rows...)
			report, err := CheckDates(in, TemporalOptions{Columns: tc.cols})
			require.ErrorIs(t, err, ErrParse)
			assert.Nil(t, report)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.row, pe.Row)
			assert.Equal(t, tc.column, pe.Column)
		})
	}
}

func TestCheckDates_AbsentColumn(t *testing.T) {
	in := mustTable(t, []string{"year"})
	_, err := CheckDates(in, TemporalOptions{Columns: DateColumns{Date: "eventDate"}})
	require.ErrorIs(t, err, ErrConfiguration)
}
