package dups

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/js-arias/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

const occurrences = "unit\tspecies\tdecimalLatitude\tdecimalLongitude\tyear\teventDate\n" +
	"A\tHuso huso\t45.1\t28.2\t2001\t2001-05-01\n" +
	"A\tHuso huso\t45.1\t28.2\t2001\t2001-05-01\n"

func setup(t *testing.T) *command.Command {
	t.Helper()
	in := filepath.Join(t.TempDir(), "in.tsv")
	require.NoError(t, os.WriteFile(in, []byte(occurrences), 0o600))

	files = tableio.Flags{Input: in}
	cols = tableio.DateFlags{}
	opts = domain.DuplicateOptions{
		Latitude:    "decimalLatitude",
		Longitude:   "decimalLongitude",
		Species:     "species",
		SpatialUnit: "unit",
	}
	flagMode = false
	digits = domain.DefaultDigits

	c := &command.Command{}
	c.SetStdout(&bytes.Buffer{})
	c.SetStderr(&bytes.Buffer{})
	return c
}

func TestRun_DateColumnWithYearIsRejected(t *testing.T) {
	c := setup(t)
	opts.DateColumn = "eventDate"
	cols.Year = "year"

	err := run(c, nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRun_DateColumn(t *testing.T) {
	c := setup(t)
	opts.DateColumn = "eventDate"

	require.NoError(t, run(c, nil))
	assert.Contains(t, c.Stderr().(*bytes.Buffer).String(), "removed: 1")
}
