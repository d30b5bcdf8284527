package tableio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/js-arias/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

func TestFlags_ReadWriteFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.tsv")
	out := filepath.Join(dir, "out.tsv")
	require.NoError(t, os.WriteFile(in, []byte("species\tyear\nHuso huso\t2001\nZingel zingel\t\n"), 0o600))

	f := &Flags{Input: in, Output: out}
	c := &command.Command{}
	tbl, err := f.Read(c)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	require.NoError(t, f.Write(c, tbl))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "species\tyear\nHuso huso\t2001\nZingel zingel\t\n", string(got))
}

func TestDateFlags_Columns(t *testing.T) {
	d := DateFlags{Year: "year", Month: "month", Day: "day"}
	mode, err := d.Columns().Mode()
	require.NoError(t, err)
	assert.Equal(t, domain.DayMonthYear, mode)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, 0)
	logger.Info("coordinates checked", "invalid", 2)
	assert.True(t, strings.Contains(buf.String(), "invalid=2"))
}
