// Package correct implements a command to apply manual corrections to an
// occurrence table.
package correct

import (
	"fmt"
	"strings"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/corrections"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

var Command = &command.Command{
	Usage: `correct --file <corrections> [--id <col>]
	[-i|--input <file>] [-o|--output <file>]`,
	Short: "apply manual corrections",
	Long: `
Command correct reads a corrections file with the columns id, column, and
value, and sets each named cell of the row whose --id column (gbifID by
default) matches. An empty value clears the cell. Files ending in .tsv or
.txt are read as tab separated; any other file as CSV.

Every corrected row is marked true in the manually_updated column. Ids
without a matching row are listed on the standard error.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var idColumn string
var file string

func setFlags(c *command.Command) {
	files.Register(c)
	c.Flags().StringVar(&idColumn, "id", "gbifID", "")
	c.Flags().StringVar(&file, "file", "", "")
}

func run(c *command.Command, args []string) error {
	if file == "" {
		return c.UsageError("expecting --file corrections")
	}
	fixes, err := corrections.ReadFile(file)
	if err != nil {
		return err
	}

	t, err := files.Read(c)
	if err != nil {
		return err
	}
	out, report, err := domain.ApplyCorrections(t, idColumn, fixes)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "applied: %d cells in %d rows\n", report.Applied, report.Rows)
	if len(report.Unmatched) > 0 {
		fmt.Fprintf(c.Stderr(), "unmatched ids: %s\n", strings.Join(report.Unmatched, " "))
	}
	return files.Write(c, out)
}
