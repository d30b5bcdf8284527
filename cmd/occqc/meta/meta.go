// Package meta implements a command to write the metadata sidecar of a
// cleaned occurrence file.
package meta

import (
	"fmt"
	"strings"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/tsv"
	"github.com/couchcryptid/occurrence-etl/internal/metadata"
)

var Command = &command.Command{
	Usage: `meta --title <text> [--abstract <text>] [--source <text>]
	[--creator <name>] [--license <id>] [--step <name>]... <data-file>`,
	Short: "write a metadata sidecar",
	Long: `
Command meta writes a YAML description next to a data file, named after it
with the suffix .meta.yaml. The record count is read from the file; a run
id and a creation time are added.

Use --step once per processing step applied to the data, in order.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var desc metadata.Description
var steps stepList

// stepList collects repeated --step flags.
type stepList []string

func (s *stepList) String() string     { return strings.Join(*s, ",") }
func (s *stepList) Set(v string) error { *s = append(*s, v); return nil }

func setFlags(c *command.Command) {
	c.Flags().StringVar(&desc.Title, "title", "", "")
	c.Flags().StringVar(&desc.Abstract, "abstract", "", "")
	c.Flags().StringVar(&desc.Source, "source", "", "")
	c.Flags().StringVar(&desc.Creator, "creator", "", "")
	c.Flags().StringVar(&desc.License, "license", "", "")
	c.Flags().Var(&steps, "step", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting data file argument")
	}
	if desc.Title == "" {
		return c.UsageError("expecting --title")
	}
	data := args[0]

	t, err := tsv.ReadFile(data)
	if err != nil {
		return err
	}
	desc.Records = t.Len()
	for _, s := range steps {
		desc.AddStep(s, 0, nil)
	}

	d, err := metadata.NewWriter(nil).Write(data, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "%s\trun %s\n", metadata.SidecarPath(data), d.RunID)
	return nil
}
