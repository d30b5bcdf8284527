// Occqc runs occurrence quality checks over GBIF-style TSV tables.
package main

import (
	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/coords"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/correct"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/dates"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/dms"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/dups"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/fetch"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/meta"
	"github.com/couchcryptid/occurrence-etl/cmd/occqc/subset"
)

var app = &command.Command{
	Usage: "occqc <command> [<argument>...]",
	Short: "quality checks for species occurrence tables",
}

func init() {
	app.Add(coords.Command)
	app.Add(correct.Command)
	app.Add(dates.Command)
	app.Add(dms.Command)
	app.Add(dups.Command)
	app.Add(fetch.Command)
	app.Add(meta.Command)
	app.Add(subset.Command)
}

func main() {
	app.Main()
}
