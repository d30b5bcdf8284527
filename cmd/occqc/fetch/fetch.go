// Package fetch implements a command to download occurrences from GBIF.
package fetch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/js-arias/command"

	"github.com/couchcryptid/occurrence-etl/cmd/occqc/tableio"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/gbif"
)

var Command = &command.Command{
	Usage: `fetch [--taxon <key>] [--country <code>] [--year <year[,year]>]
	[--limit <n>] [--all] [--timeout <duration>] [-o|--output <file>]`,
	Short: "download occurrences from GBIF",
	Long: `
Command fetch queries the GBIF occurrence search API and writes the records
as a TSV table with Darwin Core columns.

A taxon key (for example 2402262 for Huso huso) or an ISO 3166-1 alpha-2
country code is required. --year takes a single year or a range such as
1990,2024. By default only georeferenced records are requested; use --all
to include records without coordinates.

At most --limit records are written, 300 by default. Failed requests are
not retried.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var files tableio.Flags
var query gbif.Query
var allFlag bool
var timeout time.Duration
var baseURL string

func setFlags(c *command.Command) {
	files.Register(c)
	c.Flags().IntVar(&query.TaxonKey, "taxon", 0, "")
	c.Flags().StringVar(&query.Country, "country", "", "")
	c.Flags().StringVar(&query.Year, "year", "", "")
	c.Flags().IntVar(&query.Limit, "limit", 300, "")
	c.Flags().BoolVar(&allFlag, "all", false, "")
	c.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "")
	c.Flags().StringVar(&baseURL, "api", gbif.DefaultBaseURL, "")
}

func run(c *command.Command, args []string) error {
	if query.TaxonKey == 0 && query.Country == "" {
		return c.UsageError("expecting --taxon or --country")
	}
	query.HasCoordinate = !allFlag

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := gbif.NewClient(gbif.Config{
		BaseURL:   baseURL,
		Timeout:   timeout,
		UserAgent: "occqc",
	}, files.Logger(c))
	t, err := client.Search(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "records: %d\n", t.Len())
	return files.Write(c, t)
}
