package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/geo"
)

// Stage labels used in logs and the records_rejected_total metric.
const (
	StageDecode      = "decode"
	StageDMS         = "dms"
	StageCoordinates = "coordinates"
	StageDates       = "dates"
	StageSpatial     = "spatial"
	StageDuplicates  = "duplicates"
	StageGeocode     = "geocode"
)

// messageIDColumn carries each row's message id through the stages. It is
// stripped before serialization.
const messageIDColumn = "__message_id"

// StageError reports which stage failed a whole batch.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// CleanerConfig selects the stages a Cleaner runs. A nil pointer or zero
// value disables the optional stages.
type CleanerConfig struct {
	// DMS converts symbolic degree-minute-second cells before validation.
	DMS         *domain.NormalizeOptions
	Coordinates domain.CoordinateOptions
	Dates       *domain.TemporalOptions
	Boundary    *geo.Layer
	Subset      domain.SubsetOptions
	Duplicates  *domain.DuplicateOptions
	Places      *domain.PlaceOptions
	Geocoder    domain.Geocoder
	// Columns lists every column a stage binds to. Columns absent from a
	// batch are added as all-missing so that binding never fails on a
	// sparse batch.
	Columns []string
	Clock   clockwork.Clock
}

// Batch is the outcome of cleaning one extracted batch.
type Batch struct {
	Records    []domain.OutputRecord
	Rejected   map[string]int
	Duplicates int
}

// Cleaner runs the record-quality stages over a whole batch. Duplicate
// detection needs every row at once, so records are not cleaned one at a
// time.
type Cleaner struct {
	cfg    CleanerConfig
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewCleaner creates a Cleaner. A nil clock uses real time.
func NewCleaner(cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Cleaner{cfg: cfg, clock: clk, logger: logger}
}

// Clean decodes the raw records and runs normalization, coordinate and date
// validation, the spatial subset, duplicate removal, and place enrichment in
// that order. Rows that fail a check are dropped and counted by stage;
// messages that are not JSON objects count under StageDecode. A stage error
// fails the whole batch and is returned as a *StageError.
func (c *Cleaner) Clean(ctx context.Context, raws []domain.RawRecord) (*Batch, error) {
	batch := &Batch{Rejected: make(map[string]int)}

	recs := make([]domain.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := domain.ParseRawRecord(raw)
		if err != nil {
			c.logger.Warn("dropping undecodable message",
				"error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			batch.Rejected[StageDecode]++
			continue
		}
		rec[messageIDColumn] = messageID(raw.Value)
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return batch, nil
	}

	t := domain.TableFromRecords(recs)
	for _, name := range c.cfg.Columns {
		if name != "" && !t.Has(name) {
			if err := t.SetColumn(name, make([]any, t.Len())); err != nil {
				return nil, err
			}
		}
	}

	t, err := c.runStages(ctx, t, batch)
	if err != nil {
		return nil, err
	}

	ids, err := c.recordIDs(t)
	if err != nil {
		return nil, &StageError{Stage: StageDuplicates, Err: err}
	}
	now := c.clock.Now()
	for i, rec := range t.Records() {
		delete(rec, messageIDColumn)
		out, err := domain.NewOutputRecord(rec, ids[i], now)
		if err != nil {
			return nil, err
		}
		batch.Records = append(batch.Records, out)
	}
	return batch, nil
}

func (c *Cleaner) runStages(ctx context.Context, t *domain.Table, batch *Batch) (*domain.Table, error) {
	var err error
	if c.cfg.DMS != nil {
		if t, err = c.normalize(t); err != nil {
			return nil, &StageError{Stage: StageDMS, Err: err}
		}
	}

	t, coords, err := domain.CheckCoordinates(t, c.cfg.Coordinates)
	if err != nil {
		return nil, &StageError{Stage: StageCoordinates, Err: err}
	}
	t = c.drop(t, coords.Unusable(), StageCoordinates, batch)

	if c.cfg.Dates != nil {
		dates, err := domain.CheckDates(t, *c.cfg.Dates)
		if err != nil {
			return nil, &StageError{Stage: StageDates, Err: err}
		}
		t = c.drop(t, dates.Invalid(), StageDates, batch)
	}

	if c.cfg.Boundary != nil {
		before := t.Len()
		subset, _, err := domain.SpatialSubset(t, c.cfg.Boundary, c.cfg.Subset)
		if err != nil {
			return nil, &StageError{Stage: StageSpatial, Err: err}
		}
		if n := before - subset.Len(); n > 0 {
			batch.Rejected[StageSpatial] += n
		}
		t = subset
	}

	if c.cfg.Duplicates != nil {
		deduped, report, err := domain.DetectDuplicates(t, *c.cfg.Duplicates)
		if err != nil {
			return nil, &StageError{Stage: StageDuplicates, Err: err}
		}
		batch.Duplicates = report.Flagged
		if report.Removed > 0 {
			batch.Rejected[StageDuplicates] += report.Removed
		}
		t = deduped
	}

	if c.cfg.Geocoder != nil && c.cfg.Places != nil {
		if t, err = domain.EnrichWithPlaces(ctx, t, c.cfg.Geocoder, *c.cfg.Places, c.logger); err != nil {
			return nil, &StageError{Stage: StageGeocode, Err: err}
		}
	}
	return t, nil
}

// normalize converts the rows holding symbolic coordinates and leaves rows
// that are already decimal untouched.
func (c *Cleaner) normalize(t *domain.Table) (*domain.Table, error) {
	opts := *c.cfg.DMS
	lat, err := t.Resolve("latitude", opts.Latitude)
	if err != nil {
		return nil, err
	}
	lon, err := t.Resolve("longitude", opts.Longitude)
	if err != nil {
		return nil, err
	}

	// Only symbolic cells are rewritten; a decimal partner in the same row
	// keeps its value.
	var rows []int
	var symLat, symLon []bool
	for i := 0; i < t.Len(); i++ {
		sLat, sLon := isSymbolic(t.Value(i, lat)), isSymbolic(t.Value(i, lon))
		if !sLat && !sLon {
			continue
		}
		rows = append(rows, i)
		symLat = append(symLat, sLat)
		symLon = append(symLon, sLon)
	}
	if len(rows) == 0 {
		return t, nil
	}

	converted, report, err := domain.NormalizeDMS(t.Select(rows), opts)
	if err != nil {
		return nil, err
	}
	for _, f := range report.Failures {
		if (f.Column == lat.Name && symLat[f.Row]) || (f.Column == lon.Name && symLon[f.Row]) {
			c.logger.Warn("dms conversion failed", "column", f.Column, "value", f.Value, "reason", f.Reason)
		}
	}

	out := t.Clone()
	for j, i := range rows {
		if symLat[j] {
			out.SetValue(i, lat, converted.Value(j, lat))
		}
		if symLon[j] {
			out.SetValue(i, lon, converted.Value(j, lon))
		}
	}
	return out, nil
}

func isSymbolic(v any) bool {
	s, ok := v.(string)
	return ok && strings.ContainsAny(s, "°º")
}

func (c *Cleaner) drop(t *domain.Table, rows []int, stage string, batch *Batch) *domain.Table {
	if len(rows) == 0 {
		return t
	}
	batch.Rejected[stage] += len(rows)
	return t.Drop(rows)
}

// recordIDs derives the sink key of every row. Rows with a complete
// duplicate key share the id of their duplicate group, so a later batch
// replaying the same occurrence maps to the stored row. Other rows fall
// back to a hash of the source message.
func (c *Cleaner) recordIDs(t *domain.Table) ([]string, error) {
	col, err := t.Resolve("message id", messageIDColumn)
	if err != nil {
		return nil, err
	}
	ids := make([]string, t.Len())
	for i := range ids {
		ids[i], _ = t.Value(i, col).(string)
	}
	if c.cfg.Duplicates == nil || t.Len() == 0 {
		return ids, nil
	}

	keys, err := domain.DuplicateKeys(t, *c.cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		if k != nil {
			ids[i] = domain.RecordID(*k)
		}
	}
	return ids, nil
}

func messageID(value []byte) string {
	sum := sha256.Sum256(value)
	return "msg-" + hex.EncodeToString(sum[:8])
}
