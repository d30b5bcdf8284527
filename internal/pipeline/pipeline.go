package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw records from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// BatchCleaner turns a batch of raw records into cleaned output records.
type BatchCleaner interface {
	Clean(ctx context.Context, raws []domain.RawRecord) (*Batch, error)
}

// BatchLoader writes cleaned records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.OutputRecord) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Stats is a snapshot of the work done since the pipeline started.
type Stats struct {
	Batches     int64            `json:"batches"`
	Consumed    int64            `json:"consumed"`
	Produced    int64            `json:"produced"`
	Rejected    map[string]int64 `json:"rejected"`
	Duplicates  int64            `json:"duplicates"`
	LastBatchAt time.Time        `json:"last_batch_at,omitzero"`
}

// Pipeline orchestrates the extract-clean-load loop.
type Pipeline struct {
	extractor BatchExtractor
	cleaner   BatchCleaner
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int

	mu    sync.Mutex
	stats Stats
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, c BatchCleaner, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		cleaner:   c,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		stats:     Stats{Rejected: make(map[string]int64)},
	}
}

// CheckReadiness returns nil once a batch has been loaded, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any batch yet")
	}
	return nil
}

// Stats returns a copy of the running totals.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Rejected = maps.Clone(p.stats.Rejected)
	return s
}

// Run executes the batch loop until the context is cancelled. It returns an
// error only when a batch fails for a reason retrying cannot fix, such as a
// misconfigured column.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		more, err := p.processBatch(ctx, &backoff)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// processBatch runs one extract-clean-load cycle. It returns false when the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) (bool, error) {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		if len(raws) == 0 {
			p.logger.Error("extract batch failed", "error", err)
			return p.backoffOrStop(ctx, backoff), nil
		}
		// Records fetched before the error are already past the reader's
		// position; they must be loaded and committed, not dropped.
		p.logger.Warn("extract batch failed partway, processing fetched records", "error", err, "batch_size", len(raws))
	}
	if len(raws) == 0 {
		return ctx.Err() == nil, nil
	}

	p.metrics.RecordsConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))
	*backoff = initialBackoff

	batch, err := p.cleaner.Clean(ctx, raws)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		if !errors.Is(err, domain.ErrParse) {
			p.logger.Error("clean batch failed", "error", err, "batch_size", len(raws))
			return false, err
		}
		p.skipBatch(ctx, raws, err)
		return true, nil
	}

	if !p.load(ctx, batch.Records, backoff) {
		return false, nil
	}
	p.commitAll(ctx, raws)
	p.record(len(raws), batch)

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true, nil
}

// skipBatch drops a batch whose values a stage could not parse and commits
// it so that it cannot block the partition.
func (p *Pipeline) skipBatch(ctx context.Context, raws []domain.RawRecord, err error) {
	stage := "unknown"
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	first, last := raws[0], raws[len(raws)-1]
	p.logger.Warn("skipping batch",
		"stage", stage,
		"error", err,
		"records", len(raws),
		"topic", first.Topic,
		"first_offset", first.Offset,
		"last_offset", last.Offset,
	)
	p.commitAll(ctx, raws)
	p.record(len(raws), &Batch{Rejected: map[string]int{stage: len(raws)}})
}

// load retries until the sink accepts the records or the context ends.
func (p *Pipeline) load(ctx context.Context, records []domain.OutputRecord, backoff *time.Duration) bool {
	if len(records) == 0 {
		return true
	}
	for {
		err := p.loader.LoadBatch(ctx, records)
		if err == nil {
			p.metrics.RecordsProduced.Add(float64(len(records)))
			*backoff = initialBackoff
			return true
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(records))
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

func (p *Pipeline) record(consumed int, batch *Batch) {
	for stage, n := range batch.Rejected {
		if n > 0 && stage != "" {
			p.metrics.RecordsRejected.WithLabelValues(stage).Add(float64(n))
		}
	}
	p.metrics.DuplicatesFlagged.Add(float64(batch.Duplicates))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Batches++
	p.stats.Consumed += int64(consumed)
	p.stats.Produced += int64(len(batch.Records))
	p.stats.Duplicates += int64(batch.Duplicates)
	for stage, n := range batch.Rejected {
		p.stats.Rejected[stage] += int64(n)
	}
	p.stats.LastBatchAt = time.Now()
}

// backoffOrStop sleeps with the current backoff and advances it. It
// returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitAll(ctx context.Context, raws []domain.RawRecord) {
	for _, raw := range raws {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}
