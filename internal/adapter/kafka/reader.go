package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/occurrence-etl/internal/config"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageSource is the subset of *kafkago.Reader used by Reader.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Reader consumes raw occurrence messages from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        messageSource
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly, after the sink accepted the batch.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, flushInterval: cfg.BatchFlushInterval, logger: logger}
}

// ExtractBatch blocks until one message is available, then keeps reading
// until batchSize messages are collected or the flush interval elapses. A
// fetch error after the first message ends the batch early instead of
// discarding it.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	batch := make([]domain.RawRecord, 0, batchSize)
	batch = append(batch, r.mapMessage(first))

	fillCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()
	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(fillCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			// The reader has already moved past the fetched messages, so
			// they are handed on and the error resurfaces on the next call.
			r.logger.Warn("fetch failed mid-batch, flushing partial batch", "error", err, "batch_size", len(batch))
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawRecord {
	raw := mapMessageToRawRecord(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func mapMessageToRawRecord(msg kafkago.Message) domain.RawRecord {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawRecord{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
