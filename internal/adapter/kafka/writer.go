package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/occurrence-etl/internal/config"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces cleaned records to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Records
// are hashed by key so every version of one occurrence lands on the same
// partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the records in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.OutputRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msgs[i] = toMessage(records[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func toMessage(rec domain.OutputRecord) kafkago.Message {
	keys := make([]string, 0, len(rec.Headers))
	for k := range rec.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(rec.Headers[k])})
	}
	return kafkago.Message{Key: rec.Key, Value: rec.Value, Headers: headers}
}
