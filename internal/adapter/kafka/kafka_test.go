package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawRecord(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("4011234567"),
		Value:     []byte(`{"gbifID":4011234567}`),
		Topic:     "raw-occurrences",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "dataset", Value: []byte("danube-fish")},
		},
	}

	raw := mapMessageToRawRecord(msg)

	assert.Equal(t, []byte("4011234567"), raw.Key)
	assert.JSONEq(t, `{"gbifID":4011234567}`, string(raw.Value))
	assert.Equal(t, "raw-occurrences", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "danube-fish", raw.Headers["dataset"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	processed := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	out, err := domain.NewOutputRecord(domain.Record{"species": "Zingel streber"}, "occ-00aa11bb22cc33dd", processed)
	require.NoError(t, err)

	msg := toMessage(out)

	assert.Equal(t, []byte("occ-00aa11bb22cc33dd"), msg.Key)
	assert.JSONEq(t, `{"species":"Zingel streber"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "processed_at", msg.Headers[0].Key)
	assert.Equal(t, []byte("2024-05-01T08:30:00Z"), msg.Headers[0].Value)
	assert.Equal(t, "record_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("occ-00aa11bb22cc33dd"), msg.Headers[1].Value)
}

type fakeSource struct {
	msgs    []kafkago.Message
	err     error // returned once msgs are exhausted
	fetched int
}

func (f *fakeSource) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if f.fetched < len(f.msgs) {
		f.fetched++
		return f.msgs[f.fetched-1], nil
	}
	if f.err != nil {
		return kafkago.Message{}, f.err
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (f *fakeSource) CommitMessages(context.Context, ...kafkago.Message) error { return nil }
func (f *fakeSource) Close() error                                           { return nil }

func testReader(src *fakeSource) *Reader {
	return &Reader{reader: src, flushInterval: 50 * time.Millisecond, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestExtractBatch_FlushesOnInterval(t *testing.T) {
	src := &fakeSource{msgs: []kafkago.Message{{Offset: 1}, {Offset: 2}}}
	batch, err := testReader(src).ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.NotNil(t, batch[0].Commit)
}

func TestExtractBatch_KeepsMessagesFetchedBeforeError(t *testing.T) {
	src := &fakeSource{
		msgs: []kafkago.Message{{Offset: 7}, {Offset: 8}},
		err:  errors.New("connection reset by peer"),
	}
	r := testReader(src)

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(7), batch[0].Offset)
	assert.Equal(t, int64(8), batch[1].Offset)

	_, err = r.ExtractBatch(context.Background(), 10)
	require.Error(t, err, "the error surfaces once nothing was fetched")
}

func TestExtractBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch, err := testReader(&fakeSource{}).ExtractBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
