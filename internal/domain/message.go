package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawRecord represents an unprocessed message from the source topic. The
// value is a flat JSON object, one occurrence per message.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputRecord is the serialized form destined for the sink.
type OutputRecord struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawRecord decodes a message value into a Record. Numbers are kept as
// json.Number so that "101" and 101.0 survive unchanged until a stage
// coerces them.
func ParseRawRecord(raw RawRecord) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("unmarshal record (offset %d): %w", raw.Offset, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("unmarshal record (offset %d): not a JSON object", raw.Offset)
	}
	return rec, nil
}

// NewOutputRecord serializes a cleaned record for the sink.
func NewOutputRecord(rec Record, id string, processedAt time.Time) (OutputRecord, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return OutputRecord{}, fmt.Errorf("marshal record %s: %w", id, err)
	}
	return OutputRecord{
		Key:   []byte(id),
		Value: value,
		Headers: map[string]string{
			"record_id":    id,
			"processed_at": processedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
