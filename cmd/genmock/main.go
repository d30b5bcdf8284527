// Command genmock turns an occurrence TSV table, such as one written by
// "occqc fetch", into raw-topic fixtures: a JSON array for the test suites
// and, optionally, messages published to a local broker.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -tsv data/mock/danube_sturgeons.tsv \
//	  -out data/mock/danube_sturgeons.json \
//	  -brokers localhost:9092 -topic raw-occurrences
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/tsv"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("tsv", "", "occurrence table to convert")
	out := flag.String("out", "", "output path for the JSON fixture")
	brokers := flag.String("brokers", "", "comma-separated brokers to publish to (optional)")
	topic := flag.String("topic", "raw-occurrences", "topic to publish to")
	keyCol := flag.String("key", "gbifID", "column used as the message key")
	flag.Parse()

	if *in == "" || (*out == "" && *brokers == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -tsv and one of -out, -brokers")
	}

	t, err := tsv.ReadFile(*in)
	if err != nil {
		return err
	}
	records := fixtureRecords(t)

	if *out != "" {
		if err := writeFixture(*out, records); err != nil {
			return err
		}
		fmt.Printf("wrote %d records to %s\n", len(records), *out)
	}
	if *brokers != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := publish(ctx, strings.Split(*brokers, ","), *topic, *keyCol, records); err != nil {
			return err
		}
		fmt.Printf("published %d records to %s\n", len(records), *topic)
	}
	return nil
}

// fixtureRecords converts each row to a flat record. Missing cells are left
// out so the fixture looks like a sparse source message.
func fixtureRecords(t *domain.Table) []domain.Record {
	records := t.Records()
	for _, rec := range records {
		for k, v := range rec {
			if domain.IsMissing(v) {
				delete(rec, k)
			}
		}
	}
	return records
}

func writeFixture(path string, records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

func publish(ctx context.Context, brokers []string, topic, keyCol string, records []domain.Record) error {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer w.Close()

	msgs, err := toMessages(records, keyCol)
	if err != nil {
		return err
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func toMessages(records []domain.Record, keyCol string) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		key := domain.CellString(rec[keyCol])
		if key == "" {
			key = fmt.Sprintf("row-%d", i)
		}
		msgs = append(msgs, kafkago.Message{Key: []byte(key), Value: value})
	}
	return msgs, nil
}
