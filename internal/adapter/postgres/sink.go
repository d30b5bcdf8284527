// Package postgres stores cleaned occurrence records in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/occurrence-etl/internal/domain"
)

// DefaultTable receives cleaned records unless another name is given.
const DefaultTable = "occurrences"

// rowsPerStatement keeps each INSERT well under the 65535 bind parameter limit.
const rowsPerStatement = 1000

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Sink writes output records as JSONB rows keyed by record id. Replayed
// records are ignored, so redelivery after a crash is harmless.
// It implements pipeline.BatchLoader.
type Sink struct {
	db     execer
	closer func() error
	table  string
	logger *slog.Logger
}

// Open connects to databaseURL and prepares the sink table.
func Open(ctx context.Context, databaseURL, table string, logger *slog.Logger) (*Sink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := newSink(db, table, logger)
	s.closer = db.Close
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newSink(db execer, table string, logger *slog.Logger) *Sink {
	if table == "" {
		table = DefaultTable
	}
	return &Sink{db: db, table: table, logger: logger}
}

// EnsureSchema creates the sink table when it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableSQL(s.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// LoadBatch inserts the records, skipping ids that are already stored.
func (s *Sink) LoadBatch(ctx context.Context, records []domain.OutputRecord) error {
	for start := 0; start < len(records); start += rowsPerStatement {
		end := min(start+rowsPerStatement, len(records))
		query, args, err := insertSQL(s.table, records[start:end])
		if err != nil {
			return err
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert occurrences: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && int(n) < end-start {
			s.logger.Debug("skipped stored occurrences", "skipped", end-start-int(n))
		}
	}
	return nil
}

// Close releases the database connection pool.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	record_id    TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
)`, pq.QuoteIdentifier(table))
}

func insertSQL(table string, records []domain.OutputRecord) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (record_id, processed_at, payload) VALUES ", pq.QuoteIdentifier(table))

	args := make([]any, 0, 3*len(records))
	for i, rec := range records {
		at, err := time.Parse(time.RFC3339, rec.Headers["processed_at"])
		if err != nil {
			return "", nil, fmt.Errorf("record %s: processed_at header: %w", rec.Key, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, string(rec.Key), at, string(rec.Value))
	}
	b.WriteString(" ON CONFLICT (record_id) DO NOTHING")
	return b.String(), args, nil
}
