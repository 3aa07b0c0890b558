package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/analytics-portal/internal/event"
)

// schemaSQL is embedded so each service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// Store is the shared document collection for analytics events. It is
// constructed once at process startup and reused for the process lifetime.
type Store struct {
	pool *pgxpool.Pool
}

// StoredEvent is one persisted record together with its store-assigned row
// identity. The identifier belongs to the store, not to the record.
type StoredEvent struct {
	ID              int64
	ServerTimestamp time.Time
	Record          event.Record
}

// New creates a connection pool and fails fast if the database is unreachable.
func New(dbURL string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *Store) EnsureSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by readiness endpoints to validate DB connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InsertBatch appends the whole batch in one bulk write and returns the
// number of records the store reports as persisted. Records must already
// carry their server timestamp; receivedAt is the same batch-wide value and
// is stored alongside the payload for indexed access.
//
// No retry, no dedup: duplicate submissions produce duplicate rows.
func (s *Store) InsertBatch(ctx context.Context, records []event.Record, receivedAt time.Time) (int64, error) {
	rows := make([][]any, 0, len(records))
	for i := range records {
		payload, err := records[i].MarshalJSON()
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{receivedAt.UTC(), string(payload)})
	}

	return s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"events"},
		[]string{"server_timestamp", "payload"},
		pgx.CopyFromRows(rows),
	)
}

// LoadAll performs a full-collection scan in insertion order. No pagination,
// no filtering: the reporting surface computes over the whole set.
func (s *Store) LoadAll(ctx context.Context) ([]StoredEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, server_timestamp, payload
		FROM events
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			id      int64
			ts      time.Time
			payload []byte
		)
		if err := rows.Scan(&id, &ts, &payload); err != nil {
			return nil, err
		}
		rec, err := event.ParseObject(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, StoredEvent{ID: id, ServerTimestamp: ts, Record: rec})
	}
	return out, rows.Err()
}

// DeleteAll irreversibly removes every record and returns the count deleted.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
