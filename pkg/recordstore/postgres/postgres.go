// Package postgres stores records as JSONB documents in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

// Schema creates the documents table.
const Schema = `CREATE TABLE IF NOT EXISTS records (
    id BIGSERIAL PRIMARY KEY,
    collection TEXT NOT NULL,
    data JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS records_collection_idx ON records (collection);`

// Pool abstracts pgxpool.Pool so tests can use pgxmock.
type Pool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements recordstore.Store on PostgreSQL.
type Store struct {
	pool Pool
	log  *zap.Logger
}

// New verifies the connection and returns a store.
func New(ctx context.Context, pool Pool, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("recordstore.postgres")}, nil
}

// Connect opens a pgx pool for dsn and wraps it. The caller closes the pool.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}
	store, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// EnsureSchema creates the records table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Put inserts a record into a collection.
func (s *Store) Put(ctx context.Context, collection string, record recordstore.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "INSERT INTO records (collection, data) VALUES ($1, $2)", collection, data); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// QueryRecords returns the records of a collection in insertion order.
func (s *Store) QueryRecords(ctx context.Context, collection string, filter recordstore.Filter) ([]recordstore.Record, error) {
	sql, args := buildQuery(collection, filter)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []recordstore.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record recordstore.Record
		if err := json.Unmarshal(data, &record); err != nil {
			s.log.Warn("Skipping malformed record", zap.String("collection", collection), zap.Error(err))
			continue
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

func buildQuery(collection string, filter recordstore.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT data FROM records WHERE collection = $1")
	args := []any{collection}
	for _, key := range filter.Keys() {
		args = append(args, key, filter[key])
		fmt.Fprintf(&sb, " AND data->>$%d::text = $%d", len(args)-1, len(args))
	}
	sb.WriteString(" ORDER BY id")
	return sb.String(), args
}
