// Package sqlite stores records as JSON text in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

//go:embed schema.sql
var schema string

// Store implements recordstore.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts a record and returns its generated ID.
func (s *Store) Put(ctx context.Context, collection string, record recordstore.Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO records (id, collection, data) VALUES (?, ?, ?)",
		id, collection, string(data),
	); err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// QueryRecords returns matching records in insertion order.
func (s *Store) QueryRecords(ctx context.Context, collection string, filter recordstore.Filter) ([]recordstore.Record, error) {
	var sb strings.Builder
	sb.WriteString("SELECT data FROM records WHERE collection = ?")
	args := []any{collection}
	for _, key := range filter.Keys() {
		sb.WriteString(" AND CAST(json_extract(data, '$.' || ?) AS TEXT) = ?")
		args = append(args, key, filter[key])
	}
	sb.WriteString(" ORDER BY seq")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []recordstore.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var record recordstore.Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
