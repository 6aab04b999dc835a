package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"abcretail/pkg/platform/sentinel"
	txcontext "abcretail/pkg/platform/tx"
)

// Schema is the DDL EnsureSchema applies. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	partition_key TEXT        NOT NULL,
	row_key       TEXT        NOT NULL,
	version       TEXT        NOT NULL,
	data          JSONB       NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (partition_key, row_key)
);
CREATE TABLE IF NOT EXISTS processed_commands (
	dedup_key    TEXT        PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore persists records in the entities table. Statements run on the
// transaction carried by ctx when there is one, which is how ApplyOnce makes
// the dedup marker and the entity write commit together.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore wraps db. Call EnsureSchema once at startup.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure entity schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Querier {
	return txcontext.Executor(ctx, s.db)
}

const selectColumns = `partition_key, row_key, version, data, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	var data []byte
	if err := row.Scan(&rec.Key.Partition, &rec.Key.Row, &rec.Version, &data, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Record, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM entities WHERE partition_key = $1 AND row_key = $2`,
		key.Partition, key.Row)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("record %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", key, err)
	}
	return rec, nil
}

func (s *PostgresStore) GetMany(ctx context.Context, partition string, rows []string) ([]Record, error) {
	if len(rows) == 0 {
		return []Record{}, nil
	}
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM entities WHERE partition_key = $1 AND row_key = ANY($2) ORDER BY row_key`,
		partition, pq.Array(rows))
}

func (s *PostgresStore) List(ctx context.Context, partition string) ([]Record, error) {
	if partition == "" {
		return s.query(ctx, `SELECT `+selectColumns+` FROM entities ORDER BY partition_key, row_key`)
	}
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM entities WHERE partition_key = $1 ORDER BY row_key`, partition)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.Key.Row == "" {
		rec.Key.Row = uuid.NewString()
	}
	rec.Version = uuid.NewString()
	rec.UpdatedAt = s.now().UTC()
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO entities (partition_key, row_key, version, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partition_key, row_key) DO NOTHING`,
		rec.Key.Partition, rec.Key.Row, rec.Version, []byte(rec.Data), rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert record %s: %w", rec.Key, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Record{}, fmt.Errorf("insert record %s: %w", rec.Key, err)
	} else if n == 0 {
		return Record{}, fmt.Errorf("record %s: %w", rec.Key, sentinel.ErrConflict)
	}
	return rec, nil
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, rec Record) (Record, error) {
	if rec.Version == "" {
		return Record{}, s.missingOr(ctx, rec.Key, sentinel.ErrConflict)
	}
	expected := rec.Version
	rec.Version = uuid.NewString()
	rec.UpdatedAt = s.now().UTC()
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE entities SET version = $3, data = $4, updated_at = $5
		WHERE partition_key = $1 AND row_key = $2 AND version = $6`,
		rec.Key.Partition, rec.Key.Row, rec.Version, []byte(rec.Data), rec.UpdatedAt, expected)
	if err != nil {
		return Record{}, fmt.Errorf("update record %s: %w", rec.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("update record %s: %w", rec.Key, err)
	}
	if n == 0 {
		return Record{}, s.missingOr(ctx, rec.Key, sentinel.ErrConflict)
	}
	return rec, nil
}

func (s *PostgresStore) Replace(ctx context.Context, rec Record) (Record, error) {
	rec.Version = uuid.NewString()
	rec.UpdatedAt = s.now().UTC()
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE entities SET version = $3, data = $4, updated_at = $5
		WHERE partition_key = $1 AND row_key = $2`,
		rec.Key.Partition, rec.Key.Row, rec.Version, []byte(rec.Data), rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("replace record %s: %w", rec.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("replace record %s: %w", rec.Key, err)
	}
	if n == 0 {
		return Record{}, fmt.Errorf("record %s: %w", rec.Key, sentinel.ErrNotFound)
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM entities WHERE partition_key = $1 AND row_key = $2`, key.Partition, key.Row); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

// ApplyOnce inserts the dedup marker first inside a transaction. A concurrent
// duplicate blocks on the primary key until the first commits, then sees the
// conflict and skips fn.
func (s *PostgresStore) ApplyOnce(ctx context.Context, dedupKey string, fn func(ctx context.Context) error) (bool, error) {
	applied := false
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx,
			`INSERT INTO processed_commands (dedup_key) VALUES ($1) ON CONFLICT (dedup_key) DO NOTHING`, dedupKey)
		if err != nil {
			return fmt.Errorf("insert dedup key: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert dedup key: %w", err)
		}
		if n == 0 {
			return nil
		}
		if err := fn(ctx); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// missingOr returns ErrNotFound when key is absent, otherwise fallback.
func (s *PostgresStore) missingOr(ctx context.Context, key Key, fallback error) error {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE partition_key = $1 AND row_key = $2)`,
		key.Partition, key.Row).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check record %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("record %s: %w", key, sentinel.ErrNotFound)
	}
	return fmt.Errorf("record %s: %w", key, fallback)
}
