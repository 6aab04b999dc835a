// Package storage is the keyed entity store. Records are addressed by
// (partition, row) and carry an opaque version token; writes that must not
// clobber concurrent changes go through CompareAndSwap. Replace is the only
// path that skips the version check.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Key identifies one record.
type Key struct {
	Partition string
	Row       string
}

func (k Key) String() string { return k.Partition + "/" + k.Row }

// Record is the stored form of an entity.
type Record struct {
	Key       Key
	Version   string
	Data      json.RawMessage
	UpdatedAt time.Time
}

// Store is implemented by the memory and Postgres backends. Errors are
// sentinel.ErrNotFound and sentinel.ErrConflict (possibly wrapped) for the
// documented cases; anything else is a transient backend failure.
type Store interface {
	Get(ctx context.Context, key Key) (Record, error)
	// GetMany returns the existing records among rows, ordered by row key.
	GetMany(ctx context.Context, partition string, rows []string) ([]Record, error)
	// List returns records of partition ordered by (partition, row). An empty
	// partition lists everything.
	List(ctx context.Context, partition string) ([]Record, error)
	// Create assigns a row key when blank and a fresh version; an existing key
	// is a conflict.
	Create(ctx context.Context, rec Record) (Record, error)
	// CompareAndSwap replaces the record only if rec.Version matches the
	// stored version. An empty version is always a conflict.
	CompareAndSwap(ctx context.Context, rec Record) (Record, error)
	// Replace overwrites the record regardless of version.
	Replace(ctx context.Context, rec Record) (Record, error)
	// Delete removes the record. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key Key) error
	// ApplyOnce runs fn unless dedupKey was already recorded, and records it
	// atomically with fn's writes. applied is false for a duplicate.
	ApplyOnce(ctx context.Context, dedupKey string, fn func(ctx context.Context) error) (applied bool, err error)
}
