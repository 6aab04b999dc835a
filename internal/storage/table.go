package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"abcretail/internal/domain"
)

// Entity is the constraint satisfied by pointers to domain entities.
type Entity[T any] interface {
	*T
	Base() *domain.Entity
}

// Table is a typed view of one partition. The entity's ETag is the record
// version; Update is a compare-and-swap on it.
type Table[T any, PT Entity[T]] struct {
	store     Store
	partition string
}

// NewTable binds store to partition for entity type T.
func NewTable[T any, PT Entity[T]](store Store, partition string) *Table[T, PT] {
	return &Table[T, PT]{store: store, partition: partition}
}

func (t *Table[T, PT]) Partition() string { return t.partition }

func (t *Table[T, PT]) key(rowKey string) Key {
	return Key{Partition: t.partition, Row: rowKey}
}

func (t *Table[T, PT]) Get(ctx context.Context, rowKey string) (*T, error) {
	rec, err := t.store.Get(ctx, t.key(rowKey))
	if err != nil {
		return nil, err
	}
	return t.decode(rec)
}

func (t *Table[T, PT]) GetMany(ctx context.Context, rowKeys []string) ([]*T, error) {
	recs, err := t.store.GetMany(ctx, t.partition, rowKeys)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(recs)
}

func (t *Table[T, PT]) List(ctx context.Context) ([]*T, error) {
	recs, err := t.store.List(ctx, t.partition)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(recs)
}

// Create inserts v; a blank RowKey is assigned by the store.
func (t *Table[T, PT]) Create(ctx context.Context, v *T) (*T, error) {
	rec, err := t.encode(v)
	if err != nil {
		return nil, err
	}
	out, err := t.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return t.decode(out)
}

// Update writes v only if v's ETag matches the stored version.
func (t *Table[T, PT]) Update(ctx context.Context, v *T) (*T, error) {
	rec, err := t.encode(v)
	if err != nil {
		return nil, err
	}
	out, err := t.store.CompareAndSwap(ctx, rec)
	if err != nil {
		return nil, err
	}
	return t.decode(out)
}

// Replace writes v without a version check.
func (t *Table[T, PT]) Replace(ctx context.Context, v *T) (*T, error) {
	rec, err := t.encode(v)
	if err != nil {
		return nil, err
	}
	out, err := t.store.Replace(ctx, rec)
	if err != nil {
		return nil, err
	}
	return t.decode(out)
}

func (t *Table[T, PT]) Delete(ctx context.Context, rowKey string) error {
	return t.store.Delete(ctx, t.key(rowKey))
}

func (t *Table[T, PT]) encode(v *T) (Record, error) {
	base := PT(v).Base()
	base.PartitionKey = t.partition
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s entity: %w", t.partition, err)
	}
	return Record{
		Key:     Key{Partition: t.partition, Row: base.RowKey},
		Version: base.ETag,
		Data:    data,
	}, nil
}

func (t *Table[T, PT]) decode(rec Record) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return nil, fmt.Errorf("decode %s entity %s: %w", t.partition, rec.Key.Row, err)
	}
	base := PT(v).Base()
	base.PartitionKey = rec.Key.Partition
	base.RowKey = rec.Key.Row
	base.ETag = rec.Version
	base.Timestamp = rec.UpdatedAt
	return v, nil
}

func (t *Table[T, PT]) decodeAll(recs []Record) ([]*T, error) {
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v, err := t.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
