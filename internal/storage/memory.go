package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"abcretail/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. It favors clarity over
// performance and is used for tests and single-process runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[Key]Record

	// applyMu serialises ApplyOnce so a dedup check and its writes cannot
	// interleave with another ApplyOnce.
	applyMu   sync.Mutex
	processed map[string]struct{}

	now func() time.Time
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[Key]Record),
		processed: make(map[string]struct{}),
		now:       time.Now,
	}
}

// WithClock overrides the clock used for UpdatedAt.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Get(_ context.Context, key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", key, sentinel.ErrNotFound)
	}
	return clone(rec), nil
}

func (s *InMemoryStore) GetMany(_ context.Context, partition string, rows []string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(rows))
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		if rec, ok := s.records[Key{Partition: partition, Row: row}]; ok {
			out = append(out, clone(rec))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, partition string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for k, rec := range s.records {
		if partition == "" || k.Partition == partition {
			out = append(out, clone(rec))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	if rec.Key.Row == "" {
		rec.Key.Row = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.Key]; exists {
		return Record{}, fmt.Errorf("record %s: %w", rec.Key, sentinel.ErrConflict)
	}
	return s.put(rec), nil
}

func (s *InMemoryStore) CompareAndSwap(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[rec.Key]
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", rec.Key, sentinel.ErrNotFound)
	}
	if rec.Version == "" || rec.Version != cur.Version {
		return Record{}, fmt.Errorf("record %s version %q: %w", rec.Key, rec.Version, sentinel.ErrConflict)
	}
	return s.put(rec), nil
}

func (s *InMemoryStore) Replace(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Key]; !ok {
		return Record{}, fmt.Errorf("record %s: %w", rec.Key, sentinel.ErrNotFound)
	}
	return s.put(rec), nil
}

func (s *InMemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// ApplyOnce records dedupKey only when fn succeeds, so a failed attempt can be
// retried under the same key.
func (s *InMemoryStore) ApplyOnce(ctx context.Context, dedupKey string, fn func(ctx context.Context) error) (bool, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if _, done := s.processed[dedupKey]; done {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	s.processed[dedupKey] = struct{}{}
	return true, nil
}

// put stores rec with a fresh version. Caller holds mu.
func (s *InMemoryStore) put(rec Record) Record {
	rec.Version = uuid.NewString()
	rec.UpdatedAt = s.now().UTC()
	rec = clone(rec)
	s.records[rec.Key] = rec
	return clone(rec)
}

func clone(rec Record) Record {
	if rec.Data != nil {
		data := make([]byte, len(rec.Data))
		copy(data, rec.Data)
		rec.Data = data
	}
	return rec
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Key.Partition != recs[j].Key.Partition {
			return recs[i].Key.Partition < recs[j].Key.Partition
		}
		return recs[i].Key.Row < recs[j].Key.Row
	})
}
