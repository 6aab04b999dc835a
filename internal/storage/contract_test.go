package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"abcretail/internal/domain"
	"abcretail/internal/storage"
	"abcretail/pkg/platform/sentinel"
)

// StoreContractSuite exercises behaviour every storage.Store backend must share.
type StoreContractSuite struct {
	suite.Suite
	newStore func() storage.Store
	store    storage.Store
	ctx      context.Context
}

func (s *StoreContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *StoreContractSuite) record(row, body string) storage.Record {
	return storage.Record{
		Key:  storage.Key{Partition: domain.PartitionOrder, Row: row},
		Data: json.RawMessage(body),
	}
}

func (s *StoreContractSuite) TestCreateAssignsRowKeyAndVersion() {
	rec, err := s.store.Create(s.ctx, s.record("", `{"quantity":1}`))
	s.Require().NoError(err)
	s.NotEmpty(rec.Key.Row)
	s.NotEmpty(rec.Version)

	got, err := s.store.Get(s.ctx, rec.Key)
	s.Require().NoError(err)
	s.Equal(rec.Version, got.Version)
	s.JSONEq(`{"quantity":1}`, string(got.Data))
}

func (s *StoreContractSuite) TestCreateExistingKeyConflicts() {
	_, err := s.store.Create(s.ctx, s.record("r1", `{}`))
	s.Require().NoError(err)

	_, err = s.store.Create(s.ctx, s.record("r1", `{"x":1}`))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreContractSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, storage.Key{Partition: domain.PartitionOrder, Row: "nope"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestCompareAndSwap() {
	created, err := s.store.Create(s.ctx, s.record("r1", `{"quantity":1}`))
	s.Require().NoError(err)

	update := s.record("r1", `{"quantity":2}`)
	update.Version = created.Version
	updated, err := s.store.CompareAndSwap(s.ctx, update)
	s.Require().NoError(err)
	s.NotEqual(created.Version, updated.Version, "every write issues a new version")

	s.Run("stale version conflicts and does not mutate", func() {
		stale := s.record("r1", `{"quantity":99}`)
		stale.Version = created.Version
		_, err := s.store.CompareAndSwap(s.ctx, stale)
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.Get(s.ctx, update.Key)
		s.Require().NoError(err)
		s.JSONEq(`{"quantity":2}`, string(got.Data))
		s.Equal(updated.Version, got.Version)
	})

	s.Run("empty version is refused", func() {
		_, err := s.store.CompareAndSwap(s.ctx, s.record("r1", `{}`))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("absent key is not found", func() {
		missing := s.record("missing", `{}`)
		missing.Version = "v"
		_, err := s.store.CompareAndSwap(s.ctx, missing)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestReplaceBypassesVersion() {
	_, err := s.store.Create(s.ctx, s.record("r1", `{"quantity":1}`))
	s.Require().NoError(err)

	_, err = s.store.Replace(s.ctx, s.record("r1", `{"quantity":5}`))
	s.Require().NoError(err)
	got, err := s.store.Get(s.ctx, s.record("r1", "").Key)
	s.Require().NoError(err)
	s.JSONEq(`{"quantity":5}`, string(got.Data))

	_, err = s.store.Replace(s.ctx, s.record("missing", `{}`))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestDeleteIsIdempotent() {
	_, err := s.store.Create(s.ctx, s.record("r1", `{}`))
	s.Require().NoError(err)

	key := s.record("r1", "").Key
	s.Require().NoError(s.store.Delete(s.ctx, key))
	s.Require().NoError(s.store.Delete(s.ctx, key), "deleting an absent key is a no-op")

	_, err = s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestListAndGetManyOrderByRow() {
	for _, row := range []string{"c", "a", "b"} {
		_, err := s.store.Create(s.ctx, s.record(row, `{}`))
		s.Require().NoError(err)
	}
	_, err := s.store.Create(s.ctx, storage.Record{
		Key:  storage.Key{Partition: domain.PartitionCustomer, Row: "z"},
		Data: json.RawMessage(`{}`),
	})
	s.Require().NoError(err)

	orders, err := s.store.List(s.ctx, domain.PartitionOrder)
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c"}, rows(orders))

	all, err := s.store.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 4)
	s.Equal(domain.PartitionCustomer, all[0].Key.Partition)

	some, err := s.store.GetMany(s.ctx, domain.PartitionOrder, []string{"c", "missing", "a"})
	s.Require().NoError(err)
	s.Equal([]string{"a", "c"}, rows(some))
}

func (s *StoreContractSuite) TestApplyOnce() {
	key := storage.Key{Partition: domain.PartitionOrder, Row: "r1"}
	write := func(ctx context.Context) error {
		_, err := s.store.Create(ctx, storage.Record{Key: key, Data: json.RawMessage(`{}`)})
		return err
	}

	applied, err := s.store.ApplyOnce(s.ctx, "order-queue:m1", write)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.store.ApplyOnce(s.ctx, "order-queue:m1", write)
	s.Require().NoError(err)
	s.False(applied, "duplicate key skips fn")

	s.Run("failed fn does not record the key", func() {
		boom := errors.New("boom")
		_, err := s.store.ApplyOnce(s.ctx, "order-queue:m2", func(context.Context) error { return boom })
		s.ErrorIs(err, boom)

		calls := 0
		applied, err := s.store.ApplyOnce(s.ctx, "order-queue:m2", func(context.Context) error {
			calls++
			return nil
		})
		s.Require().NoError(err)
		s.True(applied)
		s.Equal(1, calls)
	})
}

func (s *StoreContractSuite) TestConcurrentCompareAndSwapHasOneWinner() {
	created, err := s.store.Create(s.ctx, s.record("r1", `{"n":0}`))
	s.Require().NoError(err)

	const writers = 20
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := s.record("r1", `{"n":1}`)
			rec.Version = created.Version
			_, err := s.store.CompareAndSwap(s.ctx, rec)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(writers-1), conflicts.Load())
}

func rows(recs []storage.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Key.Row)
	}
	return out
}
