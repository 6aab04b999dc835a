package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcretail/internal/domain"
	"abcretail/internal/storage"
	"abcretail/pkg/platform/sentinel"
)

func TestTable_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	orders := storage.NewTable[domain.Order](storage.NewInMemoryStore().WithClock(func() time.Time { return fixed }), domain.PartitionOrder)

	created, err := orders.Create(ctx, &domain.Order{CustomerID: "c1", ProductID: "p1", Quantity: 1, TotalPrice: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.PartitionOrder, created.PartitionKey)
	assert.NotEmpty(t, created.RowKey)
	assert.NotEmpty(t, created.ETag)
	assert.Equal(t, fixed, created.Timestamp)

	created.Quantity = 3
	updated, err := orders.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	created.Quantity = 7
	_, err = orders.Update(ctx, created)
	assert.ErrorIs(t, err, sentinel.ErrConflict, "created still carries the first version")

	got, err := orders.Get(ctx, created.RowKey)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, updated.ETag, got.ETag)

	got.ETag = ""
	got.Quantity = 9
	replaced, err := orders.Replace(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 9, replaced.Quantity)

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, orders.Delete(ctx, created.RowKey))
	_, err = orders.Get(ctx, created.RowKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestTable_PartitionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	customers := storage.NewTable[domain.Customer](store, domain.PartitionCustomer)
	products := storage.NewTable[domain.Product](store, domain.PartitionProduct)

	c, err := customers.Create(ctx, &domain.Customer{Entity: domain.Entity{RowKey: "same"}, CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	require.NoError(t, err)
	_, err = products.Create(ctx, &domain.Product{Entity: domain.Entity{RowKey: "same"}, ProductName: "Mug", ProductPrice: 4})
	require.NoError(t, err, "same row key in another partition is a different entity")

	many, err := customers.GetMany(ctx, []string{c.RowKey})
	require.NoError(t, err)
	require.Len(t, many, 1)
	assert.Equal(t, "Ada", many[0].CustomerName)
}
