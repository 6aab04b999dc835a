package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"abcretail/internal/domain"
	"abcretail/internal/order/command"
	"abcretail/internal/storage"
	dErrors "abcretail/pkg/domain-errors"
	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/queue/memory"
	"abcretail/pkg/requestcontext"
)

type enqueueCounter map[string]int

func (c enqueueCounter) IncCommandsEnqueued(action string) { c[action]++ }

type brokenQueue struct{}

func (brokenQueue) Append(context.Context, command.Command) (string, error) {
	return "", errors.New("connection refused")
}

type OrderServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	ch      *memory.Channel
	queue   *queue.Typed[command.Command]
	orders  *storage.Table[domain.Order, *domain.Order]
	counter enqueueCounter
	svc     *Service
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)
	s.ch = memory.New(queue.OrderQueue)
	s.queue = command.NewQueue(s.ch)
	s.orders = storage.NewTable[domain.Order](storage.NewInMemoryStore(), domain.PartitionOrder)
	s.counter = enqueueCounter{}
	s.svc = New(s.queue, s.orders,
		WithMetrics(s.counter),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *OrderServiceSuite) received() []queue.Delivery[command.Command] {
	ds, err := s.queue.Peek(s.ctx, queue.MaxBatch)
	s.Require().NoError(err)
	return ds
}

func (s *OrderServiceSuite) TestCreateEnqueuesCommand() {
	accepted, err := s.svc.Create(s.ctx, CreateOrderRequest{
		CustomerID: "cust-1",
		ProductID:  "prod-1",
		Quantity:   3,
		TotalPrice: 30,
	})
	s.Require().NoError(err)
	s.NotEmpty(accepted.RowKey)
	s.NotEmpty(accepted.MessageID)

	ds := s.received()
	s.Require().Len(ds, 1)
	s.Require().NoError(ds[0].DecodeErr)
	s.Equal(accepted.MessageID, ds[0].ID)

	create, ok := ds[0].Value.(command.CreateOrder)
	s.Require().True(ok)
	s.Equal(accepted.RowKey, create.Order.RowKey)
	s.Equal("cust-1", create.Order.CustomerID)
	s.Equal(s.now, create.Order.OrderDate)
	s.Equal(1, s.counter["create"])

	_, err = s.svc.Get(s.ctx, accepted.RowKey)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "nothing is written until the worker runs")
}

func (s *OrderServiceSuite) TestCreateValidation() {
	cases := map[string]CreateOrderRequest{
		"missing customer": {ProductID: "p", Quantity: 1, TotalPrice: 1},
		"missing product":  {CustomerID: "c", Quantity: 1, TotalPrice: 1},
		"zero quantity":    {CustomerID: "c", ProductID: "p", TotalPrice: 1},
		"negative price":   {CustomerID: "c", ProductID: "p", Quantity: 1, TotalPrice: -2},
		"unknown status":   {CustomerID: "c", ProductID: "p", Quantity: 1, TotalPrice: 1, Status: "Lost"},
	}
	for name, req := range cases {
		s.Run(name, func() {
			_, err := s.svc.Create(s.ctx, req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
	s.Empty(s.received(), "invalid requests are never enqueued")
}

func (s *OrderServiceSuite) TestUpdateRequiresIfMatch() {
	req := UpdateOrderRequest{CustomerID: "c", ProductID: "p", Quantity: 1, TotalPrice: 1}
	_, err := s.svc.Update(s.ctx, "order-1", req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Update(s.ctx, " ", UpdateOrderRequest{IfMatch: "*"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	req.IfMatch = "*"
	accepted, err := s.svc.Update(s.ctx, "order-1", req)
	s.Require().NoError(err)
	s.Equal("order-1", accepted.RowKey)

	ds := s.received()
	s.Require().Len(ds, 1)
	update, ok := ds[0].Value.(command.UpdateOrder)
	s.Require().True(ok)
	s.Equal(command.IfMatchAny, update.IfMatch)
	s.Equal("order-1", update.Order.RowKey)
}

func (s *OrderServiceSuite) TestDelete() {
	_, err := s.svc.Delete(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	accepted, err := s.svc.Delete(s.ctx, "order-9")
	s.Require().NoError(err)
	s.Equal("order-9", accepted.RowKey)

	ds := s.received()
	s.Require().Len(ds, 1)
	s.Equal(command.DeleteOrder{Key: "order-9"}, ds[0].Value)
}

func (s *OrderServiceSuite) TestReadsGoToStore() {
	_, err := s.orders.Create(s.ctx, &domain.Order{
		Entity:     domain.Entity{RowKey: "order-1"},
		CustomerID: "c", ProductID: "p", Quantity: 1, TotalPrice: 2,
		Status: domain.OrderStatusShipped,
	})
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, "order-1")
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusShipped, got.Status)

	all, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func TestEnqueueFailureIsUnavailable(t *testing.T) {
	svc := New(brokenQueue{}, nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := svc.Delete(context.Background(), "order-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestCreateUsesRequestTime(t *testing.T) {
	at := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	q := command.NewQueue(memory.New(queue.OrderQueue))
	svc := New(q, storage.NewTable[domain.Order](storage.NewInMemoryStore(), domain.PartitionOrder))

	_, err := svc.Create(requestcontext.WithTime(context.Background(), at), CreateOrderRequest{
		CustomerID: "cust-1", ProductID: "prod-1", Quantity: 1, TotalPrice: 5,
	})
	require.NoError(t, err)

	ds, err := q.Peek(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, at, ds[0].Value.(command.CreateOrder).Order.OrderDate)
}

type failingProducts struct{}

func (failingProducts) GetMany(context.Context, []string) ([]*domain.Product, error) {
	return nil, errors.New("connection reset")
}

func TestListResolvesCatalogNames(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	orders := storage.NewTable[domain.Order](store, domain.PartitionOrder)
	customers := storage.NewTable[domain.Customer](store, domain.PartitionCustomer)
	products := storage.NewTable[domain.Product](store, domain.PartitionProduct)

	_, err := customers.Create(ctx, &domain.Customer{Entity: domain.Entity{RowKey: "c1"}, CustomerName: "Ada", CustomerEmail: "ada@example.com"})
	require.NoError(t, err)
	_, err = products.Create(ctx, &domain.Product{Entity: domain.Entity{RowKey: "p1"}, ProductName: "Lamp", ProductPrice: 10})
	require.NoError(t, err)
	for _, o := range []domain.Order{
		{Entity: domain.Entity{RowKey: "o1"}, CustomerID: "c1", ProductID: "p1", Quantity: 1, TotalPrice: 10},
		{Entity: domain.Entity{RowKey: "o2"}, CustomerID: "c1", ProductID: "gone", Quantity: 2, TotalPrice: 20},
	} {
		_, err := orders.Create(ctx, &o)
		require.NoError(t, err)
	}
	discard := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	q := command.NewQueue(memory.New(queue.OrderQueue))

	t.Run("names come from one batch read per partition", func(t *testing.T) {
		views, err := New(q, orders, WithCatalog(customers, products), discard).List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		byKey := map[string]OrderView{}
		for _, v := range views {
			byKey[v.RowKey] = v
		}
		assert.Equal(t, "Ada", byKey["o1"].CustomerName)
		assert.Equal(t, "Lamp", byKey["o1"].ProductName)
		assert.Equal(t, "Ada", byKey["o2"].CustomerName)
		assert.Empty(t, byKey["o2"].ProductName, "deleted product has no name")
	})

	t.Run("failed lookup still lists orders", func(t *testing.T) {
		views, err := New(q, orders, WithCatalog(customers, failingProducts{}), discard).List(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		for _, v := range views {
			assert.Equal(t, "Ada", v.CustomerName)
			assert.Empty(t, v.ProductName)
		}
	})
}
