// Package service accepts order mutations and turns them into commands on the
// order queue. Writes are applied later by the order worker; reads go straight
// to the entity store, so a caller may not yet see its own accepted change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"abcretail/internal/domain"
	"abcretail/internal/order/command"
	dErrors "abcretail/pkg/domain-errors"
	"abcretail/pkg/platform/sentinel"
	pkgstrings "abcretail/pkg/platform/strings"
	"abcretail/pkg/requestcontext"
)

// Commands is the order queue.
type Commands interface {
	Append(ctx context.Context, cmd command.Command) (string, error)
}

// Orders reads orders from the entity store.
type Orders interface {
	Get(ctx context.Context, rowKey string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}

// Customers and Products resolve the names shown next to listed orders.
type Customers interface {
	GetMany(ctx context.Context, rowKeys []string) ([]*domain.Customer, error)
}

type Products interface {
	GetMany(ctx context.Context, rowKeys []string) ([]*domain.Product, error)
}

// OrderView is a listed order with the names of its customer and product.
// A name is empty when the entity no longer exists.
type OrderView struct {
	*domain.Order
	CustomerName string `json:"customerName,omitempty"`
	ProductName  string `json:"productName,omitempty"`
}

// Metrics counts enqueued commands.
type Metrics interface {
	IncCommandsEnqueued(action string)
}

// CreateOrderRequest is the caller's input for a new order.
type CreateOrderRequest struct {
	CustomerID string             `json:"customerId"`
	ProductID  string             `json:"productId"`
	Quantity   int                `json:"quantity"`
	TotalPrice float64            `json:"totalPrice"`
	Status     domain.OrderStatus `json:"status,omitempty"`
}

// UpdateOrderRequest rewrites an order. IfMatch is the version token the
// caller read, or "*" to overwrite unconditionally.
type UpdateOrderRequest struct {
	CustomerID string             `json:"customerId"`
	ProductID  string             `json:"productId"`
	Quantity   int                `json:"quantity"`
	TotalPrice float64            `json:"totalPrice"`
	Status     domain.OrderStatus `json:"status,omitempty"`
	OrderDate  time.Time          `json:"orderDate,omitempty"`
	IfMatch    string             `json:"ifMatch"`
}

// Accepted acknowledges an enqueued command.
type Accepted struct {
	RowKey    string `json:"rowKey"`
	MessageID string `json:"messageId"`
}

type Service struct {
	commands  Commands
	orders    Orders
	customers Customers
	products  Products
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog lets List resolve customer and product names.
func WithCatalog(customers Customers, products Products) Option {
	return func(s *Service) {
		s.customers = customers
		s.products = products
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(commands Commands, orders Orders, opts ...Option) *Service {
	s := &Service{
		commands: commands,
		orders:   orders,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock prefers an injected clock over the request time carried by ctx.
func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

// Create validates req and enqueues a CreateOrder with a fresh row key.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (Accepted, error) {
	order := domain.Order{
		Entity:     domain.Entity{PartitionKey: domain.PartitionOrder, RowKey: uuid.NewString()},
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProductID:  strings.TrimSpace(req.ProductID),
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
		Status:     req.Status,
		OrderDate:  s.clock(ctx).UTC(),
	}
	if err := order.Validate(); err != nil {
		return Accepted{}, err
	}
	return s.enqueue(ctx, command.CreateOrder{Order: order})
}

// Update validates req and enqueues an UpdateOrder for rowKey.
func (s *Service) Update(ctx context.Context, rowKey string, req UpdateOrderRequest) (Accepted, error) {
	rowKey = strings.TrimSpace(rowKey)
	if rowKey == "" {
		return Accepted{}, dErrors.New(dErrors.CodeValidation, "rowKey is required")
	}
	ifMatch := strings.TrimSpace(req.IfMatch)
	if ifMatch == "" {
		return Accepted{}, dErrors.New(dErrors.CodeValidation, "ifMatch is required; use * to overwrite")
	}
	order := domain.Order{
		Entity:     domain.Entity{PartitionKey: domain.PartitionOrder, RowKey: rowKey, ETag: ifMatch},
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProductID:  strings.TrimSpace(req.ProductID),
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
		Status:     req.Status,
		OrderDate:  req.OrderDate,
	}
	if err := order.Validate(); err != nil {
		return Accepted{}, err
	}
	return s.enqueue(ctx, command.UpdateOrder{Order: order, IfMatch: ifMatch})
}

// Delete enqueues a DeleteOrder for rowKey.
func (s *Service) Delete(ctx context.Context, rowKey string) (Accepted, error) {
	rowKey = strings.TrimSpace(rowKey)
	if rowKey == "" {
		return Accepted{}, dErrors.New(dErrors.CodeValidation, "rowKey is required")
	}
	return s.enqueue(ctx, command.DeleteOrder{Key: rowKey})
}

func (s *Service) enqueue(ctx context.Context, cmd command.Command) (Accepted, error) {
	id, err := s.commands.Append(ctx, cmd)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue order command",
			"action", string(cmd.Action()),
			"row_key", cmd.RowKey(),
			"error", err,
		)
		return Accepted{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "order queue unavailable")
	}
	if s.metrics != nil {
		s.metrics.IncCommandsEnqueued(string(cmd.Action()))
	}
	s.logger.InfoContext(ctx, "order command accepted",
		"action", string(cmd.Action()),
		"row_key", cmd.RowKey(),
		"message_id", id,
	)
	return Accepted{RowKey: cmd.RowKey(), MessageID: id}, nil
}

// Get reads an order from the store.
func (s *Service) Get(ctx context.Context, rowKey string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, rowKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read order")
	}
	return order, nil
}

// List reads all orders. Customer and product names are looked up with one
// batch read per partition; a failed lookup leaves the names empty.
func (s *Service) List(ctx context.Context) ([]OrderView, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list orders")
	}
	views := make([]OrderView, len(orders))
	customerKeys := make([]string, 0, len(orders))
	productKeys := make([]string, 0, len(orders))
	for i, o := range orders {
		views[i] = OrderView{Order: o}
		customerKeys = append(customerKeys, o.CustomerID)
		productKeys = append(productKeys, o.ProductID)
	}
	if len(orders) == 0 || s.customers == nil || s.products == nil {
		return views, nil
	}

	customerNames := make(map[string]string)
	if customers, err := s.customers.GetMany(ctx, pkgstrings.DedupeAndTrim(customerKeys)); err != nil {
		s.logger.WarnContext(ctx, "failed to resolve customer names", "error", err)
	} else {
		for _, c := range customers {
			customerNames[c.RowKey] = c.CustomerName
		}
	}
	productNames := make(map[string]string)
	if products, err := s.products.GetMany(ctx, pkgstrings.DedupeAndTrim(productKeys)); err != nil {
		s.logger.WarnContext(ctx, "failed to resolve product names", "error", err)
	} else {
		for _, p := range products {
			productNames[p.RowKey] = p.ProductName
		}
	}
	for i := range views {
		views[i].CustomerName = customerNames[views[i].CustomerID]
		views[i].ProductName = productNames[views[i].ProductID]
	}
	return views, nil
}
