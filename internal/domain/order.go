package domain

import (
	"strings"
	"time"

	dErrors "abcretail/pkg/domain-errors"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Order is a customer order. Orders are only written by the order worker.
type Order struct {
	Entity
	CustomerID string      `json:"customerId"`
	ProductID  string      `json:"productId"`
	Quantity   int         `json:"quantity"`
	OrderDate  time.Time   `json:"orderDate"`
	TotalPrice float64     `json:"totalPrice"`
	Status     OrderStatus `json:"status"`
}

// Validate checks the fields a caller must supply. An empty status is allowed
// and defaults to Pending when the order is created.
func (o Order) Validate() error {
	if strings.TrimSpace(o.CustomerID) == "" {
		return dErrors.New(dErrors.CodeValidation, "customerId is required")
	}
	if strings.TrimSpace(o.ProductID) == "" {
		return dErrors.New(dErrors.CodeValidation, "productId is required")
	}
	if o.Quantity <= 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be greater than zero")
	}
	if o.TotalPrice <= 0 {
		return dErrors.New(dErrors.CodeValidation, "totalPrice must be greater than zero")
	}
	if o.Status != "" && !o.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown order status "+string(o.Status))
	}
	return nil
}

// WithDefaults returns o with Status defaulted to Pending.
func (o Order) WithDefaults() Order {
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return o
}
