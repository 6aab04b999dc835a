package service

import (
	"context"
	"strings"

	"abcretail/internal/domain"
	audit "abcretail/pkg/platform/audit"
)

// CustomerInput is the writable part of a customer.
type CustomerInput struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

func (in CustomerInput) customer(rowKey string) domain.Customer {
	return domain.Customer{
		Entity:        domain.Entity{PartitionKey: domain.PartitionCustomer, RowKey: rowKey},
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
	}
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	c := in.customer(newRowKey(""))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	created, err := s.customers.Create(ctx, &c)
	if err != nil {
		return nil, translate(err, "customer")
	}
	s.emit(ctx, audit.ActionCreate, audit.EntityCustomer, created.RowKey, created.CustomerName)
	return created, nil
}

func (s *Service) GetCustomer(ctx context.Context, rowKey string) (*domain.Customer, error) {
	c, err := s.customers.Get(ctx, rowKey)
	if err != nil {
		return nil, translate(err, "customer")
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	cs, err := s.customers.List(ctx)
	if err != nil {
		return nil, translate(err, "customer")
	}
	return cs, nil
}

// UpdateCustomer rewrites a customer. ifMatch must be the current ETag, or
// IfMatchAny to overwrite.
func (s *Service) UpdateCustomer(ctx context.Context, rowKey string, in CustomerInput, ifMatch string) (*domain.Customer, error) {
	ifMatch, err := requireIfMatch(ifMatch)
	if err != nil {
		return nil, err
	}
	c := in.customer(rowKey)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var updated *domain.Customer
	if ifMatch == IfMatchAny {
		updated, err = s.customers.Replace(ctx, &c)
	} else {
		c.ETag = ifMatch
		updated, err = s.customers.Update(ctx, &c)
	}
	if err != nil {
		return nil, translateUpdate(err, "customer")
	}
	s.emit(ctx, audit.ActionUpdate, audit.EntityCustomer, updated.RowKey, updated.CustomerName)
	return updated, nil
}

// DeleteCustomer removes a customer. A missing customer is reported as not
// found and emits nothing.
func (s *Service) DeleteCustomer(ctx context.Context, rowKey string) error {
	c, err := s.customers.Get(ctx, rowKey)
	if err != nil {
		return translate(err, "customer")
	}
	if err := s.customers.Delete(ctx, rowKey); err != nil {
		return translate(err, "customer")
	}
	s.emit(ctx, audit.ActionDelete, audit.EntityCustomer, rowKey, c.CustomerName)
	return nil
}
