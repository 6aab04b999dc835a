package domain

import (
	"net/mail"
	"strings"

	dErrors "abcretail/pkg/domain-errors"
)

// Customer is a retail customer.
type Customer struct {
	Entity
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

// Validate checks required customer fields.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.CustomerName) == "" {
		return dErrors.New(dErrors.CodeValidation, "customerName is required")
	}
	if strings.TrimSpace(c.CustomerEmail) == "" {
		return dErrors.New(dErrors.CodeValidation, "customerEmail is required")
	}
	if _, err := mail.ParseAddress(c.CustomerEmail); err != nil {
		return dErrors.New(dErrors.CodeValidation, "customerEmail is not a valid address")
	}
	return nil
}

// Product is a catalog item. ProductImageURL is derived on read from
// ProductImageBlobName and is never the source of truth.
type Product struct {
	Entity
	ProductName          string  `json:"productName"`
	ProductPrice         float64 `json:"productPrice"`
	ProductDescription   string  `json:"productDescription,omitempty"`
	ProductImageBlobName string  `json:"productImageBlobName,omitempty"`
	ProductImageURL      string  `json:"productImageUrl,omitempty"`
}

// Validate checks required product fields.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ProductName) == "" {
		return dErrors.New(dErrors.CodeValidation, "productName is required")
	}
	if p.ProductPrice <= 0 {
		return dErrors.New(dErrors.CodeValidation, "productPrice must be greater than zero")
	}
	return nil
}
