package service

import (
	"context"
	"strings"

	"abcretail/internal/domain"
	dErrors "abcretail/pkg/domain-errors"
	audit "abcretail/pkg/platform/audit"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	ProductName        string  `json:"productName"`
	ProductPrice       float64 `json:"productPrice"`
	ProductDescription string  `json:"productDescription,omitempty"`
}

func (in ProductInput) product(rowKey string) domain.Product {
	return domain.Product{
		Entity:             domain.Entity{PartitionKey: domain.PartitionProduct, RowKey: rowKey},
		ProductName:        strings.TrimSpace(in.ProductName),
		ProductPrice:       in.ProductPrice,
		ProductDescription: strings.TrimSpace(in.ProductDescription),
	}
}

// CreateProduct stores a product and, when img is non-nil, its photo.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, img *Image) (*domain.Product, error) {
	p := in.product(newRowKey(""))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	uploaded, err := s.upload(ctx, p.RowKey, img)
	if err != nil {
		return nil, err
	}
	p.ProductImageBlobName = uploaded

	created, err := s.products.Create(ctx, &p)
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, translate(err, "product")
	}
	s.emit(ctx, audit.ActionCreate, audit.EntityProduct, created.RowKey, created.ProductName)
	return s.withImageURL(ctx, created), nil
}

func (s *Service) GetProduct(ctx context.Context, rowKey string) (*domain.Product, error) {
	p, err := s.products.Get(ctx, rowKey)
	if err != nil {
		return nil, translate(err, "product")
	}
	return s.withImageURL(ctx, p), nil
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return nil, translate(err, "product")
	}
	for i := range ps {
		ps[i] = s.withImageURL(ctx, ps[i])
	}
	return ps, nil
}

// UpdateProduct rewrites a product. A new img replaces the stored photo, which
// is deleted once the update commits; without img the current photo is kept.
func (s *Service) UpdateProduct(ctx context.Context, rowKey string, in ProductInput, ifMatch string, img *Image) (*domain.Product, error) {
	ifMatch, err := requireIfMatch(ifMatch)
	if err != nil {
		return nil, err
	}
	p := in.product(rowKey)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.products.Get(ctx, rowKey)
	if err != nil {
		return nil, translate(err, "product")
	}

	uploaded, err := s.upload(ctx, rowKey, img)
	if err != nil {
		return nil, err
	}
	p.ProductImageBlobName = existing.ProductImageBlobName
	if uploaded != "" {
		p.ProductImageBlobName = uploaded
	}

	var updated *domain.Product
	if ifMatch == IfMatchAny {
		updated, err = s.products.Replace(ctx, &p)
	} else {
		p.ETag = ifMatch
		updated, err = s.products.Update(ctx, &p)
	}
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, translateUpdate(err, "product")
	}
	if uploaded != "" && existing.ProductImageBlobName != "" {
		s.discard(ctx, existing.ProductImageBlobName)
	}
	s.emit(ctx, audit.ActionUpdate, audit.EntityProduct, updated.RowKey, updated.ProductName)
	return s.withImageURL(ctx, updated), nil
}

// DeleteProduct removes a product and its photo.
func (s *Service) DeleteProduct(ctx context.Context, rowKey string) error {
	p, err := s.products.Get(ctx, rowKey)
	if err != nil {
		return translate(err, "product")
	}
	if err := s.products.Delete(ctx, rowKey); err != nil {
		return translate(err, "product")
	}
	s.discard(ctx, p.ProductImageBlobName)
	s.emit(ctx, audit.ActionDelete, audit.EntityProduct, rowKey, p.ProductName)
	return nil
}

func (s *Service) upload(ctx context.Context, rowKey string, img *Image) (string, error) {
	if img == nil {
		return "", nil
	}
	if s.images == nil {
		return "", dErrors.New(dErrors.CodeBadRequest, "image upload is not configured")
	}
	name, err := s.images.Upload(ctx, rowKey, *img)
	if err != nil {
		s.logger.ErrorContext(ctx, "product image upload failed",
			"row_key", rowKey,
			"error", err,
		)
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store product image")
	}
	return name, nil
}

// discard deletes an image that is no longer referenced. Failures leave an
// orphaned blob and are only logged.
func (s *Service) discard(ctx context.Context, blobName string) {
	if blobName == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, blobName); err != nil {
		s.logger.WarnContext(ctx, "failed to delete product image",
			"blob", blobName,
			"error", err,
		)
	}
}

// withImageURL fills the derived signed URL. A signing failure leaves the URL
// empty.
func (s *Service) withImageURL(ctx context.Context, p *domain.Product) *domain.Product {
	p.ProductImageURL = ""
	if p.ProductImageBlobName == "" || s.images == nil {
		return p
	}
	url, err := s.images.URL(ctx, p.ProductImageBlobName)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to sign product image url",
			"blob", p.ProductImageBlobName,
			"error", err,
		)
		return p
	}
	p.ProductImageURL = url
	return p
}
