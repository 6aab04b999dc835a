package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"abcretail/internal/platform/blob"
)

// ImagePrefix is the blob prefix for product photos.
const ImagePrefix = "product-photos/"

// DefaultImageURLTTL is the lifetime of a signed product image URL.
const DefaultImageURLTTL = 24 * time.Hour

// Image is an uploaded product photo.
type Image struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

// ImageStore keeps product photos in blob storage. Blobs are create-only, so
// every upload gets a fresh name and replaced photos are deleted afterwards.
type ImageStore struct {
	blobs blob.Store
	ttl   time.Duration
}

func NewImageStore(blobs blob.Store, ttl time.Duration) *ImageStore {
	if ttl <= 0 {
		ttl = DefaultImageURLTTL
	}
	return &ImageStore{blobs: blobs, ttl: ttl}
}

// Upload stores img for the product rowKey and returns the blob name.
func (s *ImageStore) Upload(ctx context.Context, rowKey string, img Image) (string, error) {
	ext := strings.ToLower(path.Ext(img.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := ImagePrefix + rowKey + "-" + uuid.NewString()[:8] + ext
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.blobs.Put(ctx, name, img.Body, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"product": rowKey},
	}); err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}
	return name, nil
}

// URL returns a signed URL for blobName.
func (s *ImageStore) URL(ctx context.Context, blobName string) (string, error) {
	return s.blobs.PresignURL(ctx, blobName, s.ttl)
}

// Remove deletes blobName. A missing blob is not an error.
func (s *ImageStore) Remove(ctx context.Context, blobName string) error {
	if _, err := s.blobs.Delete(ctx, blobName); err != nil {
		return fmt.Errorf("delete product image %s: %w", blobName, err)
	}
	return nil
}
