// Package service implements synchronous customer and product CRUD over the
// entity store. Every successful mutation emits an audit event. Product
// images live in blob storage and are exposed through short-lived signed URLs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"abcretail/internal/domain"
	dErrors "abcretail/pkg/domain-errors"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/sentinel"
	"abcretail/pkg/requestcontext"
)

// IfMatchAny skips the version check on update.
const IfMatchAny = "*"

// Table is the typed entity table the service writes through.
type Table[T any] interface {
	Get(ctx context.Context, rowKey string) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Create(ctx context.Context, v *T) (*T, error)
	Update(ctx context.Context, v *T) (*T, error)
	Replace(ctx context.Context, v *T) (*T, error)
	Delete(ctx context.Context, rowKey string) error
}

// Service serves customers and products.
type Service struct {
	customers Table[domain.Customer]
	products  Table[domain.Product]
	images    *ImageStore
	audit     audit.Emitter
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithImages enables product image upload. Without it image uploads are
// rejected and products carry no image URL.
func WithImages(images *ImageStore) Option {
	return func(s *Service) { s.images = images }
}

func New(customers Table[domain.Customer], products Table[domain.Product], emitter audit.Emitter, opts ...Option) *Service {
	s := &Service{
		customers: customers,
		products:  products,
		audit:     emitter,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) emit(ctx context.Context, action, entity, id, name string) {
	err := s.audit.Emit(ctx, audit.Event{
		Action:    action,
		Entity:    entity,
		ID:        id,
		Name:      name,
		Timestamp: s.clock(ctx).UTC(),
	})
	if err != nil {
		// The mutation is already committed; the failure is logged and counted by the publisher.
		s.logger.ErrorContext(ctx, "audit event lost",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err,
		)
	}
}

// requireIfMatch validates the version token of an update.
func requireIfMatch(ifMatch string) (string, error) {
	ifMatch = strings.Trim(strings.TrimSpace(ifMatch), `"`)
	if ifMatch == "" {
		return "", dErrors.New(dErrors.CodeValidation, "ifMatch is required; use * to overwrite")
	}
	return ifMatch, nil
}

// translate maps store errors onto domain codes.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" was modified concurrently")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+entity)
	}
}

// translateUpdate is translate for version-checked writes, where a conflict
// means the caller's ETag is stale.
func translateUpdate(err error, entity string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodePreconditionFailed, entity+" version does not match")
	}
	return translate(err, entity)
}

func newRowKey(rowKey string) string {
	if strings.TrimSpace(rowKey) != "" {
		return strings.TrimSpace(rowKey)
	}
	return uuid.NewString()
}
