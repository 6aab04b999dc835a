// Package handler exposes customers and products over HTTP.
package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"abcretail/internal/catalog/service"
	"abcretail/internal/domain"
	"abcretail/internal/platform/metrics"
	"abcretail/internal/platform/middleware"
	dErrors "abcretail/pkg/domain-errors"
	"abcretail/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const maxUploadBytes = 10 << 20

// Service defines the catalog operations the handler needs.
type Service interface {
	CreateCustomer(ctx context.Context, in service.CustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, rowKey string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	UpdateCustomer(ctx context.Context, rowKey string, in service.CustomerInput, ifMatch string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, rowKey string) error

	CreateProduct(ctx context.Context, in service.ProductInput, img *service.Image) (*domain.Product, error)
	GetProduct(ctx context.Context, rowKey string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, rowKey string, in service.ProductInput, ifMatch string, img *service.Image) (*domain.Product, error)
	DeleteProduct(ctx context.Context, rowKey string) error
}

// Handler handles /customers and /products.
type Handler struct {
	catalog Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(catalog Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{catalog: catalog, logger: logger, metrics: m}
}

// Register mounts the catalog routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics, "/customers"))
		r.Get("/", h.handleListCustomers)
		r.Post("/", h.handleCreateCustomer)
		r.Get("/{rowKey}", h.handleGetCustomer)
		r.Put("/{rowKey}", h.handleUpdateCustomer)
		r.Delete("/{rowKey}", h.handleDeleteCustomer)
	})
	// Products accept JSON or multipart/form-data with an imageFile part.
	r.Route("/products", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.LatencyMiddleware(h.metrics, "/products"))
		r.Get("/", h.handleListProducts)
		r.Post("/", h.handleCreateProduct)
		r.Get("/{rowKey}", h.handleGetProduct)
		r.Put("/{rowKey}", h.handleUpdateProduct)
		r.Delete("/{rowKey}", h.handleDeleteProduct)
	})
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in service.CustomerInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.fail(ctx, w, "invalid create customer request", err)
		return
	}
	c, err := h.catalog.CreateCustomer(ctx, in)
	if err != nil {
		h.fail(ctx, w, "create customer failed", err)
		return
	}
	h.writeEntity(w, http.StatusCreated, c.ETag, c)
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.catalog.GetCustomer(ctx, chi.URLParam(r, "rowKey"))
	if err != nil {
		h.fail(ctx, w, "get customer failed", err)
		return
	}
	h.writeEntity(w, http.StatusOK, c.ETag, c)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cs, err := h.catalog.ListCustomers(ctx)
	if err != nil {
		h.fail(ctx, w, "list customers failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cs)
}

func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in service.CustomerInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.fail(ctx, w, "invalid update customer request", err)
		return
	}
	c, err := h.catalog.UpdateCustomer(ctx, chi.URLParam(r, "rowKey"), in, r.Header.Get("If-Match"))
	if err != nil {
		h.fail(ctx, w, "update customer failed", err)
		return
	}
	h.writeEntity(w, http.StatusOK, c.ETag, c)
}

func (h *Handler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteCustomer(ctx, chi.URLParam(r, "rowKey")); err != nil {
		h.fail(ctx, w, "delete customer failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, img, err := decodeProduct(r)
	if err != nil {
		h.fail(ctx, w, "invalid create product request", err)
		return
	}
	p, err := h.catalog.CreateProduct(ctx, in, img)
	if err != nil {
		h.fail(ctx, w, "create product failed", err)
		return
	}
	h.writeEntity(w, http.StatusCreated, p.ETag, p)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "rowKey"))
	if err != nil {
		h.fail(ctx, w, "get product failed", err)
		return
	}
	h.writeEntity(w, http.StatusOK, p.ETag, p)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ps, err := h.catalog.ListProducts(ctx)
	if err != nil {
		h.fail(ctx, w, "list products failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ps)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, img, err := decodeProduct(r)
	if err != nil {
		h.fail(ctx, w, "invalid update product request", err)
		return
	}
	p, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "rowKey"), in, r.Header.Get("If-Match"), img)
	if err != nil {
		h.fail(ctx, w, "update product failed", err)
		return
	}
	h.writeEntity(w, http.StatusOK, p.ETag, p)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "rowKey")); err != nil {
		h.fail(ctx, w, "delete product failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeProduct reads a product from JSON or from a multipart form. Form
// field names follow the entity's JSON names.
func decodeProduct(r *http.Request) (service.ProductInput, *service.Image, error) {
	var in service.ProductInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := httputil.DecodeJSON(r, &in); err != nil {
			return in, nil, err
		}
		return in, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	in.ProductName = formValue(r, "productName")
	in.ProductDescription = formValue(r, "productDescription")
	if raw := formValue(r, "productPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, nil, dErrors.New(dErrors.CodeValidation, "productPrice must be a number")
		}
		in.ProductPrice = price
	}

	file, header, err := r.FormFile("imageFile")
	if err == http.ErrMissingFile {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid imageFile")
	}
	if header.Size == 0 {
		_ = file.Close()
		return in, nil, nil
	}
	// The multipart file stays readable until the request ends.
	return in, &service.Image{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// formValue accepts both camelCase and the PascalCase names older clients post.
func formValue(r *http.Request, name string) string {
	if v := r.FormValue(name); v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(r.FormValue(strings.ToUpper(name[:1]) + name[1:]))
}

func (h *Handler) writeEntity(w http.ResponseWriter, status int, etag string, v any) {
	if etag != "" {
		w.Header().Set("ETag", `"`+etag+`"`)
	}
	httputil.WriteJSON(w, status, v)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeNotFound,
		dErrors.CodeConflict, dErrors.CodePreconditionFailed:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
