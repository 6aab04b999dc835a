// Package handler exposes the order service over HTTP. Mutations answer 202
// Accepted once the command is on the order queue.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"abcretail/internal/domain"
	"abcretail/internal/order/service"
	"abcretail/internal/platform/metrics"
	"abcretail/internal/platform/middleware"
	dErrors "abcretail/pkg/domain-errors"
	"abcretail/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the order operations the handler needs.
type Service interface {
	Create(ctx context.Context, req service.CreateOrderRequest) (service.Accepted, error)
	Update(ctx context.Context, rowKey string, req service.UpdateOrderRequest) (service.Accepted, error)
	Delete(ctx context.Context, rowKey string) (service.Accepted, error)
	Get(ctx context.Context, rowKey string) (*domain.Order, error)
	List(ctx context.Context) ([]service.OrderView, error)
}

// Handler handles order endpoints.
type Handler struct {
	orders  Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(orders Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{orders: orders, logger: logger, metrics: m}
}

// Register mounts the order routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics, "/orders"))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{rowKey}", h.handleGet)
		r.Put("/{rowKey}", h.handleUpdate)
		r.Delete("/{rowKey}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.CreateOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create order request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	accepted, err := h.orders.Create(ctx, req)
	h.writeAccepted(ctx, w, accepted, err)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.UpdateOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid update order request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if req.IfMatch == "" {
		req.IfMatch = strings.Trim(r.Header.Get("If-Match"), `"`)
	}
	accepted, err := h.orders.Update(ctx, chi.URLParam(r, "rowKey"), req)
	h.writeAccepted(ctx, w, accepted, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accepted, err := h.orders.Delete(ctx, chi.URLParam(r, "rowKey"))
	h.writeAccepted(ctx, w, accepted, err)
}

func (h *Handler) writeAccepted(ctx context.Context, w http.ResponseWriter, accepted service.Accepted, err error) {
	if err != nil {
		h.logError(ctx, "order command rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, accepted)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.Get(ctx, chi.URLParam(r, "rowKey"))
	if err != nil {
		h.logError(ctx, "get order failed", err)
		httputil.WriteError(w, err)
		return
	}
	if order.ETag != "" {
		w.Header().Set("ETag", `"`+order.ETag+`"`)
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.orders.List(ctx)
	if err != nil {
		h.logError(ctx, "list orders failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	level := slog.LevelError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeNotFound:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
}
