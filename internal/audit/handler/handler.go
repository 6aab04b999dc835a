// Package handler exposes the audit live view and the archive files over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"abcretail/internal/platform/blob"
	"abcretail/internal/platform/metrics"
	"abcretail/internal/platform/middleware"
	dErrors "abcretail/pkg/domain-errors"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/audit/liveview"
	"abcretail/pkg/platform/httputil"
	"abcretail/pkg/platform/sentinel"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks LiveView Archives

// LiveView is the non-destructive read path of the audit queue.
type LiveView interface {
	Recent(ctx context.Context, limit int) ([]audit.Record, error)
	ExportCSV(ctx context.Context, w io.Writer, limit int) error
	Snapshot(ctx context.Context, format archive.Format) (archive.File, error)
}

// Archives lists and opens archive files.
type Archives interface {
	ListFiles(ctx context.Context) ([]archive.File, error)
	ReadFile(ctx context.Context, name string) (archive.File, io.ReadCloser, error)
}

// Handler handles audit endpoints.
type Handler struct {
	view     LiveView
	archives Archives
	format   archive.Format
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New builds the handler. format is used by POST /audit/export when the
// request does not name one.
func New(view LiveView, archives Archives, format archive.Format, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		view:     view,
		archives: archives,
		format:   format,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Register mounts the audit routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.LatencyMiddleware(h.metrics, "/audit"))
		r.Get("/recent", h.handleRecent)
		r.Get("/recent.csv", h.handleRecentCSV)
		r.Post("/export", h.handleExport)
		r.Get("/archives", h.handleListArchives)
		r.Get("/archives/{name}", h.handleGetArchive)
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.view.Recent(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "read audit live view failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleRecentCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="AuditLogs_%s.csv"`, h.now().UTC().Format("20060102_150405")))
	if err := h.view.ExportCSV(ctx, w, limit); err != nil {
		// Headers may already be out; all we can do is log.
		h.logger.ErrorContext(ctx, "audit csv export failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	}
}

type exportResponse struct {
	File archive.File `json:"file"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := h.format
	if f := r.URL.Query().Get("format"); f != "" {
		format = archive.Format(f)
	}
	if format != archive.FormatXLSX && format != archive.FormatCSV {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "format must be xlsx or csv"))
		return
	}
	f, err := h.view.Snapshot(ctx, format)
	if err != nil {
		h.fail(ctx, w, "audit export failed", err)
		return
	}
	h.logger.InfoContext(ctx, "audit live view exported",
		"request_id", middleware.GetRequestID(ctx),
		"file", f.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, exportResponse{File: f})
}

func (h *Handler) handleListArchives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	files, err := h.archives.ListFiles(ctx)
	if err != nil {
		h.fail(ctx, w, "list audit archives failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	f, rc, err := h.archives.ReadFile(ctx, name)
	if err != nil {
		h.fail(ctx, w, "read audit archive failed", err)
		return
	}
	defer rc.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, f.Name))
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "audit archive download interrupted",
			"request_id", middleware.GetRequestID(ctx),
			"file", f.Name,
			"error", err,
		)
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	err = translate(err)
	level := slog.LevelError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "archive file not found")
	case errors.Is(err, blob.ErrInvalidKey):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid archive file name")
	case errors.Is(err, liveview.ErrNoFileStore):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "archive storage is not configured")
	default:
		return err
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}
