package journal

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pharos-erp/pharos-erp/internal/observability"
	"github.com/pharos-erp/pharos-erp/internal/platform/httpx"
)

// Handler exposes the journal store over HTTP.
type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler constructs the journal handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		metrics:   metrics,
	}
}

// MountRoutes attaches journal endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
	r.Delete("/source/{type}/{id}", h.DeleteBySource)
}

// Create appends a balanced journal entry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.ToPostingInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.Append(r.Context(), input)
	if err != nil {
		h.metrics.RecordEntryRejected()
		h.logger.Error("append journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordEntryPosted()
	httpx.JSON(w, http.StatusCreated, entry)
}

// List returns all entries, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// Delete removes a single entry.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entry id must be a positive integer")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete journal entry", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBySource cascades removal from an originating business object.
func (h *Handler) DeleteBySource(w http.ResponseWriter, r *http.Request) {
	sourceType := chi.URLParam(r, "type")
	sourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || sourceType == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "source type and uuid required")
		return
	}
	removed, err := h.service.DeleteBySource(r.Context(), sourceType, sourceID)
	if err != nil {
		h.logger.Error("delete journal entries by source",
			slog.String("source_type", sourceType), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
