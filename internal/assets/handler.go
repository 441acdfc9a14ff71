package assets

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/platform/httpx"
)

// Handler exposes the fixed asset register and depreciation endpoints.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the assets handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

// MountRoutes registers asset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/depreciation/run", h.RunDepreciation)
	r.Get("/depreciation/summary", h.DepreciationSummary)
}

type createAssetRequest struct {
	Name            string          `json:"name" validate:"required"`
	Cost            decimal.Decimal `json:"cost" validate:"required"`
	UsefulLifeYears int             `json:"usefulLifeYears" validate:"required,gt=0"`
	AcquisitionDate string          `json:"acquisitionDate"`
}

// List returns the asset register with derived figures.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list assets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

// Create registers a new fixed asset.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	asset := FixedAsset{
		Name:            req.Name,
		Cost:            req.Cost,
		UsefulLifeYears: req.UsefulLifeYears,
	}
	if req.AcquisitionDate != "" {
		acquired, err := time.Parse("2006-01-02", req.AcquisitionDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "acquisitionDate must be YYYY-MM-DD")
			return
		}
		asset.AcquisitionDate = acquired
	}
	created, err := h.service.CreateAsset(r.Context(), asset)
	if err != nil {
		h.logger.Error("create asset", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, summarise(created))
}

// Get returns a single asset by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be a UUID")
		return
	}
	summary, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// RunDepreciation triggers the monthly depreciation poster. Safe to call
// repeatedly; assets already charged for the month are skipped.
func (h *Handler) RunDepreciation(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PostMonthlyDepreciation(r.Context())
	if err != nil {
		h.logger.Error("run depreciation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// DepreciationSummary reports every asset's schedule position.
func (h *Handler) DepreciationSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("depreciation summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}
