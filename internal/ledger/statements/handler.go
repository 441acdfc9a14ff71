package statements

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/pharos-erp/pharos-erp/internal/platform/httpx"
)

// Handler exposes trial balance and statement endpoints.
type Handler struct {
	service   *Service
	logger    *slog.Logger
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the statements handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		service:   service,
		logger:    logger,
		rateLimit: limiter,
	}
}

// MountRoutes registers statement routes. Generation and export are rate
// limited because they scan the journal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)

	r.Route("/statements", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Post("/generate", h.GenerateAll)
			r.Post("/balance-sheet", h.GenerateBalanceSheet)
			r.Post("/income-statement", h.GenerateIncomeStatement)
			r.Post("/cash-flow", h.GenerateCashFlow)
			r.Get("/balance-sheet/export.csv", h.ExportBalanceSheetCSV)
			r.Get("/income-statement/export.csv", h.ExportIncomeStatementCSV)
			r.Get("/cash-flow/export.csv", h.ExportCashFlowCSV)
		})

		r.Get("/balance-sheet", h.GetBalanceSheet)
		r.Delete("/balance-sheet", h.DeleteBalanceSheet)
		r.Get("/balance-sheet/check", h.CheckBalanceSheet)
		r.Get("/income-statement", h.GetIncomeStatement)
		r.Delete("/income-statement", h.DeleteIncomeStatement)
		r.Get("/cash-flow", h.GetCashFlow)
		r.Delete("/cash-flow", h.DeleteCashFlow)
	})
}

type generateRequest struct {
	RunID string `json:"runId"`
	AsOf  string `json:"asOf"`
	From  string `json:"from"`
	To    string `json:"to"`
}

func (req generateRequest) toInput() (GenerateInput, error) {
	in := GenerateInput{RunID: req.RunID}
	var err error
	if in.AsOf, err = parseOptionalDate(req.AsOf); err != nil {
		return GenerateInput{}, err
	}
	if in.From, err = parseOptionalDate(req.From); err != nil {
		return GenerateInput{}, err
	}
	if in.To, err = parseOptionalDate(req.To); err != nil {
		return GenerateInput{}, err
	}
	return in, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return &ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (h *Handler) decodeGenerate(w http.ResponseWriter, r *http.Request) (GenerateInput, bool) {
	var req generateRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return GenerateInput{}, false
		}
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "dates must be YYYY-MM-DD or RFC3339")
		return GenerateInput{}, false
	}
	return in, true
}

// TrialBalance recomputes the trial balance from the journal.
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseOptionalDate(r.URL.Query().Get("asOf"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "asOf must be YYYY-MM-DD or RFC3339")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.logger.Error("build trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

// GenerateAll produces all three statements under one run id.
func (h *Handler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	pack, err := h.service.GenerateAll(r.Context(), in)
	if err != nil {
		h.logger.Error("generate statements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pack)
}

// GenerateBalanceSheet builds and stores a balance sheet snapshot.
func (h *Handler) GenerateBalanceSheet(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GenerateBalanceSheet(r.Context(), in)
	if err != nil {
		h.logger.Error("generate balance sheet", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, snap)
}

// GetBalanceSheet serves a stored snapshot, latest when run is omitted.
func (h *Handler) GetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetBalanceSheet(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// DeleteBalanceSheet removes a stored snapshot by run id.
func (h *Handler) DeleteBalanceSheet(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "run query parameter is required")
		return
	}
	if err := h.service.DeleteBalanceSheet(r.Context(), runID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckBalanceSheet runs the accounting-equation validation on a stored
// snapshot and reports the result without failing the request.
func (h *Handler) CheckBalanceSheet(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.CheckBalanceSheet(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, check)
}

// GenerateIncomeStatement builds and stores an income statement snapshot.
func (h *Handler) GenerateIncomeStatement(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GenerateIncomeStatement(r.Context(), in)
	if err != nil {
		h.logger.Error("generate income statement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, snap)
}

// GetIncomeStatement serves a stored snapshot, latest when run is omitted.
func (h *Handler) GetIncomeStatement(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetIncomeStatement(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// DeleteIncomeStatement removes a stored snapshot by run id.
func (h *Handler) DeleteIncomeStatement(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "run query parameter is required")
		return
	}
	if err := h.service.DeleteIncomeStatement(r.Context(), runID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateCashFlow builds and stores a cash flow snapshot.
func (h *Handler) GenerateCashFlow(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeGenerate(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GenerateCashFlow(r.Context(), in)
	if err != nil {
		h.logger.Error("generate cash flow", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, snap)
}

// GetCashFlow serves a stored snapshot, latest when run is omitted.
func (h *Handler) GetCashFlow(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetCashFlow(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// DeleteCashFlow removes a stored snapshot by run id.
func (h *Handler) DeleteCashFlow(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "run query parameter is required")
		return
	}
	if err := h.service.DeleteCashFlow(r.Context(), runID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportBalanceSheetCSV streams a stored balance sheet as CSV.
func (h *Handler) ExportBalanceSheetCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetBalanceSheet(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	setCSVHeaders(w, "balance_sheet_"+snap.RunID)
	if err := writeBalanceSheetCSV(w, snap); err != nil {
		h.logger.Error("export balance sheet csv", slog.Any("error", err))
	}
}

// ExportIncomeStatementCSV streams a stored income statement as CSV.
func (h *Handler) ExportIncomeStatementCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetIncomeStatement(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	setCSVHeaders(w, "income_statement_"+snap.RunID)
	if err := writeIncomeStatementCSV(w, snap); err != nil {
		h.logger.Error("export income statement csv", slog.Any("error", err))
	}
}

// ExportCashFlowCSV streams a stored cash flow statement as CSV.
func (h *Handler) ExportCashFlowCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetCashFlow(r.Context(), r.URL.Query().Get("run"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	setCSVHeaders(w, "cash_flow_"+snap.RunID)
	if err := writeCashFlowCSV(w, snap); err != nil {
		h.logger.Error("export cash flow csv", slog.Any("error", err))
	}
}

func setCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+name+".csv")
}
