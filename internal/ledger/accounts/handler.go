package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	"github.com/pharos-erp/pharos-erp/internal/platform/httpx"
)

// Handler exposes the registry over HTTP.
type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler constructs the registry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches registry endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/seed", h.Seed)
}

type seedAccountRequest struct {
	Code        int64  `json:"code" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	SubCategory string `json:"subCategory"`
	Statement   string `json:"statement" validate:"omitempty,oneof=BALANCE_SHEET INCOME_STATEMENT"`
	IsCash      bool   `json:"isCash"`
	Activity    string `json:"activity" validate:"omitempty,oneof=OPERATING INVESTING FINANCING"`
}

type seedRequest struct {
	Accounts []seedAccountRequest `json:"accounts" validate:"required,min=1,dive"`
}

// List returns the chart of accounts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Seed resets the registry and installs the submitted chart.
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	seed := make([]ledger.Account, 0, len(req.Accounts))
	for _, account := range req.Accounts {
		seed = append(seed, ledger.Account{
			Code:        account.Code,
			Name:        account.Name,
			Category:    ledger.AccountCategory(account.Category),
			SubCategory: account.SubCategory,
			Statement:   statementFor(account),
			IsCash:      account.IsCash,
			Activity:    ledger.ActivityBucket(account.Activity),
		})
	}
	seeded, err := h.service.ResetAndSeed(r.Context(), seed)
	if err != nil {
		h.logger.Error("seed accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, seeded)
}

// statementFor defaults the target statement from the category when the
// caller leaves it blank.
func statementFor(account seedAccountRequest) ledger.StatementKind {
	if account.Statement != "" {
		return ledger.StatementKind(account.Statement)
	}
	switch ledger.AccountCategory(account.Category) {
	case ledger.CategoryRevenue, ledger.CategoryExpense:
		return ledger.StatementIncomeStatement
	default:
		return ledger.StatementBalanceSheet
	}
}
