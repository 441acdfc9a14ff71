package httpx

import (
	"errors"
	"net/http"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unrecognised errors are treated as persistence faults and surface as 500
// without leaking detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnbalanced):
		Problem(w, http.StatusUnprocessableEntity, "Unbalanced Entry", err.Error())
	case errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrInvalidPosting):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, ledger.ErrSnapshotNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrDuplicatePosting):
		Problem(w, http.StatusConflict, "Duplicate Posting", err.Error())
	case errors.Is(err, ledger.ErrMissingDepreciationAccounts):
		Problem(w, http.StatusConflict, "Configuration Error", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
