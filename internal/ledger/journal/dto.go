package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// CreateEntryRequest is the JSON body for appending a journal entry.
type CreateEntryRequest struct {
	Date        string             `json:"date" validate:"required"`
	Description string             `json:"description"`
	Lines       []EntryLineRequest `json:"lines" validate:"required,min=2,dive"`
	Source      *SourceRef         `json:"source" validate:"omitempty"`
	Reference   string             `json:"reference"`
}

// EntryLineRequest is a single debit or credit line.
type EntryLineRequest struct {
	AccountID int64           `json:"accountId" validate:"required,gt=0"`
	Side      string          `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	Amount    decimal.Decimal `json:"amount"`
}

// SourceRef points back at the business object that produced the entry.
type SourceRef struct {
	Type string `json:"type" validate:"required"`
	ID   string `json:"id" validate:"required,uuid"`
}

// ToPostingInput converts the request into the domain posting input.
func (req CreateEntryRequest) ToPostingInput() (ledger.PostingInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return ledger.PostingInput{}, err
	}
	in := ledger.PostingInput{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
	}
	if req.Source != nil {
		sourceID, err := uuid.Parse(req.Source.ID)
		if err != nil {
			return ledger.PostingInput{}, fmt.Errorf("journal: invalid source id: %w", err)
		}
		in.SourceType = req.Source.Type
		in.SourceID = sourceID
	}
	in.Lines = make([]ledger.PostingLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, ledger.PostingLineInput{
			AccountID: line.AccountID,
			Side:      ledger.LineSide(line.Side),
			Amount:    line.Amount,
		})
	}
	return in, nil
}

// parseDate accepts plain ISO dates and full RFC3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("journal: invalid date %q", value)
	}
	return t, nil
}
