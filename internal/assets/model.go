// Package assets manages fixed assets and their monthly straight-line
// depreciation postings into the ledger.
package assets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceTypeFixedAsset tags ledger entries created by depreciation runs.
const SourceTypeFixedAsset = "fixed_asset"

// FixedAsset is a depreciable asset tracked by the register.
type FixedAsset struct {
	ID                      uuid.UUID       `json:"id"`
	Name                    string          `json:"name"`
	Cost                    decimal.Decimal `json:"cost"`
	UsefulLifeYears         int             `json:"usefulLifeYears"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulatedDepreciation"`
	AcquisitionDate         time.Time       `json:"acquisitionDate"`
	LastDepreciationDate    *time.Time      `json:"lastDepreciationDate,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// MonthlyDepreciation is the straight-line charge per month, cent
// rounded. Assets with no useful life depreciate nothing.
func (a FixedAsset) MonthlyDepreciation() decimal.Decimal {
	months := int64(a.UsefulLifeYears) * 12
	if months <= 0 {
		return decimal.Zero
	}
	return a.Cost.Div(decimal.NewFromInt(months)).Round(2)
}

// NetBookValue is cost minus accumulated depreciation.
func (a FixedAsset) NetBookValue() decimal.Decimal {
	return a.Cost.Sub(a.AccumulatedDepreciation)
}

// FullyDepreciated reports whether the asset has no book value left to
// depreciate.
func (a FixedAsset) FullyDepreciated() bool {
	return a.AccumulatedDepreciation.GreaterThanOrEqual(a.Cost)
}

// RunResult summarises one depreciation run.
type RunResult struct {
	Month   string            `json:"month"`
	Posted  []AssetPosting    `json:"posted"`
	Skipped []AssetSkipReason `json:"skipped"`
	Total   decimal.Decimal   `json:"total"`
}

// AssetPosting records a single depreciation charge made during a run.
type AssetPosting struct {
	AssetID uuid.UUID       `json:"assetId"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	EntryID int64           `json:"entryId"`
}

// AssetSkipReason records why an asset was not charged during a run.
type AssetSkipReason struct {
	AssetID uuid.UUID `json:"assetId"`
	Name    string    `json:"name"`
	Reason  string    `json:"reason"`
}

// AssetSummary is a register line with derived depreciation figures.
type AssetSummary struct {
	FixedAsset
	Monthly      decimal.Decimal `json:"monthlyDepreciation"`
	NetBookValue decimal.Decimal `json:"netBookValue"`
	NextRunDue   *time.Time      `json:"nextRunDue,omitempty"`
}
