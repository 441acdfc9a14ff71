package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	"github.com/pharos-erp/pharos-erp/internal/ledger/accounts"
)

// JournalPort is the slice of the journal service depreciation needs.
type JournalPort interface {
	Append(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error)
}

// AccountReader lists the chart of accounts.
type AccountReader interface {
	List(ctx context.Context) ([]ledger.Account, error)
}

// Service runs the asset register and the monthly depreciation poster.
type Service struct {
	repo     Repository
	journal  JournalPort
	accounts AccountReader
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the asset service.
func NewService(logger *slog.Logger, repo Repository, journal JournalPort, accounts AccountReader) *Service {
	return &Service{repo: repo, journal: journal, accounts: accounts, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateAsset validates and registers a new fixed asset.
func (s *Service) CreateAsset(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	if asset.Name == "" {
		return FixedAsset{}, errors.New("assets: name required")
	}
	if asset.Cost.IsNegative() || asset.Cost.IsZero() {
		return FixedAsset{}, errors.New("assets: cost must be positive")
	}
	if asset.UsefulLifeYears <= 0 {
		return FixedAsset{}, errors.New("assets: useful life must be positive")
	}
	if asset.AcquisitionDate.IsZero() {
		asset.AcquisitionDate = s.now().UTC()
	}
	asset.Cost = asset.Cost.Round(2)
	asset.AccumulatedDepreciation = decimal.Zero
	return s.repo.Create(ctx, asset)
}

// List returns all registered assets with derived figures.
func (s *Service) List(ctx context.Context) ([]AssetSummary, error) {
	assetList, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]AssetSummary, 0, len(assetList))
	for _, asset := range assetList {
		summaries = append(summaries, summarise(asset))
	}
	return summaries, nil
}

// PostMonthlyDepreciation charges every live asset once for the month of
// the run. Re-running within the same month skips assets already charged;
// the journal's duplicate guard on (source, reference) enforces this even
// across concurrent runs.
func (s *Service) PostMonthlyDepreciation(ctx context.Context) (RunResult, error) {
	runAt := s.now().UTC()
	monthKey := runAt.Format("2006-01")
	result := RunResult{Month: monthKey, Posted: []AssetPosting{}, Skipped: []AssetSkipReason{}, Total: decimal.Zero}

	expenseAccount, accumAccount, err := s.depreciationAccounts(ctx)
	if err != nil {
		return RunResult{}, err
	}

	assetList, err := s.repo.List(ctx)
	if err != nil {
		return RunResult{}, err
	}

	for _, asset := range assetList {
		charge, skip := s.chargeFor(asset)
		if skip != "" {
			result.Skipped = append(result.Skipped, AssetSkipReason{AssetID: asset.ID, Name: asset.Name, Reason: skip})
			continue
		}
		entry, err := s.journal.Append(ctx, ledger.PostingInput{
			Date:        runAt,
			Description: fmt.Sprintf("Depreciation %s: %s", monthKey, asset.Name),
			SourceType:  SourceTypeFixedAsset,
			SourceID:    asset.ID,
			Reference:   monthKey,
			Lines: []ledger.PostingLineInput{
				{AccountID: expenseAccount.ID, Side: ledger.SideDebit, Amount: charge},
				{AccountID: accumAccount.ID, Side: ledger.SideCredit, Amount: charge},
			},
		})
		if errors.Is(err, ledger.ErrDuplicatePosting) {
			result.Skipped = append(result.Skipped, AssetSkipReason{AssetID: asset.ID, Name: asset.Name, Reason: "already posted for " + monthKey})
			continue
		}
		if err != nil {
			return RunResult{}, fmt.Errorf("assets: post depreciation for %s: %w", asset.Name, err)
		}
		if err := s.repo.ApplyDepreciation(ctx, asset.ID, charge, runAt); err != nil {
			return RunResult{}, err
		}
		s.logger.Info("posted depreciation",
			slog.String("asset", asset.Name),
			slog.String("month", monthKey),
			slog.String("amount", charge.String()))
		result.Posted = append(result.Posted, AssetPosting{AssetID: asset.ID, Name: asset.Name, Amount: charge, EntryID: entry.ID})
		result.Total = result.Total.Add(charge)
	}
	return result, nil
}

// chargeFor computes this month's charge, clamped so accumulated
// depreciation never exceeds cost. An empty skip reason means charge.
func (s *Service) chargeFor(asset FixedAsset) (decimal.Decimal, string) {
	if asset.FullyDepreciated() {
		return decimal.Zero, "fully depreciated"
	}
	monthly := asset.MonthlyDepreciation()
	if monthly.IsZero() {
		return decimal.Zero, "no depreciable amount"
	}
	remaining := asset.NetBookValue()
	if monthly.GreaterThan(remaining) {
		monthly = remaining
	}
	return monthly, ""
}

// Summary reports every asset with its monthly charge, net book value,
// and when the next charge falls due.
func (s *Service) Summary(ctx context.Context) ([]AssetSummary, error) {
	return s.List(ctx)
}

// Get returns a single asset with derived figures.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (AssetSummary, error) {
	asset, err := s.repo.Get(ctx, id)
	if err != nil {
		return AssetSummary{}, err
	}
	return summarise(asset), nil
}

// depreciationAccounts locates the expense and contra-asset accounts by
// name. Both must exist before a run can post anything.
func (s *Service) depreciationAccounts(ctx context.Context) (ledger.Account, ledger.Account, error) {
	accountList, err := s.accounts.List(ctx)
	if err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}
	expense, okExpense := accounts.FindByNameSubstring(accountList, "depreciation expense")
	accum, okAccum := accounts.FindByNameSubstring(accountList, "accumulated depreciation")
	if !okExpense || !okAccum {
		return ledger.Account{}, ledger.Account{}, ledger.ErrMissingDepreciationAccounts
	}
	return expense, accum, nil
}

func summarise(asset FixedAsset) AssetSummary {
	summary := AssetSummary{
		FixedAsset:   asset,
		Monthly:      asset.MonthlyDepreciation(),
		NetBookValue: asset.NetBookValue(),
	}
	if asset.LastDepreciationDate != nil && !asset.FullyDepreciated() {
		next := asset.LastDepreciationDate.AddDate(0, 1, 0)
		summary.NextRunDue = &next
	}
	return summary
}
