package statements

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	"github.com/pharos-erp/pharos-erp/internal/ledger/reports"
	"github.com/pharos-erp/pharos-erp/internal/observability"
)

// BalanceReader folds journal lines into per-account totals.
type BalanceReader interface {
	AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error)
}

// EntryReader streams journal entries with their lines for a period.
type EntryReader interface {
	EntriesBetween(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error)
}

// AccountReader lists the chart of accounts.
type AccountReader interface {
	List(ctx context.Context) ([]ledger.Account, error)
}

// GenerateInput bounds a statement generation run. For the balance sheet
// only AsOf applies; the period statements use From and To. A blank RunID
// derives a timestamp key.
type GenerateInput struct {
	AsOf  *time.Time
	From  *time.Time
	To    *time.Time
	RunID string
}

// Service generates, stores, and serves statement snapshots.
type Service struct {
	snapshots Repository
	balances  BalanceReader
	entries   EntryReader
	accounts  AccountReader
	cache     *Cache
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the statement service.
func NewService(logger *slog.Logger, snapshots Repository, balances BalanceReader, entries EntryReader, accounts AccountReader, cache *Cache, metrics *observability.Metrics) *Service {
	return &Service{
		snapshots: snapshots,
		balances:  balances,
		entries:   entries,
		accounts:  accounts,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TrialBalance recomputes per-account totals from the journal, optionally
// bounded to entries dated on or before asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (reports.TrialBalance, error) {
	balances, err := s.balances.AccountBalances(ctx, nil, asOf)
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return reports.BuildTrialBalance(balances), nil
}

// GenerateBalanceSheet scans the journal up to AsOf and persists the
// resulting snapshot. Re-generating with the same run id overwrites.
func (s *Service) GenerateBalanceSheet(ctx context.Context, in GenerateInput) (BalanceSheetSnapshot, error) {
	runID := s.runID(in.RunID)
	result, err := singleflightBuild(ctx, KindBalanceSheet+":"+runID, func(ctx context.Context) (interface{}, error) {
		start := s.now()
		balances, err := s.balances.AccountBalances(ctx, nil, in.AsOf)
		if err != nil {
			return nil, err
		}
		snap := BalanceSheetSnapshot{
			RunID:       runID,
			AsOf:        in.AsOf,
			GeneratedAt: s.now().UTC(),
			Report:      reports.BuildBalanceSheet(balances),
		}
		if err := s.snapshots.SaveBalanceSheet(ctx, snap); err != nil {
			return nil, err
		}
		s.metrics.ObserveSnapshotBuild(KindBalanceSheet, s.now().Sub(start))
		s.bump(ctx)
		return snap, nil
	})
	if err != nil {
		return BalanceSheetSnapshot{}, err
	}
	return result.(BalanceSheetSnapshot), nil
}

// GetBalanceSheet returns the snapshot for runID, or the latest one when
// runID is blank.
func (s *Service) GetBalanceSheet(ctx context.Context, runID string) (BalanceSheetSnapshot, error) {
	var snap BalanceSheetSnapshot
	err := s.cachedFetch(ctx, KindBalanceSheet, runID, &snap, func(ctx context.Context) (interface{}, error) {
		return s.snapshots.GetBalanceSheet(ctx, runID)
	})
	return snap, err
}

// DeleteBalanceSheet removes a snapshot by run id.
func (s *Service) DeleteBalanceSheet(ctx context.Context, runID string) error {
	if err := s.snapshots.DeleteBalanceSheet(ctx, runID); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// CheckBalanceSheet runs the explicit accounting-equation validation on a
// stored snapshot. The generator itself never asserts the equation.
func (s *Service) CheckBalanceSheet(ctx context.Context, runID string) (EquationCheck, error) {
	snap, err := s.GetBalanceSheet(ctx, runID)
	if err != nil {
		return EquationCheck{}, err
	}
	check := EquationCheck{RunID: snap.RunID, Balanced: true}
	if err := snap.Report.CheckEquation(); err != nil {
		check.Balanced = false
		check.Detail = err.Error()
	}
	return check, nil
}

// GenerateIncomeStatement scans journal lines dated within [From, To] and
// persists the resulting snapshot.
func (s *Service) GenerateIncomeStatement(ctx context.Context, in GenerateInput) (IncomeStatementSnapshot, error) {
	runID := s.runID(in.RunID)
	result, err := singleflightBuild(ctx, KindIncomeStatement+":"+runID, func(ctx context.Context) (interface{}, error) {
		start := s.now()
		balances, err := s.balances.AccountBalances(ctx, in.From, in.To)
		if err != nil {
			return nil, err
		}
		snap := IncomeStatementSnapshot{
			RunID:       runID,
			From:        in.From,
			To:          in.To,
			GeneratedAt: s.now().UTC(),
			Report:      reports.BuildIncomeStatement(balances),
		}
		if err := s.snapshots.SaveIncomeStatement(ctx, snap); err != nil {
			return nil, err
		}
		s.metrics.ObserveSnapshotBuild(KindIncomeStatement, s.now().Sub(start))
		s.bump(ctx)
		return snap, nil
	})
	if err != nil {
		return IncomeStatementSnapshot{}, err
	}
	return result.(IncomeStatementSnapshot), nil
}

// GetIncomeStatement mirrors GetBalanceSheet for the income statement.
func (s *Service) GetIncomeStatement(ctx context.Context, runID string) (IncomeStatementSnapshot, error) {
	var snap IncomeStatementSnapshot
	err := s.cachedFetch(ctx, KindIncomeStatement, runID, &snap, func(ctx context.Context) (interface{}, error) {
		return s.snapshots.GetIncomeStatement(ctx, runID)
	})
	return snap, err
}

// DeleteIncomeStatement removes a snapshot by run id.
func (s *Service) DeleteIncomeStatement(ctx context.Context, runID string) error {
	if err := s.snapshots.DeleteIncomeStatement(ctx, runID); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// GenerateCashFlow classifies cash movements within [From, To] and
// persists the resulting snapshot.
func (s *Service) GenerateCashFlow(ctx context.Context, in GenerateInput) (CashFlowSnapshot, error) {
	runID := s.runID(in.RunID)
	result, err := singleflightBuild(ctx, KindCashFlow+":"+runID, func(ctx context.Context) (interface{}, error) {
		start := s.now()
		accountList, err := s.accounts.List(ctx)
		if err != nil {
			return nil, err
		}
		accountsByID := make(map[int64]ledger.Account, len(accountList))
		for _, account := range accountList {
			accountsByID[account.ID] = account
		}
		entries, err := s.entries.EntriesBetween(ctx, in.From, in.To)
		if err != nil {
			return nil, err
		}
		snap := CashFlowSnapshot{
			RunID:       runID,
			From:        in.From,
			To:          in.To,
			GeneratedAt: s.now().UTC(),
			Report:      reports.BuildCashFlow(accountsByID, entries),
		}
		if err := s.snapshots.SaveCashFlow(ctx, snap); err != nil {
			return nil, err
		}
		s.metrics.ObserveSnapshotBuild(KindCashFlow, s.now().Sub(start))
		s.bump(ctx)
		return snap, nil
	})
	if err != nil {
		return CashFlowSnapshot{}, err
	}
	return result.(CashFlowSnapshot), nil
}

// GetCashFlow mirrors GetBalanceSheet for the cash flow statement.
func (s *Service) GetCashFlow(ctx context.Context, runID string) (CashFlowSnapshot, error) {
	var snap CashFlowSnapshot
	err := s.cachedFetch(ctx, KindCashFlow, runID, &snap, func(ctx context.Context) (interface{}, error) {
		return s.snapshots.GetCashFlow(ctx, runID)
	})
	return snap, err
}

// DeleteCashFlow removes a snapshot by run id.
func (s *Service) DeleteCashFlow(ctx context.Context, runID string) error {
	if err := s.snapshots.DeleteCashFlow(ctx, runID); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// GenerateAll produces the three statements for one period under a shared
// run id. The balance sheet takes the period end as its as-of date.
func (s *Service) GenerateAll(ctx context.Context, in GenerateInput) (StatementPack, error) {
	runID := s.runID(in.RunID)
	pack := StatementPack{RunID: runID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.GenerateBalanceSheet(ctx, GenerateInput{AsOf: in.To, RunID: runID})
		pack.BalanceSheet = snap
		return err
	})
	g.Go(func() error {
		snap, err := s.GenerateIncomeStatement(ctx, GenerateInput{From: in.From, To: in.To, RunID: runID})
		pack.IncomeStatement = snap
		return err
	})
	g.Go(func() error {
		snap, err := s.GenerateCashFlow(ctx, GenerateInput{From: in.From, To: in.To, RunID: runID})
		pack.CashFlow = snap
		return err
	})
	if err := g.Wait(); err != nil {
		return StatementPack{}, err
	}
	return pack, nil
}

func (s *Service) cachedFetch(ctx context.Context, kind, runID string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	keyPart := runID
	if keyPart == "" {
		keyPart = "latest"
	}
	key, err := s.cache.BuildKey(ctx, "statements", kind, keyPart)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func (s *Service) bump(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump statement cache", slog.Any("error", err))
	}
}

// runID falls back to a UTC timestamp key when the caller supplies none.
func (s *Service) runID(requested string) string {
	if requested != "" {
		return requested
	}
	return s.now().UTC().Format("20060102-150405")
}
