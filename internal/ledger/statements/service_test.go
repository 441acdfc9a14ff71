package statements

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	"github.com/pharos-erp/pharos-erp/internal/observability"
	_ "github.com/pharos-erp/pharos-erp/testing"
)

type memoryRepo struct {
	balanceSheets    map[string]BalanceSheetSnapshot
	incomeStatements map[string]IncomeStatementSnapshot
	cashFlows        map[string]CashFlowSnapshot
	saveCalls        int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		balanceSheets:    map[string]BalanceSheetSnapshot{},
		incomeStatements: map[string]IncomeStatementSnapshot{},
		cashFlows:        map[string]CashFlowSnapshot{},
	}
}

func (m *memoryRepo) SaveBalanceSheet(ctx context.Context, snap BalanceSheetSnapshot) error {
	m.saveCalls++
	m.balanceSheets[snap.RunID] = snap
	return nil
}

func (m *memoryRepo) GetBalanceSheet(ctx context.Context, runID string) (BalanceSheetSnapshot, error) {
	if runID == "" {
		return m.latestBalanceSheet()
	}
	snap, ok := m.balanceSheets[runID]
	if !ok {
		return BalanceSheetSnapshot{}, ledger.ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *memoryRepo) latestBalanceSheet() (BalanceSheetSnapshot, error) {
	var latest BalanceSheetSnapshot
	found := false
	for _, snap := range m.balanceSheets {
		if !found || snap.GeneratedAt.After(latest.GeneratedAt) {
			latest = snap
			found = true
		}
	}
	if !found {
		return BalanceSheetSnapshot{}, ledger.ErrSnapshotNotFound
	}
	return latest, nil
}

func (m *memoryRepo) DeleteBalanceSheet(ctx context.Context, runID string) error {
	if _, ok := m.balanceSheets[runID]; !ok {
		return ledger.ErrSnapshotNotFound
	}
	delete(m.balanceSheets, runID)
	return nil
}

func (m *memoryRepo) SaveIncomeStatement(ctx context.Context, snap IncomeStatementSnapshot) error {
	m.saveCalls++
	m.incomeStatements[snap.RunID] = snap
	return nil
}

func (m *memoryRepo) GetIncomeStatement(ctx context.Context, runID string) (IncomeStatementSnapshot, error) {
	if runID == "" {
		for _, snap := range m.incomeStatements {
			return snap, nil
		}
		return IncomeStatementSnapshot{}, ledger.ErrSnapshotNotFound
	}
	snap, ok := m.incomeStatements[runID]
	if !ok {
		return IncomeStatementSnapshot{}, ledger.ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *memoryRepo) DeleteIncomeStatement(ctx context.Context, runID string) error {
	if _, ok := m.incomeStatements[runID]; !ok {
		return ledger.ErrSnapshotNotFound
	}
	delete(m.incomeStatements, runID)
	return nil
}

func (m *memoryRepo) SaveCashFlow(ctx context.Context, snap CashFlowSnapshot) error {
	m.saveCalls++
	m.cashFlows[snap.RunID] = snap
	return nil
}

func (m *memoryRepo) GetCashFlow(ctx context.Context, runID string) (CashFlowSnapshot, error) {
	if runID == "" {
		for _, snap := range m.cashFlows {
			return snap, nil
		}
		return CashFlowSnapshot{}, ledger.ErrSnapshotNotFound
	}
	snap, ok := m.cashFlows[runID]
	if !ok {
		return CashFlowSnapshot{}, ledger.ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *memoryRepo) DeleteCashFlow(ctx context.Context, runID string) error {
	if _, ok := m.cashFlows[runID]; !ok {
		return ledger.ErrSnapshotNotFound
	}
	delete(m.cashFlows, runID)
	return nil
}

type fakeJournal struct {
	balances []ledger.AccountBalance
	entries  []ledger.JournalEntry
	accounts []ledger.Account
}

func (f *fakeJournal) AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error) {
	return f.balances, nil
}

func (f *fakeJournal) EntriesBetween(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error) {
	return f.entries, nil
}

func (f *fakeJournal) List(ctx context.Context) ([]ledger.Account, error) {
	return f.accounts, nil
}

func testAccount(id, code int64, name string, category ledger.AccountCategory) ledger.Account {
	return ledger.Account{ID: id, Code: code, Name: name, Category: category}
}

func testBalance(account ledger.Account, debit, credit string) ledger.AccountBalance {
	return ledger.AccountBalance{
		Account: account,
		Debit:   decimal.RequireFromString(debit),
		Credit:  decimal.RequireFromString(credit),
	}
}

func newStatementsService(t *testing.T, journal *fakeJournal, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(slog.Default(), repo, journal, journal, journal, cache, observability.NewMetrics())
	return svc
}

func TestGenerateBalanceSheetPersistsSnapshot(t *testing.T) {
	cash := testAccount(1, 1000, "Cash", ledger.CategoryAsset)
	loans := testAccount(2, 2100, "Loans Payable", ledger.CategoryLiability)
	capital := testAccount(3, 3000, "Owner Capital", ledger.CategoryEquity)
	journal := &fakeJournal{balances: []ledger.AccountBalance{
		testBalance(cash, "800", "0"),
		testBalance(loans, "0", "300"),
		testBalance(capital, "0", "500"),
	}}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)

	snap, err := svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "2025-12"})
	require.NoError(t, err)
	assert.Equal(t, "2025-12", snap.RunID)
	assert.True(t, snap.Report.Assets.Total.Equal(decimal.RequireFromString("800")))

	stored, err := svc.GetBalanceSheet(context.Background(), "2025-12")
	require.NoError(t, err)
	assert.True(t, stored.Report.Equity.Total.Equal(decimal.RequireFromString("500")))

	check, err := svc.CheckBalanceSheet(context.Background(), "2025-12")
	require.NoError(t, err)
	assert.True(t, check.Balanced)
	assert.Empty(t, check.Detail)
}

func TestGenerateBalanceSheetSameRunOverwrites(t *testing.T) {
	cash := testAccount(1, 1000, "Cash", ledger.CategoryAsset)
	journal := &fakeJournal{balances: []ledger.AccountBalance{testBalance(cash, "100", "0")}}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)

	_, err := svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "run-1"})
	require.NoError(t, err)

	journal.balances = []ledger.AccountBalance{testBalance(cash, "250", "0")}
	_, err = svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "run-1"})
	require.NoError(t, err)

	require.Len(t, repo.balanceSheets, 1)
	stored, err := svc.GetBalanceSheet(context.Background(), "run-1")
	require.NoError(t, err)
	assert.True(t, stored.Report.Assets.Total.Equal(decimal.RequireFromString("250")),
		"regeneration under the same run id must replace the snapshot, got %s", stored.Report.Assets.Total)
}

func TestGetLatestAfterRegenerationBypassesStaleCache(t *testing.T) {
	cash := testAccount(1, 1000, "Cash", ledger.CategoryAsset)
	journal := &fakeJournal{balances: []ledger.AccountBalance{testBalance(cash, "100", "0")}}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)

	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.WithNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	_, err := svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "run-1"})
	require.NoError(t, err)

	first, err := svc.GetBalanceSheet(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "run-1", first.RunID)

	journal.balances = []ledger.AccountBalance{testBalance(cash, "999", "0")}
	_, err = svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "run-2"})
	require.NoError(t, err)

	latest, err := svc.GetBalanceSheet(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestDeleteBalanceSheet(t *testing.T) {
	cash := testAccount(1, 1000, "Cash", ledger.CategoryAsset)
	journal := &fakeJournal{balances: []ledger.AccountBalance{testBalance(cash, "100", "0")}}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)

	_, err := svc.GenerateBalanceSheet(context.Background(), GenerateInput{RunID: "run-1"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBalanceSheet(context.Background(), "run-1"))

	_, err = svc.GetBalanceSheet(context.Background(), "run-1")
	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)

	err = svc.DeleteBalanceSheet(context.Background(), "run-1")
	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)
}

func TestGenerateAllSharesRunID(t *testing.T) {
	cash := testAccount(1, 1000, "Cash", ledger.CategoryAsset)
	sales := testAccount(2, 4000, "Sales", ledger.CategoryRevenue)
	journal := &fakeJournal{
		balances: []ledger.AccountBalance{
			testBalance(cash, "250", "0"),
			testBalance(sales, "0", "250"),
		},
		accounts: []ledger.Account{cash, sales},
		entries: []ledger.JournalEntry{{
			ID:          1,
			Date:        time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
			Description: "Cash sale",
			Lines: []ledger.JournalLine{
				{ID: 1, EntryID: 1, AccountID: cash.ID, Side: ledger.SideDebit, Amount: decimal.RequireFromString("250")},
				{ID: 2, EntryID: 1, AccountID: sales.ID, Side: ledger.SideCredit, Amount: decimal.RequireFromString("250")},
			},
		}},
	}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)

	pack, err := svc.GenerateAll(context.Background(), GenerateInput{RunID: "close-2025-12"})
	require.NoError(t, err)
	assert.Equal(t, "close-2025-12", pack.BalanceSheet.RunID)
	assert.Equal(t, "close-2025-12", pack.IncomeStatement.RunID)
	assert.Equal(t, "close-2025-12", pack.CashFlow.RunID)
	assert.True(t, pack.IncomeStatement.Report.NetIncome.Equal(decimal.RequireFromString("250")))
	assert.True(t, pack.CashFlow.Report.Operating.Equal(decimal.RequireFromString("250")))
	assert.Equal(t, 3, repo.saveCalls)
}

func TestRunIDDefaultsToTimestamp(t *testing.T) {
	journal := &fakeJournal{}
	repo := newMemoryRepo()
	svc := newStatementsService(t, journal, repo)
	svc.WithNow(func() time.Time {
		return time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)
	})

	snap, err := svc.GenerateBalanceSheet(context.Background(), GenerateInput{})
	require.NoError(t, err)
	assert.Equal(t, "20251231-235958", snap.RunID)
}

func TestGetMissingSnapshot(t *testing.T) {
	svc := newStatementsService(t, &fakeJournal{}, newMemoryRepo())

	_, err := svc.GetIncomeStatement(context.Background(), "nope")
	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)

	_, err = svc.GetCashFlow(context.Background(), "nope")
	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)
}
