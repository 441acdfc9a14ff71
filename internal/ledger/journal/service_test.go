package journal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	_ "github.com/pharos-erp/pharos-erp/testing"
)

type fakeRepo struct {
	entries    []ledger.JournalEntry
	nextID     int64
	insertErr  error
	duplicates map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{duplicates: map[string]bool{}}
}

func (f *fakeRepo) Insert(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error) {
	if f.insertErr != nil {
		return ledger.JournalEntry{}, f.insertErr
	}
	if in.SourceType != "" && in.Reference != "" {
		key := in.SourceType + "|" + in.SourceID.String() + "|" + in.Reference
		if f.duplicates[key] {
			return ledger.JournalEntry{}, ledger.ErrDuplicatePosting
		}
		f.duplicates[key] = true
	}
	f.nextID++
	entry := ledger.JournalEntry{
		ID:          f.nextID,
		Date:        in.Date,
		Description: in.Description,
		SourceType:  in.SourceType,
		SourceID:    in.SourceID,
		Reference:   in.Reference,
	}
	for _, line := range in.Lines {
		entry.Lines = append(entry.Lines, ledger.JournalLine{
			EntryID:   entry.ID,
			AccountID: line.AccountID,
			Side:      line.Side,
			Amount:    line.Amount,
		})
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]ledger.JournalEntry, error) {
	return f.entries, nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id int64) error {
	for idx, entry := range f.entries {
		if entry.ID == id {
			f.entries = append(f.entries[:idx], f.entries[idx+1:]...)
			return nil
		}
	}
	return ledger.ErrEntryNotFound
}

func (f *fakeRepo) DeleteBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (int64, error) {
	var kept []ledger.JournalEntry
	var removed int64
	for _, entry := range f.entries {
		if entry.SourceType == sourceType && entry.SourceID == sourceID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	f.entries = kept
	return removed, nil
}

func (f *fakeRepo) AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error) {
	return nil, nil
}

func (f *fakeRepo) EntriesBetween(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error) {
	return f.entries, nil
}

type countingBumper struct {
	calls int
}

func (c *countingBumper) Bump(ctx context.Context) error {
	c.calls++
	return nil
}

func balancedInput() ledger.PostingInput {
	return ledger.PostingInput{
		Date:        time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Lines: []ledger.PostingLineInput{
			{AccountID: 1, Side: ledger.SideDebit, Amount: decimal.RequireFromString("250")},
			{AccountID: 2, Side: ledger.SideCredit, Amount: decimal.RequireFromString("250")},
		},
	}
}

func TestAppendPersistsBalancedEntry(t *testing.T) {
	repo := newFakeRepo()
	bumper := &countingBumper{}
	svc := NewService(slog.Default(), repo, bumper)

	entry, err := svc.Append(context.Background(), balancedInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ID)
	assert.Len(t, entry.Lines, 2)
	assert.Equal(t, 1, bumper.calls, "journal writes must invalidate the statement cache")
}

func TestAppendRejectsUnbalancedEntry(t *testing.T) {
	repo := newFakeRepo()
	bumper := &countingBumper{}
	svc := NewService(slog.Default(), repo, bumper)

	in := balancedInput()
	in.Lines[1].Amount = decimal.RequireFromString("249.99")
	_, err := svc.Append(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrUnbalanced)
	assert.Empty(t, repo.entries, "nothing may be written when validation fails")
	assert.Zero(t, bumper.calls)
}

func TestAppendRejectsSingleLine(t *testing.T) {
	svc := NewService(slog.Default(), newFakeRepo(), nil)

	in := balancedInput()
	in.Lines = in.Lines[:1]
	_, err := svc.Append(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrTooFewLines)
}

func TestAppendRejectsNegativeAmount(t *testing.T) {
	repo := newFakeRepo()
	bumper := &countingBumper{}
	svc := NewService(slog.Default(), repo, bumper)

	in := balancedInput()
	in.Lines[0].Amount = decimal.RequireFromString("-5")
	in.Lines[1].Amount = decimal.RequireFromString("-5")
	_, err := svc.Append(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrInvalidPosting)
	assert.Contains(t, err.Error(), "negative amount")
	assert.Empty(t, repo.entries)
	assert.Zero(t, bumper.calls)
}

func TestAppendRejectsMissingDate(t *testing.T) {
	svc := NewService(slog.Default(), newFakeRepo(), nil)

	in := balancedInput()
	in.Date = time.Time{}
	_, err := svc.Append(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrInvalidPosting)
}

func TestAppendAcceptsZeroAmountLine(t *testing.T) {
	svc := NewService(slog.Default(), newFakeRepo(), nil)

	in := balancedInput()
	in.Lines = append(in.Lines, ledger.PostingLineInput{
		AccountID: 3, Side: ledger.SideDebit, Amount: decimal.Zero,
	})
	_, err := svc.Append(context.Background(), in)
	assert.NoError(t, err, "zero-amount lines do not disturb the balance")
}

func TestAppendDuplicateSourceReference(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(slog.Default(), repo, nil)

	in := balancedInput()
	in.SourceType = "fixed_asset"
	in.SourceID = uuid.New()
	in.Reference = "2025-12"

	_, err := svc.Append(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Append(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrDuplicatePosting)
	assert.Len(t, repo.entries, 1)
}

func TestDeleteBySource(t *testing.T) {
	repo := newFakeRepo()
	bumper := &countingBumper{}
	svc := NewService(slog.Default(), repo, bumper)

	sourceID := uuid.New()
	in := balancedInput()
	in.SourceType = "purchase_order"
	in.SourceID = sourceID
	_, err := svc.Append(context.Background(), in)
	require.NoError(t, err)

	other := balancedInput()
	_, err = svc.Append(context.Background(), other)
	require.NoError(t, err)

	removed, err := svc.DeleteBySource(context.Background(), "purchase_order", sourceID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Len(t, repo.entries, 1)

	bumpsBefore := bumper.calls
	removed, err = svc.DeleteBySource(context.Background(), "purchase_order", sourceID)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, bumpsBefore, bumper.calls, "no-op deletes must not invalidate the cache")
}

func TestDeleteMissingEntry(t *testing.T) {
	svc := NewService(slog.Default(), newFakeRepo(), nil)
	err := svc.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}
