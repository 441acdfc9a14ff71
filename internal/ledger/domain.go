// Package ledger holds the double-entry domain model shared by the
// account registry, journal store, and statement generators.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountCategory enumerates CoA categories.
type AccountCategory string

const (
	CategoryAsset     AccountCategory = "ASSET"
	CategoryLiability AccountCategory = "LIABILITY"
	CategoryEquity    AccountCategory = "EQUITY"
	CategoryRevenue   AccountCategory = "REVENUE"
	CategoryExpense   AccountCategory = "EXPENSE"
)

// StatementKind names the financial statement an account reports into.
type StatementKind string

const (
	StatementBalanceSheet    StatementKind = "BALANCE_SHEET"
	StatementIncomeStatement StatementKind = "INCOME_STATEMENT"
)

// ActivityBucket classifies cash movements for the cash flow statement.
type ActivityBucket string

const (
	ActivityOperating ActivityBucket = "OPERATING"
	ActivityInvesting ActivityBucket = "INVESTING"
	ActivityFinancing ActivityBucket = "FINANCING"
)

// LineSide marks a journal line as debit or credit.
type LineSide string

const (
	SideDebit  LineSide = "DEBIT"
	SideCredit LineSide = "CREDIT"
)

// Account models a chart of accounts node. Accounts are created at seed
// time and never updated individually; the registry is replaced wholesale
// via bulk reset.
type Account struct {
	ID          int64
	Code        int64
	Name        string
	Category    AccountCategory
	SubCategory string
	Statement   StatementKind
	// IsCash marks the account as cash-like for the cash flow statement.
	// Accounts without the flag fall back to name matching.
	IsCash bool
	// Activity optionally pins the cash flow bucket for movements whose
	// counterpart is this account. Empty means infer from Category.
	Activity  ActivityBucket
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalEntry captures one balanced financial event.
type JournalEntry struct {
	ID          int64
	Date        time.Time
	Description string
	SourceType  string
	SourceID    uuid.UUID
	Reference   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a single debit or credit against an account.
type JournalLine struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Side      LineSide
	Amount    decimal.Decimal
}

// AccountBalance carries accumulated debit and credit totals for an
// account, the shared primitive behind every statement.
type AccountBalance struct {
	Account Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Net returns debit minus credit.
func (b AccountBalance) Net() decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

// PostingLineInput describes a journal line in an append request.
type PostingLineInput struct {
	AccountID int64
	Side      LineSide
	Amount    decimal.Decimal
}

// PostingInput groups the fields required to append a journal entry.
type PostingInput struct {
	Date        time.Time
	Description string
	SourceType  string
	SourceID    uuid.UUID
	Reference   string
	Lines       []PostingLineInput
}

var (
	// ErrInvalidPosting wraps per-field posting faults such as a missing
	// date, a line without an account, or a negative amount.
	ErrInvalidPosting = errors.New("ledger: invalid posting")
	// ErrUnbalanced indicates debit total != credit total.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrAccountNotFound indicates a line references an unknown account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrSnapshotNotFound indicates a missing statement snapshot.
	ErrSnapshotNotFound = errors.New("ledger: snapshot not found")
	// ErrDuplicatePosting indicates the (source, reference) key already exists.
	ErrDuplicatePosting = errors.New("ledger: posting already recorded for source and reference")
	// ErrMissingDepreciationAccounts indicates the named depreciation
	// accounts are absent from the chart of accounts.
	ErrMissingDepreciationAccounts = errors.New("ledger: depreciation accounts not configured")
)

// Validate ensures the posting meets the journal invariants. Amounts are
// compared on their cent-rounded values, never with floating point.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: entry date required", ErrInvalidPosting)
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("%w: line %d missing account", ErrInvalidPosting, idx)
		}
		if line.Amount.IsNegative() {
			return fmt.Errorf("%w: line %d negative amount", ErrInvalidPosting, idx)
		}
		switch line.Side {
		case SideDebit:
			debit = debit.Add(line.Amount.Round(2))
		case SideCredit:
			credit = credit.Add(line.Amount.Round(2))
		default:
			return fmt.Errorf("%w: line %d invalid side %q", ErrInvalidPosting, idx, line.Side)
		}
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return nil
}

// TotalDebit sums the cent-rounded debit amounts.
func (in PostingInput) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range in.Lines {
		if line.Side == SideDebit {
			total = total.Add(line.Amount.Round(2))
		}
	}
	return total
}
