// Package journal owns the append-mostly journal entry store.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	"github.com/pharos-erp/pharos-erp/internal/platform/db"
)

// Repository abstracts journal persistence.
type Repository interface {
	Insert(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error)
	List(ctx context.Context) ([]ledger.JournalEntry, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (int64, error)
	AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error)
	EntriesBetween(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed journal store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Insert persists the entry and its lines atomically. The partial unique
// index on (source_type, source_id, reference) turns the read-then-write
// idempotency check into a single conditional insert.
func (r *repository) Insert(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error) {
	entry := ledger.JournalEntry{
		Date:        in.Date,
		Description: in.Description,
		SourceType:  in.SourceType,
		SourceID:    in.SourceID,
		Reference:   in.Reference,
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO journal_entries (date, description, source_type, source_id, reference)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
			in.Date, in.Description, in.SourceType, nullUUID(in.SourceID), in.Reference)
		if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return mapPgError(err, "journal: insert entry")
		}

		entry.Lines = make([]ledger.JournalLine, 0, len(in.Lines))
		for _, line := range in.Lines {
			stored := ledger.JournalLine{
				EntryID:   entry.ID,
				AccountID: line.AccountID,
				Side:      line.Side,
				Amount:    line.Amount.Round(2),
			}
			row := tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, side, amount)
VALUES ($1,$2,$3,$4) RETURNING id`, stored.EntryID, stored.AccountID, stored.Side, stored.Amount)
			if err := row.Scan(&stored.ID); err != nil {
				return mapPgError(err, "journal: insert line")
			}
			entry.Lines = append(entry.Lines, stored)
		}
		return nil
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// List returns all entries with lines in reverse-chronological order.
func (r *repository) List(ctx context.Context) ([]ledger.JournalEntry, error) {
	return r.queryEntries(ctx, `SELECT id, date, description, source_type, source_id, reference, created_at, updated_at
FROM journal_entries ORDER BY date DESC, id DESC`)
}

// EntriesBetween returns entries dated within the inclusive period, oldest
// first, for per-entry scans such as the cash flow generator.
func (r *repository) EntriesBetween(ctx context.Context, from, to *time.Time) ([]ledger.JournalEntry, error) {
	return r.queryEntries(ctx, `SELECT id, date, description, source_type, source_id, reference, created_at, updated_at
FROM journal_entries
WHERE ($1::date IS NULL OR date >= $1) AND ($2::date IS NULL OR date <= $2)
ORDER BY date, id`, from, to)
}

func (r *repository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("journal: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

// DeleteBySource removes every entry created by the given business object,
// used to cascade when that object is deleted.
func (r *repository) DeleteBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM journal_entries WHERE source_type=$1 AND source_id=$2`, sourceType, sourceID)
	if err != nil {
		return 0, fmt.Errorf("journal: delete by source %s/%s: %w", sourceType, sourceID, err)
	}
	return tag.RowsAffected(), nil
}

// AccountBalances folds journal lines into per-account debit and credit
// totals, optionally bounded to entries dated within [from, to]. Only
// accounts touched by at least one line are returned.
func (r *repository) AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.category, a.sub_category, a.statement, a.is_cash, a.activity, a.created_at, a.updated_at,
COALESCE(SUM(l.amount) FILTER (WHERE l.side='DEBIT'), 0) AS debit,
COALESCE(SUM(l.amount) FILTER (WHERE l.side='CREDIT'), 0) AS credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE ($1::date IS NULL OR e.date >= $1) AND ($2::date IS NULL OR e.date <= $2)
GROUP BY a.id
ORDER BY a.code`, from, to)
	if err != nil {
		return nil, fmt.Errorf("journal: account balances: %w", err)
	}
	defer rows.Close()

	var balances []ledger.AccountBalance
	for rows.Next() {
		var b ledger.AccountBalance
		if err := rows.Scan(&b.Account.ID, &b.Account.Code, &b.Account.Name, &b.Account.Category,
			&b.Account.SubCategory, &b.Account.Statement, &b.Account.IsCash, &b.Account.Activity,
			&b.Account.CreatedAt, &b.Account.UpdatedAt, &b.Debit, &b.Credit); err != nil {
			return nil, fmt.Errorf("journal: scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) queryEntries(ctx context.Context, query string, args ...any) ([]ledger.JournalEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		var e ledger.JournalEntry
		var sourceID *uuid.UUID
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.SourceType, &sourceID,
			&e.Reference, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		if sourceID != nil {
			e.SourceID = *sourceID
		}
		index[e.ID] = len(entries)
		ids = append(ids, e.ID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	lineRows, err := r.db.Query(ctx, `SELECT id, entry_id, account_id, side, amount
FROM journal_lines WHERE entry_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("journal: query lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var l ledger.JournalLine
		if err := lineRows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Side, &l.Amount); err != nil {
			return nil, fmt.Errorf("journal: scan line: %w", err)
		}
		if pos, ok := index[l.EntryID]; ok {
			entries[pos].Lines = append(entries[pos].Lines, l)
		}
	}
	return entries, lineRows.Err()
}

func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ledger.ErrDuplicatePosting
		case pgForeignKeyViolation:
			return ledger.ErrAccountNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
