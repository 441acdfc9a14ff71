// Package accounts owns the chart of accounts registry.
package accounts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// Repository abstracts chart of accounts persistence.
type Repository interface {
	List(ctx context.Context) ([]ledger.Account, error)
	ResetAndSeed(ctx context.Context, accounts []ledger.Account) ([]ledger.Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed registry.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, category, sub_category, statement, is_cash, activity, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// ResetAndSeed replaces the registry wholesale. The truncate cascades into
// journal lines, so seeding is only safe on a fresh or disposable ledger.
func (r *repository) ResetAndSeed(ctx context.Context, accounts []ledger.Account) ([]ledger.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("accounts: begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE accounts RESTART IDENTITY CASCADE`); err != nil {
		return nil, fmt.Errorf("accounts: reset: %w", err)
	}
	seeded := make([]ledger.Account, 0, len(accounts))
	for _, account := range accounts {
		row := tx.QueryRow(ctx, `INSERT INTO accounts (code, name, category, sub_category, statement, is_cash, activity)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+accountColumns,
			account.Code, account.Name, account.Category, account.SubCategory,
			account.Statement, account.IsCash, account.Activity)
		stored, err := scanAccount(row)
		if err != nil {
			return nil, fmt.Errorf("accounts: seed %d: %w", account.Code, err)
		}
		seeded = append(seeded, stored)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("accounts: commit seed: %w", err)
	}
	return seeded, nil
}

func scanAccounts(rows pgx.Rows) ([]ledger.Account, error) {
	var accounts []ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Category, &a.SubCategory,
		&a.Statement, &a.IsCash, &a.Activity, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
