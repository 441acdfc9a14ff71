package statements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// Repository abstracts snapshot persistence. Saving with an existing run
// id overwrites the prior snapshot; reads with an empty run id return the
// most recently generated one.
type Repository interface {
	SaveBalanceSheet(ctx context.Context, snap BalanceSheetSnapshot) error
	GetBalanceSheet(ctx context.Context, runID string) (BalanceSheetSnapshot, error)
	DeleteBalanceSheet(ctx context.Context, runID string) error

	SaveIncomeStatement(ctx context.Context, snap IncomeStatementSnapshot) error
	GetIncomeStatement(ctx context.Context, runID string) (IncomeStatementSnapshot, error)
	DeleteIncomeStatement(ctx context.Context, runID string) error

	SaveCashFlow(ctx context.Context, snap CashFlowSnapshot) error
	GetCashFlow(ctx context.Context, runID string) (CashFlowSnapshot, error)
	DeleteCashFlow(ctx context.Context, runID string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed snapshot store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const (
	tableBalanceSheets    = "balance_sheets"
	tableIncomeStatements = "income_statements"
	tableCashFlows        = "cash_flows"
)

func (r *repository) SaveBalanceSheet(ctx context.Context, snap BalanceSheetSnapshot) error {
	return r.save(ctx, tableBalanceSheets, snap.RunID, snap.GeneratedAt, snap)
}

func (r *repository) GetBalanceSheet(ctx context.Context, runID string) (BalanceSheetSnapshot, error) {
	var snap BalanceSheetSnapshot
	err := r.get(ctx, tableBalanceSheets, runID, &snap)
	return snap, err
}

func (r *repository) DeleteBalanceSheet(ctx context.Context, runID string) error {
	return r.delete(ctx, tableBalanceSheets, runID)
}

func (r *repository) SaveIncomeStatement(ctx context.Context, snap IncomeStatementSnapshot) error {
	return r.save(ctx, tableIncomeStatements, snap.RunID, snap.GeneratedAt, snap)
}

func (r *repository) GetIncomeStatement(ctx context.Context, runID string) (IncomeStatementSnapshot, error) {
	var snap IncomeStatementSnapshot
	err := r.get(ctx, tableIncomeStatements, runID, &snap)
	return snap, err
}

func (r *repository) DeleteIncomeStatement(ctx context.Context, runID string) error {
	return r.delete(ctx, tableIncomeStatements, runID)
}

func (r *repository) SaveCashFlow(ctx context.Context, snap CashFlowSnapshot) error {
	return r.save(ctx, tableCashFlows, snap.RunID, snap.GeneratedAt, snap)
}

func (r *repository) GetCashFlow(ctx context.Context, runID string) (CashFlowSnapshot, error) {
	var snap CashFlowSnapshot
	err := r.get(ctx, tableCashFlows, runID, &snap)
	return snap, err
}

func (r *repository) DeleteCashFlow(ctx context.Context, runID string) error {
	return r.delete(ctx, tableCashFlows, runID)
}

func (r *repository) save(ctx context.Context, table, runID string, generatedAt interface{}, snap any) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("statements: marshal %s snapshot: %w", table, err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO `+table+` (run_id, generated_at, payload)
VALUES ($1,$2,$3)
ON CONFLICT (run_id) DO UPDATE SET generated_at = EXCLUDED.generated_at, payload = EXCLUDED.payload`,
		runID, generatedAt, payload)
	if err != nil {
		return fmt.Errorf("statements: save %s %s: %w", table, runID, err)
	}
	return nil
}

func (r *repository) get(ctx context.Context, table, runID string, dest any) error {
	var payload []byte
	var err error
	if runID == "" {
		err = r.db.QueryRow(ctx, `SELECT payload FROM `+table+` ORDER BY generated_at DESC, run_id DESC LIMIT 1`).Scan(&payload)
	} else {
		err = r.db.QueryRow(ctx, `SELECT payload FROM `+table+` WHERE run_id=$1`, runID).Scan(&payload)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrSnapshotNotFound
		}
		return fmt.Errorf("statements: get %s %q: %w", table, runID, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("statements: decode %s %q: %w", table, runID, err)
	}
	return nil
}

func (r *repository) delete(ctx context.Context, table, runID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE run_id=$1`, runID)
	if err != nil {
		return fmt.Errorf("statements: delete %s %q: %w", table, runID, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrSnapshotNotFound
	}
	return nil
}
