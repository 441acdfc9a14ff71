// Package statements persists and serves financial statement snapshots.
// Snapshots are derived data keyed by run id and always reproducible from
// the account registry plus the journal store.
package statements

import (
	"time"

	"github.com/pharos-erp/pharos-erp/internal/ledger/reports"
)

// Statement kind labels used in routes, cache keys, and metrics.
const (
	KindBalanceSheet    = "balance-sheet"
	KindIncomeStatement = "income-statement"
	KindCashFlow        = "cash-flow"
)

// BalanceSheetSnapshot is a persisted point-in-time balance sheet.
type BalanceSheetSnapshot struct {
	RunID       string               `json:"runId"`
	AsOf        *time.Time           `json:"asOf,omitempty"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Report      reports.BalanceSheet `json:"report"`
}

// IncomeStatementSnapshot is a persisted income statement for a period.
type IncomeStatementSnapshot struct {
	RunID       string                  `json:"runId"`
	From        *time.Time              `json:"from,omitempty"`
	To          *time.Time              `json:"to,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Report      reports.IncomeStatement `json:"report"`
}

// CashFlowSnapshot is a persisted cash flow statement for a period.
type CashFlowSnapshot struct {
	RunID       string           `json:"runId"`
	From        *time.Time       `json:"from,omitempty"`
	To          *time.Time       `json:"to,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Report      reports.CashFlow `json:"report"`
}

// StatementPack bundles the three statements generated under one run id.
type StatementPack struct {
	RunID           string                  `json:"runId"`
	BalanceSheet    BalanceSheetSnapshot    `json:"balanceSheet"`
	IncomeStatement IncomeStatementSnapshot `json:"incomeStatement"`
	CashFlow        CashFlowSnapshot        `json:"cashFlow"`
}

// EquationCheck reports the explicit accounting-equation validation for a
// stored balance sheet.
type EquationCheck struct {
	RunID    string `json:"runId"`
	Balanced bool   `json:"balanced"`
	Detail   string `json:"detail,omitempty"`
}
