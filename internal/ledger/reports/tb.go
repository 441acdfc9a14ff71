// Package reports contains the pure statement builders. Every builder is
// a fold over account balances or journal entries supplied by the caller;
// none of them touch storage.
package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// TrialBalanceRow is a single account with its accumulated totals.
type TrialBalanceRow struct {
	AccountID int64                  `json:"accountId"`
	Code      int64                  `json:"code"`
	Name      string                 `json:"name"`
	Category  ledger.AccountCategory `json:"category"`
	Debit     decimal.Decimal        `json:"debit"`
	Credit    decimal.Decimal        `json:"credit"`
}

// TrialBalance is the per-account debit/credit accumulation across the
// journal, ordered by account code.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
}

// BuildTrialBalance assembles trial balance rows from account balances.
// Only accounts touched by at least one journal line appear.
func BuildTrialBalance(balances []ledger.AccountBalance) TrialBalance {
	result := TrialBalance{
		Rows:        make([]TrialBalanceRow, 0, len(balances)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, bal := range balances {
		row := TrialBalanceRow{
			AccountID: bal.Account.ID,
			Code:      bal.Account.Code,
			Name:      bal.Account.Name,
			Category:  bal.Account.Category,
			Debit:     bal.Debit,
			Credit:    bal.Credit,
		}
		result.Rows = append(result.Rows, row)
		result.TotalDebit = result.TotalDebit.Add(row.Debit)
		result.TotalCredit = result.TotalCredit.Add(row.Credit)
	}
	sort.Slice(result.Rows, func(i, j int) bool {
		return result.Rows[i].Code < result.Rows[j].Code
	})
	return result
}
