package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// IncomeStatementAccount summarises a revenue or expense account.
type IncomeStatementAccount struct {
	Code   int64           `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string                   `json:"label"`
	Accounts []IncomeStatementAccount `json:"accounts"`
	Total    decimal.Decimal          `json:"total"`
}

// IncomeStatement is the structured profit and loss report.
type IncomeStatement struct {
	Revenue   IncomeStatementSection `json:"revenue"`
	Expense   IncomeStatementSection `json:"expense"`
	NetIncome decimal.Decimal        `json:"netIncome"`
}

// BuildIncomeStatement aggregates period balances into revenue and expense
// sections. Credits grow revenue and debits shrink it (refunds); debits
// grow expense and credits shrink it (reversals).
func BuildIncomeStatement(balances []ledger.AccountBalance) IncomeStatement {
	revenue := IncomeStatementSection{Label: "Revenue", Accounts: []IncomeStatementAccount{}, Total: decimal.Zero}
	expense := IncomeStatementSection{Label: "Expense", Accounts: []IncomeStatementAccount{}, Total: decimal.Zero}

	for _, bal := range balances {
		switch bal.Account.Category {
		case ledger.CategoryRevenue:
			amount := bal.Credit.Sub(bal.Debit)
			revenue.Accounts = append(revenue.Accounts, IncomeStatementAccount{
				Code: bal.Account.Code, Name: bal.Account.Name, Amount: amount,
			})
			revenue.Total = revenue.Total.Add(amount)
		case ledger.CategoryExpense:
			amount := bal.Debit.Sub(bal.Credit)
			expense.Accounts = append(expense.Accounts, IncomeStatementAccount{
				Code: bal.Account.Code, Name: bal.Account.Name, Amount: amount,
			})
			expense.Total = expense.Total.Add(amount)
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	return IncomeStatement{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total.Sub(expense.Total),
	}
}
