package reports

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// BalanceSheetAccount summarises an account inside a section.
type BalanceSheetAccount struct {
	Code   int64           `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheetSection groups accounts under one classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    decimal.Decimal       `json:"total"`
}

// BalanceSheet is the structured balance sheet report.
type BalanceSheet struct {
	Assets      BalanceSheetSection `json:"assets"`
	Liabilities BalanceSheetSection `json:"liabilities"`
	Equity      BalanceSheetSection `json:"equity"`
}

// BuildBalanceSheet classifies non-zero account nets into assets,
// liabilities, and equity. Balances are stored debit-minus-credit, so
// credit-normal sections flip sign for presentation. Accounts with an
// unrecognised category fall back to the sign of their net: debit-heavy
// nets read as assets, credit-heavy as liabilities.
func BuildBalanceSheet(balances []ledger.AccountBalance) BalanceSheet {
	assets := newSection("Assets")
	liabilities := newSection("Liabilities")
	equity := newSection("Equity")

	for _, bal := range balances {
		net := bal.Net()
		if net.IsZero() {
			continue
		}
		switch bal.Account.Category {
		case ledger.CategoryAsset:
			appendRow(&assets, bal.Account, net)
		case ledger.CategoryLiability:
			appendRow(&liabilities, bal.Account, net.Neg())
		case ledger.CategoryEquity:
			appendRow(&equity, bal.Account, net.Neg())
		case ledger.CategoryRevenue, ledger.CategoryExpense:
			// income statement accounts never appear on the balance sheet
		default:
			if net.IsNegative() {
				appendRow(&liabilities, bal.Account, net.Neg())
			} else {
				appendRow(&assets, bal.Account, net)
			}
		}
	}

	sortSection(&assets)
	sortSection(&liabilities)
	sortSection(&equity)

	return BalanceSheet{Assets: assets, Liabilities: liabilities, Equity: equity}
}

// CheckEquation verifies assets == liabilities + equity. The builder never
// runs this itself; callers invoke it when they want the invariant
// asserted rather than presented.
func (b BalanceSheet) CheckEquation() error {
	sum := b.Liabilities.Total.Add(b.Equity.Total)
	if !b.Assets.Total.Equal(sum) {
		return fmt.Errorf("ledger: balance sheet out of balance: assets %s, liabilities+equity %s",
			b.Assets.Total.String(), sum.String())
	}
	return nil
}

func newSection(label string) BalanceSheetSection {
	return BalanceSheetSection{Label: label, Accounts: []BalanceSheetAccount{}, Total: decimal.Zero}
}

func appendRow(section *BalanceSheetSection, account ledger.Account, amount decimal.Decimal) {
	section.Accounts = append(section.Accounts, BalanceSheetAccount{
		Code:   account.Code,
		Name:   account.Name,
		Amount: amount,
	})
	section.Total = section.Total.Add(amount)
}

func sortSection(section *BalanceSheetSection) {
	sort.Slice(section.Accounts, func(i, j int) bool {
		return section.Accounts[i].Code < section.Accounts[j].Code
	})
}
