package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// CashMovement records one cash leg together with its classification.
type CashMovement struct {
	EntryID            int64                 `json:"entryId"`
	Date               time.Time             `json:"date"`
	Description        string                `json:"description"`
	CashAccountCode    int64                 `json:"cashAccountCode"`
	CashAccountName    string                `json:"cashAccountName"`
	CounterAccountCode int64                 `json:"counterAccountCode"`
	CounterAccountName string                `json:"counterAccountName"`
	Bucket             ledger.ActivityBucket `json:"bucket"`
	// Amount is signed: positive for inflow, negative for outflow.
	Amount decimal.Decimal `json:"amount"`
}

// CashFlow is the structured cash flow report.
type CashFlow struct {
	Operating   decimal.Decimal `json:"operating"`
	Investing   decimal.Decimal `json:"investing"`
	Financing   decimal.Decimal `json:"financing"`
	NetIncrease decimal.Decimal `json:"netIncrease"`
	Movements   []CashMovement  `json:"movements"`
}

// IsCashAccount reports whether the account participates in the cash flow
// statement. The explicit flag wins; name and sub-category substring
// matching remains as a fallback for unmigrated charts. The fallback only
// applies to asset accounts: a liability named "Bank Loans Payable" owes a
// bank, it is not money in one.
func IsCashAccount(account ledger.Account) bool {
	if account.IsCash {
		return true
	}
	if account.Category != ledger.CategoryAsset {
		return false
	}
	name := strings.ToLower(account.Name)
	sub := strings.ToLower(account.SubCategory)
	for _, needle := range []string{"cash", "bank"} {
		if strings.Contains(name, needle) || strings.Contains(sub, needle) {
			return true
		}
	}
	return false
}

// BucketFor resolves the activity bucket of a counterpart account. An
// explicit Activity value wins; otherwise the category table applies,
// defaulting unknowns to operating.
func BucketFor(account ledger.Account) ledger.ActivityBucket {
	if account.Activity != "" {
		return account.Activity
	}
	switch account.Category {
	case ledger.CategoryRevenue, ledger.CategoryExpense:
		return ledger.ActivityOperating
	case ledger.CategoryAsset:
		return ledger.ActivityInvesting
	case ledger.CategoryLiability, ledger.CategoryEquity:
		return ledger.ActivityFinancing
	default:
		return ledger.ActivityOperating
	}
}

// BuildCashFlow walks journal entries and classifies every line touching a
// cash account. Direction follows the cash leg: a debit on cash is an
// inflow, a credit an outflow. The counterpart is the first non-cash line
// of the entry; multi-leg entries are not decomposed further, so an entry
// with several non-cash legs is attributed to its first one.
func BuildCashFlow(accounts map[int64]ledger.Account, entries []ledger.JournalEntry) CashFlow {
	result := CashFlow{
		Operating: decimal.Zero,
		Investing: decimal.Zero,
		Financing: decimal.Zero,
		Movements: []CashMovement{},
	}

	for _, entry := range entries {
		for _, line := range entry.Lines {
			account, ok := accounts[line.AccountID]
			if !ok || !IsCashAccount(account) {
				continue
			}
			amount := line.Amount
			if line.Side == ledger.SideCredit {
				amount = amount.Neg()
			}
			counterpart, found := findCounterpart(accounts, entry, line)
			bucket := ledger.ActivityOperating
			if found {
				bucket = BucketFor(counterpart)
			}
			movement := CashMovement{
				EntryID:         entry.ID,
				Date:            entry.Date,
				Description:     entry.Description,
				CashAccountCode: account.Code,
				CashAccountName: account.Name,
				Bucket:          bucket,
				Amount:          amount,
			}
			if found {
				movement.CounterAccountCode = counterpart.Code
				movement.CounterAccountName = counterpart.Name
			}
			result.Movements = append(result.Movements, movement)
			switch bucket {
			case ledger.ActivityInvesting:
				result.Investing = result.Investing.Add(amount)
			case ledger.ActivityFinancing:
				result.Financing = result.Financing.Add(amount)
			default:
				result.Operating = result.Operating.Add(amount)
			}
		}
	}

	result.NetIncrease = result.Operating.Add(result.Investing).Add(result.Financing)
	return result
}

// findCounterpart picks the first non-cash line of the entry, falling back
// to the first line on a different account when the whole entry is
// cash-to-cash.
func findCounterpart(accounts map[int64]ledger.Account, entry ledger.JournalEntry, cashLine ledger.JournalLine) (ledger.Account, bool) {
	var fallback *ledger.Account
	for _, line := range entry.Lines {
		if line.AccountID == cashLine.AccountID && line.Side == cashLine.Side {
			continue
		}
		account, ok := accounts[line.AccountID]
		if !ok {
			continue
		}
		if !IsCashAccount(account) {
			return account, true
		}
		if fallback == nil && line.AccountID != cashLine.AccountID {
			copied := account
			fallback = &copied
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ledger.Account{}, false
}
