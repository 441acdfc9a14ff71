package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
	_ "github.com/pharos-erp/pharos-erp/testing"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func account(id, code int64, name string, category ledger.AccountCategory) ledger.Account {
	return ledger.Account{ID: id, Code: code, Name: name, Category: category}
}

func TestBuildTrialBalance(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(2, 4000, "Sales", ledger.CategoryRevenue), Debit: dec("0"), Credit: dec("250")},
		{Account: account(1, 1000, "Cash", ledger.CategoryAsset), Debit: dec("250"), Credit: dec("0")},
	}

	tb := BuildTrialBalance(balances)
	if len(tb.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tb.Rows))
	}
	if tb.Rows[0].Code != 1000 {
		t.Fatalf("expected rows sorted by code, first was %d", tb.Rows[0].Code)
	}
	if !tb.Rows[0].Debit.Equal(dec("250")) || !tb.Rows[0].Credit.IsZero() {
		t.Fatalf("unexpected cash totals: debit %s credit %s", tb.Rows[0].Debit, tb.Rows[0].Credit)
	}
	if !tb.Rows[1].Debit.IsZero() || !tb.Rows[1].Credit.Equal(dec("250")) {
		t.Fatalf("unexpected sales totals: debit %s credit %s", tb.Rows[1].Debit, tb.Rows[1].Credit)
	}
	if !tb.TotalDebit.Equal(tb.TotalCredit) {
		t.Fatalf("trial balance out of balance: %s vs %s", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestBuildBalanceSheet(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(1, 1000, "Cash", ledger.CategoryAsset), Debit: dec("900"), Credit: dec("100")},
		{Account: account(2, 2000, "Accounts Payable", ledger.CategoryLiability), Debit: dec("0"), Credit: dec("300")},
		{Account: account(3, 3000, "Owner Capital", ledger.CategoryEquity), Debit: dec("0"), Credit: dec("500")},
		{Account: account(4, 1500, "Equipment", ledger.CategoryAsset), Debit: dec("0"), Credit: dec("0")},
	}

	bs := BuildBalanceSheet(balances)
	if !bs.Assets.Total.Equal(dec("800")) {
		t.Fatalf("expected assets 800, got %s", bs.Assets.Total)
	}
	if !bs.Liabilities.Total.Equal(dec("300")) {
		t.Fatalf("expected liabilities 300, got %s", bs.Liabilities.Total)
	}
	if !bs.Equity.Total.Equal(dec("500")) {
		t.Fatalf("expected equity 500, got %s", bs.Equity.Total)
	}
	if len(bs.Assets.Accounts) != 1 {
		t.Fatalf("zero-net accounts must be skipped, got %d asset rows", len(bs.Assets.Accounts))
	}
	if err := bs.CheckEquation(); err != nil {
		t.Fatalf("equation check failed: %v", err)
	}
}

func TestBuildBalanceSheetCategoryFallback(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(1, 9000, "Suspense", ""), Debit: dec("40"), Credit: dec("0")},
		{Account: account(2, 9100, "Unclassified", ""), Debit: dec("0"), Credit: dec("40")},
	}

	bs := BuildBalanceSheet(balances)
	if !bs.Assets.Total.Equal(dec("40")) {
		t.Fatalf("debit-heavy unknown category should land in assets, got %s", bs.Assets.Total)
	}
	if !bs.Liabilities.Total.Equal(dec("40")) {
		t.Fatalf("credit-heavy unknown category should land in liabilities, got %s", bs.Liabilities.Total)
	}
}

func TestBuildBalanceSheetEquationViolation(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(1, 1000, "Cash", ledger.CategoryAsset), Debit: dec("100"), Credit: dec("0")},
	}
	bs := BuildBalanceSheet(balances)
	if err := bs.CheckEquation(); err == nil {
		t.Fatal("expected equation violation for one-sided balances")
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(1, 4000, "Sales", ledger.CategoryRevenue), Debit: dec("0"), Credit: dec("500")},
		{Account: account(2, 5000, "Supplies", ledger.CategoryExpense), Debit: dec("200"), Credit: dec("0")},
		{Account: account(3, 1000, "Cash", ledger.CategoryAsset), Debit: dec("300"), Credit: dec("0")},
	}

	is := BuildIncomeStatement(balances)
	if !is.Revenue.Total.Equal(dec("500")) {
		t.Fatalf("expected revenue 500, got %s", is.Revenue.Total)
	}
	if !is.Expense.Total.Equal(dec("200")) {
		t.Fatalf("expected expenses 200, got %s", is.Expense.Total)
	}
	if !is.NetIncome.Equal(dec("300")) {
		t.Fatalf("expected net income 300, got %s", is.NetIncome)
	}
}

func TestBuildIncomeStatementContraEntries(t *testing.T) {
	balances := []ledger.AccountBalance{
		{Account: account(1, 4000, "Sales", ledger.CategoryRevenue), Debit: dec("50"), Credit: dec("500")},
		{Account: account(2, 5000, "Supplies", ledger.CategoryExpense), Debit: dec("200"), Credit: dec("20")},
	}

	is := BuildIncomeStatement(balances)
	if !is.Revenue.Total.Equal(dec("450")) {
		t.Fatalf("refund should shrink revenue to 450, got %s", is.Revenue.Total)
	}
	if !is.Expense.Total.Equal(dec("180")) {
		t.Fatalf("reversal should shrink expense to 180, got %s", is.Expense.Total)
	}
}

func cashFlowFixture() (map[int64]ledger.Account, []ledger.JournalEntry) {
	accounts := map[int64]ledger.Account{
		1: {ID: 1, Code: 1000, Name: "Cash", Category: ledger.CategoryAsset, IsCash: true},
		2: {ID: 2, Code: 4000, Name: "Sales", Category: ledger.CategoryRevenue},
		3: {ID: 3, Code: 1500, Name: "Equipment", Category: ledger.CategoryAsset},
		4: {ID: 4, Code: 2500, Name: "Loans Payable", Category: ledger.CategoryLiability},
	}
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []ledger.JournalEntry{
		{
			ID: 1, Date: date, Description: "cash sale",
			Lines: []ledger.JournalLine{
				{AccountID: 1, Side: ledger.SideDebit, Amount: dec("100")},
				{AccountID: 2, Side: ledger.SideCredit, Amount: dec("100")},
			},
		},
		{
			ID: 2, Date: date, Description: "buy equipment",
			Lines: []ledger.JournalLine{
				{AccountID: 3, Side: ledger.SideDebit, Amount: dec("250")},
				{AccountID: 1, Side: ledger.SideCredit, Amount: dec("250")},
			},
		},
		{
			ID: 3, Date: date, Description: "loan drawdown",
			Lines: []ledger.JournalLine{
				{AccountID: 1, Side: ledger.SideDebit, Amount: dec("400")},
				{AccountID: 4, Side: ledger.SideCredit, Amount: dec("400")},
			},
		},
	}
	return accounts, entries
}

func TestBuildCashFlow(t *testing.T) {
	accounts, entries := cashFlowFixture()

	cf := BuildCashFlow(accounts, entries)
	if !cf.Operating.Equal(dec("100")) {
		t.Fatalf("expected operating 100, got %s", cf.Operating)
	}
	if !cf.Investing.Equal(dec("-250")) {
		t.Fatalf("expected investing -250, got %s", cf.Investing)
	}
	if !cf.Financing.Equal(dec("400")) {
		t.Fatalf("expected financing 400, got %s", cf.Financing)
	}
	if !cf.NetIncrease.Equal(dec("250")) {
		t.Fatalf("expected net increase 250, got %s", cf.NetIncrease)
	}
	if len(cf.Movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(cf.Movements))
	}
}

func TestBuildCashFlowSingleOperatingEntry(t *testing.T) {
	accounts, _ := cashFlowFixture()
	entries := []ledger.JournalEntry{
		{
			ID: 1, Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), Description: "cash sale",
			Lines: []ledger.JournalLine{
				{AccountID: 1, Side: ledger.SideDebit, Amount: dec("100")},
				{AccountID: 2, Side: ledger.SideCredit, Amount: dec("100")},
			},
		},
	}

	cf := BuildCashFlow(accounts, entries)
	if !cf.Operating.Equal(dec("100")) || !cf.NetIncrease.Equal(dec("100")) {
		t.Fatalf("expected operating and net increase of 100, got %s and %s", cf.Operating, cf.NetIncrease)
	}
}

func TestIsCashAccountFallback(t *testing.T) {
	cases := []struct {
		account ledger.Account
		want    bool
	}{
		{ledger.Account{Name: "Petty Cash", Category: ledger.CategoryAsset}, true},
		{ledger.Account{Name: "Main Operating Bank", Category: ledger.CategoryAsset}, true},
		{ledger.Account{Name: "Receivables", SubCategory: "Cash Equivalents", Category: ledger.CategoryAsset}, true},
		{ledger.Account{Name: "Inventory", Category: ledger.CategoryAsset}, false},
		{ledger.Account{Name: "Inventory", IsCash: true}, true},
		// the substring heuristic must never promote a non-asset account
		{ledger.Account{Name: "Bank Loans Payable", Category: ledger.CategoryLiability}, false},
		{ledger.Account{Name: "Cash Advances From Customers", Category: ledger.CategoryLiability}, false},
	}
	for _, tc := range cases {
		if got := IsCashAccount(tc.account); got != tc.want {
			t.Fatalf("IsCashAccount(%q/%q)=%v, want %v", tc.account.Name, tc.account.SubCategory, got, tc.want)
		}
	}
}

func TestBuildCashFlowBankNamedLiability(t *testing.T) {
	accounts := map[int64]ledger.Account{
		1: {ID: 1, Code: 1000, Name: "Cash", Category: ledger.CategoryAsset, IsCash: true},
		2: {ID: 2, Code: 2100, Name: "Bank Loans Payable", Category: ledger.CategoryLiability},
	}
	entries := []ledger.JournalEntry{
		{
			ID: 1, Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Description: "loan drawdown",
			Lines: []ledger.JournalLine{
				{AccountID: 1, Side: ledger.SideDebit, Amount: dec("400")},
				{AccountID: 2, Side: ledger.SideCredit, Amount: dec("400")},
			},
		},
	}

	cf := BuildCashFlow(accounts, entries)
	if len(cf.Movements) != 1 {
		t.Fatalf("the liability leg must not count as cash, got %d movements", len(cf.Movements))
	}
	if !cf.Financing.Equal(dec("400")) {
		t.Fatalf("expected financing 400, got %s", cf.Financing)
	}
	if !cf.NetIncrease.Equal(dec("400")) {
		t.Fatalf("expected net increase 400, got %s", cf.NetIncrease)
	}
}

func TestBucketForExplicitOverride(t *testing.T) {
	acc := ledger.Account{Category: ledger.CategoryAsset, Activity: ledger.ActivityFinancing}
	if got := BucketFor(acc); got != ledger.ActivityFinancing {
		t.Fatalf("explicit bucket must win, got %s", got)
	}
	if got := BucketFor(ledger.Account{Category: "OTHER"}); got != ledger.ActivityOperating {
		t.Fatalf("unknown category must default to operating, got %s", got)
	}
}
