package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// Service coordinates registry reads and the bulk reset path.
type Service struct {
	repo Repository
}

// NewService constructs the registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the chart of accounts ordered by code.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.repo.List(ctx)
}

// ResetAndSeed validates and installs a fresh chart of accounts.
func (s *Service) ResetAndSeed(ctx context.Context, accounts []ledger.Account) ([]ledger.Account, error) {
	if len(accounts) == 0 {
		return nil, errors.New("accounts: seed requires at least one account")
	}
	seen := make(map[int64]struct{}, len(accounts))
	for idx, account := range accounts {
		if account.Code <= 0 {
			return nil, fmt.Errorf("accounts: seed entry %d missing code", idx)
		}
		if strings.TrimSpace(account.Name) == "" {
			return nil, fmt.Errorf("accounts: seed entry %d missing name", idx)
		}
		if !validCategory(account.Category) {
			return nil, fmt.Errorf("accounts: seed entry %d invalid category %q", idx, account.Category)
		}
		if _, dup := seen[account.Code]; dup {
			return nil, fmt.Errorf("accounts: duplicate code %d", account.Code)
		}
		seen[account.Code] = struct{}{}
	}
	return s.repo.ResetAndSeed(ctx, accounts)
}

// FindByNameSubstring returns the first account whose name contains the
// needle, case-insensitively. Used to locate well-known accounts such as
// the depreciation pair.
func FindByNameSubstring(accounts []ledger.Account, needle string) (ledger.Account, bool) {
	lowered := strings.ToLower(needle)
	for _, account := range accounts {
		if strings.Contains(strings.ToLower(account.Name), lowered) {
			return account, true
		}
	}
	return ledger.Account{}, false
}

func validCategory(category ledger.AccountCategory) bool {
	switch category {
	case ledger.CategoryAsset, ledger.CategoryLiability, ledger.CategoryEquity,
		ledger.CategoryRevenue, ledger.CategoryExpense:
		return true
	}
	return false
}
