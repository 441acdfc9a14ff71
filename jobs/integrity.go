package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// BalanceSource reads accumulated debit and credit totals per account.
type BalanceSource interface {
	AccountBalances(ctx context.Context, from, to *time.Time) ([]ledger.AccountBalance, error)
}

// IntegrityJob sweeps the journal and verifies total debits still equal
// total credits. A drift means an entry was mutated outside the service.
type IntegrityJob struct {
	balances BalanceSource
	logger   *slog.Logger
}

// NewIntegrityJob constructs the integrity sweep.
func NewIntegrityJob(logger *slog.Logger, balances BalanceSource) *IntegrityJob {
	return &IntegrityJob{balances: balances, logger: logger}
}

// Handle runs the sweep. A failed check returns an error so the task
// surfaces in the retry queue where operators will see it.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	balances, err := j.balances.AccountBalances(ctx, nil, nil)
	if err != nil {
		return err
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for _, bal := range balances {
		debit = debit.Add(bal.Debit)
		credit = credit.Add(bal.Credit)
	}
	if !debit.Equal(credit) {
		j.logger.Error("journal integrity violated",
			slog.String("debit", debit.String()),
			slog.String("credit", credit.String()))
		return fmt.Errorf("jobs: journal out of balance: debit %s credit %s", debit, credit)
	}
	j.logger.Info("journal integrity verified",
		slog.Int("accounts", len(balances)),
		slog.String("total", debit.String()))
	return nil
}
