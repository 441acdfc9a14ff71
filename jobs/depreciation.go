package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pharos-erp/pharos-erp/internal/assets"
)

// DepreciationPoster is the slice of the asset service the job needs.
type DepreciationPoster interface {
	PostMonthlyDepreciation(ctx context.Context) (assets.RunResult, error)
}

// DepreciationJob adapts the asset service to an Asynq handler.
type DepreciationJob struct {
	poster DepreciationPoster
	logger *slog.Logger
}

// NewDepreciationJob constructs the job wrapper.
func NewDepreciationJob(logger *slog.Logger, poster DepreciationPoster) *DepreciationJob {
	return &DepreciationJob{poster: poster, logger: logger}
}

// Handle runs the monthly depreciation poster. The journal's duplicate
// guard makes retries and overlapping schedules harmless.
func (j *DepreciationJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DepreciationPostPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	result, err := j.poster.PostMonthlyDepreciation(ctx)
	if err != nil {
		j.logger.Error("depreciation run failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("depreciation run finished",
		slog.String("month", result.Month),
		slog.Int("posted", len(result.Posted)),
		slog.Int("skipped", len(result.Skipped)),
		slog.String("total", result.Total.String()),
		slog.Bool("manual", payload.Manual))
	return nil
}
