// Package jobs contains the background worker for scheduled ledger
// maintenance: the monthly depreciation poster and the journal integrity
// sweep.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDepreciationPost posts the monthly straight-line depreciation.
	TaskDepreciationPost = "ledger:depreciation_post"
	// TaskJournalIntegrity re-checks that the journal still balances.
	TaskJournalIntegrity = "ledger:journal_integrity"
)

// DepreciationPostPayload carries the trigger time so logs can tell a
// scheduled run from a manual one.
type DepreciationPostPayload struct {
	TriggeredAt time.Time `json:"triggeredAt"`
	Manual      bool      `json:"manual"`
}

// NewDepreciationPostTask constructs the monthly depreciation task.
func NewDepreciationPostTask(payload DepreciationPostPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepreciationPost, data), nil
}

// NewJournalIntegrityTask constructs the integrity sweep task.
func NewJournalIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskJournalIntegrity, nil)
}
