package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerRebuild rebuilds one tenant's ledger, or every tenant when
	// the payload carries no tenant id.
	TaskLedgerRebuild = "ledger:rebuild"
	// TaskLedgerIntegrity runs the nightly ledger integrity scan.
	TaskLedgerIntegrity = "ledger:integrity"
)

// LedgerRebuildPayload selects what to rebuild. TenantID zero means all
// active tenants.
type LedgerRebuildPayload struct {
	TenantID  int64     `json:"tenant_id"`
	Requested time.Time `json:"requested"`
}

// NewLedgerRebuildTask constructs an Asynq task for a ledger rebuild.
func NewLedgerRebuildTask(payload LedgerRebuildPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerRebuild, body, asynq.Queue(QueueDefault)), nil
}

// IntegrityPayload carries scheduling metadata for the integrity scan.
type IntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the integrity scan.
func NewLedgerIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(IntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault)), nil
}
