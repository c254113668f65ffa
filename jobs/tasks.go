package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPeriodsProvision creates the monthly periods of companies that have none.
	TaskPeriodsProvision = "periods:provision"
	// TaskGLIntegrity recomputes trial balances and flags imbalances.
	TaskGLIntegrity = "gl:integrity"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ScopePayload limits a job to one company; zero means all companies.
type ScopePayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// CleanupPayload sets the retention for idempotency keys.
type CleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewPeriodsProvisionTask constructs a provisioning task.
func NewPeriodsProvisionTask(companyID int64) (*asynq.Task, error) {
	return newJSONTask(TaskPeriodsProvision, ScopePayload{CompanyID: companyID})
}

// NewGLIntegrityTask constructs an integrity check task.
func NewGLIntegrityTask(companyID int64) (*asynq.Task, error) {
	return newJSONTask(TaskGLIntegrity, ScopePayload{CompanyID: companyID})
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	return newJSONTask(TaskIdempotencyCleanup, CleanupPayload{OlderThan: olderThan})
}

// NewTask builds a task by name with its default payload.
func NewTask(name string) (*asynq.Task, error) {
	switch name {
	case TaskPeriodsProvision:
		return NewPeriodsProvisionTask(0)
	case TaskGLIntegrity:
		return NewGLIntegrityTask(0)
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(0)
	}
	return nil, fmt.Errorf("jobs: unsupported task %q", name)
}

func newJSONTask(name string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(name, data), nil
}

func decodePayload(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("jobs: decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
