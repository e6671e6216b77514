package audit

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// TypeCoverageAudit is the asynq task type for a tariff coverage scan.
const TypeCoverageAudit = "audit:coverage"

// NewCoverageTask builds the coverage audit task. The fixed task id
// debounces bursts of tariff mutations into a single pending scan.
func NewCoverageTask() (*asynq.Task, []asynq.Option) {
	return asynq.NewTask(TypeCoverageAudit, nil), []asynq.Option{
		asynq.TaskID(TypeCoverageAudit),
		asynq.MaxRetry(3),
	}
}

// Enqueuer schedules coverage audits on the task queue.
type Enqueuer struct {
	Client *asynq.Client
}

// Enqueue schedules a coverage audit. A scan already pending is not an
// error; the existing task covers the new mutation too.
func (e Enqueuer) Enqueue(ctx context.Context) error {
	if e.Client == nil {
		return errors.New("audit: asynq client not configured")
	}
	task, opts := NewCoverageTask()
	_, err := e.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
