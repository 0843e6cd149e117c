// Package scheduler runs the periodic maintenance jobs: the pitch expiry
// sweep and the counter flush. Jobs are asynq tasks so multiple scheduler
// instances dedupe through Redis instead of double-running.
package scheduler

import "github.com/hibiken/asynq"

// Task type names.
const (
	TypeExpirySweep   = "pitches:expiry_sweep"
	TypeCounterFlush  = "pitches:counter_flush"
	TypeOutboxRedrive = "messaging:outbox_redrive"
)

// NewExpirySweepTask creates the expiry sweep task. The sweep carries no
// payload; it always scans from the current time.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil)
}

// NewCounterFlushTask creates the counter flush task.
func NewCounterFlushTask() *asynq.Task {
	return asynq.NewTask(TypeCounterFlush, nil)
}

// NewOutboxRedriveTask creates the notification outbox redrive task.
func NewOutboxRedriveTask() *asynq.Task {
	return asynq.NewTask(TypeOutboxRedrive, nil)
}
