// Package jobs runs background maintenance of the shop on asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTypeSessionCleanup = "session:cleanup"

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// Queues are the asynq queues and their priorities.
var Queues = map[string]int{
	QueueDefault: 3,
	QueueLow:     1,
}

const cleanupTaskTimeout = 5 * time.Minute

type SessionCleanupPayload struct {
	IdleTimeout time.Duration `json:"idle_timeout"`
}

// NewSessionCleanupTask builds a task that purges sessions idle for longer than idleTimeout.
// Failed runs are not retried; the next scheduled run covers them.
func NewSessionCleanupTask(idleTimeout time.Duration) (*asynq.Task, error) {
	if idleTimeout <= 0 {
		return nil, fmt.Errorf("session cleanup: idle timeout must be positive, got %s", idleTimeout)
	}

	payload, err := json.Marshal(SessionCleanupPayload{IdleTimeout: idleTimeout})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTypeSessionCleanup,
		payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(0),
		asynq.Timeout(cleanupTaskTimeout),
		asynq.Unique(cleanupTaskTimeout),
	), nil
}
