package jobs

import (
	"context"
	"fmt"

	"github.com/niyax/cvm/backend/pkg/logger"
)

// SessionCounter is the slice of the session store the snapshot job needs
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// SessionSnapshotJob is the periodic persistence hook for sessions.
// Sessions live in the configured store; the job only reports how many
// are active.
type SessionSnapshotJob struct {
	sessions SessionCounter
	schedule string
	logger   *logger.Logger
}

// NewSessionSnapshotJob creates a new session snapshot job
func NewSessionSnapshotJob(sessions SessionCounter, schedule string, log *logger.Logger) *SessionSnapshotJob {
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}
	return &SessionSnapshotJob{
		sessions: sessions,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SessionSnapshotJob) Name() string {
	return "session_snapshot"
}

// Schedule returns the cron schedule
func (j *SessionSnapshotJob) Schedule() string {
	return j.schedule
}

// Run counts the active sessions
func (j *SessionSnapshotJob) Run(ctx context.Context) error {
	n, err := j.sessions.Count(ctx)
	if err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}

	j.logger.WithField("sessions", n).Info("Session snapshot")
	return nil
}
