package workflow

import (
	"context"
	"fmt"

	"lectern/internal/logging"
	"lectern/internal/queue"
)

// Cancel stops the job with the given id. Queued jobs are cancelled in place;
// the running job is flagged and stops at the next stage boundary. Returns
// true when the request took effect immediately, false when it is deferred to
// a boundary.
func (m *Manager) Cancel(ctx context.Context, id int64) (bool, error) {
	cancelled, err := m.store.CancelQueued(ctx, id)
	if err != nil {
		return false, err
	}
	if cancelled {
		m.logger.Info("queued job cancelled",
			logging.Int64(logging.FieldJobID, id),
			logging.String(logging.FieldEventType, "job_cancelled"),
		)
		return true, nil
	}

	m.mu.Lock()
	if m.currentJobID == id {
		m.cancelRequested = true
		m.mu.Unlock()
		m.logger.Info("cancel requested for running job, effective at next stage boundary",
			logging.Int64(logging.FieldJobID, id),
		)
		return false, nil
	}
	m.mu.Unlock()

	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if job.Status.IsTerminal() {
		return false, fmt.Errorf("job %d already %s", id, job.Status)
	}
	// Not queued, not running here: the job was interrupted by a restart and
	// awaits resumption. Cancel it directly.
	job.Status = queue.StatusCancelled
	job.StatusMessage = "Cancelled"
	if err := m.store.Update(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}
