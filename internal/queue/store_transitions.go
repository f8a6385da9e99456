package queue

import (
	"context"
	"fmt"
	"time"
)

// CancelQueued moves a still-pending job straight to cancelled. Returns false
// when the job has already started (or does not exist), in which case
// cancellation must go through the workflow manager's cancellation token.
func (s *Store) CancelQueued(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, status_message = 'Cancelled before start', updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled,
		timestamp(time.Now()),
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("cancel queued job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ResumeInterrupted returns every non-terminal job to pending with progress
// reset. Called once on startup so a crash never silently loses a job; the
// interrupted stage is redone from its beginning.
func (s *Store) ResumeInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = 0, status_message = 'Resumed after restart',
             error_message = NULL, updated_at = ?
         WHERE status IN (?, ?, ?)`,
		StatusPending,
		timestamp(time.Now()),
		StatusExtracting,
		StatusTranscribing,
		StatusAligning,
	)
	if err != nil {
		return 0, fmt.Errorf("resume interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending for reprocessing. With no ids,
// the most recent failed job of each subject is retried; subjects that already
// have an active job are left alone.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs
             SET status = ?, progress = 0, status_message = 'Retry requested',
                 error_message = NULL, updated_at = ?
             WHERE status = ?
               AND id IN (SELECT MAX(id) FROM jobs WHERE status = ? GROUP BY subject_id)
               AND subject_id NOT IN (
                   SELECT subject_id FROM jobs WHERE status NOT IN (?, ?, ?))`,
			StatusPending,
			timestamp(time.Now()),
			StatusFailed,
			StatusFailed,
			StatusCompleted,
			StatusFailed,
			StatusCancelled,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	var total int64
	for _, id := range ids {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs
             SET status = ?, progress = 0, status_message = 'Retry requested',
                 error_message = NULL, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusPending,
			timestamp(time.Now()),
			id,
			StatusFailed,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return total, fmt.Errorf("retry job %d: %w", id, ErrSubjectBusy)
			}
			return total, fmt.Errorf("retry job %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}

// ClearTerminal removes completed, failed, and cancelled jobs.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM jobs WHERE status IN (?, ?, ?)`,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		case StatusCancelled:
			health.Cancelled += count
		default:
			if status.IsProcessing() {
				health.Processing += count
			}
		}
	}
	return health, nil
}
