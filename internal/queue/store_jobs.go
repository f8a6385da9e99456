package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, subject_id, status, progress, status_message, error_message, created_at, updated_at`

// Enqueue inserts a new pending job for the subject. At most one non-terminal
// job per subject is allowed; a second request returns ErrSubjectBusy.
func (s *Store) Enqueue(ctx context.Context, subjectID string) (*Job, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("subject id is required")
	}

	ctx = ensureContext(ctx)
	active, err := s.ActiveBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: job %d is %s", ErrSubjectBusy, active.ID, active.Status)
	}

	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (subject_id, status, progress, status_message, created_at, updated_at)
         VALUES (?, ?, 0, ?, ?, ?)`,
		subjectID,
		StatusPending,
		"Queued",
		now,
		now,
	)
	if err != nil {
		// The partial unique index on active jobs catches the race where two
		// writers pass the ActiveBySubject check at the same time.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: another job was queued concurrently", ErrSubjectBusy)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the job with the given identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// LatestBySubject returns the most recent job for a subject, or nil.
func (s *Store) LatestBySubject(ctx context.Context, subjectID string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE subject_id = ? ORDER BY id DESC LIMIT 1`, subjectID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest job for %q: %w", subjectID, err)
	}
	return job, nil
}

// ActiveBySubject returns the subject's non-terminal job, or nil.
func (s *Store) ActiveBySubject(ctx context.Context, subjectID string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs
         WHERE subject_id = ? AND status NOT IN (?, ?, ?)
         ORDER BY id LIMIT 1`,
		subjectID, StatusCompleted, StatusFailed, StatusCancelled)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("active job for %q: %w", subjectID, err)
	}
	return job, nil
}

// NextPending returns the oldest pending job, or nil when the queue is drained.
func (s *Store) NextPending(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY id LIMIT 1`, StatusPending)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("next pending job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by optional statuses, oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Update persists the full mutable state of a job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil || job.ID == 0 {
		return errors.New("job with id is required")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE jobs SET subject_id = ?, status = ?, progress = ?, status_message = ?,
            error_message = ?, updated_at = ? WHERE id = ?`,
		job.SubjectID,
		job.Status,
		job.Progress,
		nullableString(job.StatusMessage),
		nullableString(job.ErrorMessage),
		timestamp(job.UpdatedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	return nil
}

// UpdateProgress persists only the progress fields of a job.
func (s *Store) UpdateProgress(ctx context.Context, job *Job) error {
	if job == nil || job.ID == 0 {
		return errors.New("job with id is required")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE jobs SET progress = ?, status_message = ?, updated_at = ? WHERE id = ?`,
		job.Progress,
		nullableString(job.StatusMessage),
		timestamp(job.UpdatedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d progress: %w", job.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job           Job
		statusMessage sql.NullString
		errorMessage  sql.NullString
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&job.ID,
		&job.SubjectID,
		&job.Status,
		&job.Progress,
		&statusMessage,
		&errorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	job.StatusMessage = statusMessage.String
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	return &job, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
