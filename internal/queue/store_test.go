package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"lectern/internal/queue"
	"lectern/internal/testsupport"
)

func TestEnqueueAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, err := store.Enqueue(ctx, "book-1")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("unexpected status: %s", job.Status)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.SubjectID != "book-1" {
		t.Fatalf("unexpected subject: %q", fetched.SubjectID)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestEnqueueRejectsSecondActiveJobPerSubject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "book-1"); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if _, err := store.Enqueue(ctx, "book-1"); !errors.Is(err, queue.ErrSubjectBusy) {
		t.Fatalf("expected ErrSubjectBusy, got %v", err)
	}

	// A different subject is unaffected.
	if _, err := store.Enqueue(ctx, "book-2"); err != nil {
		t.Fatalf("enqueue for other subject failed: %v", err)
	}
}

func TestActiveJobUniquenessEnforcedBySchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "book-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Insert directly, bypassing Enqueue's pre-check the way a second writer
	// would if both passed ActiveBySubject before either inserted.
	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	const insert = `INSERT INTO jobs (subject_id, status, progress, status_message, created_at, updated_at)
        VALUES (?, ?, 0, 'Queued', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`
	if _, err := db.ExecContext(ctx, insert, "book-1", queue.StatusPending); err == nil {
		t.Fatal("second active job for the subject must be rejected by the index")
	} else if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		t.Fatalf("unexpected error: %v", err)
	}

	// Terminal rows for the same subject are outside the index.
	if _, err := db.ExecContext(ctx, insert, "book-1", queue.StatusCompleted); err != nil {
		t.Fatalf("terminal insert should pass: %v", err)
	}
}

func TestEnqueueAllowedAfterTerminalState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, err := store.Enqueue(ctx, "book-1")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	job.Status = queue.StatusCompleted
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := store.Enqueue(ctx, "book-1"); err != nil {
		t.Fatalf("expected enqueue to succeed after completion, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.GetByID(context.Background(), 999); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextPendingReturnsOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, _ := store.Enqueue(ctx, "book-1")
	if _, err := store.Enqueue(ctx, "book-2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected job %d, got %#v", first.ID, next)
	}
}

func TestCancelQueuedOnlyAffectsPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, _ := store.Enqueue(ctx, "book-1")
	ok, err := store.CancelQueued(ctx, job.ID)
	if err != nil {
		t.Fatalf("CancelQueued failed: %v", err)
	}
	if !ok {
		t.Fatal("expected pending job to cancel")
	}
	cancelled, _ := store.GetByID(ctx, job.ID)
	if cancelled.Status != queue.StatusCancelled {
		t.Fatalf("unexpected status: %s", cancelled.Status)
	}

	// A running job cannot be cancelled through the queued path.
	running, _ := store.Enqueue(ctx, "book-2")
	running.Status = queue.StatusTranscribing
	if err := store.Update(ctx, running); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	ok, err = store.CancelQueued(ctx, running.ID)
	if err != nil {
		t.Fatalf("CancelQueued failed: %v", err)
	}
	if ok {
		t.Fatal("expected running job to be left alone")
	}
}

func TestResumeInterruptedResetsNonTerminalJobsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, _ := store.Enqueue(ctx, "book-1")
	job.Status = queue.StatusTranscribing
	job.SetProgress(40, "transcribing chapter 3 of 9")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	done, _ := store.Enqueue(ctx, "book-2")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ResumeInterrupted(ctx)
	if err != nil {
		t.Fatalf("ResumeInterrupted failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 resumed job, got %d", count)
	}

	resumed, _ := store.GetByID(ctx, job.ID)
	if resumed.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", resumed.Status)
	}
	if resumed.Progress != 0 {
		t.Fatalf("expected progress reset, got %v", resumed.Progress)
	}

	// Second pass is a no-op: the job is already pending.
	count, err = store.ResumeInterrupted(ctx)
	if err != nil {
		t.Fatalf("second ResumeInterrupted failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no jobs on second pass, got %d", count)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, _ := store.Enqueue(ctx, "book-1")
	job.SetFailed("engine crashed")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx, job.ID)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried job, got %d", count)
	}
	retried, _ := store.GetByID(ctx, job.ID)
	if retried.Status != queue.StatusPending {
		t.Fatalf("unexpected status: %s", retried.Status)
	}
	if retried.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", retried.ErrorMessage)
	}
}

func TestRetryFailedWithoutIDsRetriesLatestPerIdleSubject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// book-1 failed twice; only the newer failure should come back.
	first, _ := store.Enqueue(ctx, "book-1")
	first.SetFailed("engine crashed")
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	second, _ := store.Enqueue(ctx, "book-1")
	second.SetFailed("engine crashed again")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// book-2 has an old failure but is already queued again.
	stale, _ := store.Enqueue(ctx, "book-2")
	stale.SetFailed("transient")
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := store.Enqueue(ctx, "book-2"); err != nil {
		t.Fatalf("re-enqueue failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried job, got %d", count)
	}
	if job, _ := store.GetByID(ctx, second.ID); job.Status != queue.StatusPending {
		t.Fatalf("latest failure not retried: %s", job.Status)
	}
	if job, _ := store.GetByID(ctx, first.ID); job.Status != queue.StatusFailed {
		t.Fatalf("older failure should stay failed: %s", job.Status)
	}
	if job, _ := store.GetByID(ctx, stale.ID); job.Status != queue.StatusFailed {
		t.Fatalf("busy subject should be skipped: %s", job.Status)
	}
}

func TestHealthAggregatesCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "book-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	running, _ := store.Enqueue(ctx, "book-2")
	running.Status = queue.StatusAligning
	if err := store.Update(ctx, running); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
}
