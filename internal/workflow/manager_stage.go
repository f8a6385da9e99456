package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
)

// processJob runs one job through every pipeline stage. Each transition is
// persisted before the stage executes, so a crash resumes cleanly.
func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	m.setCurrentJob(job.ID)
	defer m.clearCurrentJob()

	requestID := uuid.NewString()
	jobCtx := services.WithRequestID(services.WithSubjectID(services.WithJobID(ctx, job.ID), job.SubjectID), requestID)
	logger := logging.WithContext(jobCtx, m.logger)

	for _, s := range m.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.cancelPending(job.ID) {
			return m.markCancelled(jobCtx, logger, job)
		}

		stageCtx := services.WithStage(jobCtx, s.name)
		stageLogger := logging.WithContext(stageCtx, m.logger)

		if err := m.transitionToProcessing(stageCtx, s, job); err != nil {
			stageLogger.Error("failed to transition job to processing", logging.Error(err))
			m.setLastError(err)
			return err
		}
		if err := m.executeStage(stageCtx, stageLogger, s, job); err != nil {
			return err
		}
	}

	if m.cancelPending(job.ID) {
		return m.markCancelled(jobCtx, logger, job)
	}

	job.Status = queue.StatusCompleted
	job.SetProgress(100, "Completed")
	if err := m.store.Update(jobCtx, job); err != nil {
		wrapped := fmt.Errorf("persist completion: %w", err)
		logger.Error("failed to persist job completion", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
	)
	return nil
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, s pipelineStage, job *queue.Job) error {
	start := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)

	handler := s.handler
	if handler == nil {
		err := fmt.Errorf("stage %s has no handler", s.name)
		m.failJob(ctx, stageLogger, job, err)
		m.setLastError(err)
		return err
	}

	if err := handler.Prepare(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		m.failJob(ctx, stageLogger, job, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := handler.Execute(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		m.failJob(ctx, stageLogger, job, err)
		m.setLastError(err)
		return err
	}

	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, s pipelineStage, job *queue.Job) error {
	job.Status = s.processing
	job.ErrorMessage = ""
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	return nil
}

func (m *Manager) failJob(ctx context.Context, stageLogger *slog.Logger, job *queue.Job, stageErr error) {
	job.SetFailed(services.UserMessage(stageErr))
	stageLogger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", job.ErrorMessage),
	)
	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			stageLogger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
}

func (m *Manager) markCancelled(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	job.Status = queue.StatusCancelled
	job.StatusMessage = "Cancelled"
	if err := m.store.Update(ctx, job); err != nil {
		logger.Error("failed to persist cancellation", logging.Error(err))
		m.setLastError(err)
		return err
	}
	logger.Info("job cancelled",
		logging.String(logging.FieldEventType, "job_cancelled"),
	)
	return nil
}
