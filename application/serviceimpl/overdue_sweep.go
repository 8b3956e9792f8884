package serviceimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskflow/domain/apperrors"
	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/domain/workflow"
	"taskflow/pkg/logger"
	"taskflow/pkg/scheduler"
)

const OverdueSweepJobID = "overdue_sweep"

// SweepOverdue moves every live todo/in-progress task whose deadline has
// passed to overdue and notifies the responsible manager and the CEO.
// A failed notification never rolls back the transition.
func (s *ApprovalServiceImpl) SweepOverdue(ctx context.Context, now time.Time) (*services.SweepResult, error) {
	if err := workflow.Authorize(workflow.SystemActor, workflow.ActionMarkOverdue, workflow.Ownership{}); err != nil {
		return nil, err
	}
	now = now.UTC()
	result := &services.SweepResult{}

	if s.redisClient != nil {
		token, err := s.redisClient.AcquireLock(ctx, sweepLockKey, s.config.SweepLockTTL)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "Sweep lock unavailable, sweeping without it", "error", err)
		case token == "":
			logger.InfoContext(ctx, "Overdue sweep already running elsewhere, skipping")
			return result, nil
		default:
			defer func() {
				if err := s.redisClient.ReleaseLock(context.Background(), sweepLockKey, token); err != nil {
					logger.WarnContext(ctx, "Failed to release sweep lock", "error", err)
				}
			}()
		}
	}

	candidates, err := s.taskRepo.FindOverdueCandidates(ctx, now)
	if err != nil {
		logger.ErrorContext(ctx, "Overdue sweep query failed", "error", err)
		return nil, err
	}

	for _, task := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.markOverdue(ctx, task); err != nil {
			result.Failed = append(result.Failed, services.SweepFailure{
				TaskID: task.ID,
				Reason: fmt.Sprintf("transition failed: %v", err),
			})
			continue
		}
		result.Transitioned = append(result.Transitioned, task.ID)

		if reason := s.notifyOverdue(ctx, task); reason != "" {
			result.Failed = append(result.Failed, services.SweepFailure{TaskID: task.ID, Reason: reason})
			continue
		}
		result.Notified = append(result.Notified, task.ID)
	}

	logger.InfoContext(ctx, "Overdue sweep finished",
		"candidates", len(candidates),
		"transitioned", len(result.Transitioned),
		"notified", len(result.Notified),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *ApprovalServiceImpl) markOverdue(ctx context.Context, task *models.Task) error {
	if err := workflow.CheckTransition(task.Status, workflow.StatusOverdue); err != nil {
		return err
	}
	_, err := s.taskRepo.Update(ctx, task.ID, repositories.TaskUpdate{
		Fields: map[string]interface{}{repositories.ColumnStatus: workflow.StatusOverdue},
		Audit: &models.TaskAudit{
			ActorID:    workflow.SystemActor.ID,
			Action:     string(workflow.ActionMarkOverdue),
			FromStatus: string(task.Status),
			ToStatus:   string(workflow.StatusOverdue),
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mark task overdue", "task_id", task.ID, "error", err)
		return err
	}
	s.invalidate(ctx, task.ID)
	return nil
}

// notifyOverdue returns an empty string on success, otherwise the failure reason.
func (s *ApprovalServiceImpl) notifyOverdue(ctx context.Context, task *models.Task) string {
	managerEmail, err := s.managerEmail(ctx, task)
	if err != nil {
		return fmt.Sprintf("manager lookup failed: %v", err)
	}
	if managerEmail == "" {
		return "no manager email for task"
	}

	notice := ports.OverdueNotice{
		TaskID:       task.ID.String(),
		Title:        task.Title,
		ManagerEmail: managerEmail,
		CEOEmail:     s.config.CEOEmail,
	}
	if task.Deadline != nil {
		notice.Deadline = task.Deadline.UTC()
	}

	ack, err := s.notifier.NotifyOverdue(ctx, notice)
	if err != nil {
		logger.WarnContext(ctx, "Overdue notification failed", "task_id", task.ID, "error", err)
		return fmt.Sprintf("notification failed: %v", err)
	}
	logger.InfoContext(ctx, "Overdue notification sent", "task_id", task.ID, "ack", ack)
	return ""
}

// managerEmail prefers the assignee's manager and falls back to the
// assigner's. An empty result means nobody is on record.
func (s *ApprovalServiceImpl) managerEmail(ctx context.Context, task *models.Task) (string, error) {
	candidates := make([]uuid.UUID, 0, 2)
	if task.IsAssigned() {
		candidates = append(candidates, *task.AssignedUserID)
	}
	candidates = append(candidates, task.AssignerID)

	for _, userID := range candidates {
		manager, err := s.userRepo.GetManager(ctx, userID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return "", err
		}
		if manager.Email != "" {
			return manager.Email, nil
		}
	}
	return "", nil
}

func (s *ApprovalServiceImpl) RunOverdueSweep(ctx context.Context, admin workflow.Actor, now time.Time) (*services.SweepResult, error) {
	if err := workflow.Authorize(admin, workflow.ActionSweepOverdue, workflow.Ownership{}); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Manual overdue sweep requested", "actor_id", admin.ID)
	return s.SweepOverdue(ctx, now)
}

// RegisterOverdueSweepJob schedules SweepOverdue on the given cron expression.
func (s *ApprovalServiceImpl) RegisterOverdueSweepJob(sched scheduler.EventScheduler, cronExpr string) error {
	err := sched.AddJob(OverdueSweepJobID, cronExpr, func() {
		ctx := context.Background()
		if _, err := s.SweepOverdue(ctx, s.now()); err != nil {
			logger.ErrorContext(ctx, "Scheduled overdue sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register overdue sweep job: %w", err)
	}
	logger.Info("Overdue sweep job registered", "cron", cronExpr)
	return nil
}
