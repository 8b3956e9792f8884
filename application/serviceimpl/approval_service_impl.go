package serviceimpl

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskflow/domain/apperrors"
	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/domain/workflow"
	"taskflow/infrastructure/redis"
	"taskflow/pkg/logger"
)

const (
	taskCachePrefix = "task:"
	sweepLockKey    = "lock:sweep-overdue"
	taskVersionTTL  = time.Hour

	maxTitleLength   = 255
	maxCommentLength = 5000
	maxListLimit     = 100
	defaultListLimit = 10
)

// rejectableFrom is Reject's own precondition. needs_changes -> rejected has
// no edge in the transition table; administrators may still close a task
// that is waiting on its submitter.
var rejectableFrom = []workflow.Status{workflow.StatusPendingApproval, workflow.StatusNeedsChanges}

type ApprovalServiceConfig struct {
	CEOEmail     string
	CacheTTL     time.Duration // task detail cache (default: 5m)
	SweepLockTTL time.Duration // default: 2m
}

type ApprovalServiceImpl struct {
	taskRepo    repositories.TaskRepository
	userRepo    repositories.UserRepository
	notifier    ports.OverdueNotifier
	redisClient *redis.Client // optional - ถ้าไม่มีจะ query DB ตลอด
	config      ApprovalServiceConfig
	now         func() time.Time
}

func NewApprovalService(
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	notifier ports.OverdueNotifier,
	redisClient *redis.Client,
	config ApprovalServiceConfig,
) *ApprovalServiceImpl {
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.SweepLockTTL == 0 {
		config.SweepLockTTL = 2 * time.Minute
	}
	return &ApprovalServiceImpl{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		redisClient: redisClient,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ services.ApprovalService = (*ApprovalServiceImpl)(nil)

// ==================== Creation ====================

func (s *ApprovalServiceImpl) SubmitTask(ctx context.Context, submitter workflow.Actor, input services.SubmitTaskInput) (*models.Task, error) {
	if submitter.ID == uuid.Nil {
		return nil, apperrors.Forbidden("submit task", "an authenticated user is required")
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.SuggestedPriority != nil && !input.SuggestedPriority.Valid() {
		return nil, apperrors.Validation("suggestedPriority", fmt.Sprintf("unknown priority %q", *input.SuggestedPriority))
	}
	attachments, err := buildAttachments(input.Attachments, submitter.ID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:             title,
		Description:       input.Description,
		Status:            workflow.StatusPendingApproval,
		Priority:          workflow.PriorityMedium,
		SuggestedPriority: input.SuggestedPriority,
		SuggestedDeadline: utcPtr(input.SuggestedDeadline),
		AssignerID:        submitter.ID,
	}

	created, err := s.taskRepo.Create(ctx, task, attachments, nil)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to submit task", "actor_id", submitter.ID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task submitted for approval",
		"task_id", created.ID,
		"actor_id", submitter.ID,
		"attachments", len(attachments),
	)
	return created, nil
}

func (s *ApprovalServiceImpl) CreateAssignedTask(ctx context.Context, admin workflow.Actor, input services.CreateAssignedTaskInput) (*models.Task, error) {
	if err := workflow.Authorize(admin, workflow.ActionCreateAssigned, workflow.Ownership{}); err != nil {
		return nil, err
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validateAssignment(input.AssigneeID, input.Priority, input.TimerDuration); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.AssigneeID); err != nil {
		return nil, err
	}
	attachments, err := buildAttachments(input.Attachments, admin.ID)
	if err != nil {
		return nil, err
	}

	assignee := input.AssigneeID
	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         workflow.StatusToDo,
		Priority:       input.Priority,
		Deadline:       utcPtr(input.Deadline),
		AssignerID:     admin.ID,
		AssignedUserID: &assignee,
		TimerDuration:  input.TimerDuration,
	}

	created, err := s.taskRepo.Create(ctx, task, attachments, nil)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create assigned task", "actor_id", admin.ID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Assigned task created",
		"task_id", created.ID,
		"actor_id", admin.ID,
		"assignee_id", assignee,
	)
	return created, nil
}

// ==================== Approval decisions ====================

func (s *ApprovalServiceImpl) ApproveAndAssign(ctx context.Context, admin workflow.Actor, taskID uuid.UUID, input services.ApproveInput) (*models.Task, error) {
	if err := validateAssignment(input.AssigneeID, input.Priority, input.TimerDuration); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(admin, workflow.ActionApprove, task.Ownership()); err != nil {
		return nil, err
	}
	if err := checkStatus(task, workflow.StatusToDo, workflow.StatusPendingApproval); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.AssigneeID); err != nil {
		return nil, err
	}

	return s.apply(ctx, admin, workflow.ActionApprove, task, workflow.StatusToDo, repositories.TaskUpdate{
		Fields: map[string]interface{}{
			repositories.ColumnAssignedUserID:    input.AssigneeID,
			repositories.ColumnPriority:          input.Priority,
			repositories.ColumnDeadline:          utcPtr(input.Deadline),
			repositories.ColumnTimerDuration:     input.TimerDuration,
			repositories.ColumnSuggestedPriority: nil,
			repositories.ColumnSuggestedDeadline: nil,
		},
	}, "")
}

func (s *ApprovalServiceImpl) RequestRevisions(ctx context.Context, admin workflow.Actor, taskID uuid.UUID, comment string) (*models.Task, error) {
	content, err := validateComment(comment)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(admin, workflow.ActionRequestRevisions, task.Ownership()); err != nil {
		return nil, err
	}
	if err := checkStatus(task, workflow.StatusNeedsChanges, workflow.StatusPendingApproval); err != nil {
		return nil, err
	}

	return s.apply(ctx, admin, workflow.ActionRequestRevisions, task, workflow.StatusNeedsChanges, repositories.TaskUpdate{
		NewComments: []models.Comment{{AuthorID: admin.ID, Content: content}},
	}, content)
}

func (s *ApprovalServiceImpl) Reject(ctx context.Context, admin workflow.Actor, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.reject(ctx, admin, task)
}

func (s *ApprovalServiceImpl) reject(ctx context.Context, admin workflow.Actor, task *models.Task) (*models.Task, error) {
	if err := workflow.Authorize(admin, workflow.ActionReject, task.Ownership()); err != nil {
		return nil, err
	}
	if !slices.Contains(rejectableFrom, task.Status) {
		return nil, illegal(task.Status, workflow.StatusRejected)
	}
	return s.apply(ctx, admin, workflow.ActionReject, task, workflow.StatusRejected, repositories.TaskUpdate{}, "")
}

func (s *ApprovalServiceImpl) Resubmit(ctx context.Context, submitter workflow.Actor, taskID uuid.UUID, title string, description *string) (*models.Task, error) {
	cleanTitle, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.resubmit(ctx, submitter, task, cleanTitle, description)
}

func (s *ApprovalServiceImpl) resubmit(ctx context.Context, submitter workflow.Actor, task *models.Task, title string, description *string) (*models.Task, error) {
	if err := workflow.Authorize(submitter, workflow.ActionResubmit, task.Ownership()); err != nil {
		return nil, err
	}
	if err := checkStatus(task, workflow.StatusPendingApproval, workflow.StatusNeedsChanges); err != nil {
		return nil, err
	}

	// back to a proposal: the next approval picks the assignee again
	return s.apply(ctx, submitter, workflow.ActionResubmit, task, workflow.StatusPendingApproval, repositories.TaskUpdate{
		Fields: map[string]interface{}{
			repositories.ColumnTitle:              title,
			repositories.ColumnDescription:        description,
			repositories.ColumnAssignedUserID:     nil,
			repositories.ColumnProgressPercentage: 0,
		},
	}, "")
}

// ==================== Execution ====================

// ChangeStatus routes a plain "move to status" request, as sent by the board,
// to the operation that owns that transition.
func (s *ApprovalServiceImpl) ChangeStatus(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, to workflow.Status) (*models.Task, error) {
	if !to.Valid() {
		return nil, apperrors.Validation("status", fmt.Sprintf("unknown status %q", to))
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// Reject also closes tasks waiting on their submitter, outside the table.
	if !workflow.CanTransition(task.Status, to) && !(to == workflow.StatusRejected && slices.Contains(rejectableFrom, task.Status)) {
		return nil, illegal(task.Status, to)
	}

	switch to {
	case workflow.StatusInProgress, workflow.StatusCompleted:
		return s.progress(ctx, actor, task, to)

	case workflow.StatusRejected:
		return s.reject(ctx, actor, task)

	case workflow.StatusPendingApproval:
		return s.resubmit(ctx, actor, task, task.Title, task.Description)

	case workflow.StatusNeedsChanges:
		if task.Status == workflow.StatusPendingApproval {
			return nil, apperrors.Validation("comment", "requesting revisions needs a comment for the submitter")
		}
		return s.returnForChanges(ctx, actor, task)

	case workflow.StatusToDo:
		return nil, apperrors.Validation("assigneeId", "approving a task needs an assignee, priority and deadline")

	case workflow.StatusOverdue:
		if err := workflow.Authorize(actor, workflow.ActionMarkOverdue, task.Ownership()); err != nil {
			return nil, err
		}
		return nil, illegal(task.Status, to)
	}

	return nil, illegal(task.Status, to)
}

func (s *ApprovalServiceImpl) progress(ctx context.Context, actor workflow.Actor, task *models.Task, to workflow.Status) (*models.Task, error) {
	if err := workflow.Authorize(actor, workflow.ActionProgress, task.Ownership()); err != nil {
		return nil, err
	}
	if err := checkStatus(task, to); err != nil {
		return nil, err
	}

	update := repositories.TaskUpdate{}
	if to == workflow.StatusCompleted {
		update.Fields = map[string]interface{}{
			repositories.ColumnCompletedAt:        s.now(),
			repositories.ColumnProgressPercentage: 100,
		}
	}
	return s.apply(ctx, actor, workflow.ActionProgress, task, to, update, "")
}

func (s *ApprovalServiceImpl) returnForChanges(ctx context.Context, admin workflow.Actor, task *models.Task) (*models.Task, error) {
	if err := workflow.Authorize(admin, workflow.ActionReturnForChanges, task.Ownership()); err != nil {
		return nil, err
	}
	if err := checkStatus(task, workflow.StatusNeedsChanges, workflow.StatusInProgress); err != nil {
		return nil, err
	}
	return s.apply(ctx, admin, workflow.ActionReturnForChanges, task, workflow.StatusNeedsChanges, repositories.TaskUpdate{}, "")
}

func (s *ApprovalServiceImpl) UpdateProgress(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, percent int) (*models.Task, error) {
	if percent < 0 || percent > 100 {
		return nil, apperrors.Validation("progress", "progress must be between 0 and 100")
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionProgress, task.Ownership()); err != nil {
		return nil, err
	}
	if task.Status != workflow.StatusInProgress && task.Status != workflow.StatusOverdue {
		return nil, apperrors.Validation("progress", fmt.Sprintf("progress can only be reported while the task is in progress or overdue, not %s", task.Status.Label()))
	}

	updated, err := s.taskRepo.Update(ctx, task.ID, repositories.TaskUpdate{
		Fields: map[string]interface{}{repositories.ColumnProgressPercentage: percent},
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, task.ID)

	logger.InfoContext(ctx, "Task progress updated", "task_id", task.ID, "actor_id", actor.ID, "progress", percent)
	return updated, nil
}

func (s *ApprovalServiceImpl) AddComment(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, content string) (*models.Task, error) {
	text, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionComment, task.Ownership()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.AppendComment(ctx, &models.Comment{TaskID: task.ID, AuthorID: actor.ID, Content: text}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, task.ID)

	return s.taskRepo.GetByID(ctx, task.ID)
}

// ==================== Reads & deletion ====================

func (s *ApprovalServiceImpl) GetTask(ctx context.Context, actor workflow.Actor, taskID uuid.UUID) (*models.Task, error) {
	if task, ok := s.cachedTask(ctx, taskID); ok {
		if err := workflow.Authorize(actor, workflow.ActionView, task.Ownership()); err != nil {
			return nil, err
		}
		return task, nil
	}

	// read the version before the row; a write after this point wins
	version, versionErr := s.cacheVersion(ctx, taskID)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionView, task.Ownership()); err != nil {
		return nil, err
	}

	if s.redisClient != nil && versionErr == nil {
		if _, err := s.redisClient.SetJSONIfVersion(ctx, taskCacheKey(taskID), taskVersionKey(taskID), version, task, s.config.CacheTTL); err != nil {
			logger.WarnContext(ctx, "Failed to cache task", "task_id", taskID, "error", err)
		}
	}
	return task, nil
}

func (s *ApprovalServiceImpl) ListTasks(ctx context.Context, actor workflow.Actor, query services.ListTasksQuery) ([]*models.Task, int64, error) {
	filter := query.Filter
	if workflow.Authorize(actor, workflow.ActionListAll, workflow.Ownership{}) != nil {
		// non-admins only see tasks they submitted or work on
		id := actor.ID
		filter.VisibleTo = &id
	}

	page := query.Pagination
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Limit <= 0 {
		page.Limit = defaultListLimit
	}
	if page.Limit > maxListLimit {
		page.Limit = maxListLimit
	}

	return s.taskRepo.List(ctx, filter, page, query.Sort)
}

func (s *ApprovalServiceImpl) DeleteTask(ctx context.Context, actor workflow.Actor, taskID uuid.UUID) error {
	if err := workflow.Authorize(actor, workflow.ActionDelete, workflow.Ownership{}); err != nil {
		return err
	}

	existed, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, taskID)
	if !existed {
		return apperrors.NotFound("task", taskID.String())
	}

	logger.InfoContext(ctx, "Task deleted", "task_id", taskID, "actor_id", actor.ID)
	return nil
}

// ==================== helpers ====================

// apply persists a status change together with its audit entry.
func (s *ApprovalServiceImpl) apply(ctx context.Context, actor workflow.Actor, action workflow.Action, task *models.Task, to workflow.Status, update repositories.TaskUpdate, note string) (*models.Task, error) {
	if update.Fields == nil {
		update.Fields = make(map[string]interface{}, 1)
	}
	update.Fields[repositories.ColumnStatus] = to
	update.Audit = &models.TaskAudit{
		ActorID:    actor.ID,
		Action:     string(action),
		FromStatus: string(task.Status),
		ToStatus:   string(to),
		Comments:   note,
	}

	updated, err := s.taskRepo.Update(ctx, task.ID, update)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to change task status",
			"task_id", task.ID,
			"actor_id", actor.ID,
			"from", task.Status,
			"to", to,
			"error", err,
		)
		return nil, err
	}
	s.invalidate(ctx, task.ID)

	logger.InfoContext(ctx, "Task status changed",
		"task_id", task.ID,
		"actor_id", actor.ID,
		"action", action,
		"from", task.Status,
		"to", to,
	)
	return updated, nil
}

func (s *ApprovalServiceImpl) cachedTask(ctx context.Context, taskID uuid.UUID) (*models.Task, bool) {
	if s.redisClient == nil {
		return nil, false
	}
	var task models.Task
	if err := s.redisClient.GetJSON(ctx, taskCacheKey(taskID), &task); err != nil {
		if !redis.IsCacheMiss(err) {
			logger.WarnContext(ctx, "Task cache read failed", "task_id", taskID, "error", err)
		}
		return nil, false
	}
	return &task, true
}

func (s *ApprovalServiceImpl) invalidate(ctx context.Context, taskID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Invalidate(ctx, taskCacheKey(taskID), taskVersionKey(taskID), taskVersionTTL); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate task cache", "task_id", taskID, "error", err)
	}
}

func (s *ApprovalServiceImpl) cacheVersion(ctx context.Context, taskID uuid.UUID) (string, error) {
	if s.redisClient == nil {
		return "", nil
	}
	version, err := s.redisClient.Version(ctx, taskVersionKey(taskID))
	if err != nil {
		logger.WarnContext(ctx, "Task cache version read failed", "task_id", taskID, "error", err)
	}
	return version, err
}

func taskCacheKey(taskID uuid.UUID) string {
	return taskCachePrefix + taskID.String()
}

func taskVersionKey(taskID uuid.UUID) string {
	return taskCachePrefix + taskID.String() + ":v"
}

// checkStatus enforces an operation's own precondition (when given) and the
// transition table.
func checkStatus(task *models.Task, to workflow.Status, from ...workflow.Status) error {
	if len(from) > 0 && !slices.Contains(from, task.Status) {
		return illegal(task.Status, to)
	}
	return workflow.CheckTransition(task.Status, to)
}

func illegal(from, to workflow.Status) error {
	return &apperrors.IllegalTransition{From: string(from), To: string(to)}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperrors.Validation("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return title, nil
}

func validateComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", apperrors.Validation("comment", "comment is required")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return "", apperrors.Validation("comment", fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}
	return comment, nil
}

func validateAssignment(assignee uuid.UUID, priority workflow.Priority, timerDuration int) error {
	if assignee == uuid.Nil {
		return apperrors.Validation("assigneeId", "assignee is required")
	}
	if !priority.Valid() {
		return apperrors.Validation("priority", fmt.Sprintf("unknown priority %q", priority))
	}
	if timerDuration < 0 {
		return apperrors.Validation("timerDuration", "timer duration cannot be negative")
	}
	return nil
}

func buildAttachments(inputs []services.AttachmentInput, uploader uuid.UUID) ([]models.Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	attachments := make([]models.Attachment, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FileURL) == "" {
			return nil, apperrors.Validation(fmt.Sprintf("attachments[%d]", i), "file name and url are required")
		}
		if in.FileSize < 0 {
			return nil, apperrors.Validation(fmt.Sprintf("attachments[%d].fileSize", i), "file size cannot be negative")
		}
		attachments = append(attachments, models.Attachment{
			UploaderID: uploader,
			FileName:   in.FileName,
			FileURL:    in.FileURL,
			FileType:   in.FileType,
			FileSize:   in.FileSize,
		})
	}
	return attachments, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
