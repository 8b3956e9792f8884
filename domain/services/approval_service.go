package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskflow/domain/models"
	"taskflow/domain/repositories"
	"taskflow/domain/workflow"
)

type AttachmentInput struct {
	FileName string
	FileURL  string
	FileType string
	FileSize int64
}

type SubmitTaskInput struct {
	Title             string
	Description       *string
	SuggestedPriority *workflow.Priority
	SuggestedDeadline *time.Time
	Attachments       []AttachmentInput
}

type CreateAssignedTaskInput struct {
	Title         string
	Description   *string
	Priority      workflow.Priority
	Deadline      *time.Time
	AssigneeID    uuid.UUID
	TimerDuration int
	Attachments   []AttachmentInput
}

type ApproveInput struct {
	AssigneeID    uuid.UUID
	Priority      workflow.Priority
	Deadline      *time.Time
	TimerDuration int
}

type SweepFailure struct {
	TaskID uuid.UUID
	Reason string
}

// SweepResult lists every task the sweep moved to overdue and the outcome of
// its notification. A task appears in Transitioned and in exactly one of
// Notified or Failed, unless the transition itself failed.
type SweepResult struct {
	Transitioned []uuid.UUID
	Notified     []uuid.UUID
	Failed       []SweepFailure
}

type ListTasksQuery struct {
	Filter     repositories.TaskFilter
	Pagination repositories.Pagination
	Sort       repositories.Sort
}

// ApprovalService carries every business operation on a task. Each mutating
// call authorizes the actor, checks the transition table and persists the
// change in one repository transaction.
type ApprovalService interface {
	SubmitTask(ctx context.Context, submitter workflow.Actor, input SubmitTaskInput) (*models.Task, error)
	CreateAssignedTask(ctx context.Context, admin workflow.Actor, input CreateAssignedTaskInput) (*models.Task, error)
	ApproveAndAssign(ctx context.Context, admin workflow.Actor, taskID uuid.UUID, input ApproveInput) (*models.Task, error)
	RequestRevisions(ctx context.Context, admin workflow.Actor, taskID uuid.UUID, comment string) (*models.Task, error)
	Reject(ctx context.Context, admin workflow.Actor, taskID uuid.UUID) (*models.Task, error)
	Resubmit(ctx context.Context, submitter workflow.Actor, taskID uuid.UUID, title string, description *string) (*models.Task, error)
	SweepOverdue(ctx context.Context, now time.Time) (*SweepResult, error)
	// RunOverdueSweep is SweepOverdue on behalf of a caller, as opposed to the scheduler.
	RunOverdueSweep(ctx context.Context, admin workflow.Actor, now time.Time) (*SweepResult, error)

	ChangeStatus(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, to workflow.Status) (*models.Task, error)
	UpdateProgress(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, percent int) (*models.Task, error)
	AddComment(ctx context.Context, actor workflow.Actor, taskID uuid.UUID, content string) (*models.Task, error)

	GetTask(ctx context.Context, actor workflow.Actor, taskID uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, actor workflow.Actor, query ListTasksQuery) ([]*models.Task, int64, error)
	DeleteTask(ctx context.Context, actor workflow.Actor, taskID uuid.UUID) error
}
