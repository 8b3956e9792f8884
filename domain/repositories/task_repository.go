package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskflow/domain/models"
	"taskflow/domain/workflow"
)

// Columns that TaskUpdate.Fields may name. Anything else is refused.
const (
	ColumnTitle              = "title"
	ColumnDescription        = "description"
	ColumnStatus             = "status"
	ColumnPriority           = "priority"
	ColumnDeadline           = "deadline"
	ColumnSuggestedPriority  = "suggested_priority"
	ColumnSuggestedDeadline  = "suggested_deadline"
	ColumnAssignedUserID     = "assigned_user_id"
	ColumnProgressPercentage = "progress_percentage"
	ColumnTimerDuration      = "timer_duration"
	ColumnCompletedAt        = "completed_at"
)

var updatableColumns = map[string]struct{}{
	ColumnTitle:              {},
	ColumnDescription:        {},
	ColumnStatus:             {},
	ColumnPriority:           {},
	ColumnDeadline:           {},
	ColumnSuggestedPriority:  {},
	ColumnSuggestedDeadline:  {},
	ColumnAssignedUserID:     {},
	ColumnProgressPercentage: {},
	ColumnTimerDuration:      {},
	ColumnCompletedAt:        {},
}

// IsUpdatableColumn reports whether Update accepts the column name.
func IsUpdatableColumn(column string) bool {
	_, ok := updatableColumns[column]
	return ok
}

// Sortable columns for List.
var sortableColumns = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"deadline":   {},
	"priority":   {},
	"status":     {},
	"title":      {},
}

func IsSortableColumn(column string) bool {
	_, ok := sortableColumns[column]
	return ok
}

// TaskFilter fields are optional and AND-combined. VisibleTo restricts the
// result to tasks the user submitted or is assigned to.
type TaskFilter struct {
	Status         *workflow.Status
	Priority       *workflow.Priority
	AssignedUserID *uuid.UUID
	AssignerID     *uuid.UUID
	VisibleTo      *uuid.UUID
}

type Pagination struct {
	Offset int
	Limit  int
}

type Sort struct {
	Field     string
	Direction string // asc or desc
}

// TaskUpdate is a partial update. A non-nil Attachments or Comments slice
// (empty included) replaces the existing set; NewComments are appended.
type TaskUpdate struct {
	Fields      map[string]any
	Attachments []models.Attachment
	Comments    []models.Comment
	NewComments []models.Comment
	Audit       *models.TaskAudit
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task, attachments []models.Attachment, comments []models.Comment) (*models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter TaskFilter, page Pagination, sort Sort) ([]*models.Task, int64, error)
	Update(ctx context.Context, id uuid.UUID, update TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	AppendComment(ctx context.Context, comment *models.Comment) error
	FindOverdueCandidates(ctx context.Context, now time.Time) ([]*models.Task, error)
}
