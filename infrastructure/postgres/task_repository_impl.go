package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/domain/apperrors"
	"taskflow/domain/models"
	"taskflow/domain/repositories"
	"taskflow/domain/workflow"
)

// priorityRankSQL sorts priorities by rank instead of alphabetically.
const priorityRankSQL = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END"

type TaskRepositoryConfig struct {
	// HardDelete removes rows physically instead of setting deleted_at.
	HardDelete bool
}

type TaskRepositoryImpl struct {
	db         *gorm.DB
	hardDelete bool
}

func NewTaskRepository(db *gorm.DB, config TaskRepositoryConfig) repositories.TaskRepository {
	return &TaskRepositoryImpl{db: db, hardDelete: config.HardDelete}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task, attachments []models.Attachment, comments []models.Comment) (*models.Task, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		if err := insertAttachments(tx, task.ID, attachments); err != nil {
			return err
		}
		return insertComments(tx, task.ID, comments)
	})
	if err != nil {
		return nil, wrapError("create task", err)
	}
	return r.GetByID(ctx, task.ID)
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Assigner").
		Preload("Assignee").
		Preload("Attachments", orderByCreatedAt).
		Preload("Comments", orderByCreatedAt).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("task", id.String())
		}
		return nil, apperrors.Database("get task", err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter repositories.TaskFilter, page repositories.Pagination, sort repositories.Sort) ([]*models.Task, int64, error) {
	order, err := orderBy(sort)
	if err != nil {
		return nil, 0, err
	}

	// count and page are separate queries over the same predicate
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Database("count tasks", err)
	}

	query := applyFilter(r.db.WithContext(ctx), filter).
		Preload("Assigner").
		Preload("Assignee").
		Order(order).
		Order("id ASC")
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}

	var tasks []*models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, apperrors.Database("list tasks", err)
	}
	return tasks, total, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, id uuid.UUID, update repositories.TaskUpdate) (*models.Task, error) {
	fields := make(map[string]interface{}, len(update.Fields)+1)
	for column, value := range update.Fields {
		if !repositories.IsUpdatableColumn(column) {
			return nil, apperrors.Validation(column, "field cannot be updated")
		}
		fields[column] = value
	}
	fields["updated_at"] = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("task", id.String())
		}

		if update.Attachments != nil {
			if err := tx.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
			if err := insertAttachments(tx, id, update.Attachments); err != nil {
				return err
			}
		}
		if update.Comments != nil {
			if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := insertComments(tx, id, update.Comments); err != nil {
				return err
			}
		}
		if err := insertComments(tx, id, update.NewComments); err != nil {
			return err
		}

		if update.Audit != nil {
			audit := *update.Audit
			audit.TaskID = id
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("update task", err)
	}
	return r.GetByID(ctx, id)
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	existed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Count(&live).Error; err != nil {
			return err
		}
		if live == 0 {
			return nil
		}
		existed = true

		scope := tx
		if r.hardDelete {
			scope = tx.Unscoped()
			if err := scope.Where("task_id = ?", id).Delete(&models.TaskAudit{}).Error; err != nil {
				return err
			}
		}
		// children first so hard deletes do not trip foreign keys
		if err := scope.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := scope.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return scope.Where("id = ?", id).Delete(&models.Task{}).Error
	})
	if err != nil {
		return false, wrapError("delete task", err)
	}
	return existed, nil
}

func (r *TaskRepositoryImpl) AppendComment(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Task{}).Where("id = ?", comment.TaskID).Count(&live).Error; err != nil {
			return err
		}
		if live == 0 {
			return apperrors.NotFound("task", comment.TaskID.String())
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).Where("id = ?", comment.TaskID).
			UpdateColumn("updated_at", time.Now().UTC()).Error
	})
	return wrapError("append comment", err)
}

func (r *TaskRepositoryImpl) FindOverdueCandidates(ctx context.Context, now time.Time) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline < ?", now.UTC()).
		Where("status IN ?", []workflow.Status{workflow.StatusToDo, workflow.StatusInProgress}).
		Order("deadline ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, apperrors.Database("find overdue candidates", err)
	}
	return tasks, nil
}

func applyFilter(query *gorm.DB, filter repositories.TaskFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}
	if filter.AssignerID != nil {
		query = query.Where("assigner_id = ?", *filter.AssignerID)
	}
	if filter.VisibleTo != nil {
		query = query.Where("assigner_id = ? OR assigned_user_id = ?", *filter.VisibleTo, *filter.VisibleTo)
	}
	return query
}

// orderBy only ever emits column names from the sortable allow-list.
func orderBy(sort repositories.Sort) (string, error) {
	field := sort.Field
	if field == "" {
		field = "created_at"
	}
	if !repositories.IsSortableColumn(field) {
		return "", apperrors.Validation("sortBy", fmt.Sprintf("cannot sort by %q", field))
	}

	direction := "DESC"
	switch sort.Direction {
	case "", "desc", "DESC":
	case "asc", "ASC":
		direction = "ASC"
	default:
		return "", apperrors.Validation("sortOrder", fmt.Sprintf("sort order must be asc or desc, got %q", sort.Direction))
	}

	if field == "priority" {
		return priorityRankSQL + " " + direction, nil
	}
	return field + " " + direction, nil
}

func orderByCreatedAt(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func insertAttachments(tx *gorm.DB, taskID uuid.UUID, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	rows := make([]models.Attachment, len(attachments))
	for i, a := range attachments {
		a.TaskID = taskID
		rows[i] = a
	}
	return tx.Create(&rows).Error
}

func insertComments(tx *gorm.DB, taskID uuid.UUID, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	rows := make([]models.Comment, len(comments))
	for i, c := range comments {
		c.TaskID = taskID
		rows[i] = c
	}
	return tx.Create(&rows).Error
}

// wrapError passes typed errors through and wraps everything else so driver
// errors never leave the repository.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *apperrors.NotFoundError
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &notFound), errors.As(err, &validation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound("task", "")
	}
	return apperrors.Database(op, err)
}
