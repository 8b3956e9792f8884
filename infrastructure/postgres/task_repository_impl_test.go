package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskflow/domain/apperrors"
	"taskflow/domain/models"
	"taskflow/domain/repositories"
	"taskflow/domain/workflow"
)

func TestTaskRepository_CreateLoadsJoins(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "somchai", nil)

	attachments := []models.Attachment{
		{UploaderID: submitter.ID, FileName: "brief.pdf", FileURL: "/files/brief.pdf", FileType: "application/pdf", FileSize: 1024},
		{UploaderID: submitter.ID, FileName: "sketch.png", FileURL: "/files/sketch.png", FileType: "image/png", FileSize: 2048},
	}
	comments := []models.Comment{{AuthorID: submitter.ID, Content: "please review"}}

	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusPendingApproval), attachments, comments)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, workflow.StatusPendingApproval, created.Status)
	require.NotNil(t, created.Assigner)
	assert.Equal(t, "somchai", created.Assigner.Username)
	assert.Nil(t, created.Assignee)
	assert.Len(t, created.Attachments, 2)
	require.Len(t, created.Comments, 1)
	assert.Equal(t, "please review", created.Comments[0].Content)
	for _, a := range created.Attachments {
		assert.Equal(t, created.ID, a.TaskID)
	}
}

func TestTaskRepository_CreateRollsBackWhenCommentInsertFails(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "malee", nil)

	forced := errors.New("forced comment failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_comments", func(tx *gorm.DB) {
		if tx.Statement.Table == "task_comments" {
			_ = tx.AddError(forced)
		}
	}))

	task := newTask(submitter.ID, workflow.StatusPendingApproval)
	task.ID = uuid.New()
	attachments := []models.Attachment{
		{UploaderID: submitter.ID, FileName: "a.txt", FileURL: "/files/a.txt"},
		{UploaderID: submitter.ID, FileName: "b.txt", FileURL: "/files/b.txt"},
	}
	comments := []models.Comment{{AuthorID: submitter.ID, Content: "will fail"}}

	_, err := repo.Create(ctx, task, attachments, comments)
	require.Error(t, err)
	assert.True(t, apperrors.IsDatabase(err))
	assert.ErrorIs(t, err, forced)

	assert.Zero(t, countRows(t, db, &models.Task{}, task.ID))
	assert.Zero(t, countRows(t, db, &models.Attachment{}, task.ID))
	assert.Zero(t, countRows(t, db, &models.Comment{}, task.ID))
}

func TestTaskRepository_GetByIDNotFound(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t), TaskRepositoryConfig{})

	_, err := repo.GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTaskRepository_ListPaginatesFilteredRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "niran", nil)

	for i := 0; i < 15; i++ {
		_, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusToDo), nil, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusPendingApproval), nil, nil)
		require.NoError(t, err)
	}

	status := workflow.StatusToDo
	filter := repositories.TaskFilter{Status: &status}

	first, total, err := repo.List(ctx, filter, repositories.Pagination{Offset: 0, Limit: 10}, repositories.Sort{})
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, int64(15), total)
	for _, task := range first {
		assert.Equal(t, workflow.StatusToDo, task.Status)
	}

	second, total, err := repo.List(ctx, filter, repositories.Pagination{Offset: 10, Limit: 10}, repositories.Sort{})
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, int64(15), total)

	seen := map[uuid.UUID]bool{}
	for _, task := range append(first, second...) {
		assert.False(t, seen[task.ID], "task %s listed twice", task.ID)
		seen[task.ID] = true
	}
}

func TestTaskRepository_ListSortValidation(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t), TaskRepositoryConfig{})

	tests := []struct {
		name    string
		sort    repositories.Sort
		wantErr bool
	}{
		{"default", repositories.Sort{}, false},
		{"deadline asc", repositories.Sort{Field: "deadline", Direction: "asc"}, false},
		{"priority desc", repositories.Sort{Field: "priority", Direction: "desc"}, false},
		{"unknown column", repositories.Sort{Field: "password"}, true},
		{"injection attempt", repositories.Sort{Field: "title; DROP TABLE tasks"}, true},
		{"bad direction", repositories.Sort{Field: "title", Direction: "sideways"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := repo.List(ctx, repositories.TaskFilter{}, repositories.Pagination{Limit: 10}, tt.sort)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskRepository_ListSortsPriorityByRank(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "kanya", nil)

	for _, p := range []workflow.Priority{workflow.PriorityMedium, workflow.PriorityUrgent, workflow.PriorityLow, workflow.PriorityHigh} {
		task := newTask(submitter.ID, workflow.StatusToDo)
		task.Priority = p
		_, err := repo.Create(ctx, task, nil, nil)
		require.NoError(t, err)
	}

	tasks, _, err := repo.List(ctx, repositories.TaskFilter{}, repositories.Pagination{Limit: 10}, repositories.Sort{Field: "priority", Direction: "desc"})
	require.NoError(t, err)

	var got []workflow.Priority
	for _, task := range tasks {
		got = append(got, task.Priority)
	}
	assert.Equal(t, []workflow.Priority{workflow.PriorityUrgent, workflow.PriorityHigh, workflow.PriorityMedium, workflow.PriorityLow}, got)
}

func TestTaskRepository_ListVisibleTo(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	alice := seedUser(t, db, "alice", nil)
	bob := seedUser(t, db, "bob", nil)
	carol := seedUser(t, db, "carol", nil)

	_, err := repo.Create(ctx, newTask(alice.ID, workflow.StatusPendingApproval), nil, nil)
	require.NoError(t, err)
	assigned := newTask(carol.ID, workflow.StatusToDo)
	assigned.AssignedUserID = &alice.ID
	_, err = repo.Create(ctx, assigned, nil, nil)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTask(bob.ID, workflow.StatusPendingApproval), nil, nil)
	require.NoError(t, err)

	tasks, total, err := repo.List(ctx, repositories.TaskFilter{VisibleTo: &alice.ID}, repositories.Pagination{Limit: 10}, repositories.Sort{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)
}

func TestTaskRepository_UpdateAppliesWhitelistedFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "prasert", nil)
	admin := seedUser(t, db, "admin", nil)

	suggested := workflow.PriorityHigh
	task := newTask(submitter.ID, workflow.StatusPendingApproval)
	task.SuggestedPriority = &suggested
	created, err := repo.Create(ctx, task, nil, nil)
	require.NoError(t, err)
	before := created.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	updated, err := repo.Update(ctx, created.ID, repositories.TaskUpdate{
		Fields: map[string]interface{}{
			repositories.ColumnStatus:            workflow.StatusToDo,
			repositories.ColumnAssignedUserID:    submitter.ID,
			repositories.ColumnSuggestedPriority: nil,
		},
		NewComments: []models.Comment{{AuthorID: admin.ID, Content: "approved"}},
		Audit: &models.TaskAudit{
			ActorID:    admin.ID,
			Action:     "approve",
			FromStatus: string(workflow.StatusPendingApproval),
			ToStatus:   string(workflow.StatusToDo),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusToDo, updated.Status)
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, submitter.ID, *updated.AssignedUserID)
	assert.Nil(t, updated.SuggestedPriority)
	assert.True(t, updated.UpdatedAt.After(before))
	require.Len(t, updated.Comments, 1)

	var audits []models.TaskAudit
	require.NoError(t, db.Where("task_id = ?", created.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, "approve", audits[0].Action)
}

func TestTaskRepository_UpdateRejectsUnknownColumn(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "wichai", nil)
	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusPendingApproval), nil, nil)
	require.NoError(t, err)

	_, err = repo.Update(ctx, created.ID, repositories.TaskUpdate{
		Fields: map[string]interface{}{"assigner_id": uuid.New()},
	})
	assert.True(t, apperrors.IsValidation(err))

	reloaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, submitter.ID, reloaded.AssignerID)
}

func TestTaskRepository_UpdateMissingTask(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t), TaskRepositoryConfig{})

	_, err := repo.Update(ctx, uuid.New(), repositories.TaskUpdate{
		Fields: map[string]interface{}{repositories.ColumnTitle: "x"},
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTaskRepository_UpdateReplacesAttachments(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "arun", nil)

	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusPendingApproval), []models.Attachment{
		{UploaderID: submitter.ID, FileName: "old-1.txt", FileURL: "/files/old-1.txt"},
		{UploaderID: submitter.ID, FileName: "old-2.txt", FileURL: "/files/old-2.txt"},
	}, nil)
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, repositories.TaskUpdate{
		Attachments: []models.Attachment{{UploaderID: submitter.ID, FileName: "new.txt", FileURL: "/files/new.txt"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "new.txt", updated.Attachments[0].FileName)
	assert.Equal(t, int64(3), countRows(t, db, &models.Attachment{}, created.ID))
}

func TestTaskRepository_SoftDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "suda", nil)

	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusToDo),
		[]models.Attachment{{UploaderID: submitter.ID, FileName: "a.txt", FileURL: "/files/a.txt"}},
		[]models.Comment{{AuthorID: submitter.ID, Content: "hello"}})
	require.NoError(t, err)

	existed, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = repo.GetByID(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))

	// rows are kept with a tombstone
	assert.Equal(t, int64(1), countRows(t, db, &models.Task{}, created.ID))
	var liveAttachments int64
	require.NoError(t, db.Model(&models.Attachment{}).Where("task_id = ?", created.ID).Count(&liveAttachments).Error)
	assert.Zero(t, liveAttachments)

	existed, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	tasks, total, err := repo.List(ctx, repositories.TaskFilter{}, repositories.Pagination{Limit: 10}, repositories.Sort{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
}

func TestTaskRepository_HardDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{HardDelete: true})
	submitter := seedUser(t, db, "chai", nil)

	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusToDo),
		[]models.Attachment{{UploaderID: submitter.ID, FileName: "a.txt", FileURL: "/files/a.txt"}},
		[]models.Comment{{AuthorID: submitter.ID, Content: "hello"}})
	require.NoError(t, err)

	existed, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	assert.Zero(t, countRows(t, db, &models.Task{}, created.ID))
	assert.Zero(t, countRows(t, db, &models.Attachment{}, created.ID))
	assert.Zero(t, countRows(t, db, &models.Comment{}, created.ID))
}

func TestTaskRepository_AppendComment(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "pim", nil)
	created, err := repo.Create(ctx, newTask(submitter.ID, workflow.StatusToDo), nil, nil)
	require.NoError(t, err)

	require.NoError(t, repo.AppendComment(ctx, &models.Comment{TaskID: created.ID, AuthorID: submitter.ID, Content: "first"}))
	require.NoError(t, repo.AppendComment(ctx, &models.Comment{TaskID: created.ID, AuthorID: submitter.ID, Content: "second"}))

	reloaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Comments, 2)
	assert.Equal(t, "first", reloaded.Comments[0].Content)
	assert.Equal(t, "second", reloaded.Comments[1].Content)

	err = repo.AppendComment(ctx, &models.Comment{TaskID: uuid.New(), AuthorID: submitter.ID, Content: "orphan"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTaskRepository_FindOverdueCandidates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db, TaskRepositoryConfig{})
	submitter := seedUser(t, db, "lek", nil)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	create := func(status workflow.Status, deadline *time.Time) uuid.UUID {
		task := newTask(submitter.ID, status)
		task.Deadline = deadline
		created, err := repo.Create(ctx, task, nil, nil)
		require.NoError(t, err)
		return created.ID
	}

	todoLate := create(workflow.StatusToDo, &past)
	progressLate := create(workflow.StatusInProgress, &past)
	create(workflow.StatusCompleted, &past)
	create(workflow.StatusOverdue, &past)
	create(workflow.StatusToDo, &future)
	create(workflow.StatusToDo, nil)

	tasks, err := repo.FindOverdueCandidates(ctx, now)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{todoLate, progressLate}, ids)
}
