package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskflow/domain/models"
	"taskflow/domain/workflow"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, managerID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		Role:      "user",
		ManagerID: managerID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTask(assigner uuid.UUID, status workflow.Status) *models.Task {
	return &models.Task{
		Title:      "Prepare quarterly report",
		Status:     status,
		Priority:   workflow.PriorityMedium,
		AssignerID: assigner,
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, taskID uuid.UUID) int64 {
	t.Helper()
	var n int64
	query := db.Unscoped().Model(model)
	if _, ok := model.(*models.Task); ok {
		query = query.Where("id = ?", taskID)
	} else {
		query = query.Where("task_id = ?", taskID)
	}
	require.NoError(t, query.Count(&n).Error)
	return n
}

var ctx = context.Background()
