package serviceimpl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/workflow"
	"taskflow/infrastructure/postgres"
	"taskflow/infrastructure/redis"
	"taskflow/pkg/config"
	"taskflow/pkg/scheduler"
)

var ctx = context.Background()

// recordingNotifier keeps every notice and fails for the task IDs in failFor.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []ports.OverdueNotice
	failFor map[string]bool
}

func (n *recordingNotifier) NotifyOverdue(_ context.Context, notice ports.OverdueNotice) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[notice.TaskID] {
		return "", errors.New("smtp unavailable")
	}
	n.notices = append(n.notices, notice)
	return "sent to " + notice.ManagerEmail, nil
}

func (n *recordingNotifier) sent() []ports.OverdueNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.OverdueNotice(nil), n.notices...)
}

// recordingScheduler only remembers what was registered.
type recordingScheduler struct {
	jobs map[string]string
}

func (s *recordingScheduler) Start()          {}
func (s *recordingScheduler) Stop()           {}
func (s *recordingScheduler) IsRunning() bool { return false }

func (s *recordingScheduler) AddJob(id, cronExpr string, _ func()) error {
	if _, ok := s.jobs[id]; ok {
		return errors.New("job exists")
	}
	s.jobs[id] = cronExpr
	return nil
}

func (s *recordingScheduler) RemoveJob(id string) error {
	delete(s.jobs, id)
	return nil
}

func (s *recordingScheduler) GetJob(id string) (*scheduler.JobInfo, bool) {
	expr, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return &scheduler.JobInfo{ID: id, CronExpr: expr}, true
}

func (s *recordingScheduler) ListJobs() map[string]*scheduler.JobInfo {
	out := make(map[string]*scheduler.JobInfo, len(s.jobs))
	for id, expr := range s.jobs {
		out[id] = &scheduler.JobInfo{ID: id, CronExpr: expr}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	svc      *ApprovalServiceImpl
	notifier *recordingNotifier
	mr       *miniredis.Miniredis

	admin    workflow.Actor
	alice    workflow.Actor // submitter
	bob      workflow.Actor // assignee, reports to the manager
	outsider workflow.Actor
	manager  *models.User
}

type fixtureOption func(*fixtureOptions)

type fixtureOptions struct {
	withRedis bool
}

func withRedis() fixtureOption {
	return func(o *fixtureOptions) { o.withRedis = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var o fixtureOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	f := &fixture{db: db, notifier: &recordingNotifier{failFor: map[string]bool{}}}

	f.manager = seedUser(t, db, "manager", "user", nil)
	admin := seedUser(t, db, "admin", "admin", nil)
	alice := seedUser(t, db, "alice", "user", nil)
	bob := seedUser(t, db, "bob", "user", &f.manager.ID)
	outsider := seedUser(t, db, "mallory", "user", nil)

	f.admin = workflow.Actor{ID: admin.ID, Role: workflow.RoleAdmin}
	f.alice = workflow.Actor{ID: alice.ID, Role: workflow.RoleUser}
	f.bob = workflow.Actor{ID: bob.ID, Role: workflow.RoleUser}
	f.outsider = workflow.Actor{ID: outsider.ID, Role: workflow.RoleUser}

	var redisClient *redis.Client
	if o.withRedis {
		f.mr = miniredis.RunT(t)
		redisClient, err = redis.NewClient(&config.RedisConfig{URL: "redis://" + f.mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = redisClient.Close() })
	}

	f.svc = NewApprovalService(
		postgres.NewTaskRepository(db, postgres.TaskRepositoryConfig{}),
		postgres.NewUserRepository(db),
		f.notifier,
		redisClient,
		ApprovalServiceConfig{CEOEmail: "ceo@example.com"},
	)
	return f
}

func seedUser(t *testing.T, db *gorm.DB, username, role string, managerID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		Role:      role,
		ManagerID: managerID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedTask inserts a task directly, bypassing the workflow.
func (f *fixture) seedTask(t *testing.T, status workflow.Status, assignee *uuid.UUID, deadline *time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:             uuid.New(),
		Title:          "Prepare quarterly report",
		Status:         status,
		Priority:       workflow.PriorityMedium,
		AssignerID:     f.alice.ID,
		AssignedUserID: assignee,
		Deadline:       deadline,
	}
	require.NoError(t, f.db.Omit("Assigner", "Assignee", "Attachments", "Comments").Create(task).Error)
	return task
}

// submitAndApprove drives a task to todo assigned to bob.
func (f *fixture) submitAndApprove(t *testing.T) *models.Task {
	t.Helper()
	task, err := f.svc.SubmitTask(ctx, f.alice, submitInput("Prepare quarterly report"))
	require.NoError(t, err)
	task, err = f.svc.ApproveAndAssign(ctx, f.admin, task.ID, approveInput(f.bob.ID))
	require.NoError(t, err)
	return task
}

func (f *fixture) auditCount(t *testing.T, taskID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.TaskAudit{}).Where("task_id = ?", taskID).Count(&n).Error)
	return n
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
