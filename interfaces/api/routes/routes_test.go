package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskflow/application/serviceimpl"
	"taskflow/domain/models"
	"taskflow/domain/workflow"
	"taskflow/infrastructure/messaging"
	"taskflow/infrastructure/postgres"
	"taskflow/infrastructure/storage"
	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
	"taskflow/pkg/utils"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type taskBody struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Status             string     `json:"status"`
	StatusLabel        string     `json:"statusLabel"`
	Priority           string     `json:"priority"`
	AssignedUserID     *uuid.UUID `json:"assignedUserId"`
	ProgressPercentage int        `json:"progressPercentage"`
	Comments           []struct {
		Content string `json:"content"`
	} `json:"comments"`
}

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	admin *models.User
	alice *models.User
	bob   *models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

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

	manager := &models.User{ID: uuid.New(), Email: "manager@example.com", Username: "manager", Role: "user"}
	s := &testServer{
		db:    db,
		admin: &models.User{ID: uuid.New(), Email: "admin@example.com", Username: "admin", Role: "admin"},
		alice: &models.User{ID: uuid.New(), Email: "alice@example.com", Username: "alice", Role: "user"},
		bob:   &models.User{ID: uuid.New(), Email: "bob@example.com", Username: "bob", Role: "user", ManagerID: &manager.ID},
	}
	for _, u := range []*models.User{manager, s.admin, s.alice, s.bob} {
		require.NoError(t, db.Create(u).Error)
	}

	store, err := storage.NewLocalStorage(storage.LocalStorageConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files"})
	require.NoError(t, err)

	approval := serviceimpl.NewApprovalService(
		postgres.NewTaskRepository(db, postgres.TaskRepositoryConfig{}),
		postgres.NewUserRepository(db),
		messaging.NewNoopOverdueNotifier(),
		nil,
		serviceimpl.ApprovalServiceConfig{CEOEmail: "ceo@example.com"},
	)
	h := handlers.NewHandlers(&handlers.Services{
		ApprovalService:   approval,
		AttachmentService: serviceimpl.NewAttachmentService(store, serviceimpl.AttachmentServiceConfig{MaxUploadSize: 1 << 20}),
		DB:                db,
		JWTSecret:         testSecret,
	})

	s.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	s.app.Use(middleware.RequestIDMiddleware())
	SetupRoutes(s.app, h)
	return s
}

func token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(utils.UserContext{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, user *models.User, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decodeTask(t *testing.T, env envelope) taskBody {
	t.Helper()
	var task taskBody
	require.NoError(t, json.Unmarshal(env.Data, &task))
	return task
}

func (s *testServer) submit(t *testing.T, title string) taskBody {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/tasks", s.alice, map[string]any{
		"title":             title,
		"suggestedPriority": "high",
	})
	require.Equal(t, http.StatusCreated, status)
	return decodeTask(t, env)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	task := s.submit(t, "Prepare quarterly report")
	assert.Equal(t, "pending_approval", task.Status)
	assert.Equal(t, "Pending Approval", task.StatusLabel)

	status, env := s.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/approve", s.admin, map[string]any{
		"assigneeId":    s.bob.ID,
		"priority":      "urgent",
		"deadline":      time.Now().Add(24 * time.Hour).UTC(),
		"timerDuration": 60,
	})
	require.Equal(t, http.StatusOK, status)
	approved := decodeTask(t, env)
	assert.Equal(t, "todo", approved.Status)
	assert.Equal(t, "urgent", approved.Priority)
	require.NotNil(t, approved.AssignedUserID)
	assert.Equal(t, s.bob.ID, *approved.AssignedUserID)

	// the board sends labels as well as values
	status, env = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID.String()+"/status", s.bob, map[string]any{"status": "In Progress"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "in_progress", decodeTask(t, env).Status)

	status, env = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID.String()+"/progress", s.bob, map[string]any{"progress": 55})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 55, decodeTask(t, env).ProgressPercentage)

	status, env = s.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/comments", s.alice, map[string]any{"content": "Looking good"})
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, decodeTask(t, env).Comments, 1)

	status, env = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID.String()+"/status", s.bob, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", decodeTask(t, env).Status)
}

func TestRevisionLoopOverHTTP(t *testing.T) {
	s := newTestServer(t)
	task := s.submit(t, "Draft policy")
	path := "/api/v1/tasks/" + task.ID.String()

	status, env := s.do(t, http.MethodPost, path+"/request-revisions", s.admin, map[string]any{"comment": "Cite the regulation"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "needs_changes", decodeTask(t, env).Status)

	status, env = s.do(t, http.MethodPost, path+"/resubmit", s.alice, map[string]any{"title": "Draft policy v2"})
	require.Equal(t, http.StatusOK, status)
	resubmitted := decodeTask(t, env)
	assert.Equal(t, "pending_approval", resubmitted.Status)
	assert.Equal(t, "Draft policy v2", resubmitted.Title)

	status, env = s.do(t, http.MethodPost, path+"/reject", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", decodeTask(t, env).Status)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	task := s.submit(t, "Prepare quarterly report")
	path := "/api/v1/tasks/" + task.ID.String()

	t.Run("missing token", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, utils.ErrCodeUnauthorized, env.Error.Code)
	})

	t.Run("non-admin approve is forbidden", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, path+"/approve", s.alice, map[string]any{
			"assigneeId": s.bob.ID,
			"priority":   "low",
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, utils.ErrCodeForbidden, env.Error.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, path+"/resubmit", s.alice, map[string]any{"title": "again"})
		assert.Equal(t, http.StatusConflict, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, utils.ErrCodeIllegalTransition, env.Error.Code)

		var details map[string]string
		require.NoError(t, json.Unmarshal(env.Error.Details, &details))
		assert.Equal(t, "pending_approval", details["from"])
		assert.Equal(t, "pending_approval", details["to"])
	})

	t.Run("board move outside the table is a conflict", func(t *testing.T) {
		for _, user := range []*models.User{s.admin, s.alice, s.bob} {
			status, env := s.do(t, http.MethodPatch, path+"/status", user, map[string]any{"status": "in_progress"})
			assert.Equal(t, http.StatusConflict, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, utils.ErrCodeIllegalTransition, env.Error.Code)
		}
	})

	t.Run("request validation", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, "/api/v1/tasks", s.alice, map[string]any{"title": ""})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
	})

	t.Run("helper validation goes through the error handler", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, path+"/request-revisions", s.admin, map[string]any{"comment": ""})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
		assert.Contains(t, string(env.Error.Details), "comment")
	})

	t.Run("unknown status", func(t *testing.T) {
		status, env := s.do(t, http.MethodPatch, path+"/status", s.admin, map[string]any{"status": "archived"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/tasks/not-a-uuid", s.alice, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, utils.ErrCodeBadRequest, env.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), s.admin, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, utils.ErrCodeNotFound, env.Error.Code)
	})

	t.Run("other users cannot read the task", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, path, s.bob, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestListPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 15; i++ {
		s.submit(t, fmt.Sprintf("task %02d", i))
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/tasks?status=pending_approval&sortBy=title&sortOrder=asc", s.admin, nil)
	require.Equal(t, http.StatusOK, status)

	var page struct {
		Tasks      []taskBody `json:"tasks"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
			HasNext    bool  `json:"hasNext"`
			HasPrev    bool  `json:"hasPrev"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Tasks, 10)
	assert.Equal(t, "task 00", page.Tasks[0].Title)
	assert.EqualValues(t, 15, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks?page=2", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Tasks, 5)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks?sortBy=password", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
}

func TestTransitionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/workflow/transitions", s.alice, nil)
	require.Equal(t, http.StatusOK, status)

	var table struct {
		Statuses []struct {
			Value    string `json:"value"`
			Terminal bool   `json:"terminal"`
		} `json:"statuses"`
		Transitions map[string][]string `json:"transitions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &table))
	assert.Len(t, table.Statuses, len(workflow.Statuses()))
	assert.ElementsMatch(t, []string{"todo", "needs_changes", "rejected"}, table.Transitions["pending_approval"])
	assert.Empty(t, table.Transitions["completed"])
}

func TestSweepOverdueEndpoint(t *testing.T) {
	s := newTestServer(t)
	past := time.Now().Add(-time.Hour).UTC()
	task := &models.Task{
		ID:             uuid.New(),
		Title:          "Late task",
		Status:         workflow.StatusToDo,
		Priority:       workflow.PriorityMedium,
		AssignerID:     s.admin.ID,
		AssignedUserID: &s.bob.ID,
		Deadline:       &past,
	}
	require.NoError(t, s.db.Omit("Assigner", "Assignee", "Attachments", "Comments").Create(task).Error)

	status, denied := s.do(t, http.MethodPost, "/api/v1/tasks/sweep-overdue", s.alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, denied.Error)
	assert.Equal(t, utils.ErrCodeForbidden, denied.Error.Code)

	status, env := s.do(t, http.MethodPost, "/api/v1/tasks/sweep-overdue", s.admin, map[string]any{"now": time.Now().UTC()})
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Transitioned []uuid.UUID `json:"transitioned"`
		Notified     []uuid.UUID `json:"notified"`
		Failed       []any       `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []uuid.UUID{task.ID}, result.Transitioned)
	assert.Equal(t, []uuid.UUID{task.ID}, result.Notified)
	assert.Empty(t, result.Failed)
}

func TestAttachmentUploadEndpoint(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "Site Plan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, s.alice))

	status, env := s.send(t, req)
	require.Equal(t, http.StatusCreated, status)

	var uploaded struct {
		FileName string `json:"fileName"`
		FileURL  string `json:"fileUrl"`
		FileSize int64  `json:"fileSize"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Equal(t, "Site Plan.png", uploaded.FileName)
	assert.Contains(t, uploaded.FileURL, "/site-plan-")
	assert.EqualValues(t, len("not really a png"), uploaded.FileSize)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
}
