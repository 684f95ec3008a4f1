package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-tracker/internal/dto"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	kv     repository.KVStore
	store  *services.TaskStore
	router *gin.Engine
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(&models.KVEntry{}))

	suite.kv = repository.NewGormKVStore(suite.db)
	suite.store = services.NewTaskStore(suite.kv)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	handler := NewTaskHandler(suite.store, services.FixedClock(testNow), time.UTC)
	suite.router = NewRouter(suite.store, handler, NewCookieSessionStore("test-secret", false))
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) perform(method, url string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			suite.Require().NoError(err)
			raw = string(b)
		}
		req = httptest.NewRequest(method, url, bytes.NewBufferString(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) createTask(title, deadline string) dto.TaskDTO {
	w := suite.perform("POST", "/api/tasks", dto.CreateTaskRequest{Title: title, Deadline: deadline})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (suite *TaskHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) apierrors.APIError {
	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func (suite *TaskHandlerTestSuite) listTasks(query string, cookies ...*http.Cookie) dto.TaskListResponse {
	w := suite.perform("GET", "/api/tasks"+query, nil, cookies...)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *TaskHandlerTestSuite) TestHealth() {
	w := suite.perform("GET", "/health", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

// TestCreateTask_Success tests successful task creation
func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	w := suite.perform("POST", "/api/tasks", dto.CreateTaskRequest{
		Title:       "  Write report ",
		Description: "Quarterly numbers",
		Deadline:    "2025-03-12T09:00",
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	assert.NotEmpty(suite.T(), task.ID)
	assert.Equal(suite.T(), "Write report", task.Title)
	assert.Equal(suite.T(), models.TaskStatusInProgress, task.Status)
	assert.Equal(suite.T(), "In progress", task.StatusLabel)
	assert.Equal(suite.T(), "2025/03/12 09:00", task.DeadlineLabel.Absolute)
	assert.Equal(suite.T(), "2 days remaining", task.DeadlineLabel.Relative)
	assert.True(suite.T(), testNow.Equal(task.CreatedAt))
	assert.Nil(suite.T(), task.CompletedAt)
}

// TestCreateTask_Validation tests rejected creation requests
func (suite *TaskHandlerTestSuite) TestCreateTask_Validation() {
	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"empty title", dto.CreateTaskRequest{Title: " ", Deadline: "2025-03-12T09:00"}, "title"},
		{"missing deadline", dto.CreateTaskRequest{Title: "Task"}, "deadline"},
		{"unparsable deadline", dto.CreateTaskRequest{Title: "Task", Deadline: "someday"}, "deadline"},
		{"empty title and unparsable deadline", dto.CreateTaskRequest{Title: "", Deadline: "someday"}, "title"},
		{"deadline past year 9999 in UTC", dto.CreateTaskRequest{Title: "Task", Deadline: "9999-12-31T23:00:00-14:00"}, "deadline"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.perform("POST", "/api/tasks", tt.body)

			suite.Equal(http.StatusBadRequest, w.Code)
			apiErr := suite.decodeError(w)
			suite.Equal(apierrors.ErrCodeInvalidInput, apiErr.Code)
			suite.Equal(map[string]interface{}{"field": tt.field}, apiErr.Details)
		})
	}

	assert.Empty(suite.T(), suite.store.Tasks())
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidBody() {
	w := suite.perform("POST", "/api/tasks", "{not json")

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Persisted() {
	created := suite.createTask("Persist me", "2025-03-12T09:00:00Z")

	reloaded := services.NewTaskStore(suite.kv)
	suite.Require().NoError(reloaded.Load(context.Background()))

	task, ok := reloaded.Get(created.ID)
	suite.Require().True(ok)
	assert.Equal(suite.T(), "Persist me", task.Title)
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	created := suite.createTask("Find me", "2025-03-12T09:00:00Z")

	w := suite.perform("GET", "/api/tasks/"+created.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(suite.T(), created.ID, task.ID)

	w = suite.perform("GET", "/api/tasks/does-not-exist", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), apierrors.ErrCodeNotFound, suite.decodeError(w).Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateStatus_CompleteAndReopen() {
	created := suite.createTask("Toggle", "2025-03-12T09:00:00Z")
	url := "/api/tasks/" + created.ID + "/status"

	w := suite.perform("PATCH", url, gin.H{"status": "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)
	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(suite.T(), models.TaskStatusCompleted, task.Status)
	suite.Require().NotNil(task.CompletedAt)
	assert.True(suite.T(), testNow.Equal(*task.CompletedAt))

	w = suite.perform("PATCH", url, gin.H{"status": "in-progress"})
	suite.Require().Equal(http.StatusOK, w.Code)
	task = dto.TaskDTO{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(suite.T(), models.TaskStatusInProgress, task.Status)
	assert.Nil(suite.T(), task.CompletedAt)
}

func (suite *TaskHandlerTestSuite) TestUpdateStatus_Rejected() {
	created := suite.createTask("Task", "2025-03-12T09:00:00Z")
	url := "/api/tasks/" + created.ID + "/status"

	w := suite.perform("PATCH", url, gin.H{"status": "overdue"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.perform("PATCH", url, gin.H{"status": "paused"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.perform("PATCH", url, gin.H{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.perform("PATCH", "/api/tasks/missing/status", gin.H{"status": "completed"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	task, _ := suite.store.Get(created.ID)
	assert.Equal(suite.T(), models.TaskStatusInProgress, task.Status)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_MovesToHistory() {
	first := suite.createTask("First", "2025-03-12T09:00:00Z")
	second := suite.createTask("Second", "2025-03-13T09:00:00Z")

	w := suite.perform("DELETE", "/api/tasks/"+first.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Message      string              `json:"message"`
		HistoryEntry dto.HistoryEntryDTO `json:"history_entry"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(suite.T(), first.ID, resp.HistoryEntry.ID)
	assert.Equal(suite.T(), "2025/03/10 09:00", resp.HistoryEntry.DeletedAtLabel)

	list := suite.listTasks("")
	suite.Require().Len(list.Tasks, 1)
	assert.Equal(suite.T(), second.ID, list.Tasks[0].ID)

	w = suite.perform("GET", "/api/history", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var history dto.HistoryListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &history))
	suite.Require().Equal(1, history.Count)
	assert.Equal(suite.T(), "First", history.History[0].Title)

	w = suite.perform("DELETE", "/api/tasks/"+first.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListHistory_Paginated() {
	for _, title := range []string{"One", "Two", "Three"} {
		created := suite.createTask(title, "2025-03-12T09:00:00Z")
		w := suite.perform("DELETE", "/api/tasks/"+created.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}

	w := suite.perform("GET", "/api/history?page=2&limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var history dto.HistoryListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(suite.T(), 1, history.Count)
	assert.Equal(suite.T(), 3, history.Pagination.Total)
	assert.Equal(suite.T(), 2, history.Pagination.Page)
	suite.Require().Len(history.History, 1)
	// all deletions share the fixed clock, so insertion order is kept
	assert.Equal(suite.T(), "Three", history.History[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListHistory_PageBeyondRange() {
	created := suite.createTask("Gone", "2025-03-12T09:00:00Z")
	w := suite.perform("DELETE", "/api/tasks/"+created.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.perform("GET", "/api/history?page=9223372036854775807&limit=50", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var history dto.HistoryListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(suite.T(), history.History)
	assert.Equal(suite.T(), 1, history.Pagination.Total)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Filters() {
	done := suite.createTask("Done", "2025-03-12T09:00:00Z")
	suite.createTask("Open", "2025-03-12T09:00:00Z")
	suite.createTask("Late", "2025-03-09T09:00:00Z")

	w := suite.perform("PATCH", "/api/tasks/"+done.ID+"/status", gin.H{"status": "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)
	_, err := suite.store.SweepOverdue(context.Background(), testNow)
	suite.Require().NoError(err)

	all := suite.listTasks("")
	assert.Equal(suite.T(), models.FilterAll, all.Filter)
	assert.Equal(suite.T(), 3, all.Count)
	assert.Nil(suite.T(), all.EmptyState)

	overdue := suite.listTasks("?filter=overdue")
	suite.Require().Len(overdue.Tasks, 1)
	assert.Equal(suite.T(), "Late", overdue.Tasks[0].Title)
	assert.Equal(suite.T(), "Overdue", overdue.Tasks[0].StatusLabel)
	assert.Equal(suite.T(), "overdue by 1 day", overdue.Tasks[0].DeadlineLabel.Relative)

	completed := suite.listTasks("?filter=completed")
	suite.Require().Len(completed.Tasks, 1)
	assert.Equal(suite.T(), "Done", completed.Tasks[0].Title)

	w = suite.perform("GET", "/api/tasks?filter=someday", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_EmptyState() {
	resp := suite.listTasks("?filter=overdue")

	assert.Empty(suite.T(), resp.Tasks)
	suite.Require().NotNil(resp.EmptyState)
	assert.Equal(suite.T(), "No overdue tasks", resp.EmptyState.Title)
}

func (suite *TaskHandlerTestSuite) TestSetFilter_RememberedInSession() {
	done := suite.createTask("Done", "2025-03-12T09:00:00Z")
	suite.createTask("Open", "2025-03-12T09:00:00Z")
	w := suite.perform("PATCH", "/api/tasks/"+done.ID+"/status", gin.H{"status": "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.perform("PUT", "/api/filter", dto.SetFilterRequest{Filter: "completed"})
	suite.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	suite.Require().NotEmpty(cookies)

	remembered := suite.listTasks("", cookies...)
	assert.Equal(suite.T(), models.FilterCompleted, remembered.Filter)
	suite.Require().Len(remembered.Tasks, 1)
	assert.Equal(suite.T(), "Done", remembered.Tasks[0].Title)

	// an explicit query wins over the session
	explicit := suite.listTasks("?filter=all", cookies...)
	assert.Equal(suite.T(), 2, explicit.Count)
}

func (suite *TaskHandlerTestSuite) TestSetFilter_Invalid() {
	w := suite.perform("PUT", "/api/filter", dto.SetFilterRequest{Filter: "later"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.perform("PUT", "/api/filter", gin.H{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}

type unwritableKV struct {
	*repository.MemoryKVStore
}

func (unwritableKV) Set(context.Context, string, string) error {
	return errors.New("read-only file system")
}

func TestCreateTask_StorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := services.NewTaskStore(unwritableKV{repository.NewMemoryKVStore()})
	handler := NewTaskHandler(store, services.FixedClock(testNow), time.UTC)
	router := NewRouter(store, handler, NewCookieSessionStore("test-secret", false))

	body, _ := json.Marshal(dto.CreateTaskRequest{Title: "Task", Deadline: "2025-03-12T09:00:00Z"})
	req := httptest.NewRequest("POST", "/api/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, store.Tasks())
}
