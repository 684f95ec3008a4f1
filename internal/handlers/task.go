package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/dto"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/services"
	"github.com/yukikurage/task-tracker/internal/utils"
)

type TaskHandler struct {
	store    *services.TaskStore
	clock    services.Clock
	location *time.Location
}

// NewTaskHandler creates a TaskHandler. Deadlines sent without a zone are
// read in location.
func NewTaskHandler(store *services.TaskStore, clock services.Clock, location *time.Location) *TaskHandler {
	if location == nil {
		location = time.Local
	}
	return &TaskHandler{
		store:    store,
		clock:    clock,
		location: location,
	}
}

func (h *TaskHandler) now() time.Time {
	return h.clock.Now().In(h.location)
}

// ListTasks returns the live tasks matching the filter.
// The filter comes from the query string, else the session, else all.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	criterion := models.FilterAll

	if raw, ok := c.GetQuery("filter"); ok {
		parsed, valid := models.ParseFilterCriterion(raw)
		if !valid {
			respondError(c, services.ErrInvalidFilter)
			return
		}
		criterion = parsed
	} else if saved, ok := sessions.Default(c).Get(constants.SessionKeyFilter).(string); ok {
		if parsed, valid := models.ParseFilterCriterion(saved); valid {
			criterion = parsed
		}
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(h.store.List(criterion), criterion, h.now()))
}

// SetFilter remembers the filter for later list requests
func (h *TaskHandler) SetFilter(c *gin.Context) {
	var req dto.SetFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	criterion, valid := models.ParseFilterCriterion(req.Filter)
	if !valid {
		respondError(c, services.ErrInvalidFilter)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyFilter, string(criterion))
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save filter")
		return
	}

	c.JSON(http.StatusOK, gin.H{"filter": criterion})
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTask middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, h.now()))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// report fields in the same order AddTask checks them
	if strings.TrimSpace(req.Title) == "" {
		respondError(c, services.ErrTitleRequired)
		return
	}

	input := services.AddTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if strings.TrimSpace(req.Deadline) != "" {
		deadline, err := services.ParseDeadline(req.Deadline, h.location)
		if err != nil {
			respondError(c, err)
			return
		}
		input.Deadline = &deadline
	}

	now := h.now()
	task, err := h.store.AddTask(c.Request.Context(), input, now)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(task, now))
}

// UpdateStatus completes or reopens a task
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	now := h.now()
	task, found, err := h.store.SetStatus(c.Request.Context(), c.Param("id"), req.Status, now)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, now))
}

// DeleteTask deletes a task and returns its history entry
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	now := h.now()
	entry, found, err := h.store.DeleteTask(c.Request.Context(), c.Param("id"), now)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Task deleted successfully",
		"history_entry": dto.ToHistoryEntryDTO(entry, now),
	})
}

// ListHistory returns deleted tasks, most recently deleted first
func (h *TaskHandler) ListHistory(c *gin.Context) {
	page, meta := utils.Paginate(h.store.HistoryNewestFirst(), utils.GetPaginationParams(c))

	c.JSON(http.StatusOK, dto.ToHistoryListResponse(page, meta, h.now()))
}

func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		apierrors.ValidationFailed(c, ve.Field, ve.Message)
	case errors.Is(err, services.ErrPersistFailed):
		apierrors.ServiceUnavailable(c, "Failed to save tasks")
	default:
		apierrors.InternalError(c, "")
	}
}
