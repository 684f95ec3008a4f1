package dto

import (
	"time"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/services"
	"github.com/yukikurage/task-tracker/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Status        models.TaskStatus      `json:"status"`
	StatusLabel   string                 `json:"status_label"`
	Deadline      time.Time              `json:"deadline"`
	DeadlineLabel services.DeadlineLabel `json:"deadline_label"`
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   *time.Time             `json:"completed_at"`
}

// HistoryEntryDTO represents a deleted task in API responses
type HistoryEntryDTO struct {
	TaskDTO
	DeletedAt      time.Time `json:"deleted_at"`
	DeletedAtLabel string    `json:"deleted_at_label"`
}

// EmptyStateDTO is the message to show when a list has no entries
type EmptyStateDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskListResponse represents the filtered live collection
type TaskListResponse struct {
	Tasks      []TaskDTO              `json:"tasks"`
	Filter     models.FilterCriterion `json:"filter"`
	Count      int                    `json:"count"`
	EmptyState *EmptyStateDTO         `json:"empty_state,omitempty"`
}

// HistoryListResponse represents the history log
type HistoryListResponse struct {
	History    []HistoryEntryDTO        `json:"history"`
	Count      int                      `json:"count"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CreateTaskRequest is the body of a task creation request
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// UpdateStatusRequest is the body of a status change request
type UpdateStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// SetFilterRequest is the body of a filter change request
type SetFilterRequest struct {
	Filter string `json:"filter" binding:"required"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO, labelled relative to now
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	return TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		StatusLabel:   task.Status.Label(),
		Deadline:      task.Deadline,
		DeadlineLabel: services.FormatDeadline(task.Deadline, now),
		CreatedAt:     task.CreatedAt,
		CompletedAt:   task.CompletedAt,
	}
}

// ToHistoryEntryDTO converts a HistoryEntry model to HistoryEntryDTO
func ToHistoryEntryDTO(entry models.HistoryEntry, now time.Time) HistoryEntryDTO {
	return HistoryEntryDTO{
		TaskDTO:        ToTaskDTO(entry.Task, now),
		DeletedAt:      entry.DeletedAt,
		DeletedAtLabel: entry.DeletedAt.In(now.Location()).Format(services.DisplayLayout),
	}
}

// ToTaskListResponse converts filtered tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, filter models.FilterCriterion, now time.Time) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}

	resp := TaskListResponse{
		Tasks:  items,
		Filter: filter,
		Count:  len(items),
	}

	if len(items) == 0 {
		title, description := filter.EmptyStateMessage()
		resp.EmptyState = &EmptyStateDTO{Title: title, Description: description}
	}

	return resp
}

// ToHistoryListResponse converts one page of history entries to HistoryListResponse
func ToHistoryListResponse(history []models.HistoryEntry, pagination utils.PaginationResponse, now time.Time) HistoryListResponse {
	items := make([]HistoryEntryDTO, len(history))
	for i, entry := range history {
		items[i] = ToHistoryEntryDTO(entry, now)
	}
	return HistoryListResponse{History: items, Count: len(items), Pagination: pagination}
}
