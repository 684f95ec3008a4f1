package models

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue:
		return true
	}
	return false
}

// Label returns the display label for the status. Statuses are checked on
// every way into the store, so any other value is a programming error.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusInProgress:
		return "In progress"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusOverdue:
		return "Overdue"
	}
	panic(fmt.Sprintf("models: invalid task status %q", string(s)))
}

// Requestable reports whether callers may set the status directly.
// Overdue is only ever derived by the sweep.
func (s TaskStatus) Requestable() bool {
	return s == TaskStatusInProgress || s == TaskStatusCompleted
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Clone returns a copy of the task that shares no pointers with t
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		t.CompletedAt = &completedAt
	}
	return t
}

// HistoryEntry is a snapshot of a deleted task
type HistoryEntry struct {
	Task
	DeletedAt time.Time `json:"deleted_at"`
}

// Clone returns a copy of the entry that shares no pointers with e
func (e HistoryEntry) Clone() HistoryEntry {
	e.Task = e.Task.Clone()
	return e
}
