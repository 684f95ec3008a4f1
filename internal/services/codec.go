package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker/internal/models"
)

// TimestampLayout is the textual encoding of every persisted timestamp.
// Timestamps are written in UTC so the text sorts chronologically.
const TimestampLayout = time.RFC3339Nano

// State is the complete persisted state of a TaskStore
type State struct {
	Tasks   []models.Task
	History []models.HistoryEntry
}

// Blob holds the serialized collections, one document per storage key
type Blob struct {
	Tasks   string
	History string
}

// Field names follow the localStorage documents of the web client, so its
// exports load unchanged.
type wireTask struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt"`
}

type wireHistoryEntry struct {
	wireTask
	DeletedAt string `json:"deletedAt"`
}

// Serialize encodes both collections
func Serialize(state State) (Blob, error) {
	tasks := make([]wireTask, 0, len(state.Tasks))
	for i, t := range state.Tasks {
		w, err := toWireTask(t)
		if err != nil {
			return Blob{}, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, w)
	}
	history := make([]wireHistoryEntry, 0, len(state.History))
	for i, h := range state.History {
		w, err := toWireTask(h.Task)
		if err != nil {
			return Blob{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		deletedAt, err := formatTimestamp("deletedAt", h.DeletedAt)
		if err != nil {
			return Blob{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		history = append(history, wireHistoryEntry{wireTask: w, DeletedAt: deletedAt})
	}

	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to encode tasks: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to encode history: %w", err)
	}

	return Blob{Tasks: string(tasksJSON), History: string(historyJSON)}, nil
}

// Deserialize decodes both collections. An empty document is an empty
// collection. On any failure it returns an empty State together with an
// error wrapping ErrPersistenceCorrupt; the returned State is always usable.
func Deserialize(blob Blob) (State, error) {
	tasks, err := decodeTasks(blob.Tasks)
	if err != nil {
		return State{}, fmt.Errorf("%w: tasks: %v", ErrPersistenceCorrupt, err)
	}
	history, err := decodeHistory(blob.History)
	if err != nil {
		return State{}, fmt.Errorf("%w: history: %v", ErrPersistenceCorrupt, err)
	}
	return State{Tasks: tasks, History: history}, nil
}

func decodeTasks(doc string) ([]models.Task, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}

	var wire []wireTask
	if err := json.Unmarshal([]byte(doc), &wire); err != nil {
		return nil, err
	}

	var tasks []models.Task
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		task, err := fromWireTask(w)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[task.ID]; dup {
			return nil, fmt.Errorf("entry %d: duplicate id %q", i, task.ID)
		}
		seen[task.ID] = struct{}{}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func decodeHistory(doc string) ([]models.HistoryEntry, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}

	var wire []wireHistoryEntry
	if err := json.Unmarshal([]byte(doc), &wire); err != nil {
		return nil, err
	}

	var history []models.HistoryEntry
	for i, w := range wire {
		task, err := fromWireTask(w.wireTask)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		deletedAt, err := parseTimestamp("deletedAt", w.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		history = append(history, models.HistoryEntry{Task: task, DeletedAt: deletedAt})
	}
	return history, nil
}

func toWireTask(t models.Task) (wireTask, error) {
	deadline, err := formatTimestamp("deadline", t.Deadline)
	if err != nil {
		return wireTask{}, err
	}
	createdAt, err := formatTimestamp("createdAt", t.CreatedAt)
	if err != nil {
		return wireTask{}, err
	}

	w := wireTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    deadline,
		Status:      string(t.Status),
		CreatedAt:   createdAt,
	}
	if t.CompletedAt != nil {
		completedAt, err := formatTimestamp("completedAt", *t.CompletedAt)
		if err != nil {
			return wireTask{}, err
		}
		w.CompletedAt = &completedAt
	}
	return w, nil
}

func fromWireTask(w wireTask) (models.Task, error) {
	if w.ID == "" {
		return models.Task{}, fmt.Errorf("missing id")
	}

	status := models.TaskStatus(w.Status)
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("unknown status %q", w.Status)
	}

	deadline, err := parseTimestamp("deadline", w.Deadline)
	if err != nil {
		return models.Task{}, err
	}
	createdAt, err := parseTimestamp("createdAt", w.CreatedAt)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Deadline:    deadline,
		Status:      status,
		CreatedAt:   createdAt,
	}

	if w.CompletedAt != nil {
		completedAt, err := parseTimestamp("completedAt", *w.CompletedAt)
		if err != nil {
			return models.Task{}, err
		}
		task.CompletedAt = &completedAt
	}

	if (task.CompletedAt != nil) != (status == models.TaskStatusCompleted) {
		return models.Task{}, fmt.Errorf("completedAt does not match status %q", status)
	}

	return task, nil
}

// Representable reports whether t survives a round trip through
// TimestampLayout, which only reads four-digit years.
func Representable(t time.Time) bool {
	year := t.UTC().Year()
	return year >= 0 && year <= 9999
}

func formatTimestamp(field string, t time.Time) (string, error) {
	if !Representable(t) {
		return "", fmt.Errorf("%s %s is outside years 0000-9999", field, t.UTC())
	}
	return t.UTC().Format(TimestampLayout), nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	t, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t.UTC(), nil
}
