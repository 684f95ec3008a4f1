package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
)

// TaskStore owns the live task collection and the history log.
// Every mutation is persisted before it becomes visible; when the write
// fails the store keeps its previous state.
type TaskStore struct {
	mu      sync.Mutex
	kv      repository.KVStore
	tasks   []models.Task
	history []models.HistoryEntry

	newID       func() string
	reportError func(error)
}

// Option configures a TaskStore
type Option func(*TaskStore)

// WithIDGenerator replaces the UUID generator used for new task ids
func WithIDGenerator(fn func() string) Option {
	return func(s *TaskStore) {
		s.newID = fn
	}
}

// WithErrorReporter sets the function that receives load failures the
// store recovers from. The default writes them to the standard logger.
func WithErrorReporter(fn func(error)) Option {
	return func(s *TaskStore) {
		s.reportError = fn
	}
}

// NewTaskStore creates an empty TaskStore persisting through kv
func NewTaskStore(kv repository.KVStore, opts ...Option) *TaskStore {
	s := &TaskStore{
		kv:    kv,
		newID: uuid.NewString,
		reportError: func(err error) {
			log.Printf("Failed to load task data, starting empty: %v", err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTaskInput represents input for creating a task
type AddTaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
}

// Load replaces the in-memory state with the persisted one.
// A corrupt document resets both collections and is passed to the error
// reporter; only storage read failures are returned.
func (s *TaskStore) Load(ctx context.Context) error {
	tasksDoc, _, err := s.kv.Get(ctx, constants.StorageKeyTasks)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	historyDoc, _, err := s.kv.Get(ctx, constants.StorageKeyHistory)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	state, err := Deserialize(Blob{Tasks: tasksDoc, History: historyDoc})
	if err != nil {
		s.reportError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = state.Tasks
	s.history = state.History
	return nil
}

// AddTask validates input and appends a new in-progress task
func (s *TaskStore) AddTask(ctx context.Context, input AddTaskInput, now time.Time) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, ErrTitleRequired
	}
	if input.Deadline == nil || input.Deadline.IsZero() {
		return models.Task{}, ErrDeadlineRequired
	}
	if !Representable(*input.Deadline) {
		return models.Task{}, ErrDeadlineInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := models.Task{
		ID:          s.uniqueID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Deadline:    normalizeTime(*input.Deadline),
		Status:      models.TaskStatusInProgress,
		CreatedAt:   normalizeTime(now),
	}

	tasks := append(cloneTasks(s.tasks), task)
	if err := s.commit(ctx, tasks, s.history); err != nil {
		return models.Task{}, err
	}

	return task.Clone(), nil
}

// SetStatus moves a task to in-progress or completed. Reopening always
// clears completedAt and the overdue flag, even when the deadline has
// already passed. The boolean is false when no task has the id.
func (s *TaskStore) SetStatus(ctx context.Context, id string, status models.TaskStatus, now time.Time) (models.Task, bool, error) {
	if !status.Requestable() {
		return models.Task{}, false, ErrStatusNotRequestable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Task{}, false, nil
	}

	tasks := cloneTasks(s.tasks)
	task := &tasks[idx]
	task.Status = status
	if status == models.TaskStatusCompleted {
		completedAt := normalizeTime(now)
		task.CompletedAt = &completedAt
	} else {
		task.CompletedAt = nil
	}

	if err := s.commit(ctx, tasks, s.history); err != nil {
		return models.Task{}, true, err
	}

	return task.Clone(), true, nil
}

// DeleteTask removes a task from the live collection and archives it.
// The boolean is false when no task has the id.
func (s *TaskStore) DeleteTask(ctx context.Context, id string, now time.Time) (models.HistoryEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.HistoryEntry{}, false, nil
	}

	entry := models.HistoryEntry{
		Task:      s.tasks[idx].Clone(),
		DeletedAt: normalizeTime(now),
	}

	tasks := make([]models.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, cloneTasks(s.tasks[:idx])...)
	tasks = append(tasks, cloneTasks(s.tasks[idx+1:])...)
	if len(tasks) == 0 {
		tasks = nil
	}
	history := append(cloneHistory(s.history), entry)

	if err := s.commit(ctx, tasks, history); err != nil {
		return models.HistoryEntry{}, true, err
	}

	return entry.Clone(), true, nil
}

// SweepOverdue marks in-progress tasks whose deadline is before now as
// overdue. It reports whether any task changed and persists only then.
func (s *TaskStore) SweepOverdue(ctx context.Context, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := cloneTasks(s.tasks)
	changed := false
	for i := range tasks {
		if tasks[i].Status == models.TaskStatusInProgress && tasks[i].Deadline.Before(now) {
			tasks[i].Status = models.TaskStatusOverdue
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	if err := s.commit(ctx, tasks, s.history); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns a copy of the live task with the given id
func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// Tasks returns a copy of the live collection in creation order
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// List returns the live tasks matching criterion
func (s *TaskStore) List(criterion models.FilterCriterion) []models.Task {
	return FilterTasks(s.Tasks(), criterion)
}

// History returns a copy of the history log in deletion order
func (s *TaskStore) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneHistory(s.history)
}

// HistoryNewestFirst returns the history log, most recently deleted first
func (s *TaskStore) HistoryNewestFirst() []models.HistoryEntry {
	history := s.History()
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].DeletedAt.After(history[j].DeletedAt)
	})
	return history
}

// Snapshot returns a copy of the complete state
func (s *TaskStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Tasks: cloneTasks(s.tasks), History: cloneHistory(s.history)}
}

// Serialize encodes the current state
func (s *TaskStore) Serialize() (Blob, error) {
	return Serialize(s.Snapshot())
}

// FilterTasks returns the tasks matching criterion, preserving order
func FilterTasks(tasks []models.Task, criterion models.FilterCriterion) []models.Task {
	if criterion == models.FilterAll {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if criterion.Matches(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// commit persists the candidate state and installs it only if both
// writes succeed. Callers must hold s.mu.
func (s *TaskStore) commit(ctx context.Context, tasks []models.Task, history []models.HistoryEntry) error {
	blob, err := Serialize(State{Tasks: tasks, History: history})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := s.kv.Set(ctx, constants.StorageKeyTasks, blob.Tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := s.kv.Set(ctx, constants.StorageKeyHistory, blob.History); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	s.tasks = tasks
	s.history = history
	return nil
}

// uniqueID draws ids until one is not used by a live task. Callers must hold s.mu.
func (s *TaskStore) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return nil
	}
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneHistory(history []models.HistoryEntry) []models.HistoryEntry {
	if history == nil {
		return nil
	}
	out := make([]models.HistoryEntry, len(history))
	for i, h := range history {
		out[i] = h.Clone()
	}
	return out
}
