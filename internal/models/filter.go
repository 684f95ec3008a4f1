package models

import "strings"

// FilterCriterion selects which live tasks are visible
type FilterCriterion string

const (
	FilterAll        FilterCriterion = "all"
	FilterInProgress FilterCriterion = "in-progress"
	FilterCompleted  FilterCriterion = "completed"
	FilterOverdue    FilterCriterion = "overdue"
)

type emptyState struct {
	Title       string
	Description string
}

var filterEmptyStates = map[FilterCriterion]emptyState{
	FilterAll:        {"No tasks yet", "Add your first task above"},
	FilterInProgress: {"No tasks in progress", "Everything is either completed or overdue"},
	FilterCompleted:  {"No completed tasks", "Tasks you complete will show up here"},
	FilterOverdue:    {"No overdue tasks", "Nice! Everything is on schedule"},
}

// ParseFilterCriterion parses a wire value. The empty string means FilterAll.
func ParseFilterCriterion(raw string) (FilterCriterion, bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return FilterAll, true
	}
	c := FilterCriterion(raw)
	if _, ok := filterEmptyStates[c]; !ok {
		return "", false
	}
	return c, true
}

// Matches reports whether a task with the given status passes the filter
func (c FilterCriterion) Matches(status TaskStatus) bool {
	switch c {
	case FilterAll:
		return true
	case FilterInProgress:
		return status == TaskStatusInProgress
	case FilterCompleted:
		return status == TaskStatusCompleted
	case FilterOverdue:
		return status == TaskStatusOverdue
	default:
		return false
	}
}

// EmptyStateMessage returns the title and hint shown when nothing matches c
func (c FilterCriterion) EmptyStateMessage() (string, string) {
	s, ok := filterEmptyStates[c]
	if !ok {
		s = filterEmptyStates[FilterAll]
	}
	return s.Title, s.Description
}
