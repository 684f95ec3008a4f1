package services

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DisplayLayout is the absolute date-time shown next to deadlines
const DisplayLayout = "2006/01/02 15:04"

// DeadlineLabel is the presentation of a deadline relative to now
type DeadlineLabel struct {
	Absolute string `json:"absolute"`
	Relative string `json:"relative"`
}

// FormatDeadline renders deadline in now's location along with the number
// of whole days left, rounded up.
func FormatDeadline(deadline, now time.Time) DeadlineLabel {
	days := int(math.Ceil(float64(deadline.Sub(now)) / float64(24*time.Hour)))

	var relative string
	switch {
	case days > 0:
		relative = fmt.Sprintf("%s remaining", pluralDays(days))
	case days == 0:
		relative = "due today"
	default:
		relative = fmt.Sprintf("overdue by %s", pluralDays(-days))
	}

	return DeadlineLabel{
		Absolute: deadline.In(now.Location()).Format(DisplayLayout),
		Relative: relative,
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// deadlineLayouts are tried in order. Layouts without a zone are read in
// the caller's location, which is what an HTML datetime-local input sends.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDeadline parses user-supplied deadline text
func ParseDeadline(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrDeadlineRequired
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			if !Representable(t) {
				return time.Time{}, ErrDeadlineInvalid
			}
			return t, nil
		}
	}
	return time.Time{}, ErrDeadlineInvalid
}
