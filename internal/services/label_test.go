package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		absolute string
		relative string
	}{
		{"two days ahead", now.Add(48 * time.Hour), "2025/03/12 09:00", "2 days remaining"},
		{"part of a day rounds up", now.Add(time.Hour), "2025/03/10 10:00", "1 day remaining"},
		{"just over a day", now.Add(25 * time.Hour), "2025/03/11 10:00", "2 days remaining"},
		{"exactly now", now, "2025/03/10 09:00", "due today"},
		{"an hour ago", now.Add(-time.Hour), "2025/03/10 08:00", "due today"},
		{"one day ago", now.Add(-24 * time.Hour), "2025/03/09 09:00", "overdue by 1 day"},
		{"three and a half days ago", now.Add(-84 * time.Hour), "2025/03/06 21:00", "overdue by 3 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := FormatDeadline(tt.deadline, now)
			assert.Equal(t, tt.absolute, label.Absolute)
			assert.Equal(t, tt.relative, label.Relative)
		})
	}
}

func TestFormatDeadline_UsesNowLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, shanghai)
	deadline := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	label := FormatDeadline(deadline, now)

	assert.Equal(t, "2025/03/10 18:00", label.Absolute)
}

func TestParseDeadline(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-03-11T18:00:00Z", time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC)},
		{"2025-03-11T18:00:00+08:00", time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)},
		{"2025-03-11T18:00", time.Date(2025, 3, 11, 18, 0, 0, 0, loc)},
		{"2025-03-11 18:00:30", time.Date(2025, 3, 11, 18, 0, 30, 0, loc)},
		{" 2025-03-11 18:00 ", time.Date(2025, 3, 11, 18, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDeadline(tt.raw, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseDeadline_Invalid(t *testing.T) {
	_, err := ParseDeadline("", time.UTC)
	assert.ErrorIs(t, err, ErrDeadlineRequired)

	_, err = ParseDeadline("next friday", time.UTC)
	assert.ErrorIs(t, err, ErrDeadlineInvalid)

	_, err = ParseDeadline("2025-13-45T10:00", nil)
	assert.ErrorIs(t, err, ErrDeadlineInvalid)
}

func TestParseDeadline_YearOutOfRangeInUTC(t *testing.T) {
	// both are valid text but land in year 10000 and year -1 once in UTC
	for _, raw := range []string{"9999-12-31T23:00:00-14:00", "0000-01-01T00:30:00+01:00"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseDeadline(raw, time.UTC)
			assert.ErrorIs(t, err, ErrDeadlineInvalid)
		})
	}

	got, err := ParseDeadline("9999-12-31T23:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 9999, got.Year())
}
