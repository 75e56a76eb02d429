package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNumber(t *testing.T) {
	start := day(t, "2024-01-01")

	tests := []struct {
		date string
		want int
	}{
		{"2024-01-01", 1},
		{"2024-01-07", 1},
		{"2024-01-08", 2},
		{"2024-01-14", 2},
		{"2024-03-24", 12},
		{"2024-03-25", 12},
		{"2025-01-01", 12},
		{"2023-12-31", 1},
		{"2023-06-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(start, day(t, tt.date)))
		})
	}
}

func TestNumberIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	current := time.Date(2024, 1, 8, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, 2, Number(start, current))
}

func TestRange(t *testing.T) {
	start := day(t, "2024-01-01")

	s, e, err := Range(start, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", FormatDate(s))
	assert.Equal(t, "2024-01-14", FormatDate(e))

	s, e, err = Range(start, 12)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-18", FormatDate(s))
	assert.Equal(t, "2024-03-24", FormatDate(e))
}

func TestRangeContiguous(t *testing.T) {
	start := day(t, "2024-02-26")
	_, prevEnd, err := Range(start, 1)
	require.NoError(t, err)
	for w := 2; w <= WeeksPerCycle; w++ {
		s, e, err := Range(start, w)
		require.NoError(t, err)
		assert.Equal(t, prevEnd.AddDate(0, 0, 1), s, "week %d", w)
		assert.Equal(t, w, Number(start, s))
		assert.Equal(t, w, Number(start, e))
		prevEnd = e
	}
}

func TestRangeInvalidWeek(t *testing.T) {
	start := day(t, "2024-01-01")
	for _, w := range []int{0, -1, 13} {
		_, _, err := Range(start, w)
		assert.ErrorIs(t, err, ErrInvalidInput, "week %d", w)
	}
}

func TestDays(t *testing.T) {
	days, err := Days(day(t, "2024-01-01"), 1)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, "2024-01-01", FormatDate(days[0]))
	assert.Equal(t, "2024-01-07", FormatDate(days[6]))
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "01/02/2024", "yesterday"} {
		_, err := ParseDate(s)
		assert.ErrorIs(t, err, ErrInvalidInput, s)
	}
}

func TestCycleEndAndInCycle(t *testing.T) {
	start := day(t, "2024-01-01")
	end := CycleEnd(start)
	assert.Equal(t, "2024-03-25", FormatDate(end))

	assert.True(t, InCycle(start, start, end))
	assert.True(t, InCycle(end, start, end))
	assert.True(t, InCycle(day(t, "2024-02-14"), start, end))
	assert.False(t, InCycle(day(t, "2023-12-31"), start, end))
	assert.False(t, InCycle(day(t, "2024-03-26"), start, end))
}
