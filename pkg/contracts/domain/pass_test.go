package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeDays(t *testing.T) {
	birth := date(2024, time.January, 10)

	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"same day", date(2024, time.January, 10), 0},
		{"next day", date(2024, time.January, 11), 1},
		{"three weeks", date(2024, time.January, 31), 21},
		{"time of day never shifts the age", time.Date(2024, time.January, 11, 23, 59, 59, 0, time.UTC), 1},
		{"across a month boundary", date(2024, time.February, 1), 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeDays(birth, tt.start))
		})
	}
}

func TestWeekIndex(t *testing.T) {
	tests := []struct {
		ageDays int
		want    int
	}{
		{0, 1},
		{3, 1},
		{6, 1},
		{7, 2},
		{13, 2},
		{14, 3},
		{62, 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekIndex(tt.ageDays), "age %d", tt.ageDays)
	}
}

func TestWeekValue(t *testing.T) {
	assert.Equal(t, 0.0, WeekValue(0))
	assert.Equal(t, 0.4, WeekValue(3))
	assert.Equal(t, 1.0, WeekValue(7))
	assert.Equal(t, 1.4, WeekValue(10))
	assert.Equal(t, 8.9, WeekValue(62))
}

func TestWeekLabel(t *testing.T) {
	assert.Equal(t, "s1", WeekLabel(1))
	assert.Equal(t, "s12", WeekLabel(12))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"minutes and seconds", 4*time.Minute + 32*time.Second, "00:04:32"},
		{"hours", 2*time.Hour + 5*time.Minute, "02:05:00"},
		{"more than a day keeps accumulating hours", 26*time.Hour + 30*time.Minute, "26:30:00"},
		{"negative", -(1*time.Minute + 10*time.Second), "-00:01:10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.d))
		})
	}
}

func TestCohortFor(t *testing.T) {
	assert.Equal(t, "B1_2024", CohortFor(date(2024, time.January, 1)))
	assert.Equal(t, "B1_2024", CohortFor(date(2024, time.June, 30)))
	assert.Equal(t, "B2_2024", CohortFor(date(2024, time.July, 1)))
	assert.Equal(t, "B2_2023", CohortFor(date(2023, time.December, 31)))
}
