package domain

import (
	"fmt"
	"math"
	"time"
)

// PassRecord is one row of the pass-by-pass dataset: a feeder visit joined
// to its animal with the derived age, week and duration columns.
type PassRecord struct {
	UrbanID    int64
	TagNumber  int64
	Cohort     string
	CurveID    int
	FeedLabel  string
	BirthDate  time.Time
	AgeDays    int
	WeekValue  float64 // age in weeks, one decimal
	WeekIndex  int     // 1-based
	WeekLabel  string  // "s1", "s2", ...
	TargetMilk float64
	ActualMilk float64
	Feed1      float64
	Feed2      float64
	Water      float64
	Start      time.Time
	End        time.Time
	Duration   time.Duration
}

// AgeDays is the number of whole calendar days between a birth date and a
// visit start date. Both are truncated to midnight first so the time-of-day
// component of the visit never shifts the age.
func AgeDays(birthDate, start time.Time) int {
	b := time.Date(birthDate.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return int(s.Sub(b).Hours() / 24)
}

// WeekIndex buckets an age in days into 1-based age-in-weeks.
func WeekIndex(ageDays int) int {
	return ageDays/7 + 1
}

// WeekLabel formats a week index as the "s<n>" bucket label.
func WeekLabel(weekIndex int) string {
	return fmt.Sprintf("s%d", weekIndex)
}

// WeekValue is the age expressed in weeks, rounded to one decimal. It is a
// reporting column only; bucketing always goes through WeekIndex.
func WeekValue(ageDays int) float64 {
	return math.Round(float64(ageDays)/7*10) / 10
}

// FormatDuration renders a duration as HH:MM:SS. Durations of a day or more
// keep accumulating hours rather than rolling over.
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	neg := ""
	if secs < 0 {
		neg = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", neg, secs/3600, (secs/60)%60, secs%60)
}

// DayAggregate is one row of the per-day statistics dataset. Pointer fields
// are unset (empty CSV cells) when the underlying lookup had no value: a week
// index past the configured theoretical arrays, or a day with no
// first-detection rows.
type DayAggregate struct {
	UrbanID           int64
	TagNumber         int64
	CurveID           int
	FeedLabel         string
	Cohort            string
	Date              time.Time
	AgeDays           int
	WeekLabel         string
	ActualMilk        float64
	TotalDuration     time.Duration
	VisitCount        int
	TheoreticalMilk   *float64
	TheoreticalVisits *float64
	MilkDelta         *float64 // theoretical - actual
	VisitDelta        *int     // actual - theoretical, truncated
	RejectionCount    *int     // first detections - visits; may be negative
}

// EventType classifies a first-detection event in the event-log export.
type EventType string

const (
	EventAccepted EventType = "Offert"
	EventRefused  EventType = "Refus"
)

// EventRecord is one row of the event-log export: every feeder presentation
// for a known animal, typed by whether a paid visit matched it.
type EventRecord struct {
	Animal    string // farm prefix + tag number
	FeedLabel string
	At        time.Time
	Type      EventType
	Quantity  *float64 // consumed milk for accepted events, unset for refusals
}
