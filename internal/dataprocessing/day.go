package dataprocessing

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"dalcli/pkg/contracts/domain"
)

type dayKey struct {
	urbanID   int64
	tagNumber int64
	curveID   int
	feedLabel string
	cohort    string
	date      string // yyyy-mm-dd
	ageDays   int
	weekLabel string
}

// FilterDetections drops first-detection events before the window start.
// The feeder archive keeps its full history; events from earlier cohorts
// would otherwise pollute the rejection counts.
func FilterDetections(events []domain.RejectionEvent, start time.Time) []domain.RejectionEvent {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	kept := make([]domain.RejectionEvent, 0, len(events))
	for _, e := range events {
		if e.At.Before(day) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// AggregateDays folds the pass-by-pass dataset into one row per animal and
// calendar day, comparing actuals against the per-curve theoretical tables
// and merging in the first-detection tally.
//
// The rejection count is first detections minus visits and is deliberately
// not clamped: a negative value is a data-quality signal, not an error. Days
// whose animal has no first-detection rows at all leave the count unset.
func AggregateDays(passes []domain.PassRecord, curves domain.CurveTable, detections []domain.RejectionEvent, logger *slog.Logger) []domain.DayAggregate {
	if logger == nil {
		logger = slog.Default()
	}

	groups := make(map[dayKey]*domain.DayAggregate)
	type visitKey struct {
		tagNumber int64
		ageDays   int
	}
	visitCounts := make(map[visitKey]int)

	for _, p := range passes {
		key := dayKey{
			urbanID:   p.UrbanID,
			tagNumber: p.TagNumber,
			curveID:   p.CurveID,
			feedLabel: p.FeedLabel,
			cohort:    p.Cohort,
			date:      p.Start.Format(domain.DateLayout),
			ageDays:   p.AgeDays,
			weekLabel: p.WeekLabel,
		}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.DayAggregate{
				UrbanID:   p.UrbanID,
				TagNumber: p.TagNumber,
				CurveID:   p.CurveID,
				FeedLabel: p.FeedLabel,
				Cohort:    p.Cohort,
				Date:      dateOnly(p.Start),
				AgeDays:   p.AgeDays,
				WeekLabel: p.WeekLabel,
			}
			groups[key] = agg
		}
		agg.ActualMilk += p.ActualMilk
		agg.TotalDuration += p.Duration
		visitCounts[visitKey{p.TagNumber, p.AgeDays}]++
	}

	type detKey struct {
		urbanID int64
		date    string
	}
	detCounts := make(map[detKey]int)
	for _, e := range detections {
		detCounts[detKey{e.UrbanID, e.At.Format(domain.DateLayout)}]++
	}

	rows := make([]domain.DayAggregate, 0, len(groups))
	for key, agg := range groups {
		agg.ActualMilk = round3(agg.ActualMilk)
		agg.VisitCount = visitCounts[visitKey{key.tagNumber, key.ageDays}]

		week := domain.WeekIndex(agg.AgeDays)
		agg.TheoreticalMilk = curves.TheoreticalMilk(agg.CurveID, week)
		agg.TheoreticalVisits = curves.TheoreticalVisits(agg.CurveID, week)
		if agg.TheoreticalMilk != nil {
			delta := round3(*agg.TheoreticalMilk - agg.ActualMilk)
			agg.MilkDelta = &delta
		}
		if agg.TheoreticalVisits != nil {
			delta := int(float64(agg.VisitCount) - *agg.TheoreticalVisits)
			agg.VisitDelta = &delta
		}

		if count, ok := detCounts[detKey{key.urbanID, key.date}]; ok {
			rejections := count - agg.VisitCount
			agg.RejectionCount = &rejections
		}

		rows = append(rows, *agg)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.UrbanID != b.UrbanID {
			return a.UrbanID < b.UrbanID
		}
		if a.TagNumber != b.TagNumber {
			return a.TagNumber < b.TagNumber
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.AgeDays < b.AgeDays
	})

	logger.Info("day aggregates built",
		slog.Int("passes", len(passes)),
		slog.Int("days", len(rows)))

	return rows
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
