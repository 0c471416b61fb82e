package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"dalcli/pkg/contracts/domain"
)

// FilterAnimals keeps the registry rows whose birth date falls inside the
// inclusive [start, end] window. The window selects the animals of interest;
// it is not the reporting period.
func FilterAnimals(animals []domain.AnimalRecord, start, end time.Time) []domain.AnimalRecord {
	kept := make([]domain.AnimalRecord, 0, len(animals))
	for _, a := range animals {
		if a.BirthDate.Before(start) || a.BirthDate.After(end) {
			continue
		}
		kept = append(kept, a)
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].BirthDate.Before(kept[j].BirthDate)
	})
	return kept
}

// CurveIDs lists the distinct curve ids present in a registry slice, sorted.
// Callers use it to discover which curves need theoretical tables.
func CurveIDs(animals []domain.AnimalRecord) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, a := range animals {
		if !seen[a.CurveID] {
			seen[a.CurveID] = true
			ids = append(ids, a.CurveID)
		}
	}
	sort.Ints(ids)
	return ids
}

// BuildPassRecords joins every visit to its animal and derives the age, week
// and duration columns. Visits whose animal is not in the (already filtered)
// registry are dropped entirely; animals with no visits never appear, since
// enumeration is visit-driven.
//
// Output order is (tag number, week, start time of day) ascending.
func BuildPassRecords(animals []domain.AnimalRecord, visits []domain.VisitRecord, curves domain.CurveTable, logger *slog.Logger) []domain.PassRecord {
	if logger == nil {
		logger = slog.Default()
	}

	byUrbanID := make(map[int64]domain.AnimalRecord, len(animals))
	for _, a := range animals {
		byUrbanID[a.UrbanID] = a
	}

	passes := make([]domain.PassRecord, 0, len(visits))
	dropped := 0
	for _, v := range visits {
		animal, ok := byUrbanID[v.UrbanID]
		if !ok {
			dropped++
			continue
		}
		age := domain.AgeDays(animal.BirthDate, v.Start)
		week := domain.WeekIndex(age)
		passes = append(passes, domain.PassRecord{
			UrbanID:    animal.UrbanID,
			TagNumber:  animal.TagNumber,
			Cohort:     animal.Cohort,
			CurveID:    animal.CurveID,
			FeedLabel:  curves.FeedFor(animal.CurveID),
			BirthDate:  animal.BirthDate,
			AgeDays:    age,
			WeekValue:  domain.WeekValue(age),
			WeekIndex:  week,
			WeekLabel:  domain.WeekLabel(week),
			TargetMilk: v.TargetMilk,
			ActualMilk: v.ActualMilk,
			Feed1:      v.Feed1,
			Feed2:      v.Feed2,
			Water:      v.Water,
			Start:      v.Start,
			End:        v.End,
			Duration:   v.End.Sub(v.Start),
		})
	}

	sort.SliceStable(passes, func(i, j int) bool {
		a, b := passes[i], passes[j]
		if a.TagNumber != b.TagNumber {
			return a.TagNumber < b.TagNumber
		}
		if a.WeekValue != b.WeekValue {
			return a.WeekValue < b.WeekValue
		}
		return timeOfDay(a.Start) < timeOfDay(b.Start)
	})

	logger.Info("pass-by-pass dataset built",
		slog.Int("visits", len(visits)),
		slog.Int("passes", len(passes)),
		slog.Int("dropped_unmatched", dropped))

	return passes
}

// timeOfDay gives the within-week sort key: the clock time of the visit
// start, independent of its date. This mirrors the historical sort order of
// the tool's output files.
func timeOfDay(t time.Time) string {
	return t.Format("15:04:05")
}
