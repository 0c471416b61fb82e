package dataprocessing

import (
	"log/slog"
	"strconv"
	"strings"

	"dalcli/pkg/contracts/domain"
)

// ExpectedAges returns the day-of-age set a complete calendar week must
// cover. Week 1 excludes the first two days of life by convention, so it
// expects [3, 7); every later week n expects [(n-1)*7, n*7).
func ExpectedAges(weekIndex int) map[int]bool {
	lo := (weekIndex - 1) * 7
	if weekIndex == 1 {
		lo = 3
	}
	ages := make(map[int]bool)
	for age := lo; age < weekIndex*7; age++ {
		ages[age] = true
	}
	return ages
}

// FilterCompleteWeeks keeps only the day rows belonging to fully-covered
// weeks. Two passes: a coverage floor drops animals with fewer than
// weeks*7*3/5 day rows overall, then each remaining animal/week is kept only
// if its observed day-of-age set equals the expected set exactly. A missing
// day disqualifies the week, and so does a stray extra age under the same
// label. Discarded weeks are omitted silently.
func FilterCompleteWeeks(rows []domain.DayAggregate, weeks int, logger *slog.Logger) []domain.DayAggregate {
	if logger == nil {
		logger = slog.Default()
	}

	floor := float64(weeks) * 7 * 3 / 5
	perTag := make(map[int64]int)
	for _, row := range rows {
		perTag[row.TagNumber]++
	}

	type tagWeek struct {
		tagNumber int64
		weekLabel string
	}
	observed := make(map[tagWeek]map[int]bool)
	for _, row := range rows {
		if float64(perTag[row.TagNumber]) < floor {
			continue
		}
		key := tagWeek{row.TagNumber, row.WeekLabel}
		if observed[key] == nil {
			observed[key] = make(map[int]bool)
		}
		observed[key][row.AgeDays] = true
	}

	complete := make(map[tagWeek]bool, len(observed))
	for key, ages := range observed {
		week, err := weekIndexFromLabel(key.weekLabel)
		if err != nil {
			logger.Warn("skipping malformed week label",
				slog.String("label", key.weekLabel),
				slog.Int64("tag", key.tagNumber))
			continue
		}
		if equalAgeSets(ages, ExpectedAges(week)) {
			complete[key] = true
		}
	}

	kept := make([]domain.DayAggregate, 0, len(rows))
	for _, row := range rows {
		if complete[tagWeek{row.TagNumber, row.WeekLabel}] {
			kept = append(kept, row)
		}
	}

	logger.Info("complete-week filter applied",
		slog.Int("weeks_requested", weeks),
		slog.Int("rows_in", len(rows)),
		slog.Int("rows_kept", len(kept)))

	return kept
}

func weekIndexFromLabel(label string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(label, "s"))
}

func equalAgeSets(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for age := range a {
		if !b[age] {
			return false
		}
	}
	return true
}
