package dataprocessing

import (
	"log/slog"
	"math"
	"sort"
	"strconv"

	"dalcli/pkg/contracts/domain"
)

// BuildEventLog types every first-detection event for a known animal as an
// accepted (Offert) or refused (Refus) presentation. An event is accepted
// when a paid visit started at the same second for the same animal; its
// quantity is the consumed milk rounded to two decimals. Detections for
// animals absent from the pass-by-pass dataset are dropped, the same way
// unmatched visits are.
func BuildEventLog(passes []domain.PassRecord, detections []domain.RejectionEvent, farmPrefix string, logger *slog.Logger) []domain.EventRecord {
	if logger == nil {
		logger = slog.Default()
	}

	type animalInfo struct {
		tagNumber int64
		feedLabel string
	}
	animals := make(map[int64]animalInfo)
	type startKey struct {
		urbanID int64
		at      string // yyyy-mm-dd hh:mm:ss
	}
	consumed := make(map[startKey]float64)
	for _, p := range passes {
		if _, ok := animals[p.UrbanID]; !ok {
			animals[p.UrbanID] = animalInfo{tagNumber: p.TagNumber, feedLabel: p.FeedLabel}
		}
		consumed[startKey{p.UrbanID, p.Start.Format("2006-01-02 15:04:05")}] = p.ActualMilk
	}

	events := make([]domain.EventRecord, 0, len(detections))
	dropped := 0
	for _, d := range detections {
		info, ok := animals[d.UrbanID]
		if !ok {
			dropped++
			continue
		}
		rec := domain.EventRecord{
			Animal:    farmPrefix + strconv.FormatInt(info.tagNumber, 10),
			FeedLabel: info.feedLabel,
			At:        d.At,
			Type:      domain.EventRefused,
		}
		if qty, ok := consumed[startKey{d.UrbanID, d.At.Format("2006-01-02 15:04:05")}]; ok {
			rounded := math.Round(qty*100) / 100
			rec.Type = domain.EventAccepted
			rec.Quantity = &rounded
		}
		events = append(events, rec)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Animal != b.Animal {
			return a.Animal < b.Animal
		}
		return a.At.Before(b.At)
	})

	logger.Info("event log built",
		slog.Int("detections", len(detections)),
		slog.Int("events", len(events)),
		slog.Int("dropped_unknown_animal", dropped))

	return events
}
