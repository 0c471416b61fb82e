package domain

import (
	"fmt"
	"time"
)

// AnimalRecord is one row of the feeder's animal registry export.
// Records are immutable once parsed; a batch run never writes back.
type AnimalRecord struct {
	UrbanID   int64     `json:"urban_id"`
	TagNumber int64     `json:"tag_number"`
	BirthDate time.Time `json:"birth_date"`
	CurveID   int       `json:"curve_id"`
	Cohort    string    `json:"cohort"`
}

// CohortFor derives the half-year birth-group label (Bande) from a birth
// date: January-June is B1_<year>, July-December is B2_<year>.
// The two historical implementations of this tool disagreed on which half
// gets which label; this follows the later one and is pending confirmation
// from the domain owner.
func CohortFor(birthDate time.Time) string {
	half := "B1"
	if birthDate.Month() >= time.July {
		half = "B2"
	}
	return fmt.Sprintf("%s_%d", half, birthDate.Year())
}

// VisitRecord is one paid feeder visit from the visit-log export, already
// normalized across the two on-disk schema variants.
type VisitRecord struct {
	UrbanID    int64     `json:"urban_id"`
	TargetMilk float64   `json:"target_milk"`
	ActualMilk float64   `json:"actual_milk"`
	Feed1      float64   `json:"feed1"`
	Feed2      float64   `json:"feed2"`
	Water      float64   `json:"water"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// RejectionEvent is one first-detection record: the animal presented at the
// feeder, whether or not a paid visit followed.
type RejectionEvent struct {
	UrbanID int64     `json:"urban_id"`
	At      time.Time `json:"at"`
}
