package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"dalcli/pkg/contracts/domain"
)

// curvesFile is the YAML shape of a curve-table file:
//
//	curves:
//	  - id: 6
//	    feed_label: "pao 001"
//	    milk_by_week: [4, 5, 6, 7, 7, 7, 6, 5, 2.5]
//	    visits_by_week: [4, 4, 4, 4, 4, 4, 4, 3, 1]
type curvesFile struct {
	Curves []domain.CurveSpec `yaml:"curves"`
}

// LoadCurves reads per-curve feed labels and theoretical weekly targets from
// a YAML file.
func LoadCurves(path string) ([]domain.CurveSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curves file %s: %w", path, err)
	}
	var f curvesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse curves file %s: %w", path, err)
	}
	if len(f.Curves) == 0 {
		return nil, fmt.Errorf("curves file %s: no curves defined", path)
	}
	for i, c := range f.Curves {
		if len(c.MilkByWeek) != len(c.VisitsByWeek) {
			return nil, fmt.Errorf("curves file %s: curve %d (entry %d): milk_by_week and visits_by_week lengths differ (%d vs %d)",
				path, c.ID, i, len(c.MilkByWeek), len(c.VisitsByWeek))
		}
	}
	return f.Curves, nil
}
