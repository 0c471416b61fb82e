package domain

import "time"

// DateLayout is the wire format for dates in requests and curve files.
const DateLayout = "2006-01-02"

// CurveSpec describes one feeding curve: its feed-batch label and the
// theoretical weekly targets, indexed by week_index-1. Arrays may be shorter
// than the observed weeks; lookups past the end are simply unset.
type CurveSpec struct {
	ID           int       `json:"id" yaml:"id" validate:"required"`
	FeedLabel    string    `json:"feed_label" yaml:"feed_label"`
	MilkByWeek   []float64 `json:"milk_by_week" yaml:"milk_by_week"`
	VisitsByWeek []float64 `json:"visits_by_week" yaml:"visits_by_week"`
}

// CurveTable indexes curve specs by curve id.
type CurveTable map[int]CurveSpec

// NewCurveTable builds a lookup table from a list of curve specs. Later
// duplicates win, matching last-entry-wins semantics of the source files.
func NewCurveTable(specs []CurveSpec) CurveTable {
	t := make(CurveTable, len(specs))
	for _, s := range specs {
		t[s.ID] = s
	}
	return t
}

// FeedFor returns the feed-batch label mapped to a curve, or "" when the
// curve has no mapping.
func (t CurveTable) FeedFor(curveID int) string {
	return t[curveID].FeedLabel
}

// TheoreticalMilk returns the weekly milk target for a curve, or nil when
// the curve is unknown or the week index falls past the configured array.
func (t CurveTable) TheoreticalMilk(curveID, weekIndex int) *float64 {
	s, ok := t[curveID]
	if !ok || weekIndex < 1 || weekIndex > len(s.MilkByWeek) {
		return nil
	}
	v := s.MilkByWeek[weekIndex-1]
	return &v
}

// TheoreticalVisits returns the weekly visit target for a curve, or nil when
// the curve is unknown or the week index falls past the configured array.
func (t CurveTable) TheoreticalVisits(curveID, weekIndex int) *float64 {
	s, ok := t[curveID]
	if !ok || weekIndex < 1 || weekIndex > len(s.VisitsByWeek) {
		return nil
	}
	v := s.VisitsByWeek[weekIndex-1]
	return &v
}

// OutputSelection chooses which files a run writes.
type OutputSelection struct {
	PassByPass    bool `json:"pass_by_pass"`
	DayStats      bool `json:"day_stats"`
	Sicpa         bool `json:"sicpa"`
	CompleteWeeks bool `json:"complete_weeks"`
	EventLog      bool `json:"event_log"`
	Workbook      bool `json:"workbook"`
}

// DefaultOutputs selects the four standard exports.
func DefaultOutputs() OutputSelection {
	return OutputSelection{
		PassByPass:    true,
		DayStats:      true,
		Sicpa:         true,
		CompleteWeeks: true,
	}
}

// Any reports whether at least one output is selected.
func (o OutputSelection) Any() bool {
	return o.PassByPass || o.DayStats || o.Sicpa || o.CompleteWeeks || o.EventLog || o.Workbook
}

// ReportRequest carries everything one batch run needs. It replaces the
// mutable form state of the legacy desktop tool: the GUI (or the HTTP
// adapter, or the CLI) fills it in and hands it to the report service.
type ReportRequest struct {
	ArchivePath string `json:"archive_path" validate:"required"`
	OutputDir   string `json:"output_dir" validate:"required"`

	// Birth-date window selecting the animals of interest. The visit log is
	// never filtered by these dates; only the registry is.
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`

	// Weeks is the requested week count for the completeness filter.
	Weeks int `json:"weeks" validate:"required,min=1"`

	Curves []CurveSpec `json:"curves" validate:"required,min=1,dive"`

	// FarmPrefix is prepended to tag numbers in the SICPA and event-log
	// exports, e.g. "FR371783".
	FarmPrefix string `json:"farm_prefix"`
	// Distributor identifies the feeder unit in the SICPA export.
	Distributor string `json:"distributor"`

	Outputs OutputSelection `json:"outputs"`
}

// Window parses the birth-date window. Callers validate the date strings
// before parsing; a malformed string still surfaces as an error here.
func (r *ReportRequest) Window() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// OutputResult records the outcome of writing a single output file. A write
// failure is terminal for that file only; siblings still attempt.
type OutputResult struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// ReportResult summarizes a completed run.
type ReportResult struct {
	Animals      int            `json:"animals"`
	PassRows     int            `json:"pass_rows"`
	DayRows      int            `json:"day_rows"`
	FilteredRows int            `json:"filtered_rows"`
	EventRows    int            `json:"event_rows"`
	Outputs      []OutputResult `json:"outputs"`
}

// Failed lists the outputs that could not be written.
func (r *ReportResult) Failed() []OutputResult {
	var failed []OutputResult
	for _, o := range r.Outputs {
		if o.Error != "" {
			failed = append(failed, o)
		}
	}
	return failed
}
