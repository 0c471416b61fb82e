package archive

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"dalcli/pkg/contracts/domain"
)

// Fixed member names inside the feeder's zip export.
const (
	RegistryMember  = "Export_instutut_export_nr_00.csv"
	DetectionMember = "Export_instutut_export_nr_01.csv"
	VisitMember     = "Export_instutut_export_nr_03.csv"
)

// Schema tags the on-disk variant of the visit and first-detection exports.
// Newer feeder firmware writes separate date and time columns; older firmware
// writes a single combined timestamp.
type Schema int

const (
	SchemaUnknown Schema = iota
	SchemaCurrent
	SchemaLegacy
)

// String returns the schema name for logs.
func (s Schema) String() string {
	switch s {
	case SchemaCurrent:
		return "current"
	case SchemaLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Reader reads the three fixed CSV members of a feeder zip export and
// normalizes them to canonical records regardless of schema variant.
type Reader struct {
	zr     *zip.ReadCloser
	path   string
	logger *slog.Logger
}

// Open opens a feeder export archive. The caller must Close the reader.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Reader{zr: zr, path: path, logger: logger}, nil
}

// Close releases the underlying archive.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// table is one parsed CSV member: a lowercased header index plus raw rows.
type table struct {
	member  string
	columns map[string]int
	rows    [][]string
}

func (t *table) cell(row []string, column string) (string, error) {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return "", fmt.Errorf("%s: missing column %q", t.member, column)
	}
	return strings.TrimSpace(row[idx]), nil
}

func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

func (t *table) columnNames() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	return names
}

// readMember parses one semicolon-delimited CSV member. A missing member or
// malformed CSV is fatal for the whole run; there are no partial results.
func (r *Reader) readMember(member string) (*table, error) {
	f, err := r.zr.Open(member)
	if err != nil {
		return nil, fmt.Errorf("archive %s: member %s: %w", r.path, member, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", member, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: malformed CSV: %w", member, err)
		}
		rows = append(rows, row)
	}

	r.logger.Debug("archive member parsed",
		slog.String("member", member),
		slog.Int("columns", len(columns)),
		slog.Int("rows", len(rows)))

	return &table{member: member, columns: columns, rows: rows}, nil
}

// Animals reads the registry export. Birth dates are day-first in the raw
// export; the cohort label is derived here so every downstream stage sees it.
func (r *Reader) Animals() ([]domain.AnimalRecord, error) {
	t, err := r.readMember(RegistryMember)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"tiere_id", "tier_nr", "geburtsdatum", "kurvennr"} {
		if !t.has(col) {
			return nil, fmt.Errorf("%s: unrecognized schema: missing column %q (found %v)",
				RegistryMember, col, t.columnNames())
		}
	}

	animals := make([]domain.AnimalRecord, 0, len(t.rows))
	for i, row := range t.rows {
		urbanID, err := t.intCell(row, "tiere_id", i)
		if err != nil {
			return nil, err
		}
		tag, err := t.intCell(row, "tier_nr", i)
		if err != nil {
			return nil, err
		}
		curve, err := t.intCell(row, "kurvennr", i)
		if err != nil {
			return nil, err
		}
		raw, err := t.cell(row, "geburtsdatum")
		if err != nil {
			return nil, err
		}
		birth, err := parseDayFirstDate(raw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: birth date %q: %w", RegistryMember, i+2, raw, err)
		}
		animals = append(animals, domain.AnimalRecord{
			UrbanID:   urbanID,
			TagNumber: tag,
			BirthDate: birth,
			CurveID:   int(curve),
			Cohort:    domain.CohortFor(birth),
		})
	}
	return animals, nil
}

// Visits reads the visit log, detecting which schema variant is present
// before any row parsing.
func (r *Reader) Visits() ([]domain.VisitRecord, error) {
	t, err := r.readMember(VisitMember)
	if err != nil {
		return nil, err
	}

	schema := SchemaUnknown
	switch {
	case t.has("zeit_fuetterung_start_datum") && t.has("zeit_fuetterung_fertig_datum"):
		schema = SchemaCurrent
	case t.has("zeit_fuetterung_start") && t.has("zeit_fuetterung_fertig"):
		schema = SchemaLegacy
	default:
		return nil, fmt.Errorf("%s: unrecognized schema: no start/end timestamp columns (found %v)",
			VisitMember, t.columnNames())
	}
	r.logger.Info("visit log schema detected",
		slog.String("member", VisitMember),
		slog.String("schema", schema.String()))

	visits := make([]domain.VisitRecord, 0, len(t.rows))
	for i, row := range t.rows {
		urbanID, err := t.intCell(row, "tiere_id", i)
		if err != nil {
			return nil, err
		}
		v := domain.VisitRecord{UrbanID: urbanID}
		if v.TargetMilk, err = t.floatCell(row, "sollmenge_milch", i); err != nil {
			return nil, err
		}
		if v.ActualMilk, err = t.floatCell(row, "verbrauch_milch", i); err != nil {
			return nil, err
		}
		if v.Feed1, err = t.floatCell(row, "verbrauch_mat1", i); err != nil {
			return nil, err
		}
		if v.Feed2, err = t.floatCell(row, "verbrauch_mat2", i); err != nil {
			return nil, err
		}
		if v.Water, err = t.floatCell(row, "verbrauch_wasser", i); err != nil {
			return nil, err
		}

		switch schema {
		case SchemaCurrent:
			v.Start, err = t.dateTimeCells(row, "zeit_fuetterung_start_datum", "zeit_fuetterung_start_zeit", i)
			if err != nil {
				return nil, err
			}
			v.End, err = t.dateTimeCells(row, "zeit_fuetterung_fertig_datum", "zeit_fuetterung_fertig_zeit", i)
			if err != nil {
				return nil, err
			}
		case SchemaLegacy:
			v.Start, err = t.timestampCell(row, "zeit_fuetterung_start", i)
			if err != nil {
				return nil, err
			}
			v.End, err = t.timestampCell(row, "zeit_fuetterung_fertig", i)
			if err != nil {
				return nil, err
			}
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// Detections reads the first-detection log with the same two-variant
// handling as the visit log.
func (r *Reader) Detections() ([]domain.RejectionEvent, error) {
	t, err := r.readMember(DetectionMember)
	if err != nil {
		return nil, err
	}

	schema := SchemaUnknown
	switch {
	case t.has("erste_erkennung_datum") && t.has("erste_erkennung_zeit"):
		schema = SchemaCurrent
	case t.has("erste_erkennung"):
		schema = SchemaLegacy
	default:
		return nil, fmt.Errorf("%s: unrecognized schema: no first-detection columns (found %v)",
			DetectionMember, t.columnNames())
	}
	r.logger.Info("first-detection log schema detected",
		slog.String("member", DetectionMember),
		slog.String("schema", schema.String()))

	events := make([]domain.RejectionEvent, 0, len(t.rows))
	for i, row := range t.rows {
		urbanID, err := t.intCell(row, "tiere_id", i)
		if err != nil {
			return nil, err
		}
		var at time.Time
		switch schema {
		case SchemaCurrent:
			at, err = t.dateTimeCells(row, "erste_erkennung_datum", "erste_erkennung_zeit", i)
		case SchemaLegacy:
			at, err = t.timestampCell(row, "erste_erkennung", i)
		}
		if err != nil {
			return nil, err
		}
		events = append(events, domain.RejectionEvent{UrbanID: urbanID, At: at})
	}
	return events, nil
}

func (t *table) intCell(row []string, column string, rowIdx int) (int64, error) {
	raw, err := t.cell(row, column)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, fmt.Errorf("%s row %d: empty %s", t.member, rowIdx+2, column)
	}
	// Some exports render identifiers as floats ("123.0").
	raw = strings.TrimSuffix(raw, ".0")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %s %q: %w", t.member, rowIdx+2, column, raw, err)
	}
	return v, nil
}

func (t *table) floatCell(row []string, column string, rowIdx int) (float64, error) {
	raw, err := t.cell(row, column)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %s %q: %w", t.member, rowIdx+2, column, raw, err)
	}
	return v, nil
}

func (t *table) dateTimeCells(row []string, dateCol, timeCol string, rowIdx int) (time.Time, error) {
	rawDate, err := t.cell(row, dateCol)
	if err != nil {
		return time.Time{}, err
	}
	rawTime, err := t.cell(row, timeCol)
	if err != nil {
		return time.Time{}, err
	}
	at, err := combineDateTime(rawDate, rawTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s row %d: %s/%s %q %q: %w",
			t.member, rowIdx+2, dateCol, timeCol, rawDate, rawTime, err)
	}
	return at, nil
}

func (t *table) timestampCell(row []string, column string, rowIdx int) (time.Time, error) {
	raw, err := t.cell(row, column)
	if err != nil {
		return time.Time{}, err
	}
	at, err := parseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s row %d: %s %q: %w", t.member, rowIdx+2, column, raw, err)
	}
	return at, nil
}
