package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"dalcli/internal/archive"
	"dalcli/internal/dataprocessing"
	"dalcli/internal/exporter"
	"dalcli/internal/validation"
	"dalcli/pkg/contracts/domain"
)

// ReportService runs one full batch: read the feeder archive, derive the
// datasets and write the selected exports. Runs are synchronous and
// stateless; every invocation reads fresh from the archive, so unchanged
// inputs produce byte-identical outputs.
type ReportService struct {
	logger   *slog.Logger
	files    *validation.FileValidator
	csv      *exporter.CSVWriter
	workbook *exporter.WorkbookWriter
}

// NewReportService creates a report service.
func NewReportService(logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		logger:   logger,
		files:    validation.NewFileValidator(logger),
		csv:      exporter.NewCSVWriter(logger),
		workbook: exporter.NewWorkbookWriter(logger),
	}
}

// Generate executes a run. Input-validation and archive-content problems are
// fatal and abort before anything is written; a write failure on one output
// file is recorded in the result and the remaining outputs still attempt.
func (s *ReportService) Generate(ctx context.Context, req *domain.ReportRequest) (*domain.ReportResult, error) {
	if req.Outputs == (domain.OutputSelection{}) {
		req.Outputs = domain.DefaultOutputs()
	}
	start, end, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "report run starting",
		slog.String("archive", req.ArchivePath),
		slog.String("output_dir", req.OutputDir),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate),
		slog.Int("weeks", req.Weeks))

	reader, err := archive.Open(req.ArchivePath, s.logger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	animals, err := reader.Animals()
	if err != nil {
		return nil, err
	}
	visits, err := reader.Visits()
	if err != nil {
		return nil, err
	}
	detections, err := reader.Detections()
	if err != nil {
		return nil, err
	}

	curves := domain.NewCurveTable(req.Curves)
	cohort := dataprocessing.FilterAnimals(animals, start, end)
	passes := dataprocessing.BuildPassRecords(cohort, visits, curves, s.logger)
	window := dataprocessing.FilterDetections(detections, start)
	days := dataprocessing.AggregateDays(passes, curves, window, s.logger)
	filtered := dataprocessing.FilterCompleteWeeks(days, req.Weeks, s.logger)
	events := dataprocessing.BuildEventLog(passes, window, req.FarmPrefix, s.logger)

	result := &domain.ReportResult{
		Animals:      len(cohort),
		PassRows:     len(passes),
		DayRows:      len(days),
		FilteredRows: len(filtered),
		EventRows:    len(events),
	}
	s.writeOutputs(ctx, req, result, passes, days, filtered, events)

	s.logger.InfoContext(ctx, "report run finished",
		slog.Int("animals", result.Animals),
		slog.Int("pass_rows", result.PassRows),
		slog.Int("day_rows", result.DayRows),
		slog.Int("filtered_rows", result.FilteredRows),
		slog.Int("failed_outputs", len(result.Failed())))

	return result, nil
}

// Curves lists the distinct curve ids assigned to animals born inside the
// window, so a caller can populate its theoretical tables.
func (s *ReportService) Curves(ctx context.Context, archivePath, startDate, endDate string) ([]int, error) {
	if err := s.files.ValidateArchivePath(archivePath); err != nil {
		return nil, err
	}
	req := domain.ReportRequest{StartDate: startDate, EndDate: endDate}
	start, end, err := req.Window()
	if err != nil {
		return nil, fmt.Errorf("invalid date window: %w", err)
	}

	reader, err := archive.Open(archivePath, s.logger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	animals, err := reader.Animals()
	if err != nil {
		return nil, err
	}
	return dataprocessing.CurveIDs(dataprocessing.FilterAnimals(animals, start, end)), nil
}

// validateRequest performs all input validation up front: a bad request must
// fail before any processing or side effect.
func (s *ReportService) validateRequest(req *domain.ReportRequest) (start, end time.Time, err error) {
	start, end, err = req.Window()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date window: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", req.EndDate, req.StartDate)
	}
	if req.Weeks < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("week count must be at least 1, got %d", req.Weeks)
	}
	if len(req.Curves) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("at least one curve is required")
	}
	if err := s.files.ValidateArchivePath(req.ArchivePath); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := s.files.ValidateOutputDirectory(req.OutputDir); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// writeOutputs writes every selected export, recording per-file outcomes.
func (s *ReportService) writeOutputs(ctx context.Context, req *domain.ReportRequest, result *domain.ReportResult,
	passes []domain.PassRecord, days, filtered []domain.DayAggregate, events []domain.EventRecord) {

	record := func(name string, rows int, err error) {
		out := domain.OutputResult{
			Name: name,
			Path: filepath.Join(req.OutputDir, name),
			Rows: rows,
		}
		if err != nil {
			out.Error = err.Error()
			s.logger.ErrorContext(ctx, "output write failed",
				slog.String("file", name),
				slog.String("error", err.Error()))
		}
		result.Outputs = append(result.Outputs, out)
	}

	if req.Outputs.PassByPass {
		rows := exporter.PassByPassRows(passes)
		err := s.csv.WriteFile(filepath.Join(req.OutputDir, exporter.PassByPassFile), exporter.PassByPassHeaders, rows)
		record(exporter.PassByPassFile, len(rows), err)
	}
	if req.Outputs.DayStats {
		rows := exporter.DayStatsRows(days)
		err := s.csv.WriteFile(filepath.Join(req.OutputDir, exporter.DayStatsFile), exporter.DayStatsHeaders, rows)
		record(exporter.DayStatsFile, len(rows), err)
	}
	if req.Outputs.Sicpa {
		rows := exporter.SicpaRows(passes, req.Distributor, req.FarmPrefix)
		err := s.csv.WriteFile(filepath.Join(req.OutputDir, exporter.SicpaFile), exporter.SicpaHeaders, rows)
		record(exporter.SicpaFile, len(rows), err)
	}
	if req.Outputs.CompleteWeeks {
		rows := exporter.DayStatsRows(filtered)
		err := s.csv.WriteFile(filepath.Join(req.OutputDir, exporter.CompleteWeeksFile), exporter.DayStatsHeaders, rows)
		record(exporter.CompleteWeeksFile, len(rows), err)
	}
	if req.Outputs.EventLog {
		rows := exporter.EventLogRows(events)
		err := s.csv.WriteFile(filepath.Join(req.OutputDir, exporter.EventLogFile), exporter.EventLogHeaders, rows)
		record(exporter.EventLogFile, len(rows), err)
	}
	if req.Outputs.Workbook {
		sheets := []exporter.Sheet{
			{Name: "Passages", Headers: exporter.PassByPassHeaders, Rows: exporter.PassByPassRows(passes)},
			{Name: "Statistiques", Headers: exporter.DayStatsHeaders, Rows: exporter.DayStatsRows(days)},
			{Name: "SICPA", Headers: exporter.SicpaHeaders, Rows: exporter.SicpaRows(passes, req.Distributor, req.FarmPrefix)},
			{Name: "Semaines completes", Headers: exporter.DayStatsHeaders, Rows: exporter.DayStatsRows(filtered)},
			{Name: "Evenements", Headers: exporter.EventLogHeaders, Rows: exporter.EventLogRows(events)},
		}
		err := s.workbook.WriteFile(filepath.Join(req.OutputDir, exporter.WorkbookFile), sheets)
		record(exporter.WorkbookFile, len(passes), err)
	}
}
