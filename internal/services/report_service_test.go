package services

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dalcli/internal/archive"
	"dalcli/internal/exporter"
	"dalcli/pkg/contracts/domain"
)

// writeTestArchive builds a feeder export with one animal (tag 9001, born
// 2024-01-10, curve 6) that has one visit per day over ages 7 through 13, so
// week s2 is fully covered. Every visit has a matching first detection, plus
// one extra detection on the first day.
func writeTestArchive(t *testing.T) string {
	t.Helper()

	registry := "tiere_id;tier_nr;geburtsdatum;kurvennr\n101;9001;10.01.2024;6\n"

	var visits strings.Builder
	visits.WriteString("tiere_id;sollmenge_milch;verbrauch_milch;verbrauch_mat1;verbrauch_mat2;verbrauch_wasser;" +
		"zeit_fuetterung_start_datum;zeit_fuetterung_start_zeit;zeit_fuetterung_fertig_datum;zeit_fuetterung_fertig_zeit\n")
	var detections strings.Builder
	detections.WriteString("tiere_id;erste_erkennung_datum;erste_erkennung_zeit\n")

	for day := 17; day <= 23; day++ {
		date := fmt.Sprintf("2024-01-%02d", day)
		visits.WriteString(fmt.Sprintf("101;2.5;2.0;0;0;0.3;%s;08:00:00;%s;08:04:00\n", date, date))
		detections.WriteString(fmt.Sprintf("101;%s;08:00:00\n", date))
	}
	detections.WriteString("101;2024-01-17;14:30:00\n")

	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for member, content := range map[string]string{
		archive.RegistryMember:  registry,
		archive.VisitMember:     visits.String(),
		archive.DetectionMember: detections.String(),
	} {
		w, err := zw.Create(member)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func testRequest(t *testing.T, archivePath, outDir string) *domain.ReportRequest {
	t.Helper()
	return &domain.ReportRequest{
		ArchivePath: archivePath,
		OutputDir:   outDir,
		StartDate:   "2024-01-01",
		EndDate:     "2024-06-30",
		Weeks:       1,
		Curves: []domain.CurveSpec{
			{ID: 6, FeedLabel: "pao 001", MilkByWeek: []float64{4, 6}, VisitsByWeek: []float64{4, 4}},
		},
		FarmPrefix: "FR371783",
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	archivePath := writeTestArchive(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	svc := NewReportService(nil)

	req := testRequest(t, archivePath, outDir)
	req.Outputs = domain.OutputSelection{
		PassByPass:    true,
		DayStats:      true,
		Sicpa:         true,
		CompleteWeeks: true,
		EventLog:      true,
		Workbook:      true,
	}

	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Animals)
	assert.Equal(t, 7, result.PassRows)
	assert.Equal(t, 7, result.DayRows)
	assert.Equal(t, 7, result.FilteredRows)
	assert.Equal(t, 8, result.EventRows)
	assert.Empty(t, result.Failed())

	for _, name := range []string{
		exporter.PassByPassFile, exporter.DayStatsFile, exporter.SicpaFile,
		exporter.CompleteWeeksFile, exporter.EventLogFile, exporter.WorkbookFile,
	} {
		require.FileExists(t, filepath.Join(outDir, name))
	}

	passContent, err := os.ReadFile(filepath.Join(outDir, exporter.PassByPassFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(passContent), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, strings.Join(exporter.PassByPassHeaders, ";"), lines[0])
	// first visit: age 7, week s2
	assert.Equal(t, "101;9001;B1_2024;6;pao 001;2024-01-10;7;1.0;s2;2.5;2;0;0;0.3;2024-01-17;08:00:00;2024-01-17;08:04:00;00:04:00", lines[1])

	statsContent, err := os.ReadFile(filepath.Join(outDir, exporter.DayStatsFile))
	require.NoError(t, err)
	statsLines := strings.Split(strings.TrimRight(string(statsContent), "\n"), "\n")
	require.Len(t, statsLines, 8)
	// age 7: one visit of 2.0 against theoretical 6.0/4 visits, one extra
	// detection that day gives one rejection
	assert.Equal(t, "9001;B1_2024;pao 001;7;s2;2.000;6.000;4.000;00:04:00;1;4;-3;1", statsLines[1])

	sicpaContent, err := os.ReadFile(filepath.Join(outDir, exporter.SicpaFile))
	require.NoError(t, err)
	sicpaLines := strings.Split(strings.TrimRight(string(sicpaContent), "\n"), "\n")
	assert.Equal(t, "PAO_BOV_DAL_001;FR3717839001;pao 001;17/01/2024 08:00:00;00:04:00;2;2.5", sicpaLines[1])

	eventsContent, err := os.ReadFile(filepath.Join(outDir, exporter.EventLogFile))
	require.NoError(t, err)
	eventLines := strings.Split(strings.TrimRight(string(eventsContent), "\n"), "\n")
	require.Len(t, eventLines, 9)
	assert.Equal(t, "FR3717839001;pao 001;17/01/2024;08:00;Offert;2.00", eventLines[1])
	assert.Equal(t, "FR3717839001;pao 001;17/01/2024;14:30;Refus;", eventLines[2])
}

func TestGenerateIsIdempotent(t *testing.T) {
	archivePath := writeTestArchive(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	svc := NewReportService(nil)

	_, err := svc.Generate(context.Background(), testRequest(t, archivePath, outDir))
	require.NoError(t, err)

	first := make(map[string][]byte)
	for _, name := range []string{
		exporter.PassByPassFile, exporter.DayStatsFile, exporter.SicpaFile, exporter.CompleteWeeksFile,
	} {
		content, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		first[name] = content
	}

	_, err = svc.Generate(context.Background(), testRequest(t, archivePath, outDir))
	require.NoError(t, err)

	for name, content := range first {
		again, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, content, again, "%s changed between identical runs", name)
	}
}

func TestGenerateDefaultsOutputs(t *testing.T) {
	archivePath := writeTestArchive(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	svc := NewReportService(nil)

	result, err := svc.Generate(context.Background(), testRequest(t, archivePath, outDir))
	require.NoError(t, err)

	require.Len(t, result.Outputs, 4)
	assert.NoFileExists(t, filepath.Join(outDir, exporter.EventLogFile))
	assert.NoFileExists(t, filepath.Join(outDir, exporter.WorkbookFile))
}

func TestGenerateOutputFailureIsIsolated(t *testing.T) {
	archivePath := writeTestArchive(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	// a directory squatting on the pass-by-pass file name blocks that one
	// output only
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, exporter.PassByPassFile), 0755))

	svc := NewReportService(nil)
	result, err := svc.Generate(context.Background(), testRequest(t, archivePath, outDir))
	require.NoError(t, err)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, exporter.PassByPassFile, failed[0].Name)
	require.FileExists(t, filepath.Join(outDir, exporter.DayStatsFile))
	require.FileExists(t, filepath.Join(outDir, exporter.SicpaFile))
}

func TestGenerateValidationFailures(t *testing.T) {
	archivePath := writeTestArchive(t)
	outDir := t.TempDir()
	svc := NewReportService(nil)
	ctx := context.Background()

	t.Run("end before start", func(t *testing.T) {
		req := testRequest(t, archivePath, outDir)
		req.StartDate, req.EndDate = "2024-06-30", "2024-01-01"
		_, err := svc.Generate(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "before start date")
	})

	t.Run("malformed date", func(t *testing.T) {
		req := testRequest(t, archivePath, outDir)
		req.StartDate = "01/01/2024"
		_, err := svc.Generate(ctx, req)
		assert.Error(t, err)
	})

	t.Run("zero weeks", func(t *testing.T) {
		req := testRequest(t, archivePath, outDir)
		req.Weeks = 0
		_, err := svc.Generate(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "week count")
	})

	t.Run("no curves", func(t *testing.T) {
		req := testRequest(t, archivePath, outDir)
		req.Curves = nil
		_, err := svc.Generate(ctx, req)
		assert.Error(t, err)
	})

	t.Run("missing archive", func(t *testing.T) {
		req := testRequest(t, archivePath, outDir)
		req.ArchivePath = filepath.Join(t.TempDir(), "nope.zip")
		_, err := svc.Generate(ctx, req)
		assert.Error(t, err)
	})

	t.Run("validation failure writes nothing", func(t *testing.T) {
		cleanDir := filepath.Join(t.TempDir(), "untouched")
		req := testRequest(t, archivePath, cleanDir)
		req.Weeks = 0
		_, err := svc.Generate(ctx, req)
		require.Error(t, err)
		assert.NoFileExists(t, filepath.Join(cleanDir, exporter.PassByPassFile))
	})
}

func TestCurves(t *testing.T) {
	archivePath := writeTestArchive(t)
	svc := NewReportService(nil)

	ids, err := svc.Curves(context.Background(), archivePath, "2024-01-01", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, []int{6}, ids)

	// nothing born in the window
	ids, err = svc.Curves(context.Background(), archivePath, "2025-01-01", "2025-06-30")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
