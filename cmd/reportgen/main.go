package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"dalcli/internal/config"
	"dalcli/internal/exporter"
	"dalcli/internal/infrastructure"
	"dalcli/internal/services"
	"dalcli/pkg/contracts/domain"
)

func main() {
	archivePath := flag.String("archive", "", "path to the feeder export zip archive")
	outDir := flag.String("out", "", "output directory for the generated reports")
	startDate := flag.String("start", "", "start of the birth-date window (YYYY-MM-DD)")
	endDate := flag.String("end", "", "end of the birth-date window (YYYY-MM-DD)")
	weeks := flag.Int("weeks", 8, "week count for the complete-weeks filter")
	curvesFile := flag.String("curves", "", "path to the curve-table YAML file")
	farmPrefix := flag.String("farm", "", "farm prefix prepended to tag numbers in SICPA and event exports")
	distributor := flag.String("distributor", exporter.DefaultDistributor, "feeder unit identifier for the SICPA export")
	listCurves := flag.Bool("list-curves", false, "list the curve ids used by animals in the window and exit")
	withEvents := flag.Bool("events", false, "also write the feeding event log")
	withWorkbook := flag.Bool("workbook", false, "also write the combined Excel workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.Logging.Output = "console"
	cfg.Logging.Format = "text"

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *archivePath == "" || *startDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "usage: reportgen -archive <zip> -start <date> -end <date> [-out <dir>] [-curves <yaml>]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	service := services.NewReportService(logger)
	ctx := context.Background()

	if *listCurves {
		ids, err := service.Curves(ctx, *archivePath, *startDate, *endDate)
		if err != nil {
			logger.Error("curve listing failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	if *curvesFile == "" {
		*curvesFile = cfg.Reports.CurvesFile
	}
	if *curvesFile == "" {
		fmt.Fprintln(os.Stderr, "a curve-table file is required: pass -curves or set DAL_REPORTS_CURVES_FILE")
		os.Exit(2)
	}
	curves, err := config.LoadCurves(*curvesFile)
	if err != nil {
		logger.Error("failed to load curve table", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *outDir == "" {
		*outDir = cfg.Reports.OutputDir
	}
	if *farmPrefix == "" {
		*farmPrefix = cfg.Reports.FarmPrefix
	}

	outputs := domain.DefaultOutputs()
	outputs.EventLog = *withEvents
	outputs.Workbook = *withWorkbook

	req := &domain.ReportRequest{
		ArchivePath: *archivePath,
		OutputDir:   *outDir,
		StartDate:   *startDate,
		EndDate:     *endDate,
		Weeks:       *weeks,
		Curves:      curves,
		FarmPrefix:  *farmPrefix,
		Distributor: *distributor,
		Outputs:     outputs,
	}

	result, err := service.Generate(ctx, req)
	if err != nil {
		logger.Error("report run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, out := range result.Outputs {
		if out.Error != "" {
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", out.Name, out.Error)
		} else {
			fmt.Printf("wrote %s (%d rows)\n", out.Path, out.Rows)
		}
	}
	if len(result.Failed()) > 0 {
		os.Exit(1)
	}
}
