package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "dalcli/internal/errors"
	"dalcli/internal/services"
	"dalcli/pkg/contracts/domain"
)

// RunMetrics receives per-run observations. Satisfied by middleware.Metrics;
// a nil value disables recording.
type RunMetrics interface {
	ObserveRun(outcome string)
	ObserveRows(file string, rows int)
}

// ReportHandler handles report generation requests.
type ReportHandler struct {
	service  *services.ReportService
	logger   *slog.Logger
	validate *validator.Validate
	defaults domain.ReportRequest
	metrics  RunMetrics
}

// NewReportHandler creates a report handler. The defaults request supplies
// values (output directory, distributor, curve table) a caller may omit.
func NewReportHandler(service *services.ReportService, defaults domain.ReportRequest, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service:  service,
		logger:   logger.With(slog.String("handler", "reports")),
		validate: validator.New(),
		defaults: defaults,
	}
}

// WithMetrics attaches run-level metrics recording.
func (h *ReportHandler) WithMetrics(m RunMetrics) *ReportHandler {
	h.metrics = m
	return h
}

// RegisterRoutes registers the report routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.Generate)
		r.Get("/curves", h.Curves)
	})
}

// Generate handles POST /api/reports. It runs a full report batch
// synchronously and returns the per-output results.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ReportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode report request",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	h.applyDefaults(&req)

	if err := h.validate.Struct(&req); err != nil {
		h.logger.WarnContext(ctx, "report request validation failed",
			slog.String("error", err.Error()))
		render.Render(w, r, validationProblem(err))
		return
	}

	result, err := h.service.Generate(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "report run failed",
			slog.String("error", err.Error()))
		h.observeRun("error", nil)
		render.Render(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"REPORT_FAILED",
			"Report generation failed",
			err.Error(),
		))
		return
	}

	outcome := "success"
	if len(result.Failed()) > 0 {
		outcome = "partial"
	}
	h.observeRun(outcome, result)

	render.JSON(w, r, result)
}

// Curves handles GET /api/reports/curves. It lists the distinct curve ids
// assigned to animals born inside the requested window, so an operator can
// check the curve table covers them before a run.
func (h *ReportHandler) Curves(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	archive := r.URL.Query().Get("archive")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if archive == "" || start == "" || end == "" {
		render.Render(w, r, apierrors.New(
			http.StatusBadRequest,
			"MISSING_PARAMETER",
			"archive, start and end query parameters are required",
		))
		return
	}

	ids, err := h.service.Curves(ctx, archive, start, end)
	if err != nil {
		h.logger.ErrorContext(ctx, "curve listing failed",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"CURVE_LISTING_FAILED",
			"Failed to list curves from archive",
			err.Error(),
		))
		return
	}

	render.JSON(w, r, map[string]interface{}{"curve_ids": ids})
}

func (h *ReportHandler) observeRun(outcome string, result *domain.ReportResult) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveRun(outcome)
	if result == nil {
		return
	}
	for _, out := range result.Outputs {
		if out.Error == "" {
			h.metrics.ObserveRows(out.Name, out.Rows)
		}
	}
}

// applyDefaults fills fields the request left empty from the configured
// defaults.
func (h *ReportHandler) applyDefaults(req *domain.ReportRequest) {
	if req.OutputDir == "" {
		req.OutputDir = h.defaults.OutputDir
	}
	if req.FarmPrefix == "" {
		req.FarmPrefix = h.defaults.FarmPrefix
	}
	if req.Distributor == "" {
		req.Distributor = h.defaults.Distributor
	}
	if len(req.Curves) == 0 {
		req.Curves = h.defaults.Curves
	}
	if req.Weeks == 0 {
		req.Weeks = h.defaults.Weeks
	}
}

// validationProblem converts validator errors into a field-level error
// response.
func validationProblem(err error) *apierrors.APIError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}
	details := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apierrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %s validation", fe.Tag()),
		})
	}
	return apierrors.NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		details,
	)
}
