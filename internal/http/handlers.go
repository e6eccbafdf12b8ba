package http

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"glreport/internal/core"
	applog "glreport/internal/log"
	"glreport/internal/middleware/auth"
	"glreport/internal/report"
	"glreport/internal/services"
)

// handleReportQuery serves the report with filters taken from the query
// string.
func (s *Server) handleReportQuery(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, r, OptionsFromQuery(r.URL.Query()))
}

// handleReportBody serves the report with filters sent as a JSON object.
func (s *Server) handleReportBody(w http.ResponseWriter, r *http.Request) {
	options, err := DecodeOptions(r, w, true)
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}
	s.writeReport(w, r, options)
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, options map[string]any) {
	ctx := r.Context()
	f := report.ParseFilters(options)

	start := time.Now()
	rep, err := s.reports.Generate(ctx, f)
	s.metrics.ObserveReport(reportMode(f), len(rep.Rows), time.Since(start), err)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Report generation failed",
			applog.FieldOperation, applog.OpGenerate,
			applog.FieldCompany, f.Company,
			applog.FieldError, err.Error())
		InternalServerError("report generation failed").Write(w, r)
		return
	}
	if rep.Rows == nil {
		rep.Rows = []core.ReportRow{}
	}

	NewJSONResponse().Body(rep).Write(w, r)
}

// reportMode labels a report by how its rows are grouped.
func reportMode(f report.Filters) string {
	switch {
	case f.Consolidated():
		return "voucher"
	case f.NetValues():
		return "net"
	default:
		return "entry"
	}
}

// JobAccepted is the body of a 202 response to a job submission.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil || !s.jobs.Available() {
		s.metrics.ObserveJob("unavailable")
		ServiceUnavailableError("report queue is not configured").Write(w, r)
		return
	}

	options, err := DecodeOptions(r, w, true)
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	ctx := r.Context()
	id, err := s.jobs.Enqueue(ctx, options)
	switch {
	case errors.Is(err, services.ErrQueueUnavailable):
		s.metrics.ObserveJob("unavailable")
		ServiceUnavailableError("report queue is not configured").Write(w, r)
		return
	case err != nil:
		s.metrics.ObserveJob("failed")
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to enqueue report job",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err.Error())
		ServiceUnavailableError("report queue is unavailable, retry later").Write(w, r)
		return
	}

	s.metrics.ObserveJob("queued")
	applog.FromContext(ctx).InfoContext(ctx, "Report job queued",
		applog.FieldReportID, id.String(),
		"subject", auth.Subject(ctx))
	NewJSONResponse().
		Status(http.StatusAccepted).
		Body(JobAccepted{JobID: id.String(), Status: "queued"}).
		Write(w, r)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"requests":  s.trace.GetMetrics(),
		"jobs":      s.jobs != nil && s.jobs.Available(),
	}).Write(w, r)
}

// handleReady runs every readiness check with a shared timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().
		Status(httpStatus).
		Body(map[string]any{"status": status, "checks": checks}).
		Write(w, r)
}
