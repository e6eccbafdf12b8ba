package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glreport/internal/amqp"
	"glreport/internal/core"
	"glreport/internal/events"
	applog "glreport/internal/log"
	"glreport/internal/report"
	"glreport/internal/sheets"
)

// Generator produces a report for a set of filters.
type Generator interface {
	Generate(ctx context.Context, f report.Filters) (core.Report, error)
}

// ReportWorker handles queued report requests: it generates the report,
// writes it to a spreadsheet tab when an exporter is set and announces it
// when a publisher is set.
type ReportWorker struct {
	reports   Generator
	exporter  sheets.ReportExporter
	publisher events.Publisher
	logger    *applog.Logger
	failures  *applog.StructuredLogger
}

func NewReportWorker(reports Generator, exporter sheets.ReportExporter, publisher events.Publisher, logger *applog.Logger) *ReportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &ReportWorker{
		reports:   reports,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger,
		failures:  applog.NewStructuredLogger(logger),
	}
}

// HandleReportRequest processes a single report request from AMQP. A
// returned error makes the consumer retry the message.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	start := time.Now()
	f := report.ParseFilters(msg.Filters)

	w.logger.InfoContext(ctx, "Processing report request",
		applog.FieldReportID, msg.ID.String(),
		applog.FieldCompany, f.Company,
		applog.FieldFromDate, f.FromDate.String(),
		applog.FieldToDate, f.ToDate.String())

	rep, err := w.reports.Generate(ctx, f)
	if err != nil {
		return fmt.Errorf("generate report %s: %w", msg.ID, err)
	}

	exported := false
	if w.exporter != nil {
		tab := TabTitle(msg, f)
		ref, err := w.exporter.ExportReport(ctx, tab, rep)
		if err != nil {
			w.failures.LogError(ctx, "Failed to export report", err, applog.ComponentSheets, applog.OpExport,
				applog.LogFields{applog.FieldReportID: msg.ID.String(), "tab": tab})
			return fmt.Errorf("export report %s: %w", msg.ID, err)
		}
		exported = true
		w.logger.InfoContext(ctx, "Report exported",
			applog.FieldReportID, msg.ID.String(),
			"tab", tab,
			"range", ref)
	}

	if w.publisher != nil {
		evt := events.NewReportGenerated(msg.ID, f, rep, exported)
		if err := w.publisher.PublishReportGenerated(ctx, evt); err != nil {
			w.failures.LogError(ctx, "Failed to publish report event", err, applog.ComponentKafka, applog.OpPublish,
				applog.LogFields{applog.FieldReportID: msg.ID.String()})
			return fmt.Errorf("publish report event %s: %w", msg.ID, err)
		}
	}

	w.logger.InfoContext(ctx, "Report request completed",
		applog.FieldReportID, msg.ID.String(),
		applog.FieldRowCount, len(rep.Rows),
		"exported", exported,
		applog.FieldDuration, time.Since(start).Milliseconds())

	return nil
}

// TabTitle names the spreadsheet tab a queued report is written to. The
// short job id keeps tabs of identical requests apart.
func TabTitle(msg *amqp.ReportRequestMessage, f report.Filters) string {
	parts := []string{"GL"}
	if f.Company != "" {
		parts = append(parts, f.Company)
	}
	if !f.FromDate.IsZero() || !f.ToDate.IsZero() {
		parts = append(parts, f.FromDate.String()+".."+f.ToDate.String())
	}
	parts = append(parts, msg.ID.String()[:8])
	return sheets.SanitizeTitle(strings.Join(parts, " "))
}
