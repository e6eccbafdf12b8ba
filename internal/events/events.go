package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/report"
)

// ReportGenerated is emitted after a queued report has been produced.
type ReportGenerated struct {
	ReportID       uuid.UUID       `json:"report_id"`
	Company        string          `json:"company,omitempty"`
	FromDate       core.Date       `json:"from_date"`
	ToDate         core.Date       `json:"to_date"`
	RowCount       int             `json:"row_count"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Exported       bool            `json:"exported"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

func NewReportGenerated(id uuid.UUID, f report.Filters, r core.Report, exported bool) ReportGenerated {
	return ReportGenerated{
		ReportID:       id,
		Company:        f.Company,
		FromDate:       f.FromDate,
		ToDate:         f.ToDate,
		RowCount:       len(r.Rows),
		ClosingBalance: r.Closing(),
		Exported:       exported,
		GeneratedAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	PublishReportGenerated(ctx context.Context, e ReportGenerated) error
}
