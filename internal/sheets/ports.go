package sheets

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/report"
)

// ReportExporter writes a report to a named tab and returns the range
// written.
type ReportExporter interface {
	ExportReport(ctx context.Context, tab string, r core.Report) (string, error)
}

// maxTitleLength is the longest tab title Sheets accepts.
const maxTitleLength = 100

// Values renders a report as a cell matrix: one header row of column labels
// followed by one row per report row, cells in column order. Amounts are
// rendered as plain decimal strings and text that Sheets would evaluate as a
// formula is quoted.
func Values(r core.Report) [][]any {
	out := make([][]any, 0, len(r.Rows)+1)

	header := make([]any, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c.Label
	}
	out = append(out, header)

	for _, row := range r.Rows {
		cells := make([]any, len(r.Columns))
		for i, c := range r.Columns {
			cells[i] = cellValue(report.Cell(row, c.FieldName))
		}
		out = append(out, cells)
	}
	return out
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.String()
	case string:
		if strings.HasPrefix(x, "=") || strings.HasPrefix(x, "+") || strings.HasPrefix(x, "@") {
			return "'" + x
		}
		return x
	}
	return v
}

// SanitizeTitle makes s usable as a tab title.
func SanitizeTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':', '\'':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		s = "GL Report"
	}
	if runes := []rune(s); len(runes) > maxTitleLength {
		s = string(runes[:maxTitleLength])
	}
	return s
}
