package sheets

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"glreport/internal/core"
	"glreport/internal/report"
)

func TestValues(t *testing.T) {
	f := report.Filters{ShowRemarks: true}
	rows := report.Aggregate([]core.LedgerEntry{{
		PostingDate: core.NewDate(2025, 1, 2),
		VoucherType: "Sales Invoice",
		VoucherNo:   "SINV-1",
		Debit:       decimal.RequireFromString("10.50"),
		Remarks:     "=HYPERLINK(\"x\")",
	}}, decimal.Zero, f)

	got := Values(core.Report{Columns: report.Columns(f), Rows: rows})

	assert.Equal(t, []any{"Posting Date", "Voucher Type", "Voucher No", "Debit (USD)", "Credit (USD)", "Balance (USD)", "Remarks"}, got[0])
	assert.Equal(t, []any{"2025-01-02", "Sales Invoice", "SINV-1", "10.5", "0", "10.5", "'=HYPERLINK(\"x\")"}, got[1])
}

func TestValues_EmptyReport(t *testing.T) {
	got := Values(core.Report{Columns: report.Columns(report.Filters{})})
	assert.Len(t, got, 1)
	assert.Len(t, got[0], 6)
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "GL Acme 2025-01-01..2025-01-31", SanitizeTitle(" GL Acme 2025-01-01..2025-01-31 "))
	assert.Equal(t, "a-b-c-d", SanitizeTitle("a/b:c[d"))
	assert.Equal(t, "GL Report", SanitizeTitle("  "))
	assert.Len(t, []rune(SanitizeTitle(strings.Repeat("é", 150))), 100)
}
