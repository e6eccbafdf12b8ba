package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"glreport/internal/core"
)

func TestNewSet(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Set
	}{
		{"nil", nil, nil},
		{"scalar", "Debtors - AC", Set{"Debtors - AC"}},
		{"blank scalar", "  ", nil},
		{"string list", []string{"a", "b", "a", ""}, Set{"a", "b"}},
		{"any list", []any{"x", nil, " y "}, Set{"x", "y"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewSet(tc.in))
		})
	}
}

func TestParseFilters(t *testing.T) {
	f := ParseFilters(map[string]any{
		"company":                            "Acme",
		"from_date":                          "2025-01-01",
		"to_date":                            "not-a-date",
		"account":                            "Debtors - AC",
		"party_type":                         "Customer",
		"party":                              []any{"CUST-1", "CUST-2"},
		"cost_center":                        []string{"Main - AC"},
		"show_cancelled_entries":             "1",
		"ignore_err":                         true,
		"ignore_system_generated_entries":    float64(1),
		"show_opening_entries":               "on",
		"show_net_values_in_party_account":   "false",
		"group_by":                           "Group by Voucher (Consolidated)",
		"add_values_in_transaction_currency": 0,
		"show_remarks":                       "yes",
		"unknown_key":                        "ignored",
	})

	assert.Equal(t, "Acme", f.Company)
	assert.Equal(t, core.NewDate(2025, 1, 1), f.FromDate)
	assert.True(t, f.ToDate.IsZero(), "malformed date means no constraint")
	assert.Equal(t, Set{"Debtors - AC"}, f.Accounts)
	assert.Equal(t, Set{"CUST-1", "CUST-2"}, f.Parties)
	assert.Equal(t, Set{"Main - AC"}, f.CostCenters)
	assert.True(t, f.Projects.Empty())
	assert.True(t, f.ShowCancelledEntries)
	assert.True(t, f.IgnoreERR)
	assert.True(t, f.IgnoreSystemGeneratedEntries)
	assert.True(t, f.ShowOpeningEntries)
	assert.False(t, f.ShowNetValuesInPartyAccount)
	assert.True(t, f.Consolidated())
	assert.False(t, f.AddValuesInTransactionCurrency)
	assert.True(t, f.ShowRemarks)
	assert.Equal(t, DefaultPresentationCurrency, f.Currency())
}

func TestParseFilters_EmptyMap(t *testing.T) {
	f := ParseFilters(nil)
	assert.Equal(t, "USD", f.Currency())
	assert.False(t, f.NetValues())
	assert.Len(t, Conditions(f), 1)
}

func TestFiltersOptionsRoundTrip(t *testing.T) {
	f := Filters{
		Company:                     "Acme",
		FromDate:                    core.NewDate(2025, 1, 1),
		Accounts:                    Set{"A", "B"},
		Parties:                     Set{"P"},
		ShowNetValuesInPartyAccount: true,
		GroupBy:                     GroupByVoucherConsolidated,
		PresentationCurrency:        "EUR",
	}
	back := ParseFilters(f.Options())
	assert.Equal(t, f, back)
	assert.True(t, back.NetValues())
}

func TestColumns(t *testing.T) {
	cols := Columns(Filters{})
	var fields []string
	for _, c := range cols {
		fields = append(fields, c.FieldName)
	}
	assert.Equal(t, []string{"posting_date", "voucher_type", "voucher_no", "debit", "credit", "balance"}, fields)
	assert.Equal(t, "Debit (USD)", cols[3].Label)
	assert.Equal(t, "voucher_type", cols[2].Options)

	cols = Columns(Filters{AddValuesInTransactionCurrency: true, ShowRemarks: true, PresentationCurrency: "EUR"})
	fields = fields[:0]
	for _, c := range cols {
		fields = append(fields, c.FieldName)
	}
	assert.Equal(t, []string{
		"posting_date", "voucher_type", "voucher_no",
		"debit_in_account_currency", "credit_in_account_currency", "account_currency",
		"debit", "credit", "balance", "remarks",
	}, fields)
	assert.Equal(t, "Balance (EUR)", cols[8].Label)
	assert.Equal(t, 200, cols[9].Width)
}

func TestCell(t *testing.T) {
	remark := "hello"
	row := core.ReportRow{PostingDate: core.NewDate(2025, 1, 2), VoucherNo: "X", Remarks: &remark}
	assert.Equal(t, "2025-01-02", Cell(row, "posting_date"))
	assert.Equal(t, "hello", Cell(row, "remarks"))
	assert.Nil(t, Cell(row, "account_currency"))
	assert.Nil(t, Cell(row, "nope"))
}
