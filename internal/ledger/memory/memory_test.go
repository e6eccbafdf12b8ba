package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/core"
	"glreport/internal/ledger"
	"glreport/internal/report"
)

const seed = `[
  {"name": "GLE-3", "posting_date": "2025-01-10", "creation": "2025-01-10T09:00:00Z", "company": "Acme",
   "account": "Debtors - AC", "party_type": "Customer", "party": "CUST-1", "voucher_type": "Sales Invoice",
   "voucher_no": "SINV-2", "debit": "50", "credit": "0", "docstatus": 1},
  {"name": "GLE-1", "posting_date": "2024-12-20", "creation": "2024-12-20T09:00:00Z", "company": "Acme",
   "account": "Debtors - AC", "party_type": "Customer", "party": "CUST-1", "voucher_type": "Sales Invoice",
   "voucher_no": "SINV-1", "debit": "100", "credit": "0", "docstatus": 1},
  {"name": "GLE-2", "posting_date": "2024-12-28", "creation": "2024-12-28T09:00:00Z", "company": "Acme",
   "account": "Debtors - AC", "party_type": "Customer", "party": "CUST-1", "voucher_type": "Payment Entry",
   "voucher_no": "PE-1", "debit": "0", "credit": "30", "docstatus": 1},
  {"name": "GLE-4", "posting_date": "2024-12-29", "creation": "2024-12-29T09:00:00Z", "company": "Acme",
   "account": "Debtors - AC", "party_type": "Customer", "party": "CUST-1", "voucher_type": "Payment Entry",
   "voucher_no": "PE-2", "debit": "0", "credit": "999", "docstatus": 2},
  {"name": "GLE-5", "posting_date": "2024-12-30", "creation": "2024-12-30T09:00:00Z", "company": "Acme",
   "account": "Debtors - AC", "party_type": "Customer", "party": "CUST-2", "voucher_type": "Sales Invoice",
   "voucher_no": "SINV-3", "debit": "7", "credit": "0", "docstatus": 1}
]`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gl_entries.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewFromFile_MissingFileIsEmpty(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestNewFromFile_RejectsInvalidEntries(t *testing.T) {
	_, err := NewFromFile(writeSeed(t, `[{"name": "x", "posting_date": "2025-01-01"}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyAccount)

	_, err = NewFromFile(writeSeed(t, `{not json`))
	require.Error(t, err)
}

func TestDecodeEntries_MalformedAmountIsZero(t *testing.T) {
	entries, err := DecodeEntries([]byte(`[
	  {"name": "GLE-9", "posting_date": "2025-01-10", "company": "Acme", "account": "Debtors - AC",
	   "voucher_type": "Sales Invoice", "voucher_no": "SINV-9", "debit": "abc", "credit": "2,500", "docstatus": 1}
	]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Debit.IsZero())
	assert.True(t, entries[0].Credit.Equal(decimal.NewFromInt(2500)))
}

func TestQueryEntries_FiltersAndOrders(t *testing.T) {
	s, err := NewFromFile(writeSeed(t, seed))
	require.NoError(t, err)
	require.Equal(t, 5, s.Len())

	conds := report.Conditions(report.Filters{Parties: report.Set{"CUST-1"}})
	got, err := s.QueryEntries(context.Background(), conds)
	require.NoError(t, err)

	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"GLE-1", "GLE-2", "GLE-3"}, names)
	assert.True(t, got[0].Debit.Equal(decimal.NewFromInt(100)))
}

func TestBalanceOn(t *testing.T) {
	s, err := NewFromFile(writeSeed(t, seed))
	require.NoError(t, err)

	bal, err := s.BalanceOn(context.Background(), ledger.BalanceQuery{
		Account: "Debtors - AC",
		AsOf:    core.NewDate(2024, 12, 31),
		Parties: report.Set{"CUST-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "70", bal.String(), "cancelled and later entries are excluded")

	bal, err = s.BalanceOn(context.Background(), ledger.BalanceQuery{
		Account: "Debtors - AC",
		AsOf:    core.NewDate(2024, 12, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, "77", bal.String())

	bal, err = s.BalanceOn(context.Background(), ledger.BalanceQuery{
		Account: "Debtors - AC",
		AsOf:    core.NewDate(2024, 12, 31),
		Company: "Other",
	})
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestInsertEntries(t *testing.T) {
	s := New(nil)
	n, err := s.InsertEntries(context.Background(), []core.LedgerEntry{{
		Name:        "GLE-1",
		PostingDate: core.NewDate(2025, 1, 1),
		Account:     "Debtors - AC",
		VoucherType: "Journal Entry",
		VoucherNo:   "JV-1",
		DocStatus:   core.DocStatusSubmitted,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.InsertEntries(context.Background(), []core.LedgerEntry{{Name: "bad"}})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	assert.Equal(t, 1, s.Len())
}
