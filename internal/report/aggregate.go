package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"glreport/internal/core"
)

// OpeningBalanceLabel is the voucher number (and remark) of the opening row.
const OpeningBalanceLabel = "Opening Balance"

// Aggregate turns GL entries into report rows carrying a running balance.
//
// Entries are ordered by posting date then creation. When filters ask for
// net values on party accounts, vouchers are netted first. A non-zero
// opening balance is emitted as the first row when opening entries are
// requested and seeds the balance. Rows are then produced per voucher
// (consolidated) or per entry. The input slice is never modified.
func Aggregate(entries []core.LedgerEntry, opening decimal.Decimal, f Filters) []core.ReportRow {
	ordered := make([]core.LedgerEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if c := a.PostingDate.Compare(b.PostingDate); c != 0 {
			return c < 0
		}
		return a.Creation.Before(b.Creation)
	})

	if f.NetValues() {
		ordered = NetValues(ordered)
	}

	rb := rowBuilder{
		currency: f.AddValuesInTransactionCurrency,
		remarks:  f.ShowRemarks,
	}

	var rows []core.ReportRow
	balance := decimal.Zero

	if f.ShowOpeningEntries && !opening.IsZero() {
		balance = opening
		rows = append(rows, rb.opening(f.FromDate, opening, f.Currency()))
	}

	if f.Consolidated() {
		for _, g := range consolidate(ordered, f.ShowRemarks) {
			balance = balance.Add(g.debit).Sub(g.credit)
			rows = append(rows, rb.group(g, balance))
		}
		return rows
	}

	for _, e := range ordered {
		balance = balance.Add(e.Debit).Sub(e.Credit)
		rows = append(rows, rb.entry(e, balance))
	}
	return rows
}

// NetValues collapses each voucher (type and number, any posting date) into
// a single entry holding its net debit or net credit. Vouchers whose debits
// and credits cancel out are dropped. The surviving entry is a copy of the
// voucher's first entry; voucher order follows first appearance.
func NetValues(entries []core.LedgerEntry) []core.LedgerEntry {
	type voucher struct {
		first  core.LedgerEntry
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	index := map[string]int{}
	var vouchers []*voucher

	for _, e := range entries {
		key := voucherKey(e.VoucherType, e.VoucherNo)
		i, ok := index[key]
		if !ok {
			i = len(vouchers)
			index[key] = i
			vouchers = append(vouchers, &voucher{first: e, debit: decimal.Zero, credit: decimal.Zero})
		}
		v := vouchers[i]
		v.debit = v.debit.Add(e.Debit)
		v.credit = v.credit.Add(e.Credit)
	}

	out := make([]core.LedgerEntry, 0, len(vouchers))
	for _, v := range vouchers {
		if v.debit.Equal(v.credit) {
			continue
		}
		e := v.first
		e.Debit = core.Positive(v.debit.Sub(v.credit))
		e.Credit = core.Positive(v.credit.Sub(v.debit))
		out = append(out, e)
	}
	return out
}

type voucherGroup struct {
	postingDate      core.Date
	voucherType      string
	voucherNo        string
	debit            decimal.Decimal
	credit           decimal.Decimal
	debitInCurrency  decimal.Decimal
	creditInCurrency decimal.Decimal
	accountCurrency  string
	remarks          []string
}

// consolidate groups entries by voucher and posting date, sorted by
// (posting date, voucher type, voucher number).
func consolidate(entries []core.LedgerEntry, withRemarks bool) []*voucherGroup {
	index := map[string]*voucherGroup{}
	var groups []*voucherGroup

	for _, e := range entries {
		key := voucherKey(e.VoucherType, e.VoucherNo, e.PostingDate.String())
		g, ok := index[key]
		if !ok {
			g = &voucherGroup{
				postingDate:      e.PostingDate,
				voucherType:      e.VoucherType,
				voucherNo:        e.VoucherNo,
				debit:            decimal.Zero,
				credit:           decimal.Zero,
				debitInCurrency:  decimal.Zero,
				creditInCurrency: decimal.Zero,
				accountCurrency:  e.AccountCurrency,
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.debit = g.debit.Add(e.Debit)
		g.credit = g.credit.Add(e.Credit)
		g.debitInCurrency = g.debitInCurrency.Add(e.DebitInAccountCurrency)
		g.creditInCurrency = g.creditInCurrency.Add(e.CreditInAccountCurrency)
		if withRemarks && e.Remarks != "" {
			g.remarks = append(g.remarks, e.Remarks)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if c := a.postingDate.Compare(b.postingDate); c != 0 {
			return c < 0
		}
		if a.voucherType != b.voucherType {
			return a.voucherType < b.voucherType
		}
		return a.voucherNo < b.voucherNo
	})
	return groups
}

func voucherKey(parts ...string) string {
	return strings.Join(parts, "::")
}

// rowBuilder assembles rows, setting optional members only for the report
// options that enable them.
type rowBuilder struct {
	currency bool
	remarks  bool
}

func (rb rowBuilder) opening(date core.Date, opening decimal.Decimal, currency string) core.ReportRow {
	debit := core.Positive(opening)
	credit := core.Positive(opening.Neg())
	row := core.ReportRow{
		PostingDate: date,
		VoucherNo:   OpeningBalanceLabel,
		Debit:       debit,
		Credit:      credit,
		Balance:     opening,
	}
	if rb.currency {
		row.DebitInAccountCurrency = ptr(debit)
		row.CreditInAccountCurrency = ptr(credit)
		row.AccountCurrency = ptr(currency)
	}
	if rb.remarks {
		row.Remarks = ptr(OpeningBalanceLabel)
	}
	return row
}

func (rb rowBuilder) entry(e core.LedgerEntry, balance decimal.Decimal) core.ReportRow {
	row := core.ReportRow{
		PostingDate: e.PostingDate,
		VoucherType: e.VoucherType,
		VoucherNo:   e.VoucherNo,
		Debit:       e.Debit,
		Credit:      e.Credit,
		Balance:     balance,
	}
	if rb.currency {
		row.DebitInAccountCurrency = ptr(e.DebitInAccountCurrency)
		row.CreditInAccountCurrency = ptr(e.CreditInAccountCurrency)
		row.AccountCurrency = ptr(e.AccountCurrency)
	}
	if rb.remarks {
		row.Remarks = ptr(e.Remarks)
	}
	return row
}

func (rb rowBuilder) group(g *voucherGroup, balance decimal.Decimal) core.ReportRow {
	row := core.ReportRow{
		PostingDate: g.postingDate,
		VoucherType: g.voucherType,
		VoucherNo:   g.voucherNo,
		Debit:       g.debit,
		Credit:      g.credit,
		Balance:     balance,
	}
	if rb.currency {
		row.DebitInAccountCurrency = ptr(g.debitInCurrency)
		row.CreditInAccountCurrency = ptr(g.creditInCurrency)
		row.AccountCurrency = ptr(g.accountCurrency)
	}
	if rb.remarks {
		row.Remarks = ptr(strings.Join(dedupe(g.remarks), "; "))
	}
	return row
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
