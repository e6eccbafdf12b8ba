package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/report"
)

// Ports for GL entry sources.
type (
	// EntryQuerier returns the entries matching every predicate, ordered by
	// posting date then creation.
	EntryQuerier interface {
		QueryEntries(ctx context.Context, conds []report.Predicate) ([]core.LedgerEntry, error)
	}

	// BalanceLookup returns the signed balance (debit - credit) of submitted
	// entries up to and including q.AsOf.
	BalanceLookup interface {
		BalanceOn(ctx context.Context, q BalanceQuery) (decimal.Decimal, error)
	}

	EntryWriter interface {
		InsertEntries(ctx context.Context, entries []core.LedgerEntry) (int, error)
	}

	Store interface {
		EntryQuerier
		BalanceLookup
	}
)

// BalanceQuery scopes an opening balance to one account. Empty members
// place no constraint.
type BalanceQuery struct {
	Account     string
	AsOf        core.Date
	Company     string
	PartyType   string
	Parties     report.Set
	CostCenters report.Set
	Projects    report.Set
}

// Conditions renders q as report predicates so every store evaluates it the
// same way entry queries are evaluated.
func (q BalanceQuery) Conditions() []report.Predicate {
	conds := []report.Predicate{
		report.In{Field: report.FieldDocStatus, Values: []any{core.DocStatusSubmitted}},
		report.Compare{Field: report.FieldAccount, Op: report.OpEq, Value: q.Account},
		report.Compare{Field: report.FieldPostingDate, Op: report.OpLte, Value: q.AsOf},
	}
	if q.Company != "" {
		conds = append(conds, report.Compare{Field: report.FieldCompany, Op: report.OpEq, Value: q.Company})
	}
	if q.PartyType != "" {
		conds = append(conds, report.Compare{Field: report.FieldPartyType, Op: report.OpEq, Value: q.PartyType})
	}
	if !q.Parties.Empty() {
		conds = append(conds, report.InSet(report.FieldParty, q.Parties))
	}
	if !q.CostCenters.Empty() {
		conds = append(conds, report.InSet(report.FieldCostCenter, q.CostCenters))
	}
	if !q.Projects.Empty() {
		conds = append(conds, report.InSet(report.FieldProject, q.Projects))
	}
	return conds
}

// Sum returns the signed balance of entries.
func Sum(entries []core.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Debit).Sub(e.Credit)
	}
	return total
}
