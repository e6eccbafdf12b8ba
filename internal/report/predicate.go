package report

import (
	"strings"

	"glreport/internal/core"
)

// Voucher types the filters treat specially.
const (
	VoucherTypeExchangeRateRevaluation = "Exchange Rate Revaluation"
	VoucherTypeSalesInvoice            = "Sales Invoice"
	VoucherTypePurchaseInvoice         = "Purchase Invoice"
)

// Field names a GL entry column. The names match the gl_entries schema.
type Field string

const (
	FieldDocStatus          Field = "docstatus"
	FieldCompany            Field = "company"
	FieldPostingDate        Field = "posting_date"
	FieldAccount            Field = "account"
	FieldPartyType          Field = "party_type"
	FieldParty              Field = "party"
	FieldCostCenter         Field = "cost_center"
	FieldProject            Field = "project"
	FieldVoucherType        Field = "voucher_type"
	FieldAgainstVoucherType Field = "against_voucher_type"
	FieldIsSystemGenerated  Field = "is_system_generated"
)

// value extracts the field from an entry as string, int or core.Date.
func (f Field) value(e core.LedgerEntry) any {
	switch f {
	case FieldDocStatus:
		return e.DocStatus
	case FieldCompany:
		return e.Company
	case FieldPostingDate:
		return e.PostingDate
	case FieldAccount:
		return e.Account
	case FieldPartyType:
		return e.PartyType
	case FieldParty:
		return e.Party
	case FieldCostCenter:
		return e.CostCenter
	case FieldProject:
		return e.Project
	case FieldVoucherType:
		return e.VoucherType
	case FieldAgainstVoucherType:
		return e.AgainstVoucherType
	case FieldIsSystemGenerated:
		if e.IsSystemGenerated {
			return 1
		}
		return 0
	}
	return nil
}

type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Predicate is one parameterized condition on a GL entry. The same value
// can be evaluated in memory or rendered as a SQL fragment.
type Predicate interface {
	Matches(e core.LedgerEntry) bool
	Render(b *SQLBuilder) string
}

// Compare tests a field against a single value.
type Compare struct {
	Field Field
	Op    Op
	Value any
}

func (c Compare) Matches(e core.LedgerEntry) bool {
	cmp, ok := compareValues(c.Field.value(e), c.Value)
	if !ok {
		return c.Op == OpNe
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func (c Compare) Render(b *SQLBuilder) string {
	return b.Column(c.Field) + " " + string(c.Op) + " " + b.Bind(c.Value)
}

// In is a set-membership test. An empty set matches nothing.
type In struct {
	Field  Field
	Values []any
}

// InSet builds a membership test over string values.
func InSet(f Field, s Set) In {
	values := make([]any, len(s))
	for i, v := range s {
		values[i] = v
	}
	return In{Field: f, Values: values}
}

func (p In) Matches(e core.LedgerEntry) bool {
	v := p.Field.value(e)
	for _, candidate := range p.Values {
		if cmp, ok := compareValues(v, candidate); ok && cmp == 0 {
			return true
		}
	}
	return false
}

func (p In) Render(b *SQLBuilder) string {
	if len(p.Values) == 0 {
		return "1=0"
	}
	placeholders := make([]string, len(p.Values))
	for i, v := range p.Values {
		placeholders[i] = b.Bind(v)
	}
	return b.Column(p.Field) + " IN (" + strings.Join(placeholders, ", ") + ")"
}

// All is the conjunction of its members. An empty All matches everything.
type All []Predicate

func (a All) Matches(e core.LedgerEntry) bool {
	return MatchAll(a, e)
}

func (a All) Render(b *SQLBuilder) string {
	return "(" + b.Where(a) + ")"
}

// Not negates a predicate.
type Not struct {
	P Predicate
}

func (n Not) Matches(e core.LedgerEntry) bool {
	return !n.P.Matches(e)
}

func (n Not) Render(b *SQLBuilder) string {
	return "NOT " + wrap(n.P.Render(b))
}

func wrap(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s
	}
	return "(" + s + ")"
}

// MatchAll evaluates conds conjunctively.
func MatchAll(conds []Predicate, e core.LedgerEntry) bool {
	for _, c := range conds {
		if !c.Matches(e) {
			return false
		}
	}
	return true
}

// Conditions translates filters into the conjunctive predicate list used to
// select report entries. Unset filters contribute nothing.
func Conditions(f Filters) []Predicate {
	var conds []Predicate

	if f.ShowCancelledEntries {
		conds = append(conds, In{Field: FieldDocStatus, Values: []any{core.DocStatusSubmitted, core.DocStatusCancelled}})
	} else {
		conds = append(conds, In{Field: FieldDocStatus, Values: []any{core.DocStatusSubmitted}})
	}

	if f.Company != "" {
		conds = append(conds, Compare{Field: FieldCompany, Op: OpEq, Value: f.Company})
	}
	if !f.FromDate.IsZero() {
		conds = append(conds, Compare{Field: FieldPostingDate, Op: OpGte, Value: f.FromDate})
	}
	if !f.ToDate.IsZero() {
		conds = append(conds, Compare{Field: FieldPostingDate, Op: OpLte, Value: f.ToDate})
	}
	if !f.Accounts.Empty() {
		conds = append(conds, InSet(FieldAccount, f.Accounts))
	}
	if f.PartyType != "" {
		conds = append(conds, Compare{Field: FieldPartyType, Op: OpEq, Value: f.PartyType})
	}
	if !f.Parties.Empty() {
		conds = append(conds, InSet(FieldParty, f.Parties))
	}
	if !f.CostCenters.Empty() {
		conds = append(conds, InSet(FieldCostCenter, f.CostCenters))
	}
	if !f.Projects.Empty() {
		conds = append(conds, InSet(FieldProject, f.Projects))
	}

	if f.IgnoreERR {
		conds = append(conds, Compare{Field: FieldVoucherType, Op: OpNe, Value: VoucherTypeExchangeRateRevaluation})
	}

	// Credit/debit notes raised automatically between invoices.
	if f.IgnoreSystemGeneratedEntries {
		invoices := []any{VoucherTypeSalesInvoice, VoucherTypePurchaseInvoice}
		conds = append(conds, Not{P: All{
			In{Field: FieldVoucherType, Values: invoices},
			In{Field: FieldAgainstVoucherType, Values: invoices},
			Compare{Field: FieldIsSystemGenerated, Op: OpEq, Value: 1},
		}})
	}

	return conds
}

func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case int:
		y, ok := b.(int)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case core.Date:
		y, ok := b.(core.Date)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}
