package report

import (
	"fmt"
	"strconv"
	"strings"

	"glreport/internal/core"
)

// Option keys recognized by ParseFilters.
const (
	KeyCompany                        = "company"
	KeyFromDate                       = "from_date"
	KeyToDate                         = "to_date"
	KeyAccount                        = "account"
	KeyPartyType                      = "party_type"
	KeyParty                          = "party"
	KeyCostCenter                     = "cost_center"
	KeyProject                        = "project"
	KeyShowCancelledEntries           = "show_cancelled_entries"
	KeyIgnoreERR                      = "ignore_err"
	KeyIgnoreSystemGeneratedEntries   = "ignore_system_generated_entries"
	KeyShowOpeningEntries             = "show_opening_entries"
	KeyShowNetValuesInPartyAccount    = "show_net_values_in_party_account"
	KeyGroupBy                        = "group_by"
	KeyAddValuesInTransactionCurrency = "add_values_in_transaction_currency"
	KeyShowRemarks                    = "show_remarks"
	KeyPresentationCurrency           = "presentation_currency"
)

// DefaultPresentationCurrency labels amount columns when no currency is given.
const DefaultPresentationCurrency = "USD"

type GroupBy string

const (
	GroupByNone                GroupBy = ""
	GroupByVoucherConsolidated GroupBy = "Group by Voucher (Consolidated)"
	GroupByAccount             GroupBy = "Group by Account"
)

// Set is an ordered collection of distinct, non-empty strings.
// An empty Set places no constraint on a filter. NewSet returns nil for
// empty input.
type Set []string

// NewSet normalizes a scalar or list filter value into a Set.
func NewSet(v any) Set {
	var raw []string
	switch x := v.(type) {
	case nil:
	case Set:
		raw = x
	case string:
		raw = []string{x}
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			if item == nil {
				continue
			}
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(x)}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make(Set, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s Set) Empty() bool { return len(s) == 0 }

func (s Set) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Filters is the normalized report configuration.
type Filters struct {
	Company     string
	FromDate    core.Date
	ToDate      core.Date
	Accounts    Set
	PartyType   string
	Parties     Set
	CostCenters Set
	Projects    Set

	ShowCancelledEntries           bool
	IgnoreERR                      bool
	IgnoreSystemGeneratedEntries   bool
	ShowOpeningEntries             bool
	ShowNetValuesInPartyAccount    bool
	GroupBy                        GroupBy
	AddValuesInTransactionCurrency bool
	ShowRemarks                    bool
	PresentationCurrency           string
}

// ParseFilters builds Filters from loosely typed options (decoded JSON,
// query parameters, queue payloads). Missing or malformed values fall back
// to "no constraint" or false; it never fails.
func ParseFilters(raw map[string]any) Filters {
	return Filters{
		Company:     scalar(raw[KeyCompany]),
		FromDate:    date(raw[KeyFromDate]),
		ToDate:      date(raw[KeyToDate]),
		Accounts:    NewSet(raw[KeyAccount]),
		PartyType:   scalar(raw[KeyPartyType]),
		Parties:     NewSet(raw[KeyParty]),
		CostCenters: NewSet(raw[KeyCostCenter]),
		Projects:    NewSet(raw[KeyProject]),

		ShowCancelledEntries:           flag(raw[KeyShowCancelledEntries]),
		IgnoreERR:                      flag(raw[KeyIgnoreERR]),
		IgnoreSystemGeneratedEntries:   flag(raw[KeyIgnoreSystemGeneratedEntries]),
		ShowOpeningEntries:             flag(raw[KeyShowOpeningEntries]),
		ShowNetValuesInPartyAccount:    flag(raw[KeyShowNetValuesInPartyAccount]),
		GroupBy:                        GroupBy(scalar(raw[KeyGroupBy])),
		AddValuesInTransactionCurrency: flag(raw[KeyAddValuesInTransactionCurrency]),
		ShowRemarks:                    flag(raw[KeyShowRemarks]),
		PresentationCurrency:           scalar(raw[KeyPresentationCurrency]),
	}
}

// Currency returns the presentation currency, defaulting to USD.
func (f Filters) Currency() string {
	if f.PresentationCurrency == "" {
		return DefaultPresentationCurrency
	}
	return f.PresentationCurrency
}

// Consolidated reports whether rows are grouped per voucher.
func (f Filters) Consolidated() bool {
	return f.GroupBy == GroupByVoucherConsolidated
}

// NetValues reports whether vouchers are netted before the balance pass.
// Netting only applies when the report is restricted to parties.
func (f Filters) NetValues() bool {
	return f.ShowNetValuesInPartyAccount && !f.Parties.Empty()
}

// Options renders f back into the loosely typed form ParseFilters accepts.
func (f Filters) Options() map[string]any {
	out := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	putSet := func(k string, s Set) {
		if !s.Empty() {
			out[k] = []string(s)
		}
	}
	putFlag := func(k string, v bool) {
		if v {
			out[k] = true
		}
	}
	put(KeyCompany, f.Company)
	put(KeyFromDate, f.FromDate.String())
	put(KeyToDate, f.ToDate.String())
	putSet(KeyAccount, f.Accounts)
	put(KeyPartyType, f.PartyType)
	putSet(KeyParty, f.Parties)
	putSet(KeyCostCenter, f.CostCenters)
	putSet(KeyProject, f.Projects)
	putFlag(KeyShowCancelledEntries, f.ShowCancelledEntries)
	putFlag(KeyIgnoreERR, f.IgnoreERR)
	putFlag(KeyIgnoreSystemGeneratedEntries, f.IgnoreSystemGeneratedEntries)
	putFlag(KeyShowOpeningEntries, f.ShowOpeningEntries)
	putFlag(KeyShowNetValuesInPartyAccount, f.ShowNetValuesInPartyAccount)
	put(KeyGroupBy, string(f.GroupBy))
	putFlag(KeyAddValuesInTransactionCurrency, f.AddValuesInTransactionCurrency)
	putFlag(KeyShowRemarks, f.ShowRemarks)
	put(KeyPresentationCurrency, f.PresentationCurrency)
	return out
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []string:
		if len(x) == 0 {
			return ""
		}
		return strings.TrimSpace(x[0])
	case []any:
		if len(x) == 0 || x[0] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(x[0]))
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func flag(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	s := strings.ToLower(scalar(v))
	switch s {
	case "yes", "on", "y":
		return true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0
	}
	return false
}

func date(v any) core.Date {
	if d, ok := v.(core.Date); ok {
		return d
	}
	d, err := core.ParseDate(scalar(v))
	if err != nil {
		return core.Date{}
	}
	return d
}
