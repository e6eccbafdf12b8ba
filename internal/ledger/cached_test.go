package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/cache"
	"glreport/internal/core"
	"glreport/internal/report"
)

type countingLookup struct {
	calls int
	value decimal.Decimal
	err   error
}

func (c *countingLookup) BalanceOn(context.Context, BalanceQuery) (decimal.Decimal, error) {
	c.calls++
	return c.value, c.err
}

func TestCachedBalances(t *testing.T) {
	next := &countingLookup{value: decimal.NewFromInt(42)}
	cached := NewCachedBalances(next, cache.NewLRUCache[decimal.Decimal](8, time.Minute))
	q := BalanceQuery{Account: "Debtors - AC", AsOf: core.NewDate(2024, 12, 31), Parties: report.Set{"CUST-1"}}

	for i := 0; i < 3; i++ {
		v, err := cached.BalanceOn(context.Background(), q)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.NewFromInt(42)))
	}
	assert.Equal(t, 1, next.calls)

	q.Parties = report.Set{"CUST-2"}
	_, err := cached.BalanceOn(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestBalanceQueryKey_SeparatorsInNamesDoNotCollide(t *testing.T) {
	pairs := [][2]BalanceQuery{
		{
			{Account: "Debtors - AC", Parties: report.Set{"A,B"}},
			{Account: "Debtors - AC", Parties: report.Set{"A", "B"}},
		},
		{
			{Account: "Debtors - AC", Parties: report.Set{"P|X"}},
			{Account: "Debtors - AC", Parties: report.Set{"P"}, CostCenters: report.Set{"X"}},
		},
		{
			{Account: "A|B", Company: "C"},
			{Account: "A", Company: "B|C"},
		},
	}
	for _, p := range pairs {
		assert.NotEqual(t, p[0].Key(), p[1].Key())
	}

	q := BalanceQuery{Account: "Debtors - AC", AsOf: core.NewDate(2024, 12, 31), Parties: report.Set{"CUST-1"}}
	assert.Equal(t, q.Key(), q.Key())
}

func TestCachedBalances_ErrorsAreNotCached(t *testing.T) {
	next := &countingLookup{err: errors.New("db down")}
	cached := NewCachedBalances(next, cache.NewLRUCache[decimal.Decimal](8, time.Minute))
	q := BalanceQuery{Account: "Debtors - AC", AsOf: core.NewDate(2024, 12, 31)}

	_, err := cached.BalanceOn(context.Background(), q)
	require.Error(t, err)
	_, err = cached.BalanceOn(context.Background(), q)
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestBalanceQueryConditions(t *testing.T) {
	q := BalanceQuery{
		Account:   "Debtors - AC",
		AsOf:      core.NewDate(2024, 12, 31),
		Company:   "Acme",
		PartyType: "Customer",
		Parties:   report.Set{"CUST-1", "CUST-2"},
		Projects:  report.Set{"P"},
	}
	b := report.NewSQLBuilder(report.SQLite, "")
	assert.Equal(t,
		"docstatus IN (?) AND account = ? AND posting_date <= ? AND company = ? AND party_type = ? AND party IN (?, ?) AND project IN (?)",
		b.Where(q.Conditions()))
	assert.Equal(t, []any{1, "Debtors - AC", "2024-12-31", "Acme", "Customer", "CUST-1", "CUST-2", "P"}, b.Args())
}
