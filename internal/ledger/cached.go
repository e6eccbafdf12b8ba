package ledger

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"glreport/internal/cache"
)

// CachedBalances memoizes BalanceOn results. Opening balances only change
// when entries are back-dated, so a short TTL is enough.
type CachedBalances struct {
	next  BalanceLookup
	cache cache.Cache[decimal.Decimal]
}

func NewCachedBalances(next BalanceLookup, c cache.Cache[decimal.Decimal]) *CachedBalances {
	return &CachedBalances{next: next, cache: c}
}

func (c *CachedBalances) BalanceOn(ctx context.Context, q BalanceQuery) (decimal.Decimal, error) {
	key := q.Key()
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.next.BalanceOn(ctx, q)
	if err != nil {
		return decimal.Zero, err
	}
	c.cache.Set(key, v)
	return v, nil
}

// Key identifies q for caching. Members are JSON encoded so separators
// inside names cannot make two queries collide.
func (q BalanceQuery) Key() string {
	// Strings and string slices always encode.
	b, _ := json.Marshal([]any{
		q.Account,
		q.AsOf.String(),
		q.Company,
		q.PartyType,
		[]string(q.Parties),
		[]string(q.CostCenters),
		[]string(q.Projects),
	})
	return string(b)
}
