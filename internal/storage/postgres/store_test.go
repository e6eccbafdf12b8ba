package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/core"
	"glreport/internal/ledger"
	"glreport/internal/report"
)

// Runs against a real database when TEST_POSTGRES_DSN is set.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn))

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewStore(pool)
}

func TestStoreIntegration(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	// Unique party per run keeps reruns independent.
	party := "CUST-" + uuid.NewString()
	mk := func(day int, vno, debit, credit string) core.LedgerEntry {
		return core.LedgerEntry{
			Name:        uuid.NewString(),
			PostingDate: core.NewDate(2025, 1, day),
			Company:     "Acme",
			Account:     "Debtors - AC",
			PartyType:   "Customer",
			Party:       party,
			VoucherType: "Sales Invoice",
			VoucherNo:   vno,
			Debit:       decimal.RequireFromString(debit),
			Credit:      decimal.RequireFromString(credit),
			DocStatus:   core.DocStatusSubmitted,
		}
	}
	n, err := s.InsertEntries(ctx, []core.LedgerEntry{
		mk(3, "SINV-2", "0", "25.5"),
		mk(1, "SINV-1", "100", "0"),
		mk(9, "SINV-3", "10", "0"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.QueryEntries(ctx, report.Conditions(report.Filters{Parties: report.Set{party}}))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "SINV-1", got[0].VoucherNo)
	assert.Equal(t, core.NewDate(2025, 1, 1), got[0].PostingDate)

	bal, err := s.BalanceOn(ctx, ledger.BalanceQuery{
		Account: "Debtors - AC",
		AsOf:    core.NewDate(2025, 1, 5),
		Parties: report.Set{party},
	})
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("74.5")), bal.String())
}
