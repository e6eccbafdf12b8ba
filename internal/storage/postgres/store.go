package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/ledger"
	"glreport/internal/report"
)

const entryColumns = `name, posting_date, creation, company, account, party_type, party,
	cost_center, project, voucher_type, voucher_no, against_voucher_type,
	debit, credit, debit_in_account_currency, credit_in_account_currency,
	account_currency, remarks, docstatus, is_system_generated`

// Compile-time interface checks.
var (
	_ ledger.Store       = (*Store)(nil)
	_ ledger.EntryWriter = (*Store)(nil)
)

// Store reads and writes GL entries in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewPool creates a pool for dsn and verifies connectivity.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = 1 * time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// QueryEntries implements ledger.EntryQuerier.
func (s *Store) QueryEntries(ctx context.Context, conds []report.Predicate) ([]core.LedgerEntry, error) {
	b := report.NewSQLBuilder(report.Postgres, "")
	query := "SELECT " + entryColumns + " FROM gl_entries WHERE " + b.Where(conds) +
		" ORDER BY posting_date, creation NULLS FIRST, id"

	rows, err := s.pool.Query(ctx, query, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query gl entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gl entries: %w", err)
	}
	return entries, nil
}

// BalanceOn implements ledger.BalanceLookup.
func (s *Store) BalanceOn(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	b := report.NewSQLBuilder(report.Postgres, "")
	query := "SELECT COALESCE(SUM(debit - credit), 0) FROM gl_entries WHERE " + b.Where(q.Conditions())

	var total decimal.Decimal
	if err := s.pool.QueryRow(ctx, query, b.Args()...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("query balance for %s: %w", q.Account, err)
	}
	return total, nil
}

// InsertEntries implements ledger.EntryWriter. Existing names are skipped.
func (s *Store) InsertEntries(ctx context.Context, entries []core.LedgerEntry) (int, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.Name, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO gl_entries (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			ON CONFLICT (name) DO NOTHING`,
			e.Name, e.PostingDate.Time, creationArg(e.Creation), e.Company, e.Account,
			e.PartyType, e.Party, e.CostCenter, e.Project, e.VoucherType, e.VoucherNo,
			e.AgainstVoucherType, e.Debit, e.Credit, e.DebitInAccountCurrency, e.CreditInAccountCurrency,
			e.AccountCurrency, e.Remarks, e.DocStatus, boolInt(e.IsSystemGenerated))
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for _, e := range entries {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("insert entry %s: %w", e.Name, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit entries: %w", err)
	}

	slog.InfoContext(ctx, "GL entries saved to PostgreSQL",
		"received", len(entries),
		"inserted", inserted)

	return inserted, nil
}

func scanEntry(rows pgx.Rows) (core.LedgerEntry, error) {
	var (
		e                 core.LedgerEntry
		postingDate       time.Time
		creation          *time.Time
		docStatus         int16
		isSystemGenerated int16
	)
	err := rows.Scan(&e.Name, &postingDate, &creation, &e.Company, &e.Account, &e.PartyType, &e.Party,
		&e.CostCenter, &e.Project, &e.VoucherType, &e.VoucherNo, &e.AgainstVoucherType,
		&e.Debit, &e.Credit, &e.DebitInAccountCurrency, &e.CreditInAccountCurrency,
		&e.AccountCurrency, &e.Remarks, &docStatus, &isSystemGenerated)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan gl entry: %w", err)
	}
	e.PostingDate = core.DateOf(postingDate)
	if creation != nil {
		e.Creation = creation.UTC()
	}
	e.DocStatus = int(docStatus)
	e.IsSystemGenerated = isSystemGenerated != 0
	return e, nil
}

func creationArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func boolInt(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
