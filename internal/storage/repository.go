package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"glreport/internal/core"
	"glreport/internal/ledger"
	"glreport/internal/report"

	_ "modernc.org/sqlite"
)

// creationLayout is fixed width so creation timestamps sort as text.
const creationLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `name, posting_date, creation, company, account, party_type, party,
	cost_center, project, voucher_type, voucher_no, against_voucher_type,
	debit, credit, debit_in_account_currency, credit_in_account_currency,
	account_currency, remarks, docstatus, is_system_generated`

var (
	_ ledger.Store       = (*SQLiteRepository)(nil)
	_ ledger.EntryWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// QueryEntries implements ledger.EntryQuerier
func (r *SQLiteRepository) QueryEntries(ctx context.Context, conds []report.Predicate) ([]core.LedgerEntry, error) {
	b := report.NewSQLBuilder(report.SQLite, "")
	query := "SELECT " + entryColumns + " FROM gl_entries WHERE " + b.Where(conds) +
		" ORDER BY posting_date, creation, id"

	rows, err := r.db.QueryContext(ctx, query, b.Args()...)
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

// BalanceOn implements ledger.BalanceLookup. Amounts are text, so the sum is
// taken in Go to stay exact.
func (r *SQLiteRepository) BalanceOn(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	b := report.NewSQLBuilder(report.SQLite, "")
	query := "SELECT debit, credit FROM gl_entries WHERE " + b.Where(q.Conditions())

	rows, err := r.db.QueryContext(ctx, query, b.Args()...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query balance for %s: %w", q.Account, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var debit, credit any
		if err := rows.Scan(&debit, &credit); err != nil {
			return decimal.Zero, fmt.Errorf("scan balance row: %w", err)
		}
		total = total.Add(core.Flt(debit)).Sub(core.Flt(credit))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate balance rows: %w", err)
	}
	return total, nil
}

// InsertEntries implements ledger.EntryWriter. Entries whose name already
// exists are skipped; the returned count only includes new rows.
func (r *SQLiteRepository) InsertEntries(ctx context.Context, entries []core.LedgerEntry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO gl_entries ("+entryColumns+
		") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(name) DO NOTHING")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.Name, err)
		}
		res, err := stmt.ExecContext(ctx,
			e.Name, e.PostingDate.String(), formatCreation(e.Creation), e.Company, e.Account,
			e.PartyType, e.Party, e.CostCenter, e.Project, e.VoucherType, e.VoucherNo,
			e.AgainstVoucherType, e.Debit.String(), e.Credit.String(),
			e.DebitInAccountCurrency.String(), e.CreditInAccountCurrency.String(),
			e.AccountCurrency, e.Remarks, e.DocStatus, boolInt(e.IsSystemGenerated))
		if err != nil {
			return 0, fmt.Errorf("insert entry %s: %w", e.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit entries: %w", err)
	}

	slog.InfoContext(ctx, "GL entries saved to SQLite",
		"received", len(entries),
		"inserted", inserted)

	return inserted, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (core.LedgerEntry, error) {
	var (
		e                                  core.LedgerEntry
		postingDate, creation              string
		debit, credit, debitAcc, creditAcc any
		isSystemGenerated                  int
	)
	err := s.Scan(&e.Name, &postingDate, &creation, &e.Company, &e.Account, &e.PartyType, &e.Party,
		&e.CostCenter, &e.Project, &e.VoucherType, &e.VoucherNo, &e.AgainstVoucherType,
		&debit, &credit, &debitAcc, &creditAcc,
		&e.AccountCurrency, &e.Remarks, &e.DocStatus, &isSystemGenerated)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan gl entry: %w", err)
	}

	// A malformed stored date leaves the entry undated rather than failing
	// the whole report.
	e.PostingDate, _ = core.ParseDate(postingDate)
	e.Creation = parseCreation(creation)
	e.Debit = core.Flt(debit)
	e.Credit = core.Flt(credit)
	e.DebitInAccountCurrency = core.Flt(debitAcc)
	e.CreditInAccountCurrency = core.Flt(creditAcc)
	e.IsSystemGenerated = isSystemGenerated != 0
	return e, nil
}

func formatCreation(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(creationLayout)
}

func parseCreation(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{creationLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
