package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"glreport/internal/core"
	"glreport/internal/ledger"
	applog "glreport/internal/log"
	"glreport/internal/report"
)

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	// OpeningConcurrency bounds parallel opening-balance lookups (default: 4)
	OpeningConcurrency int

	// DefaultCurrency labels amounts when a request names no presentation
	// currency (default: USD)
	DefaultCurrency string
}

func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		OpeningConcurrency: 4,
		DefaultCurrency:    report.DefaultPresentationCurrency,
	}
}

// ReportService produces customer GL reports from a ledger store.
type ReportService struct {
	entries  ledger.EntryQuerier
	balances ledger.BalanceLookup
	config   ReportServiceConfig
	logger   *applog.Logger
}

func NewReportService(entries ledger.EntryQuerier, balances ledger.BalanceLookup, config ReportServiceConfig, logger *applog.Logger) *ReportService {
	if config.OpeningConcurrency < 1 {
		config.OpeningConcurrency = 1
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReportService{
		entries:  entries,
		balances: balances,
		config:   config,
		logger:   logger.WithComponent(applog.ComponentReport),
	}
}

// Generate selects the entries matching f and aggregates them into report
// rows with running balances. Store failures are returned; everything else
// degrades to defaults.
func (s *ReportService) Generate(ctx context.Context, f report.Filters) (core.Report, error) {
	start := time.Now()
	if f.PresentationCurrency == "" {
		f.PresentationCurrency = s.config.DefaultCurrency
	}

	entries, err := s.entries.QueryEntries(ctx, report.Conditions(f))
	if err != nil {
		s.logFailure(ctx, "Failed to query GL entries", err, applog.OpQuery, f)
		return core.Report{}, fmt.Errorf("query entries: %w", err)
	}

	opening, err := s.OpeningBalance(ctx, f)
	if err != nil {
		s.logFailure(ctx, "Failed to compute opening balance", err, applog.OpBalance, f)
		return core.Report{}, fmt.Errorf("opening balance: %w", err)
	}

	rep := core.Report{
		Columns: report.Columns(f),
		Rows:    report.Aggregate(entries, opening, f),
	}

	s.logger.InfoContext(ctx, "GL report generated",
		applog.FieldOperation, applog.OpGenerate,
		applog.FieldCompany, f.Company,
		applog.FieldFromDate, f.FromDate.String(),
		applog.FieldToDate, f.ToDate.String(),
		applog.FieldGroupBy, string(f.GroupBy),
		applog.FieldEntryCount, len(entries),
		applog.FieldRowCount, len(rep.Rows),
		applog.FieldOpeningBalance, opening.String(),
		applog.FieldClosingBalance, rep.Closing().String(),
		applog.FieldDuration, time.Since(start).Milliseconds())

	return rep, nil
}

// OpeningBalance is the balance carried into the period: the sum over every
// filtered account of its balance as of the day before from_date. It is
// zero unless opening entries are requested and both an account and a
// from date are given.
func (s *ReportService) OpeningBalance(ctx context.Context, f report.Filters) (decimal.Decimal, error) {
	if !f.ShowOpeningEntries || f.Accounts.Empty() || f.FromDate.IsZero() || s.balances == nil {
		return decimal.Zero, nil
	}

	asOf := f.FromDate.AddDays(-1)
	balances := make([]decimal.Decimal, len(f.Accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.OpeningConcurrency)
	for i, account := range f.Accounts {
		i, account := i, account
		g.Go(func() error {
			bal, err := s.balances.BalanceOn(gctx, ledger.BalanceQuery{
				Account:     account,
				AsOf:        asOf,
				Company:     f.Company,
				PartyType:   f.PartyType,
				Parties:     f.Parties,
				CostCenters: f.CostCenters,
				Projects:    f.Projects,
			})
			if err != nil {
				return fmt.Errorf("account %s: %w", account, err)
			}
			balances[i] = bal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	return total, nil
}

func (s *ReportService) logFailure(ctx context.Context, msg string, err error, op string, f report.Filters) {
	fields := applog.NewFields().
		WithReportScope(f.Company, f.FromDate.String(), f.ToDate.String()).
		WithOperation(op).
		WithError(err)
	s.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
