package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"glreport/internal/core"
	"glreport/internal/sheets"
)

var _ sheets.ReportExporter = (*Exporter)(nil)

// Exporter writes reports into tabs of one spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Credentials locates the service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}

	googleCreds, err := gauth.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithTokenSource(googleCreds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "component", "sheets", "spreadsheet_id", spreadsheetID)
	return NewWithService(svc, spreadsheetID), nil
}

func NewWithService(svc *gsheet.Service, spreadsheetID string) *Exporter {
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID}
}

// ExportReport replaces the content of tab with the report, creating the
// tab when it does not exist yet.
func (e *Exporter) ExportReport(ctx context.Context, tab string, r core.Report) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	tab = sheets.SanitizeTitle(tab)

	if err := e.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	quoted := quoteTab(tab)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear tab %s: %w", tab, err)
	}

	values := sheets.Values(r)
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, quoted+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write tab %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"component", "sheets",
		"tab", tab,
		"rows", len(r.Rows),
		"updated_range", resp.UpdatedRange)
	return resp.UpdatedRange, nil
}

func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}

	_, err = e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	return nil
}

// quoteTab wraps a tab title for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
