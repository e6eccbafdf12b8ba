package memory

import (
	"context"
	"fmt"
	"sync"

	"glreport/internal/core"
	"glreport/internal/sheets"
)

// Exporter keeps exported reports in memory, keyed by tab.
type Exporter struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

var _ sheets.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{tabs: map[string][][]any{}}
}

func (e *Exporter) ExportReport(_ context.Context, tab string, r core.Report) (string, error) {
	tab = sheets.SanitizeTitle(tab)
	values := sheets.Values(r)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tabs[tab] = values
	return fmt.Sprintf("mem:%s!A1:R%d", tab, len(values)), nil
}

// Tab returns the values last written to tab.
func (e *Exporter) Tab(tab string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.tabs[sheets.SanitizeTitle(tab)]
	return v, ok
}

func (e *Exporter) Tabs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tabs))
	for t := range e.tabs {
		out = append(out, t)
	}
	return out
}
