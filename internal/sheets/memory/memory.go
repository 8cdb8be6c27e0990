package memory

import (
	"context"
	"fmt"
	"sync"

	"spendy/internal/core"
	ports "spendy/internal/sheets"
)

// Exporter keeps the last exported summary per month. It stands in for the
// spreadsheet in development and tests.
type Exporter struct {
	mu      sync.Mutex
	months  map[string]core.MonthSummary
	exports int
}

var _ ports.MonthExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{months: map[string]core.MonthSummary{}}
}

func (e *Exporter) ExportMonth(_ context.Context, s core.MonthSummary) (string, error) {
	if s.Month.IsZero() {
		return "", core.ErrInvalidMonth
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.months[s.Month.String()] = s
	e.exports++
	return fmt.Sprintf("mem:%s", s.Month), nil
}

// Month returns the last summary exported for YYYY-MM.
func (e *Exporter) Month(key string) (core.MonthSummary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.months[key]
	return s, ok
}

// Exports counts every ExportMonth call that succeeded.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
