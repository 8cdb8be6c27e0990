// Package worker turns ledger change messages into spreadsheet exports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"spendy/internal/amqp"
	"spendy/internal/core"
	"spendy/internal/gateway"
	"spendy/internal/ledger"
	"spendy/internal/log"
	"spendy/internal/metrics"
	"spendy/internal/sheets"
)

// ExportWorker reloads the persisted transactions and exports the summary
// of every month a change message names.
type ExportWorker struct {
	gw       gateway.Gateway
	exporter sheets.MonthExporter
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
	log      *log.Logger
}

type Option func(*ExportWorker)

func WithLocation(loc *time.Location) Option {
	return func(w *ExportWorker) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *ExportWorker) { w.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *ExportWorker) { w.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(w *ExportWorker) { w.log = l.WithComponent(log.ComponentWorker) }
}

func NewExportWorker(gw gateway.Gateway, exporter sheets.MonthExporter, opts ...Option) *ExportWorker {
	w := &ExportWorker{
		gw:       gw,
		exporter: exporter,
		loc:      time.Local,
		now:      time.Now,
		log:      log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleLedgerChanged exports the months named by msg, or every month with
// entries when msg names none. Any export failure is returned so the
// message is redelivered.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	txs, err := w.loadTransactions(ctx)
	if err != nil {
		return err
	}

	var months []core.Month
	if msg.AllMonths() {
		months = monthsWithEntries(txs, w.loc)
	} else {
		for _, key := range msg.Months {
			m, err := core.ParseMonth(key, w.loc)
			if err != nil {
				// Redelivery cannot fix a malformed month.
				w.log.WarnContext(ctx, "Skipping invalid month in change message", "op", msg.Op, log.FieldMonth, key, log.FieldError, err)
				continue
			}
			months = append(months, m)
		}
	}

	w.log.InfoContext(ctx, "Processing ledger change", "op", msg.Op, log.FieldCount, len(months))
	return w.export(ctx, txs, months)
}

// ExportAll re-exports every month with entries. The worker runs it at
// startup to catch up on messages lost while it was down.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	txs, err := w.loadTransactions(ctx)
	if err != nil {
		return err
	}
	return w.export(ctx, txs, monthsWithEntries(txs, w.loc))
}

func (w *ExportWorker) export(ctx context.Context, txs []core.Transaction, months []core.Month) error {
	now := w.now()
	for _, m := range months {
		summary := ledger.Summarize(txs, m, now)
		ref, err := w.exporter.ExportMonth(ctx, summary)
		w.metrics.Export(err)
		if err != nil {
			return fmt.Errorf("export %s: %w", m, err)
		}
		w.log.InfoContext(ctx, "Exported month summary",
			log.FieldMonth, m.String(),
			log.FieldCount, len(summary.Transactions),
			"ref", ref)
	}
	return nil
}

func (w *ExportWorker) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	blob, ok, err := w.gw.Get(ctx, gateway.SlotTransactions)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !ok {
		return []core.Transaction{}, nil
	}
	var snap ledger.Snapshot
	err = gateway.Decode(gateway.SlotTransactions, blob, &snap)
	var dropped *gateway.DroppedEntriesError
	if errors.As(err, &dropped) {
		w.log.WarnContext(ctx, "Skipping unusable stored entries", log.FieldError, err)
	} else if err != nil {
		return nil, err
	}
	return snap.Transactions, nil
}

// monthsWithEntries returns the distinct months of txs, oldest first.
func monthsWithEntries(txs []core.Transaction, loc *time.Location) []core.Month {
	seen := map[string]core.Month{}
	for _, tx := range txs {
		m := core.MonthOf(tx.DateISO.In(loc))
		seen[m.String()] = m
	}
	months := make([]core.Month, 0, len(seen))
	for _, m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
