package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendy/internal/amqp"
	"spendy/internal/core"
	"spendy/internal/gateway"
	gwmemory "spendy/internal/gateway/memory"
	"spendy/internal/ledger"
	"spendy/internal/log"
	sheetsmemory "spendy/internal/sheets/memory"
)

func seedGateway(t *testing.T, txs ...core.Transaction) *gwmemory.Store {
	t.Helper()
	gw := gwmemory.New()
	blob, err := gateway.Encode(gateway.SlotTransactions, ledger.Snapshot{Transactions: txs})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := gw.Set(context.Background(), gateway.SlotTransactions, blob); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return gw
}

func entry(id string, typ core.Type, cents int64, category string, y int, m time.Month, d int) core.Transaction {
	return core.Transaction{ID: id, Type: typ, Amount: core.Money{Cents: cents}, Category: category,
		DateISO: time.Date(y, m, d, 12, 0, 0, 0, time.UTC)}
}

func newTestWorker(gw gateway.Gateway, exp *sheetsmemory.Exporter) *ExportWorker {
	return NewExportWorker(gw, exp,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC) }),
		WithLogger(log.Discard()),
	)
}

func TestHandleLedgerChangedExportsNamedMonths(t *testing.T) {
	gw := seedGateway(t,
		entry("a", core.Expense, 1500, "Food", 2025, time.March, 3),
		entry("b", core.Income, 100000, "Salary", 2025, time.March, 1),
		entry("c", core.Expense, 900, "Food", 2025, time.February, 27),
	)
	exp := sheetsmemory.New()
	w := newTestWorker(gw, exp)

	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("add_transaction", "2025-03")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if exp.Exports() != 1 {
		t.Fatalf("expected one export, got %d", exp.Exports())
	}
	got, ok := exp.Month("2025-03")
	if !ok {
		t.Fatal("March not exported")
	}
	if got.Totals.Income.Cents != 100000 || got.Totals.Expense.Cents != 1500 || got.Totals.Balance.Cents != 98500 {
		t.Errorf("unexpected totals %+v", got.Totals)
	}
	if len(got.Groups) != 2 || got.Groups[0].Category != "Salary" {
		t.Errorf("unexpected groups %+v", got.Groups)
	}
}

func TestHandleLedgerChangedEmptyMonthClearsExport(t *testing.T) {
	// The last February entry was deleted; February must be exported empty.
	gw := seedGateway(t, entry("a", core.Expense, 1500, "Food", 2025, time.March, 3))
	exp := sheetsmemory.New()
	w := newTestWorker(gw, exp)

	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("remove_transaction", "2025-02")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	got, ok := exp.Month("2025-02")
	if !ok || len(got.Transactions) != 0 || got.Totals.Balance.Cents != 0 {
		t.Fatalf("expected empty February export, got %+v ok=%v", got, ok)
	}
}

func TestHandleLedgerChangedAllMonthsAndInvalidMonth(t *testing.T) {
	gw := seedGateway(t,
		entry("a", core.Expense, 1500, "Food", 2025, time.March, 3),
		entry("c", core.Expense, 900, "Food", 2025, time.January, 27),
	)
	exp := sheetsmemory.New()
	w := newTestWorker(gw, exp)

	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("delete_category")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if exp.Exports() != 2 {
		t.Fatalf("expected every month with entries, got %d exports", exp.Exports())
	}

	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("add_transaction", "March")); err != nil {
		t.Fatalf("invalid months are skipped, got %v", err)
	}
	if exp.Exports() != 2 {
		t.Fatalf("invalid month must not export")
	}
}

func TestExportAllWithoutData(t *testing.T) {
	exp := sheetsmemory.New()
	w := newTestWorker(gwmemory.New(), exp)
	if err := w.ExportAll(context.Background()); err != nil {
		t.Fatalf("export all: %v", err)
	}
	if exp.Exports() != 0 {
		t.Fatalf("nothing to export, got %d", exp.Exports())
	}
}

type failingExporter struct{}

func (failingExporter) ExportMonth(context.Context, core.MonthSummary) (string, error) {
	return "", errors.New("quota exceeded")
}

type failingGateway struct{ *gwmemory.Store }

func (failingGateway) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("database is locked")
}

func TestHandleLedgerChangedFailuresAreReturned(t *testing.T) {
	gw := seedGateway(t, entry("a", core.Expense, 1500, "Food", 2025, time.March, 3))
	msg := amqp.NewLedgerChangedMessage("add_transaction", "2025-03")

	w := NewExportWorker(gw, failingExporter{}, WithLocation(time.UTC), WithLogger(log.Discard()))
	if err := w.HandleLedgerChanged(context.Background(), msg); err == nil {
		t.Fatal("expected export error so the message is requeued")
	}

	w = NewExportWorker(failingGateway{gwmemory.New()}, sheetsmemory.New(), WithLogger(log.Discard()))
	if err := w.HandleLedgerChanged(context.Background(), msg); err == nil {
		t.Fatal("expected load error")
	}
}
