//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"spendy/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportMonth(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       "Integration",
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	m := core.MonthOf(time.Now())
	tx := core.Transaction{ID: "it-1", Type: core.Expense, Amount: core.Money{Cents: 123}, Category: "Food", DateISO: time.Now()}
	s := core.MonthSummary{
		Month:        m,
		Transactions: []core.Transaction{tx},
		Totals:       core.Totals{Expense: tx.Amount, Balance: core.Money{Cents: -123}},
		Groups:       []core.CategoryGroup{{Type: core.Expense, Category: "Food", Total: tx.Amount, Transactions: []core.Transaction{tx}}},
	}

	// Exporting twice must overwrite, not append.
	for i := 0; i < 2; i++ {
		ref, err := client.ExportMonth(ctx, s)
		if err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
		if !strings.Contains(ref, "Integration "+m.String()) {
			t.Errorf("unexpected ref %q", ref)
		}
	}
}
