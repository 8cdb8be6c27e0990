package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"spendy/internal/core"
	ports "spendy/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetBase = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Tab names are "<sheetBase> YYYY-MM".
	sheetBase string
}

var _ ports.MonthExporter = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = defaultSheetBase
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

// newSheetsService prefers inline JSON, then the credentials file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth replaces the month's tab with the summary, creating the tab on first export.
func (c *Client) ExportMonth(ctx context.Context, s core.MonthSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if s.Month.IsZero() {
		return "", core.ErrInvalidMonth
	}

	title := monthSheetName(c.sheetBase, s.Month)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	rng := fmt.Sprintf("'%s'!A:F", title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", rng, err)
	}

	rows := BuildMonthRows(s)
	target := fmt.Sprintf("'%s'!A1", title)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", target, err)
	}

	return fmt.Sprintf("'%s'!A1:F%d", title, len(rows)), nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created month sheet", "sheet", title)
	return nil
}

func monthSheetName(base string, m core.Month) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(base), m.String())
}

// BuildMonthRows lays the summary out as totals, then category groups, then
// every transaction in ledger order.
func BuildMonthRows(s core.MonthSummary) [][]any {
	rows := [][]any{
		{"Month", s.Month.String()},
		{"Income", amount(s.Totals.Income)},
		{"Expense", amount(s.Totals.Expense)},
		{"Balance", amount(s.Totals.Balance)},
		{},
		{"Type", "Category", "Total", "Entries"},
	}
	for _, g := range s.Groups {
		rows = append(rows, []any{string(g.Type), g.Category, amount(g.Total), len(g.Transactions)})
	}
	rows = append(rows,
		[]any{},
		[]any{"Date", "Type", "Category", "Amount", "Note", "ID"},
	)
	for _, tx := range s.Transactions {
		rows = append(rows, []any{
			tx.DateISO.In(s.Month.Location()).Format("2006-01-02"),
			string(tx.Type),
			tx.Category,
			amount(tx.Amount),
			tx.Note,
			tx.ID,
		})
	}
	return rows
}

// amount is the value written to a cell: a plain number with two decimals.
func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
