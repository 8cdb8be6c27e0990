package sheets

import (
	"context"

	"spendy/internal/core"
)

// MonthExporter writes a derived month summary to an external spreadsheet.
// Exporting the same month again replaces the previous export.
type MonthExporter interface {
	ExportMonth(ctx context.Context, s core.MonthSummary) (ref string, err error)
}
