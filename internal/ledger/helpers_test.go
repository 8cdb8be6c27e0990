package ledger

import (
	"fmt"
	"time"

	"spendy/internal/core"
)

var march2025 = core.NewMonth(2025, time.March, time.UTC)

// sequentialIDs returns a deterministic id generator.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func tx(id string, t core.Type, cents int64, category string, date time.Time) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     t,
		Amount:   core.Money{Cents: cents},
		Category: category,
		DateISO:  date,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}
