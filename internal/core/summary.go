package core

// Totals are the signed month totals.
type Totals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// CategoryGroup aggregates the month's transactions sharing a (type, category) pair.
type CategoryGroup struct {
	Type         Type          `json:"type"`
	Category     string        `json:"category"`
	Total        Money         `json:"total"`
	Transactions []Transaction `json:"transactions"`
}

// MonthSummary is the derived view of one month. It is recomputed on every read.
type MonthSummary struct {
	Month        Month           `json:"month"`
	Future       bool            `json:"future"`
	Transactions []Transaction   `json:"transactions"`
	Totals       Totals          `json:"totals"`
	Groups       []CategoryGroup `json:"groups"`
}
