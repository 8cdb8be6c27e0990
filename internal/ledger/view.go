package ledger

import (
	"sort"
	"time"

	"spendy/internal/core"
)

// Filter returns the transactions dated inside m, keeping ledger order.
// Dates are compared as calendar dates in the month's location.
func Filter(txs []core.Transaction, m core.Month) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.Contains(tx.DateISO) {
			out = append(out, tx)
		}
	}
	return out
}

// ComputeTotals sums incomes and expenses; the balance is income minus expense.
func ComputeTotals(txs []core.Transaction) core.Totals {
	var totals core.Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			totals.Income = totals.Income.Add(tx.Amount)
		case core.Expense:
			totals.Expense = totals.Expense.Add(tx.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

type groupKey struct {
	t        core.Type
	category string
}

// GroupByCategory builds one group per (type, category) seen in txs.
//
// Income groups come before expense groups, and within a type groups are
// ordered by descending total. Equal totals keep first-seen order. The
// transactions inside a group keep their order in txs.
func GroupByCategory(txs []core.Transaction) []core.CategoryGroup {
	index := map[groupKey]int{}
	groups := make([]core.CategoryGroup, 0)
	for _, tx := range txs {
		key := groupKey{t: tx.Type, category: tx.Category}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, core.CategoryGroup{Type: tx.Type, Category: tx.Category})
		}
		groups[i].Total = groups[i].Total.Add(tx.Amount)
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ra, rb := typeRank(groups[a].Type), typeRank(groups[b].Type)
		if ra != rb {
			return ra < rb
		}
		return groups[a].Total.Cents > groups[b].Total.Cents
	})
	return groups
}

func typeRank(t core.Type) int {
	switch t {
	case core.Income:
		return 0
	case core.Expense:
		return 1
	default:
		return 2
	}
}

// IsFutureMonth reports whether new entries must be refused for m.
func IsFutureMonth(m core.Month, now time.Time) bool {
	return m.IsFuture(now)
}

// Summarize derives the full month view from scratch.
func Summarize(txs []core.Transaction, m core.Month, now time.Time) core.MonthSummary {
	filtered := Filter(txs, m)
	return core.MonthSummary{
		Month:        m,
		Future:       IsFutureMonth(m, now),
		Transactions: filtered,
		Totals:       ComputeTotals(filtered),
		Groups:       GroupByCategory(filtered),
	}
}
