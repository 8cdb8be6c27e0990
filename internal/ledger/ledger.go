// Package ledger holds the in-memory ledger state and the algorithms over it:
// the transaction collection, the category registry, month views and the
// category deletion workflow.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendy/internal/core"
)

// Mode selects what BulkReassignOrDelete does to matching transactions.
type Mode string

const (
	ModeDelete   Mode = "delete"
	ModeReassign Mode = "reassign"
)

// AddInput is the raw user input for a new transaction.
type AddInput struct {
	Type     core.Type
	Amount   string
	Category string
	Note     string
}

// Ledger is the transaction collection, most recently inserted first.
// It is not safe for concurrent use; Store serializes access.
type Ledger struct {
	txs     []core.Transaction
	ids     map[string]int
	newID   func() string
	display core.DisplayFormatter
}

type Option func(*Ledger)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(f func() string) Option {
	return func(l *Ledger) {
		if f != nil {
			l.newID = f
		}
	}
}

func WithDisplayFormatter(f core.DisplayFormatter) Option {
	return func(l *Ledger) { l.display = f }
}

// NewLedger wraps an existing, already ordered, transaction list.
func NewLedger(txs []core.Transaction, opts ...Option) *Ledger {
	l := &Ledger{
		txs:     append([]core.Transaction(nil), txs...),
		ids:     make(map[string]int, len(txs)),
		newID:   uuid.NewString,
		display: core.NewDisplayFormatter("en-US"),
	}
	for _, tx := range l.txs {
		l.ids[tx.ID]++
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add validates the input, dates it inside ref and prepends it.
func (l *Ledger) Add(in AddInput, ref core.Month, now time.Time) (core.Transaction, error) {
	if !in.Type.Valid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidType, in.Type)
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	if ref.IsZero() {
		return core.Transaction{}, core.ErrInvalidMonth
	}

	date := ref.AssignDate(now)
	tx := core.Transaction{
		ID:          l.uniqueID(),
		Type:        in.Type,
		Amount:      amount,
		Category:    category,
		Note:        in.Note,
		DateISO:     date,
		DisplayDate: l.display.Format(date),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.txs = append([]core.Transaction{tx}, l.txs...)
	l.ids[tx.ID]++
	return tx, nil
}

func (l *Ledger) uniqueID() string {
	for {
		id := l.newID()
		if _, taken := l.ids[id]; !taken && id != "" {
			return id
		}
	}
}

// Remove deletes the transaction with the given id. It reports whether one was found.
func (l *Ledger) Remove(id string) bool {
	for i, tx := range l.txs {
		if tx.ID != id {
			continue
		}
		l.txs = append(l.txs[:i:i], l.txs[i+1:]...)
		l.forget(id)
		return true
	}
	return false
}

func (l *Ledger) forget(id string) {
	if l.ids[id] <= 1 {
		delete(l.ids, id)
		return
	}
	l.ids[id]--
}

// BulkReassignOrDelete deletes or recategorizes every transaction of type t in category.
// It returns how many transactions were affected.
func (l *Ledger) BulkReassignOrDelete(category string, t core.Type, mode Mode, target string) (int, error) {
	switch mode {
	case ModeDelete:
		kept := make([]core.Transaction, 0, len(l.txs))
		removed := 0
		for _, tx := range l.txs {
			if tx.Type == t && tx.Category == category {
				l.forget(tx.ID)
				removed++
				continue
			}
			kept = append(kept, tx)
		}
		l.txs = kept
		return removed, nil
	case ModeReassign:
		if strings.TrimSpace(target) == "" {
			return 0, core.ErrEmptyReassignTarget
		}
		moved := 0
		for i := range l.txs {
			if l.txs[i].Type == t && l.txs[i].Category == category {
				l.txs[i].Category = target
				moved++
			}
		}
		return moved, nil
	default:
		return 0, fmt.Errorf("unsupported bulk mode %q", mode)
	}
}

// CountDependents returns how many transactions reference (t, category).
func (l *Ledger) CountDependents(t core.Type, category string) int {
	n := 0
	for _, tx := range l.txs {
		if tx.Type == t && tx.Category == category {
			n++
		}
	}
	return n
}

// HasDependents reports whether any transaction references (t, category).
func (l *Ledger) HasDependents(t core.Type, category string) bool {
	for _, tx := range l.txs {
		if tx.Type == t && tx.Category == category {
			return true
		}
	}
	return false
}

func (l *Ledger) Find(id string) (core.Transaction, bool) {
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

func (l *Ledger) Len() int { return len(l.txs) }

// All returns a copy of the transactions in ledger order.
func (l *Ledger) All() []core.Transaction {
	return append(make([]core.Transaction, 0, len(l.txs)), l.txs...)
}
