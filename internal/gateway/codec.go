package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"spendy/internal/core"
	"spendy/internal/ledger"
)

// Encode serializes the part of snap stored under slot.
func Encode(slot string, snap ledger.Snapshot) ([]byte, error) {
	switch slot {
	case SlotTransactions:
		txs := snap.Transactions
		if txs == nil {
			txs = []core.Transaction{}
		}
		return json.Marshal(txs)
	case SlotCategories:
		return json.Marshal(snap.Categories.Clone())
	case SlotTheme:
		return json.Marshal(snap.Theme)
	default:
		return nil, fmt.Errorf("unknown slot %q", slot)
	}
}

// Decode parses blob into the matching field of snap. Other fields are left alone.
//
// A transactions slot is decoded entry by entry. Entries that cannot be
// used are skipped and reported with a *DroppedEntriesError; the remaining
// entries are still stored in snap.
func Decode(slot string, blob []byte, snap *ledger.Snapshot) error {
	switch slot {
	case SlotTransactions:
		var raw []json.RawMessage
		if err := json.Unmarshal(blob, &raw); err != nil {
			return fmt.Errorf("decode transactions: %w", err)
		}
		txs, dropped := decodeTransactions(raw)
		snap.Transactions = txs
		if len(dropped) > 0 {
			return &DroppedEntriesError{Slot: slot, Total: len(raw), Reasons: dropped}
		}
	case SlotCategories:
		var cats core.Categories
		if err := json.Unmarshal(blob, &cats); err != nil {
			return fmt.Errorf("decode categories: %w", err)
		}
		snap.Categories = cats.Clone()
	case SlotTheme:
		var th core.Theme
		if err := json.Unmarshal(blob, &th); err != nil {
			return fmt.Errorf("decode theme: %w", err)
		}
		if !th.Valid() {
			return fmt.Errorf("decode theme: %w: %q", core.ErrInvalidTheme, th)
		}
		snap.Theme = th
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return nil
}

// DroppedEntriesError lists the stored entries Decode skipped.
type DroppedEntriesError struct {
	Slot    string
	Total   int
	Reasons []string
}

func (e *DroppedEntriesError) Error() string {
	return fmt.Sprintf("decode %s: dropped %d of %d entries: %s",
		e.Slot, len(e.Reasons), e.Total, strings.Join(e.Reasons, "; "))
}

// decodeTransactions keeps the first entry for every id.
func decodeTransactions(raw []json.RawMessage) ([]core.Transaction, []string) {
	txs := make([]core.Transaction, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	var dropped []string
	for i, entry := range raw {
		var tx core.Transaction
		if err := json.Unmarshal(entry, &tx); err != nil {
			dropped = append(dropped, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		if err := tx.ValidateStored(); err != nil {
			dropped = append(dropped, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		if seen[tx.ID] {
			dropped = append(dropped, fmt.Sprintf("entry %d: duplicate id %q", i, tx.ID))
			continue
		}
		seen[tx.ID] = true
		txs = append(txs, tx)
	}
	return txs, dropped
}
