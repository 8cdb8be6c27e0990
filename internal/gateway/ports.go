// Package gateway defines the persistence port the ledger is loaded from and
// saved to, and the codec for the values stored under each slot.
package gateway

import "context"

// Slot keys. An absent key means the slot's default value.
const (
	SlotTransactions = "transactions"
	SlotCategories   = "categories"
	SlotTheme        = "theme"
)

// Slots lists every key the ledger persists.
func Slots() []string {
	return []string{SlotTransactions, SlotCategories, SlotTheme}
}

// Gateway is a string-keyed blob store.
type Gateway interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, blob []byte) error
}
