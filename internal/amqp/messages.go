package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage tells consumers that persisted transactions changed.
// It carries no ledger data; consumers reload from the shared store.
type LedgerChangedMessage struct {
	Op string `json:"op"`
	// Months lists the affected months as YYYY-MM. Empty means any month may have changed.
	Months    []string  `json:"months,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(op string, months ...string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		Months:    months,
		Timestamp: time.Now(),
	}
}

// AllMonths reports whether every month must be treated as changed.
func (m *LedgerChangedMessage) AllMonths() bool {
	return len(m.Months) == 0
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
