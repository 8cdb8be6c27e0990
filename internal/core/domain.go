package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Income  Type = "Income"
	Expense Type = "Expense"

	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	// Type tells whether a transaction adds to or subtracts from the balance.
	Type string

	// Theme is the persisted UI theme preference.
	Theme string

	Transaction struct {
		ID          string    `json:"id"`
		Type        Type      `json:"type"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Note        string    `json:"note"`
		DateISO     time.Time `json:"dateISO"`
		DisplayDate string    `json:"displayDate"`
	}

	// Categories maps each transaction type to its ordered category names.
	Categories map[Type][]string
)

// Types returns the transaction types in display order.
func Types() []Type {
	return []Type{Income, Expense}
}

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// ParseType accepts the canonical names case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func ParseTheme(s string) (Theme, error) {
	th := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !th.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
	return th, nil
}

// DefaultTheme is used when no preference has been stored.
const DefaultTheme = ThemeLight

// DefaultCategories returns the seed registry used on first run.
func DefaultCategories() Categories {
	return Categories{
		Income:  {"Salary", "Gift", "Freelance"},
		Expense: {"Food", "Transport", "Shopping", "Bills"},
	}
}

// Clone returns a deep copy with both type lists present.
func (c Categories) Clone() Categories {
	out := make(Categories, len(Types()))
	for _, t := range Types() {
		out[t] = append([]string{}, c[t]...)
	}
	return out
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.ID) == "" {
		return ErrEmptyID
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, tx.Type)
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if tx.DateISO.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ValidateStored checks only what a persisted entry cannot be used without.
// Amounts and categories written by older versions are accepted as they are.
func (tx Transaction) ValidateStored() error {
	if strings.TrimSpace(tx.ID) == "" {
		return ErrEmptyID
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, tx.Type)
	}
	if tx.DateISO.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Signed returns the amount as it contributes to the balance.
func (tx Transaction) Signed() Money {
	if tx.Type == Expense {
		return Money{Cents: -tx.Amount.Cents}
	}
	return tx.Amount
}
