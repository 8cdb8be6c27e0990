package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:       "a",
		Type:     Expense,
		Amount:   Money{Cents: 100},
		Category: "Food",
		DateISO:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(tx *Transaction) { tx.ID = " " }, ErrEmptyID},
		{func(tx *Transaction) { tx.Type = "Transfer" }, ErrInvalidType},
		{func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{func(tx *Transaction) { tx.DateISO = time.Time{} }, ErrInvalidDate},
	}
	for i, b := range bads {
		tx := good
		b.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, b.want) {
			t.Fatalf("case %d expected %v, got %v", i, b.want, err)
		}
	}
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{"Income": Income, "expense": Expense, " INCOME ": Income} {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseType("transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestParseTheme(t *testing.T) {
	if th, err := ParseTheme("Dark"); err != nil || th != ThemeDark {
		t.Fatalf("ParseTheme(Dark) = %q, %v", th, err)
	}
	if _, err := ParseTheme("sepia"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDefaultCategoriesCloneIsIndependent(t *testing.T) {
	c := DefaultCategories()
	clone := c.Clone()
	clone[Expense][0] = "Changed"
	if c[Expense][0] != "Food" {
		t.Fatalf("clone shares backing array")
	}
	if len(clone[Income]) != 3 || len(clone[Expense]) != 4 {
		t.Fatalf("unexpected defaults %v", clone)
	}
}

func TestSignedAmount(t *testing.T) {
	in := Transaction{Type: Income, Amount: Money{Cents: 500}}
	out := Transaction{Type: Expense, Amount: Money{Cents: 200}}
	if in.Signed().Cents != 500 || out.Signed().Cents != -200 {
		t.Fatalf("unexpected signed amounts %d %d", in.Signed().Cents, out.Signed().Cents)
	}
}

func TestErrorTypesUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	var err error = &PersistenceError{Slot: "transactions", Err: cause}
	if !errors.Is(err, cause) || err.Error() != "save transactions: disk full" {
		t.Fatalf("unexpected persistence error %v", err)
	}
	err = &LoadError{Slot: "theme", Err: cause}
	if !errors.Is(err, cause) || IsValidation(err) {
		t.Fatalf("unexpected load error %v", err)
	}
}
