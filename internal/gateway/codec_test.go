package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendy/internal/core"
	"spendy/internal/ledger"
)

func TestCodecRoundTripPreservesOrder(t *testing.T) {
	in := ledger.Snapshot{
		Transactions: []core.Transaction{
			{ID: "b", Type: core.Expense, Amount: core.Money{Cents: 1250}, Category: "Food", Note: "lunch",
				DateISO: time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC), DisplayDate: "3/14/2025"},
			{ID: "a", Type: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary",
				DateISO: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), DisplayDate: "3/1/2025"},
		},
		Categories: core.Categories{
			core.Income:  {"Salary"},
			core.Expense: {"Rent", "Food"},
		},
		Theme: core.ThemeDark,
	}

	var out ledger.Snapshot
	for _, slot := range Slots() {
		blob, err := Encode(slot, in)
		require.NoError(t, err, slot)
		require.NoError(t, Decode(slot, blob, &out), slot)
	}

	require.Len(t, out.Transactions, 2)
	assert.Equal(t, "b", out.Transactions[0].ID)
	assert.Equal(t, "a", out.Transactions[1].ID)
	assert.True(t, in.Transactions[0].DateISO.Equal(out.Transactions[0].DateISO))
	assert.Equal(t, in.Transactions[0].Amount, out.Transactions[0].Amount)
	assert.Equal(t, in.Categories, out.Categories)
	assert.Equal(t, core.ThemeDark, out.Theme)
}

func TestEncodedShapes(t *testing.T) {
	snap := ledger.DefaultSnapshot()

	blob, err := Encode(SlotTheme, snap)
	require.NoError(t, err)
	assert.JSONEq(t, `"light"`, string(blob))

	blob, err = Encode(SlotTransactions, ledger.Snapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(blob))

	blob, err = Encode(SlotCategories, snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Income":["Salary","Gift","Freelance"],"Expense":["Food","Transport","Shopping","Bills"]}`, string(blob))
}

func TestDecodeTransactionAmountNumber(t *testing.T) {
	blob := []byte(`[{"id":"x","type":"Expense","amount":12.5,"category":"Food","note":"",
		"dateISO":"2025-03-14T12:30:00Z","displayDate":"3/14/2025"}]`)
	var snap ledger.Snapshot
	require.NoError(t, Decode(SlotTransactions, blob, &snap))
	assert.Equal(t, int64(1250), snap.Transactions[0].Amount.Cents)
}

func TestDecodeRejectsBadValues(t *testing.T) {
	cases := []struct {
		slot string
		blob string
	}{
		{SlotTheme, `"sepia"`},
		{SlotTheme, `42`},
		{SlotTransactions, `{"not":"an array"}`},
		{SlotCategories, `["Food"]`},
		{"budgets", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.slot+" "+tc.blob, func(t *testing.T) {
			before := ledger.DefaultSnapshot()
			snap := before
			assert.Error(t, Decode(tc.slot, []byte(tc.blob), &snap))
			assert.Equal(t, before, snap)
		})
	}
}

func TestDecodeTransactionsKeepsLegacyAmounts(t *testing.T) {
	blob := []byte(`[
		{"id":"a","type":"Expense","amount":0,"category":"Food","dateISO":"2025-03-14T12:30:00Z"},
		{"id":"b","type":"Income","amount":-5,"category":"","dateISO":"2025-03-13T12:30:00Z"}]`)
	var snap ledger.Snapshot
	require.NoError(t, Decode(SlotTransactions, blob, &snap))
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, int64(0), snap.Transactions[0].Amount.Cents)
	assert.Equal(t, int64(-500), snap.Transactions[1].Amount.Cents)
}

func TestDecodeTransactionsDropsBrokenEntries(t *testing.T) {
	blob := []byte(`[
		{"id":"a","type":"Expense","amount":1,"category":"Food","dateISO":"2025-03-14T12:30:00Z"},
		{"id":"","type":"Expense","amount":1,"category":"Food","dateISO":"2025-03-14T12:30:00Z"},
		{"id":"c","type":"Transfer","amount":1,"category":"Food","dateISO":"2025-03-14T12:30:00Z"},
		{"id":"d","type":"Expense","amount":1,"category":"Food"},
		{"id":"e","type":"Expense","amount":"ten","category":"Food","dateISO":"2025-03-14T12:30:00Z"},
		{"id":"a","type":"Income","amount":9,"category":"Gift","dateISO":"2025-03-01T12:30:00Z"},
		{"id":"f","type":"Income","amount":2,"category":"Gift","dateISO":"2025-03-02T12:30:00Z"}]`)
	var snap ledger.Snapshot
	err := Decode(SlotTransactions, blob, &snap)

	var dropped *DroppedEntriesError
	require.ErrorAs(t, err, &dropped)
	assert.Equal(t, SlotTransactions, dropped.Slot)
	assert.Equal(t, 7, dropped.Total)
	require.Len(t, dropped.Reasons, 5)
	assert.Contains(t, dropped.Reasons[4], `duplicate id "a"`)

	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, "a", snap.Transactions[0].ID)
	assert.Equal(t, core.Expense, snap.Transactions[0].Type, "first entry for an id wins")
	assert.Equal(t, "f", snap.Transactions[1].ID)
}
