package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendy/internal/core"
)

func TestNewRegistryDedupesPreservingOrder(t *testing.T) {
	r := NewRegistry(core.Categories{
		core.Income:  {"Salary", " Gift ", "Salary", ""},
		core.Expense: {"Food"},
	})
	assert.Equal(t, []string{"Salary", "Gift"}, r.List(core.Income))
	assert.Equal(t, []string{"Food"}, r.List(core.Expense))
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry(core.DefaultCategories())

	name, err := r.Add(core.Expense, "  Rent ")
	require.NoError(t, err)
	assert.Equal(t, "Rent", name)
	assert.Equal(t, "Rent", r.List(core.Expense)[len(r.List(core.Expense))-1], "appended at the end")

	_, err = r.Add(core.Expense, "Rent")
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	_, err = r.Add(core.Expense, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyCategoryName)

	// Uniqueness is per type.
	_, err = r.Add(core.Income, "Food")
	assert.NoError(t, err)

	// Exact string match: a different case is a different name.
	_, err = r.Add(core.Expense, "food")
	assert.NoError(t, err)

	_, err = r.Add("Transfer", "x")
	assert.ErrorIs(t, err, core.ErrInvalidType)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(core.DefaultCategories())
	assert.True(t, r.Remove(core.Expense, "Transport"))
	assert.Equal(t, []string{"Food", "Shopping", "Bills"}, r.List(core.Expense))
	assert.False(t, r.Remove(core.Expense, "Transport"))
	assert.False(t, r.Remove(core.Income, "Food"))
}

func TestRegistrySnapshotIsIndependent(t *testing.T) {
	r := NewRegistry(core.DefaultCategories())
	snap := r.Snapshot()
	snap[core.Income][0] = "Changed"
	assert.Equal(t, "Salary", r.List(core.Income)[0])

	list := r.List(core.Income)
	list[0] = "Changed"
	assert.True(t, r.Contains(core.Income, "Salary"))
}
