package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendy/internal/core"
)

func newResolverFixture() (*Ledger, *Registry, *Resolver) {
	l := NewLedger([]core.Transaction{
		tx("f1", core.Expense, 1500, "Food", day(2025, 3, 3)),
		tx("b1", core.Expense, 9000, "Bills", day(2025, 3, 2)),
		tx("f2", core.Expense, 2500, "Food", day(2025, 2, 27)),
		tx("s1", core.Income, 100000, "Salary", day(2025, 3, 1)),
	})
	r := NewRegistry(core.DefaultCategories())
	return l, r, NewResolver(l, r)
}

func TestResolverSimpleConfirm(t *testing.T) {
	l, r, res := newResolverFixture()

	plan, err := res.Begin(core.Expense, "Shopping")
	require.NoError(t, err)
	assert.Equal(t, StateSimpleConfirm, plan.State)
	assert.Zero(t, plan.Dependents)
	assert.Equal(t, []string{"Food", "Transport", "Bills"}, plan.Targets)

	out, err := res.Resolve(plan, Decision{Action: ActionConfirm})
	require.NoError(t, err)
	assert.True(t, out.Mutated)
	assert.False(t, r.Contains(core.Expense, "Shopping"))
	assert.Equal(t, 4, l.Len(), "ledger unchanged")
}

func TestResolverConflictDeleteAll(t *testing.T) {
	l, r, res := newResolverFixture()

	plan, err := res.Begin(core.Expense, "Food")
	require.NoError(t, err)
	assert.Equal(t, StateConflictResolution, plan.State)
	assert.Equal(t, 2, plan.Dependents)

	out, err := res.Resolve(plan, Decision{Action: ActionDeleteAll})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.Equal(t, 2, l.Len())
	assert.Zero(t, l.CountDependents(core.Expense, "Food"))
	assert.False(t, r.Contains(core.Expense, "Food"))
}

func TestResolverConflictReassign(t *testing.T) {
	l, r, res := newResolverFixture()
	plan, err := res.Begin(core.Expense, "Food")
	require.NoError(t, err)

	out, err := res.Resolve(plan, Decision{Action: ActionReassign, Target: "Bills"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Reassigned)
	assert.Equal(t, "Bills", out.Target)
	assert.Equal(t, 4, l.Len())
	assert.Zero(t, l.CountDependents(core.Expense, "Food"))
	assert.Equal(t, 3, l.CountDependents(core.Expense, "Bills"))
	assert.Equal(t, []string{"Transport", "Shopping", "Bills"}, r.List(core.Expense))
}

func TestResolverRejectionsLeaveStateUntouched(t *testing.T) {
	cases := []struct {
		name string
		d    Decision
		want error
	}{
		{"reassign without target", Decision{Action: ActionReassign}, core.ErrEmptyReassignTarget},
		{"reassign to itself", Decision{Action: ActionReassign, Target: "Food"}, core.ErrInvalidReassignTarget},
		{"reassign to unknown", Decision{Action: ActionReassign, Target: "Rent"}, core.ErrInvalidReassignTarget},
		{"reassign across types", Decision{Action: ActionReassign, Target: "Salary"}, core.ErrInvalidReassignTarget},
		{"plain confirm with dependents", Decision{Action: ActionConfirm}, core.ErrInvalidAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, r, res := newResolverFixture()
			plan, err := res.Begin(core.Expense, "Food")
			require.NoError(t, err)

			_, err = res.Resolve(plan, tc.d)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, core.IsValidation(err))
			assert.Equal(t, 4, l.Len())
			assert.Equal(t, 2, l.CountDependents(core.Expense, "Food"))
			assert.True(t, r.Contains(core.Expense, "Food"))
		})
	}
}

func TestResolverCancel(t *testing.T) {
	l, r, res := newResolverFixture()
	plan, err := res.Begin(core.Expense, "Food")
	require.NoError(t, err)

	out, err := res.Resolve(plan, Decision{Action: ActionCancel})
	require.NoError(t, err)
	assert.False(t, out.Mutated)
	assert.Equal(t, 4, l.Len())
	assert.True(t, r.Contains(core.Expense, "Food"))
}

func TestResolverStalePlan(t *testing.T) {
	l, r, res := newResolverFixture()
	plan, err := res.Begin(core.Expense, "Shopping")
	require.NoError(t, err)
	require.Equal(t, StateSimpleConfirm, plan.State)

	// A dependent shows up between the check and the confirmation.
	_, err = l.Add(AddInput{Type: core.Expense, Amount: "5", Category: "Shopping"}, march2025, day(2025, 3, 4))
	require.NoError(t, err)

	_, err = res.Resolve(plan, Decision{Action: ActionConfirm})
	assert.ErrorIs(t, err, core.ErrStaleDeletion)
	assert.True(t, r.Contains(core.Expense, "Shopping"))
}

func TestResolverUnknownCategory(t *testing.T) {
	_, _, res := newResolverFixture()
	_, err := res.Begin(core.Income, "Food")
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)

	_, err = res.Begin("Transfer", "Food")
	assert.ErrorIs(t, err, core.ErrInvalidType)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Delete-All ")
	require.NoError(t, err)
	assert.Equal(t, ActionDeleteAll, a)

	_, err = ParseAction("archive")
	assert.ErrorIs(t, err, core.ErrInvalidAction)
}
