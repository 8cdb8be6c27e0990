package ledger

import (
	"fmt"
	"strings"

	"spendy/internal/core"
)

// State is where a category deletion request stands after the dependency check.
type State string

const (
	StateSimpleConfirm      State = "simple_confirm"
	StateConflictResolution State = "conflict_resolution"
)

// Action is the user's terminal choice for a deletion request.
type Action string

const (
	ActionConfirm   Action = "confirm"
	ActionDeleteAll Action = "delete-all"
	ActionReassign  Action = "reassign"
	ActionCancel    Action = "cancel"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionConfirm, ActionDeleteAll, ActionReassign, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidAction, s)
}

// DeletionPlan is the result of the dependency check for one category.
type DeletionPlan struct {
	Type       core.Type `json:"type"`
	Category   string    `json:"category"`
	State      State     `json:"state"`
	Dependents int       `json:"dependents"`
	// Targets are the categories of the same type a reassignment may use.
	Targets []string `json:"targets"`
}

type Decision struct {
	Action Action
	Target string
}

// Outcome describes what a resolved deletion changed.
type Outcome struct {
	Action     Action    `json:"action"`
	Type       core.Type `json:"type"`
	Category   string    `json:"category"`
	Removed    int       `json:"removed"`
	Reassigned int       `json:"reassigned"`
	Target     string    `json:"target,omitempty"`
	Mutated    bool      `json:"mutated"`
}

// Resolver runs the category deletion workflow over a ledger and a registry.
// Registry entries are only ever deleted through it.
type Resolver struct {
	ledger   *Ledger
	registry *Registry
}

func NewResolver(l *Ledger, r *Registry) *Resolver {
	return &Resolver{ledger: l, registry: r}
}

// Begin checks whether any transaction depends on (t, category).
func (r *Resolver) Begin(t core.Type, category string) (DeletionPlan, error) {
	if !t.Valid() {
		return DeletionPlan{}, fmt.Errorf("%w: %q", core.ErrInvalidType, t)
	}
	if !r.registry.Contains(t, category) {
		return DeletionPlan{}, fmt.Errorf("%w: %s/%s", core.ErrCategoryNotFound, t, category)
	}

	plan := DeletionPlan{
		Type:       t,
		Category:   category,
		State:      StateSimpleConfirm,
		Dependents: r.ledger.CountDependents(t, category),
		Targets:    []string{},
	}
	if plan.Dependents > 0 {
		plan.State = StateConflictResolution
	}
	for _, name := range r.registry.List(t) {
		if name != category {
			plan.Targets = append(plan.Targets, name)
		}
	}
	return plan, nil
}

// Resolve applies the decision. Validation failures leave ledger and registry untouched.
// A plan whose state no longer matches the ledger is rejected as stale.
func (r *Resolver) Resolve(plan DeletionPlan, d Decision) (Outcome, error) {
	out := Outcome{Action: d.Action, Type: plan.Type, Category: plan.Category}
	if d.Action == ActionCancel {
		return out, nil
	}

	current, err := r.Begin(plan.Type, plan.Category)
	if err != nil {
		return out, err
	}
	if current.State != plan.State {
		return out, fmt.Errorf("%w: %s/%s now has %d dependent transactions",
			core.ErrStaleDeletion, plan.Type, plan.Category, current.Dependents)
	}

	switch current.State {
	case StateSimpleConfirm:
		if d.Action != ActionConfirm {
			return out, fmt.Errorf("%w: %q without dependents", core.ErrInvalidAction, d.Action)
		}
	case StateConflictResolution:
		switch d.Action {
		case ActionDeleteAll:
			removed, err := r.ledger.BulkReassignOrDelete(plan.Category, plan.Type, ModeDelete, "")
			if err != nil {
				return out, err
			}
			out.Removed = removed
		case ActionReassign:
			target := strings.TrimSpace(d.Target)
			if target == "" {
				return out, core.ErrEmptyReassignTarget
			}
			if indexOf(current.Targets, target) < 0 {
				return out, fmt.Errorf("%w: %q", core.ErrInvalidReassignTarget, target)
			}
			moved, err := r.ledger.BulkReassignOrDelete(plan.Category, plan.Type, ModeReassign, target)
			if err != nil {
				return out, err
			}
			out.Reassigned = moved
			out.Target = target
		default:
			return out, fmt.Errorf("%w: %q with %d dependents", core.ErrInvalidAction, d.Action, current.Dependents)
		}
	}

	r.registry.Remove(plan.Type, plan.Category)
	out.Mutated = true
	return out, nil
}
