package ledger

import (
	"fmt"
	"strings"

	"spendy/internal/core"
)

// Registry keeps one ordered list of category names per transaction type.
// Names are unique within a type; insertion order is display order.
type Registry struct {
	lists map[core.Type][]string
}

// NewRegistry copies c, dropping blanks and repeated names while preserving order.
func NewRegistry(c core.Categories) *Registry {
	r := &Registry{lists: make(map[core.Type][]string, len(core.Types()))}
	for _, t := range core.Types() {
		r.lists[t] = dedupe(c[t])
	}
	return r
}

// List returns a copy of the names registered for t.
func (r *Registry) List(t core.Type) []string {
	return append([]string{}, r.lists[t]...)
}

func (r *Registry) Contains(t core.Type, name string) bool {
	return indexOf(r.lists[t], name) >= 0
}

// Add trims name and appends it. Empty and duplicate names are rejected.
func (r *Registry) Add(t core.Type, name string) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidType, t)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.ErrEmptyCategoryName
	}
	if r.Contains(t, name) {
		return "", fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
	}
	r.lists[t] = append(r.lists[t], name)
	return name, nil
}

// Remove drops name from t's list. Transactions are left alone.
func (r *Registry) Remove(t core.Type, name string) bool {
	list := r.lists[t]
	i := indexOf(list, name)
	if i < 0 {
		return false
	}
	r.lists[t] = append(list[:i:i], list[i+1:]...)
	return true
}

// Snapshot returns a deep copy suitable for persisting.
func (r *Registry) Snapshot() core.Categories {
	return core.Categories(r.lists).Clone()
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
