// Package memory is an in-process gateway used for development and tests.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spendy/internal/core"
	"spendy/internal/gateway"
)

type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: map[string][]byte{}}
}

// NewFromFiles seeds the categories slot from seed_income.txt and
// seed_expense.txt in base. Missing files leave the slot absent so the
// built-in defaults apply.
func NewFromFiles(base string) *Store {
	s := New()
	income := readLines(filepath.Join(base, "seed_income.txt"))
	expense := readLines(filepath.Join(base, "seed_expense.txt"))
	if len(income) == 0 && len(expense) == 0 {
		return s
	}
	defaults := core.DefaultCategories()
	if len(income) == 0 {
		income = defaults[core.Income]
	}
	if len(expense) == 0 {
		expense = defaults[core.Expense]
	}
	blob, err := json.Marshal(core.Categories{core.Income: income, core.Expense: expense})
	if err == nil {
		s.slots[gateway.SlotCategories] = blob
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (s *Store) Set(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), blob...)
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
