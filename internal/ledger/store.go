package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"spendy/internal/core"
)

// Op names a committed store mutation.
type Op string

const (
	OpAddTransaction    Op = "add_transaction"
	OpRemoveTransaction Op = "remove_transaction"
	OpAddCategory       Op = "add_category"
	OpDeleteCategory    Op = "delete_category"
	OpSetTheme          Op = "set_theme"
)

// Snapshot is the persisted part of the store.
type Snapshot struct {
	Transactions []core.Transaction
	Categories   core.Categories
	Theme        core.Theme
}

// DefaultSnapshot is the first-run state.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Transactions: []core.Transaction{},
		Categories:   core.DefaultCategories(),
		Theme:        core.DefaultTheme,
	}
}

// Change is sent to observers after every committed mutation.
type Change struct {
	Op Op
	// Which persisted slots the mutation touched.
	Transactions bool
	Categories   bool
	Theme        bool
	// Months whose summaries changed. Empty when no transaction changed.
	Months   []core.Month
	Snapshot Snapshot
}

// Observer is called with the store lock held and must not block.
type Observer func(Change)

type StoreConfig struct {
	Location *time.Location
	Display  core.DisplayFormatter
	Clock    func() time.Time
	NewID    func() string
}

// Store owns the ledger, the registry, the theme and the transient category
// selection. Mutations run one at a time and notify observers once committed.
type Store struct {
	mu        sync.Mutex
	ledger    *Ledger
	registry  *Registry
	resolver  *Resolver
	theme     core.Theme
	selected  Selection
	loc       *time.Location
	now       func() time.Time
	observers []Observer
}

func NewStore(snap Snapshot, cfg StoreConfig) *Store {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	theme := snap.Theme
	if !theme.Valid() {
		theme = core.DefaultTheme
	}
	l := NewLedger(snap.Transactions, WithIDGenerator(cfg.NewID), WithDisplayFormatter(cfg.Display))
	r := NewRegistry(snap.Categories)
	return &Store{
		ledger:   l,
		registry: r,
		resolver: NewResolver(l, r),
		theme:    theme,
		loc:      cfg.Location,
		now:      cfg.Clock,
	}
}

// Subscribe registers an observer for future changes.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) notify(c Change) {
	c.Snapshot = s.snapshotLocked()
	for _, o := range s.observers {
		o(c)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Transactions: s.ledger.All(),
		Categories:   s.registry.Snapshot(),
		Theme:        s.theme,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Location is the zone month boundaries are computed in.
func (s *Store) Location() *time.Location { return s.loc }

// CurrentMonth is the month containing the store clock's now.
func (s *Store) CurrentMonth() core.Month {
	return core.MonthOf(s.now().In(s.loc))
}

// AddTransaction records a new entry in ref. Future months are refused.
func (s *Store) AddTransaction(in AddInput, ref core.Month) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if IsFutureMonth(ref, now) {
		return core.Transaction{}, core.ErrFutureMonth
	}
	tx, err := s.ledger.Add(in, ref, now)
	if err != nil {
		return core.Transaction{}, err
	}
	s.notify(Change{Op: OpAddTransaction, Transactions: true, Months: []core.Month{s.monthOf(tx)}})
	return tx, nil
}

// RemoveTransaction deletes by id; a missing id is a no-op and reports false.
func (s *Store) RemoveTransaction(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.ledger.Find(id)
	if !ok || !s.ledger.Remove(id) {
		return false
	}
	s.notify(Change{Op: OpRemoveTransaction, Transactions: true, Months: []core.Month{s.monthOf(tx)}})
	return true
}

func (s *Store) Transaction(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Find(id)
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.All()
}

// Summary recomputes the month view from the current ledger.
func (s *Store) Summary(m core.Month) core.MonthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.ledger.All(), m, s.now())
}

func (s *Store) Categories() core.Categories {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Snapshot()
}

func (s *Store) AddCategory(t core.Type, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.registry.Add(t, name)
	if err != nil {
		return "", err
	}
	s.notify(Change{Op: OpAddCategory, Categories: true})
	return added, nil
}

// BeginCategoryDeletion runs the dependency check for (t, name).
func (s *Store) BeginCategoryDeletion(t core.Type, name string) (DeletionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Begin(t, name)
}

// ResolveCategoryDeletion applies the decision atomically. On success the
// selected category is cleared when it is the deleted one.
func (s *Store) ResolveCategoryDeletion(plan DeletionPlan, d Decision) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	months := s.dependentMonths(plan.Type, plan.Category)
	out, err := s.resolver.Resolve(plan, d)
	if err != nil || !out.Mutated {
		return out, err
	}
	if s.selected.Type == plan.Type && s.selected.Category == plan.Category {
		s.selected = Selection{}
	}
	c := Change{Op: OpDeleteCategory, Categories: true}
	if out.Removed > 0 || out.Reassigned > 0 {
		c.Transactions = true
		c.Months = months
	}
	s.notify(c)
	return out, nil
}

func (s *Store) monthOf(tx core.Transaction) core.Month {
	return core.MonthOf(tx.DateISO.In(s.loc))
}

// dependentMonths lists, in ledger order, the distinct months holding (t, category) entries.
func (s *Store) dependentMonths(t core.Type, category string) []core.Month {
	var months []core.Month
	seen := map[string]bool{}
	for _, tx := range s.ledger.All() {
		if tx.Type != t || tx.Category != category {
			continue
		}
		m := s.monthOf(tx)
		if !seen[m.String()] {
			seen[m.String()] = true
			months = append(months, m)
		}
	}
	return months
}

func (s *Store) Theme() core.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) SetTheme(th core.Theme) error {
	if !th.Valid() {
		return core.ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = th
	s.notify(Change{Op: OpSetTheme, Theme: true})
	return nil
}

// Selection is the category preselected for new entries of one type.
// It is never persisted.
type Selection struct {
	Type     core.Type `json:"type"`
	Category string    `json:"category"`
}

func (s *Store) Selected() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select replaces the selection. An empty category clears it.
func (s *Store) Select(sel Selection) error {
	sel.Category = strings.TrimSpace(sel.Category)
	if sel.Category == "" {
		sel = Selection{}
	} else if !sel.Type.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidType, sel.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = sel
	return nil
}
