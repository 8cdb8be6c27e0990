package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spendy/internal/amqp"
	"spendy/internal/core"
	"spendy/internal/gateway"
	"spendy/internal/ledger"
	"spendy/internal/log"
	"spendy/internal/metrics"
)

// ErrNotLoaded is returned when the ledger is used before Load completed.
var ErrNotLoaded = errors.New("ledger not loaded")

const defaultSaveTimeout = 5 * time.Second

// Publisher announces persisted ledger changes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

type Options struct {
	Store       ledger.StoreConfig
	SaveTimeout time.Duration
	Publisher   Publisher
	Metrics     *metrics.Metrics
	Logger      *log.Logger
}

// LedgerService loads the ledger from a gateway once and writes every
// committed change back in the background. The in-memory store stays
// authoritative: failed writes are logged and counted, never retried or
// rolled back.
type LedgerService struct {
	gw   gateway.Gateway
	opts Options
	log  *log.Logger

	mu      sync.Mutex
	store   *ledger.Store
	latest  ledger.Snapshot
	dirty   map[string]bool
	outbox  []*amqp.LedgerChangedMessage
	closed  bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	closeMu sync.Once
}

func NewLedgerService(gw gateway.Gateway, opts Options) *LedgerService {
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		gw:    gw,
		opts:  opts,
		log:   logger.WithComponent(log.ComponentLedger),
		dirty: map[string]bool{},
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Load reads every slot concurrently and builds the store once all reads
// finished. Slots that fail to load fall back to their defaults. A
// transactions slot with unusable entries keeps its other entries. Every
// LoadError is joined into the returned error while the store is still
// returned and usable.
func (s *LedgerService) Load(ctx context.Context) (*ledger.Store, error) {
	s.mu.Lock()
	if s.store != nil {
		s.mu.Unlock()
		return nil, errors.New("ledger already loaded")
	}
	s.mu.Unlock()

	slots := gateway.Slots()
	parts := make([]ledger.Snapshot, len(slots))
	found := make([]bool, len(slots))
	errs := make([]error, len(slots))

	var g errgroup.Group
	for i, slot := range slots {
		g.Go(func() error {
			blob, ok, err := s.gw.Get(ctx, slot)
			if err == nil && ok {
				err = gateway.Decode(slot, blob, &parts[i])
			}
			s.opts.Metrics.Load(slot, err)
			var dropped *gateway.DroppedEntriesError
			if errors.As(err, &dropped) {
				// The decoded remainder is used; the slot is not reset.
				errs[i] = &core.LoadError{Slot: slot, Err: err}
				found[i] = ok
				return nil
			}
			if err != nil {
				errs[i] = &core.LoadError{Slot: slot, Err: err}
				return errs[i]
			}
			found[i] = ok
			return nil
		})
	}
	// Every slot's error is kept in errs; Wait only reports the first.
	_ = g.Wait()

	snap := ledger.DefaultSnapshot()
	for i, slot := range slots {
		if errs[i] != nil && !found[i] {
			s.log.WarnContext(ctx, "Slot failed to load, using default",
				log.FieldSlot, slot, log.FieldError, errs[i])
			continue
		}
		if errs[i] != nil {
			s.log.WarnContext(ctx, "Slot loaded partially",
				log.FieldSlot, slot, log.FieldError, errs[i])
		}
		if !found[i] {
			continue
		}
		switch slot {
		case gateway.SlotTransactions:
			snap.Transactions = parts[i].Transactions
		case gateway.SlotCategories:
			snap.Categories = parts[i].Categories
		case gateway.SlotTheme:
			snap.Theme = parts[i].Theme
		}
	}

	store := ledger.NewStore(snap, s.opts.Store)
	store.Subscribe(s.onChange)

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
	go s.run()

	s.log.InfoContext(ctx, "Ledger loaded",
		log.FieldCount, len(snap.Transactions),
		"theme", snap.Theme)
	return store, errors.Join(errs...)
}

// Store returns the loaded store.
func (s *LedgerService) Store() (*ledger.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil, ErrNotLoaded
	}
	return s.store, nil
}

// onChange runs under the store lock, so it only records the change and
// wakes the saver.
func (s *LedgerService) onChange(c ledger.Change) {
	s.opts.Metrics.Mutation(string(c.Op))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = c.Snapshot
	if c.Transactions {
		s.dirty[gateway.SlotTransactions] = true
	}
	if c.Categories {
		s.dirty[gateway.SlotCategories] = true
	}
	if c.Theme {
		s.dirty[gateway.SlotTheme] = true
	}
	if c.Transactions && s.opts.Publisher != nil {
		months := make([]string, 0, len(c.Months))
		for _, m := range c.Months {
			months = append(months, m.String())
		}
		s.outbox = append(s.outbox, amqp.NewLedgerChangedMessage(string(c.Op), months...))
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *LedgerService) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.stop:
			s.flush()
			return
		}
	}
}

// flush writes the latest snapshot of every dirty slot, then publishes the
// queued change messages once the transactions slot is durable.
func (s *LedgerService) flush() {
	s.mu.Lock()
	snap := s.latest
	dirty := s.dirty
	outbox := s.outbox
	s.dirty = map[string]bool{}
	s.outbox = nil
	s.mu.Unlock()

	txSaved := true
	for _, slot := range gateway.Slots() {
		if !dirty[slot] {
			continue
		}
		if err := s.save(slot, snap); err != nil {
			if slot == gateway.SlotTransactions {
				txSaved = false
			}
			s.log.Error("Failed to persist slot", log.FieldSlot, slot, log.FieldError, err)
		}
	}

	if !txSaved {
		if len(outbox) > 0 {
			s.log.Warn("Skipping change messages for unsaved transactions", log.FieldCount, len(outbox))
		}
		return
	}
	for _, msg := range outbox {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
		err := s.opts.Publisher.PublishLedgerChanged(ctx, msg)
		cancel()
		if err != nil {
			s.log.Error("Failed to publish ledger change", log.FieldOperation, log.OpPublish, "op", msg.Op, log.FieldError, err)
		}
	}
}

func (s *LedgerService) save(slot string, snap ledger.Snapshot) error {
	blob, err := gateway.Encode(slot, snap)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
		err = s.gw.Set(ctx, slot, blob)
		cancel()
	}
	s.opts.Metrics.Save(slot, err)
	if err != nil {
		return &core.PersistenceError{Slot: slot, Err: err}
	}
	return nil
}

// Close stops accepting changes, writes what is still pending and waits for
// the saver to exit. It is safe to call more than once and before Load.
func (s *LedgerService) Close() error {
	s.closeMu.Do(func() {
		s.mu.Lock()
		loaded := s.store != nil
		s.closed = true
		s.mu.Unlock()

		close(s.stop)
		if loaded {
			<-s.done
		}
	})
	return nil
}
