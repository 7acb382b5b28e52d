package workspace

import (
	"context"
	"sync"
)

// Action is an optimistic change to a collection
type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
)

// Placement decides where optimistic adds appear in the displayed list
type Placement int

const (
	PlacementAppend Placement = iota
	PlacementPrepend
)

// Mutation is a change shown before the backend confirmed it
type Mutation[T any] struct {
	Action Action
	Item   T

	seq    uint64
	done   bool   // backend write finished, successfully or not
	doneAt uint64 // first reload that started after the write finished
}

// Reduce overlays pending mutations on base in order. An add is skipped
// when an item with the same key is already displayed; a delete removes
// every item with its key. base is not modified.
func Reduce[T any](base []T, pending []Mutation[T], key func(T) string, placement Placement) []T {
	out := make([]T, len(base))
	copy(out, base)

	for _, m := range pending {
		k := key(m.Item)
		switch m.Action {
		case ActionAdd:
			if containsKey(out, k, key) {
				continue
			}
			if placement == PlacementPrepend {
				out = append([]T{m.Item}, out...)
			} else {
				out = append(out, m.Item)
			}
		case ActionDelete:
			filtered := out[:0:0]
			for _, item := range out {
				if key(item) != k {
					filtered = append(filtered, item)
				}
			}
			out = filtered
		}
	}
	return out
}

func containsKey[T any](items []T, k string, key func(T) string) bool {
	for _, item := range items {
		if key(item) == k {
			return true
		}
	}
	return false
}

// StoreConfig wires a Store to its backend
type StoreConfig[T any] struct {
	Key       func(T) string
	Placement Placement

	// Load fetches the authoritative collection
	Load func(ctx context.Context) ([]T, error)

	// Write persists one mutation
	Write func(ctx context.Context, action Action, item T) error

	// Cascade returns the displayed items the backend removes along with a
	// deleted item. They are hidden with it and never written.
	Cascade func(item T, displayed []T) []T

	// OnChange receives every new displayed list
	OnChange func(items []T)

	// OnError receives failed writes and failed reloads
	OnError func(err error)
}

// Store shows a collection with pending mutations applied on top of the
// last loaded base. Mutations are never rolled back locally: after each
// write the store reloads the base and the backend's state wins.
type Store[T any] struct {
	cfg StoreConfig[T]

	mu        sync.Mutex
	base      []T
	pending   []*Mutation[T]
	displayed []T
	nextSeq   uint64
	loadSeq   uint64 // last reload started
	appliedAt uint64 // last reload applied
	version   uint64 // last displayed list computed

	// notifyMu orders OnChange calls; delivered is the newest version sent
	notifyMu  sync.Mutex
	delivered uint64

	wg sync.WaitGroup
}

// NewStore creates an empty store
func NewStore[T any](cfg StoreConfig[T]) *Store[T] {
	return &Store[T]{cfg: cfg, displayed: []T{}}
}

// Displayed returns a copy of the current displayed list
func (s *Store[T]) Displayed() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.displayed...)
}

// Pending returns the number of mutations not yet reconciled
func (s *Store[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Refresh reloads the base from the backend
func (s *Store[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	base, err := s.cfg.Load(ctx)
	if err != nil {
		return err
	}
	s.setBase(seq, base)
	return nil
}

// SetBase replaces the authoritative collection and reconciles
func (s *Store[T]) SetBase(base []T) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()
	s.setBase(seq, base)
}

func (s *Store[T]) setBase(seq uint64, base []T) {
	s.mu.Lock()
	if seq < s.appliedAt {
		// An older reload finished after a newer one
		s.mu.Unlock()
		return
	}
	s.appliedAt = seq
	s.base = append([]T(nil), base...)

	// A finished write is retired only by a reload that started after it
	// finished; an older snapshot may predate the commit.
	kept := s.pending[:0]
	for _, m := range s.pending {
		if (m.done && seq >= m.doneAt) || s.reflected(m) {
			continue
		}
		kept = append(kept, m)
	}
	s.pending = kept
	version, displayed := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(version, displayed)
}

// reflected reports whether the base already shows the mutation's effect
func (s *Store[T]) reflected(m *Mutation[T]) bool {
	present := containsKey(s.base, s.cfg.Key(m.Item), s.cfg.Key)
	if m.Action == ActionAdd {
		return present
	}
	return !present
}

// Apply shows the mutation immediately and writes it in the background.
// The write outlives ctx cancellation.
func (s *Store[T]) Apply(ctx context.Context, action Action, item T) {
	s.mu.Lock()
	group := []*Mutation[T]{s.newMutationLocked(action, item)}
	if action == ActionDelete && s.cfg.Cascade != nil {
		for _, dep := range s.cfg.Cascade(item, s.displayed) {
			group = append(group, s.newMutationLocked(ActionDelete, dep))
		}
	}
	s.pending = append(s.pending, group...)
	version, displayed := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(version, displayed)

	writeCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.cfg.Write(writeCtx, action, item)
		if err != nil {
			s.reportError(err)
		}

		s.mu.Lock()
		for _, m := range group {
			m.done = true
			m.doneAt = s.loadSeq + 1
		}
		s.mu.Unlock()

		if err := s.Refresh(writeCtx); err != nil {
			s.reportError(err)
		}
	}()
}

func (s *Store[T]) newMutationLocked(action Action, item T) *Mutation[T] {
	s.nextSeq++
	return &Mutation[T]{Action: action, Item: item, seq: s.nextSeq}
}

// Wait blocks until every background write and its reload finished
func (s *Store[T]) Wait() {
	s.wg.Wait()
}

func (s *Store[T]) recomputeLocked() (uint64, []T) {
	pending := make([]Mutation[T], len(s.pending))
	for i, m := range s.pending {
		pending[i] = *m
	}
	s.displayed = Reduce(s.base, pending, s.cfg.Key, s.cfg.Placement)
	s.version++
	return s.version, append([]T(nil), s.displayed...)
}

// notify delivers displayed unless a newer list was already delivered, so
// the last OnChange always carries the latest list
func (s *Store[T]) notify(version uint64, displayed []T) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(displayed)
	}
}

func (s *Store[T]) reportError(err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}
