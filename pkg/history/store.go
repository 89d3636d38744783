package history

import (
	"context"
	"sync"

	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
)

type EventKind string

const (
	EventAdded   EventKind = "added"
	EventCleared EventKind = "cleared"
)

// Event is delivered to subscribers after every mutation
type Event struct {
	Kind EventKind
	// Added holds the new records in the order they were submitted
	Added []*model.Prediction
	// Items is the store content after the mutation, newest first
	Items []*model.Prediction
}

// Store is the ordered prediction history, newest first. Every mutation is flushed to
// the repository; persistence failures are logged and never returned.
type Store struct {
	repo interfaces.HistoryRepository

	// writeMu serializes a mutation with its save so the last save holds the latest state
	writeMu sync.Mutex
	mu      sync.RWMutex
	items []*model.Prediction

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New loads the persisted history. Missing or unreadable data starts an empty store.
func New(ctx context.Context, repo interfaces.HistoryRepository) *Store {
	s := &Store{
		repo: repo,
		subs: make(map[int]func(Event)),
	}

	items, err := repo.LoadPredictions(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load history, starting empty", "error", err)
		items = nil
	}
	s.items = items

	logging.From(ctx).Debug("history loaded", "count", len(s.items))
	return s
}

// Add prepends p
func (s *Store) Add(ctx context.Context, p *model.Prediction) {
	s.AddMany(ctx, []*model.Prediction{p})
}

// AddMany inserts ps ahead of the existing history. ps is taken in completion order, so
// after AddMany([A, B, C]) the store reads C, B, A followed by the older records, the
// same as adding A, B and C one by one. ps itself is not modified.
func (s *Store) AddMany(ctx context.Context, ps []*model.Prediction) {
	if len(ps) == 0 {
		return
	}

	s.writeMu.Lock()
	s.mu.Lock()
	next := make([]*model.Prediction, 0, len(ps)+len(s.items))
	for i := len(ps) - 1; i >= 0; i-- {
		next = append(next, ps[i])
	}
	next = append(next, s.items...)
	s.items = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.writeMu.Unlock()

	added := make([]*model.Prediction, len(ps))
	copy(added, ps)
	s.publish(Event{Kind: EventAdded, Added: added, Items: snapshot})
}

// Clear removes every record
func (s *Store) Clear(ctx context.Context) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.persist(ctx, []*model.Prediction{})
	s.writeMu.Unlock()
	s.publish(Event{Kind: EventCleared, Items: []*model.Prediction{}})
}

// Items returns a snapshot of the history, newest first
func (s *Store) Items() []*model.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the record with id, or nil
func (s *Store) Get(id model.PredictionID) *model.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Subscribe registers fn to be called after every mutation. Calls happen synchronously
// on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) snapshotLocked() []*model.Prediction {
	out := make([]*model.Prediction, len(s.items))
	copy(out, s.items)
	return out
}

// persist ignores cancellation of ctx
func (s *Store) persist(ctx context.Context, items []*model.Prediction) {
	if err := s.repo.SavePredictions(context.WithoutCancel(ctx), items); err != nil {
		logging.From(ctx).Warn("failed to persist history", "error", err, "count", len(items))
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
