package arena

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trix/naval-engine/internal/model"
)

// Store is the registry of live battles, keyed by battle id. It hands
// out *Battle handles; each handle serializes its own mutations, so a
// slow battle never blocks an unrelated one.
type Store struct {
	mu      sync.RWMutex
	battles map[string]*Battle
}

// NewStore creates an empty battle store.
func NewStore() *Store {
	return &Store{battles: make(map[string]*Battle)}
}

// Create builds a new battle for the two sides and registers it under a
// freshly generated id. UUIDv4 ids cannot collide with any live or
// retired id within the process lifetime.
func (s *Store) Create(first, second model.Side, stake decimal.Decimal) *Battle {
	b := newBattle(uuid.New().String(), first, second, stake)

	s.mu.Lock()
	s.battles[b.ID] = b
	s.mu.Unlock()
	return b
}

// Get returns the battle for id, or ErrNotFound.
func (s *Store) Get(id string) (*Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.battles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Destroy retires a battle from the store. Idempotent.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	delete(s.battles, id)
	s.mu.Unlock()
}

// Count returns the number of live battles.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.battles)
}

// Summaries returns diagnostic views of every live battle.
func (s *Store) Summaries() []Summary {
	s.mu.RLock()
	battles := make([]*Battle, 0, len(s.battles))
	for _, b := range s.battles {
		battles = append(battles, b)
	}
	s.mu.RUnlock()

	// Summarize outside the store lock; each battle takes its own.
	out := make([]Summary, 0, len(battles))
	for _, b := range battles {
		out = append(out, b.Summarize())
	}
	return out
}
