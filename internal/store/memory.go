package store

import (
	"context"
	"strings"
	"sync"

	"github.com/trix/naval-engine/internal/model"
)

// MemoryStore implements RecordStore with an in-memory slice. Used for
// testing and for deployments that run without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.MatchRecord
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertRecord(_ context.Context, rec *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryStore) RecentRecords(_ context.Context, limit int) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectNewestFirst(s.records, limit, func(model.MatchRecord) bool { return true }), nil
}

func (s *MemoryStore) RecordsByAccount(_ context.Context, account string, limit int) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectNewestFirst(s.records, limit, func(r model.MatchRecord) bool {
		return strings.EqualFold(r.Winner, account) || strings.EqualFold(r.Loser, account)
	}), nil
}

func collectNewestFirst(records []model.MatchRecord, limit int, keep func(model.MatchRecord) bool) []model.MatchRecord {
	out := make([]model.MatchRecord, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
