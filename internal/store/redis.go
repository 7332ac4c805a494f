package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trix/naval-engine/internal/model"
)

// CachedStore wraps a primary RecordStore with a Redis read-through
// cache for the recent-records query. Writes go to the primary and
// invalidate the cache; reads check Redis first then fall back.
type CachedStore struct {
	primary RecordStore
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary RecordStore, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{primary: primary, rdb: rdb, ttl: ttl}
}

func (s *CachedStore) InsertRecord(ctx context.Context, rec *model.MatchRecord) error {
	if err := s.primary.InsertRecord(ctx, rec); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	keys, err := s.rdb.Keys(ctx, recentKeyPrefix+"*").Result()
	if err == nil && len(keys) > 0 {
		s.rdb.Del(ctx, keys...)
	}
	s.rdb.Del(ctx, accountKey(rec.Winner), accountKey(rec.Loser))
	return nil
}

func (s *CachedStore) RecentRecords(ctx context.Context, limit int) ([]model.MatchRecord, error) {
	key := recentKey(limit)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var records []model.MatchRecord
		if json.Unmarshal(data, &records) == nil {
			return records, nil
		}
	}

	records, err := s.primary.RecentRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(records); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return records, nil
}

// RecordsByAccount is cached per account; limit variations share one
// entry keyed on the largest request seen, which is acceptable for a
// diagnostics surface.
func (s *CachedStore) RecordsByAccount(ctx context.Context, account string, limit int) ([]model.MatchRecord, error) {
	key := accountKey(account)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var records []model.MatchRecord
		if json.Unmarshal(data, &records) == nil {
			if len(records) > limit {
				records = records[:limit]
			}
			return records, nil
		}
	}

	records, err := s.primary.RecordsByAccount(ctx, account, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(records); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return records, nil
}

const recentKeyPrefix = "matches:recent:"

func recentKey(limit int) string { return fmt.Sprintf("%s%d", recentKeyPrefix, limit) }

func accountKey(account string) string {
	return "matches:account:" + strings.ToLower(account)
}
