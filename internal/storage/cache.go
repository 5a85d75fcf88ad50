package storage

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/contact-intake/internal/contact"
)

// recentKey is the Redis list holding the freshest submissions.
const recentKey = "contact:recent"

// CachedStore decorates a Store with a capped Redis list of recent
// submissions. The list is an acceleration only: cache failures never
// fail a create, and short reads fall through to the inner store.
type CachedStore struct {
	inner  Store
	client *redis.Client
	size   int
}

// NewCachedStore wraps inner with a recent-submissions cache keeping up
// to size entries.
func NewCachedStore(inner Store, client *redis.Client, size int) *CachedStore {
	if size <= 0 {
		size = 100
	}
	return &CachedStore{inner: inner, client: client, size: size}
}

// Create delegates to the inner store, then best-effort pushes the
// stored record onto the recent list.
func (s *CachedStore) Create(ctx context.Context, sub *contact.Submission) (string, error) {
	id, err := s.inner.Create(ctx, sub)
	if err != nil {
		return "", err
	}

	record := *sub
	record.ID = id
	data, err := json.Marshal(&record)
	if err == nil {
		pipe := s.client.TxPipeline()
		pipe.LPush(ctx, recentKey, data)
		pipe.LTrim(ctx, recentKey, 0, int64(s.size-1))
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[Storage] WARNING: recent cache update failed: %v", err)
		}
	}

	return id, nil
}

// Recent serves from the cache when it can satisfy the whole request,
// otherwise from the inner store.
func (s *CachedStore) Recent(ctx context.Context, limit int) ([]contact.Submission, error) {
	if limit <= 0 {
		limit = 20
	}

	vals, err := s.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err == nil && len(vals) == limit {
		subs := make([]contact.Submission, 0, len(vals))
		for _, v := range vals {
			var sub contact.Submission
			if err := json.Unmarshal([]byte(v), &sub); err != nil {
				// Poisoned entry; the durable store is the truth
				return s.inner.Recent(ctx, limit)
			}
			subs = append(subs, sub)
		}
		return subs, nil
	}

	return s.inner.Recent(ctx, limit)
}

// Available reports the inner store's availability; the cache is never
// load-bearing.
func (s *CachedStore) Available(ctx context.Context) bool {
	return s.inner.Available(ctx)
}

// Name identifies the backend in logs and startup output.
func (s *CachedStore) Name() string { return s.inner.Name() + "+cache" }
