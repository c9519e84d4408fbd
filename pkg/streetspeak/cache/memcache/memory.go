// Package memcache is an in-memory Cache used by tests and by deployments
// that do not want a database file. Semantics mirror the sqlite store.
package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/cache"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

type entry struct {
	videos    []shorts.Video
	createdAt time.Time
	expiresAt time.Time
}

type memCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is replaceable in tests to exercise expiry without sleeping.
	now func() time.Time
}

// New returns an empty in-memory cache.
func New() cache.Cache {
	return &memCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *memCache) Close() error { return nil }

func (m *memCache) Get(ctx context.Context, fp cache.Fingerprint) ([]shorts.Video, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[fp.Key()]
	if !ok || !e.expiresAt.After(m.now()) {
		return nil, false, nil
	}
	return cloneVideos(e.videos), true, nil
}

func (m *memCache) Put(ctx context.Context, fp cache.Fingerprint, videos []shorts.Video, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	created := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fp.Key()] = entry{
		videos:    cloneVideos(videos),
		createdAt: created,
		expiresAt: created.Add(ttl),
	}
	return nil
}

func (m *memCache) GetAny(ctx context.Context, limit int) ([]shorts.Video, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest []entry
	for _, e := range m.entries {
		newest = append(newest, e)
	}
	// Most recent entries first.
	for i := 0; i < len(newest); i++ {
		for j := i + 1; j < len(newest); j++ {
			if newest[j].createdAt.After(newest[i].createdAt) {
				newest[i], newest[j] = newest[j], newest[i]
			}
		}
	}

	var out []shorts.Video
	for _, e := range newest {
		for _, v := range e.videos {
			if len(out) == limit {
				return cloneVideos(out), nil
			}
			out = append(out, v)
		}
	}
	return cloneVideos(out), nil
}

func (m *memCache) EvictExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	cutoff := m.now()
	for key, e := range m.entries {
		if !e.expiresAt.After(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memCache) Stats(ctx context.Context) (cache.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := cache.Stats{Entries: len(m.entries)}
	for _, e := range m.entries {
		st.Videos += len(e.videos)
		for _, v := range e.videos {
			st.Comments += len(v.Comments)
		}
	}
	return st, nil
}

func cloneVideos(in []shorts.Video) []shorts.Video {
	if in == nil {
		return nil
	}
	out := make([]shorts.Video, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Comments != nil {
			comments := make([]shorts.Comment, len(out[i].Comments))
			copy(comments, out[i].Comments)
			out[i].Comments = comments
		}
	}
	return out
}
