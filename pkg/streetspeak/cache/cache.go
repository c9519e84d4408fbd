// Package cache defines the fingerprint-keyed result cache. An entry maps
// one exact fetch configuration to the videos it produced; a request with
// a different configuration never sees another configuration's results.
package cache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

// DefaultTTL is how long a cached result set stays fresh.
const DefaultTTL = 24 * time.Hour

// Fingerprint identifies one fetch configuration. Topic and term order is
// irrelevant: the canonical key sorts both.
type Fingerprint struct {
	Topics           []string
	CustomTerms      []string
	ShortsPerTopic   int
	CommentsPerShort int
}

// Key returns the canonical string form used as the cache lookup key.
func (fp Fingerprint) Key() string {
	var b strings.Builder
	b.WriteString("topics=")
	b.WriteString(strings.Join(canonical(fp.Topics), ","))
	b.WriteString("|custom=")
	b.WriteString(strings.Join(canonical(fp.CustomTerms), ","))
	b.WriteString("|shorts=")
	b.WriteString(strconv.Itoa(fp.ShortsPerTopic))
	b.WriteString("|comments=")
	b.WriteString(strconv.Itoa(fp.CommentsPerShort))
	return b.String()
}

func canonical(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes cache contents.
type Stats struct {
	Entries   int   `json:"cache_entries"`
	Videos    int   `json:"videos_cached"`
	Comments  int   `json:"comments_cached"`
	SizeBytes int64 `json:"database_size"`
}

// Cache stores fetch results keyed by configuration fingerprint.
type Cache interface {
	Close() error

	// Get returns the videos for a non-expired entry with this exact
	// fingerprint, or ok=false when no fresh entry exists.
	Get(ctx context.Context, fp Fingerprint) ([]shorts.Video, bool, error)

	// Put replaces any prior entry for the fingerprint and sets
	// expiry = now + ttl (DefaultTTL when ttl <= 0).
	Put(ctx context.Context, fp Fingerprint, videos []shorts.Video, ttl time.Duration) error

	// GetAny ignores fingerprints and returns up to limit of the most
	// recently cached videos. Degraded-availability fallback only.
	GetAny(ctx context.Context, limit int) ([]shorts.Video, error)

	// EvictExpired removes expired entries and their videos/comments,
	// returning the number of entries removed.
	EvictExpired(ctx context.Context) (int, error)

	Stats(ctx context.Context) (Stats, error)
}
