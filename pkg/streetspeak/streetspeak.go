// Package streetspeak ties the pipeline together: fetch slang-tagged short
// videos with caching by configuration fingerprint, run slang discovery
// over fresh comments, and expose the slang vocabulary.
package streetspeak

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/cache"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
)

const (
	DefaultShortsPerTopic   = 10
	DefaultCommentsPerShort = 50

	// MinDiscoveryComments gates discovery: too few comments produce
	// nothing but noise candidates.
	MinDiscoveryComments = 10

	// FallbackLimit bounds how many stale videos the quota fallback serves.
	FallbackLimit = 25
)

// DefaultTopics is the search mix used when a request names no topics.
var DefaultTopics = []string{"gaming", "food review", "funny moments", "dance", "pets"}

// Fetcher retrieves slang-tagged videos for a set of topics.
type Fetcher interface {
	Fetch(ctx context.Context, topics []string, shortsPerTopic, commentsPerShort int, terms []string) ([]shorts.Video, error)
}

// Discoverer promotes new slang terms from a comment corpus.
type Discoverer interface {
	Run(ctx context.Context, comments []shorts.Comment) ([]slangstore.Term, error)
}

// Request is one fetch configuration. Zero-valued fields take defaults.
type Request struct {
	Topics           []string `json:"topics"`
	CustomSlang      []string `json:"custom_slang"`
	ShortsPerTopic   int      `json:"shorts_per_topic"`
	CommentsPerShort int      `json:"comments_per_short"`
}

func (r Request) withDefaults() Request {
	if len(r.Topics) == 0 {
		r.Topics = DefaultTopics
	}
	if r.ShortsPerTopic <= 0 {
		r.ShortsPerTopic = DefaultShortsPerTopic
	}
	if r.CommentsPerShort <= 0 {
		r.CommentsPerShort = DefaultCommentsPerShort
	}
	return r
}

func (r Request) fingerprint() cache.Fingerprint {
	return cache.Fingerprint{
		Topics:           r.Topics,
		CustomTerms:      r.CustomSlang,
		ShortsPerTopic:   r.ShortsPerTopic,
		CommentsPerShort: r.CommentsPerShort,
	}
}

// RefreshResult reports a forced refresh: the fresh videos, any terms the
// discovery pass promoted, and the vocabulary size afterwards.
type RefreshResult struct {
	Videos     []shorts.Video    `json:"videos"`
	NewSlang   []slangstore.Term `json:"new_slang_discovered"`
	TotalTerms int               `json:"total_slang_terms"`
}

// Stats summarizes the service state.
type Stats struct {
	CachedVideos       int            `json:"cached_videos"`
	TotalTerms         int            `json:"total_slang_terms"`
	ByCategory         map[string]int `json:"slang_by_category"`
	MostCommonCategory string         `json:"most_common_category,omitempty"`
}

// Service is the top-level pipeline facade.
type Service struct {
	fetcher   Fetcher
	discovery Discoverer
	store     *slangstore.Store
	cache     cache.Cache
	log       logrus.FieldLogger

	// TTL applied to cached fetch results.
	TTL time.Duration
}

func NewService(fetcher Fetcher, discovery Discoverer, store *slangstore.Store, c cache.Cache, log logrus.FieldLogger) *Service {
	return &Service{
		fetcher:   fetcher,
		discovery: discovery,
		store:     store,
		cache:     c,
		log:       log,
		TTL:       cache.DefaultTTL,
	}
}

// Videos serves a request from the cache when a fresh entry exists for its
// exact configuration, fetching and caching otherwise. On quota exhaustion
// it degrades to recently cached videos from any configuration; with
// nothing cached at all it reports internalerr.ErrUnavailable.
//
// The second return value says whether the result came from the cache.
func (s *Service) Videos(ctx context.Context, req Request) ([]shorts.Video, bool, error) {
	req = req.withDefaults()
	fp := req.fingerprint()

	cached, hit, err := s.cache.Get(ctx, fp)
	if err != nil {
		s.log.WithError(err).Warn("cache read failed, fetching fresh")
	} else if hit {
		s.log.WithField("videos", len(cached)).Info("serving cached videos")
		return cached, true, nil
	}

	videos, err := s.fetchFresh(ctx, req)
	if err != nil {
		if errors.Is(err, internalerr.ErrQuotaExceeded) {
			return s.fallback(ctx, err)
		}
		return nil, false, err
	}

	if len(videos) > 0 {
		if err := s.cache.Put(ctx, fp, videos, s.TTL); err != nil {
			s.log.WithError(err).Warn("cache write failed, serving uncached result")
		}
	}
	return videos, false, nil
}

// Refresh bypasses the cache, fetches fresh videos, runs slang discovery
// over their comments, and re-fetches once when discovery grew the
// vocabulary so the new terms are reflected in the tagged results.
func (s *Service) Refresh(ctx context.Context, req Request) (RefreshResult, error) {
	req = req.withDefaults()

	videos, err := s.fetchFresh(ctx, req)
	if err != nil {
		return RefreshResult{}, err
	}

	comments := collectComments(videos)
	var discovered []slangstore.Term
	if len(comments) > MinDiscoveryComments {
		discovered, err = s.discovery.Run(ctx, comments)
		if err != nil {
			s.log.WithError(err).Warn("slang discovery failed, keeping fetch result")
		}
	}

	if len(discovered) > 0 {
		s.log.WithField("terms", len(discovered)).Info("vocabulary grew, re-fetching")
		refreshed, err := s.fetchFresh(ctx, req)
		if err != nil {
			s.log.WithError(err).Warn("re-fetch after discovery failed, keeping first result")
		} else {
			videos = refreshed
		}
	}

	if len(videos) > 0 {
		if err := s.cache.Put(ctx, req.fingerprint(), videos, s.TTL); err != nil {
			s.log.WithError(err).Warn("cache write failed")
		}
	}

	return RefreshResult{
		Videos:     videos,
		NewSlang:   discovered,
		TotalTerms: s.store.Len(),
	}, nil
}

// Discover fetches videos for the topics and runs a discovery pass over
// their comments without touching the video cache. It returns the promoted
// terms and how many comments were analyzed.
func (s *Service) Discover(ctx context.Context, topics []string) ([]slangstore.Term, int, error) {
	req := Request{Topics: topics}.withDefaults()
	videos, err := s.fetchFresh(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	comments := collectComments(videos)
	discovered, err := s.discovery.Run(ctx, comments)
	if err != nil {
		return nil, len(comments), err
	}
	return discovered, len(comments), nil
}

// Terms returns the full vocabulary sorted by term.
func (s *Service) Terms() []slangstore.Term {
	return s.store.All()
}

// Lookup returns one term's record.
func (s *Service) Lookup(term string) (slangstore.Term, bool) {
	return s.store.Get(term)
}

// DeleteTerm removes a term from the vocabulary and persists the change.
func (s *Service) DeleteTerm(term string) error {
	if err := s.store.Delete(term); err != nil {
		return err
	}
	return s.store.Persist()
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	cacheStats, err := s.cache.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	byCategory := make(map[string]int)
	for _, t := range s.store.All() {
		byCategory[string(t.Category)]++
	}
	most := ""
	best := 0
	for _, t := range s.store.All() {
		if n := byCategory[string(t.Category)]; n > best || (n == best && (most == "" || string(t.Category) < most)) {
			most, best = string(t.Category), n
		}
	}
	return Stats{
		CachedVideos:       cacheStats.Videos,
		TotalTerms:         s.store.Len(),
		ByCategory:         byCategory,
		MostCommonCategory: most,
	}, nil
}

// CacheStats exposes raw cache counters.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	return s.cache.Stats(ctx)
}

// EvictExpiredCache removes expired cache entries.
func (s *Service) EvictExpiredCache(ctx context.Context) (int, error) {
	return s.cache.EvictExpired(ctx)
}

func (s *Service) fetchFresh(ctx context.Context, req Request) ([]shorts.Video, error) {
	return s.fetcher.Fetch(ctx, req.Topics, req.ShortsPerTopic, req.CommentsPerShort, s.termSet(req.CustomSlang))
}

// termSet merges the stored vocabulary with per-request custom terms.
func (s *Service) termSet(custom []string) []string {
	terms := s.store.AllTerms()
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	for _, t := range custom {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

func (s *Service) fallback(ctx context.Context, cause error) ([]shorts.Video, bool, error) {
	s.log.WithError(cause).Warn("quota exhausted, trying cached fallback")
	videos, err := s.cache.GetAny(ctx, FallbackLimit)
	if err != nil {
		return nil, false, fmt.Errorf("quota fallback: %w", internalerr.ErrUnavailable)
	}
	if len(videos) == 0 {
		return nil, false, fmt.Errorf("no cached fallback after quota exhaustion: %w", internalerr.ErrUnavailable)
	}
	return videos, true, nil
}

func collectComments(videos []shorts.Video) []shorts.Comment {
	var out []shorts.Comment
	for _, v := range videos {
		out = append(out, v.Comments...)
	}
	return out
}
