// Package fetch turns topic queries into slang-tagged short videos. It
// drives the platform client through search, eligibility filtering, and a
// bounded-concurrency comment fan-out, and drops every video that yields
// no slang-bearing comments.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/internal/youtube"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/match"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

const (
	DefaultMinCommentCount  = 10
	DefaultMaxDuration      = 60
	DefaultCommentsPerShort = 50
	DefaultWorkers          = 10
	DefaultMaxPages         = 3
	DefaultASCIIThreshold   = 0.8
)

// DefaultSupplementalTopics pad out a single custom topic so one narrow
// query still produces a varied result set.
var DefaultSupplementalTopics = []string{"gaming", "food review", "funny moments", "dance", "pets"}

// API is the slice of the platform client the fetcher needs. Satisfied by
// *youtube.Client; tests substitute a fake.
type API interface {
	Search(ctx context.Context, query string, maxResults int, pageToken string) ([]youtube.SearchResult, string, error)
	Videos(ctx context.Context, ids []string) ([]youtube.Video, error)
	Comments(ctx context.Context, videoID string, maxResults int) ([]youtube.Comment, error)
}

// Fetcher retrieves eligible short videos and their slang comments.
type Fetcher struct {
	api API
	log logrus.FieldLogger

	MinCommentCount    int
	MaxDuration        int
	Workers            int
	MaxPages           int
	ASCIIThreshold     float64
	SupplementalTopics []string

	// rng shuffles the final result order; replaceable in tests.
	rng *rand.Rand
}

func New(api API, log logrus.FieldLogger) *Fetcher {
	return &Fetcher{
		api:                api,
		log:                log,
		MinCommentCount:    DefaultMinCommentCount,
		MaxDuration:        DefaultMaxDuration,
		Workers:            DefaultWorkers,
		MaxPages:           DefaultMaxPages,
		ASCIIThreshold:     DefaultASCIIThreshold,
		SupplementalTopics: DefaultSupplementalTopics,
	}
}

type search struct {
	topic  string
	target int
}

// Fetch searches the given topics, keeps eligible videos, fans out over
// their comments, and returns only videos with at least one comment in
// which a known term was detected. Result order is randomized.
//
// Per-video and per-topic failures are skipped; quota exhaustion aborts
// the run with internalerr.ErrQuotaExceeded so the caller can fall back
// to cached data.
func (f *Fetcher) Fetch(ctx context.Context, topics []string, shortsPerTopic, commentsPerShort int, terms []string) ([]shorts.Video, error) {
	if shortsPerTopic <= 0 {
		return nil, fmt.Errorf("shorts per topic must be positive: %w", internalerr.ErrInvalidInput)
	}
	if commentsPerShort <= 0 {
		commentsPerShort = DefaultCommentsPerShort
	}

	var candidates []youtube.Video
	seen := make(map[string]struct{})
	for _, s := range f.expandTopics(topics, shortsPerTopic) {
		videos, err := f.searchTopic(ctx, s)
		if err != nil {
			if errors.Is(err, internalerr.ErrQuotaExceeded) || ctx.Err() != nil {
				return nil, err
			}
			f.log.WithField("topic", s.topic).WithError(err).Warn("topic search failed, skipping")
			continue
		}
		for _, v := range videos {
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			candidates = append(candidates, v)
		}
	}

	tagged, err := f.collectComments(ctx, candidates, commentsPerShort, terms)
	if err != nil {
		return nil, err
	}

	f.shuffle(tagged)
	return tagged, nil
}

// expandTopics applies hybrid expansion: a single custom topic outside the
// supplemental list is searched at full volume with the supplemental topics
// added at reduced volume.
func (f *Fetcher) expandTopics(topics []string, shortsPerTopic int) []search {
	searches := make([]search, 0, len(topics))
	for _, t := range topics {
		searches = append(searches, search{topic: t, target: shortsPerTopic})
	}
	if len(topics) != 1 || f.isSupplemental(topics[0]) {
		return searches
	}
	reduced := shortsPerTopic / 2
	if reduced < 2 {
		reduced = 2
	}
	for _, t := range f.SupplementalTopics {
		searches = append(searches, search{topic: t, target: reduced})
	}
	return searches
}

func (f *Fetcher) isSupplemental(topic string) bool {
	for _, t := range f.SupplementalTopics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}

// searchTopic pages through search results until the per-topic target of
// eligible videos is reached or the page budget runs out.
func (f *Fetcher) searchTopic(ctx context.Context, s search) ([]youtube.Video, error) {
	var eligible []youtube.Video
	pageToken := ""
	for page := 0; page < f.MaxPages && len(eligible) < s.target; page++ {
		results, next, err := f.api.Search(ctx, s.topic, s.target, pageToken)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(results))
		for _, r := range results {
			ids = append(ids, r.VideoID)
		}
		videos, err := f.api.Videos(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, v := range videos {
			if !f.eligible(v) {
				continue
			}
			eligible = append(eligible, v)
			if len(eligible) == s.target {
				break
			}
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	return eligible, nil
}

// eligible applies the retention predicates: embeddable, enough comments,
// genuine short duration, and an English-language signal.
func (f *Fetcher) eligible(v youtube.Video) bool {
	if !v.Embeddable {
		return false
	}
	if v.CommentCount < int64(f.MinCommentCount) {
		return false
	}
	if v.DurationSeconds <= 0 || v.DurationSeconds > f.MaxDuration {
		return false
	}
	if lang := declaredLanguage(v); lang != "" && !strings.HasPrefix(lang, "en") {
		return false
	}
	return f.looksEnglish(v.Title + " " + v.Description)
}

func declaredLanguage(v youtube.Video) string {
	if v.DefaultAudioLanguage != "" {
		return strings.ToLower(v.DefaultAudioLanguage)
	}
	return strings.ToLower(v.DefaultLanguage)
}

// looksEnglish is a cheap stand-in for language detection: the share of
// ASCII characters must reach the configured threshold. Threshold 1.0
// means strictly all-ASCII.
func (f *Fetcher) looksEnglish(text string) bool {
	if text == "" {
		return false
	}
	total, ascii := 0, 0
	for _, r := range text {
		total++
		if r < 128 {
			ascii++
		}
	}
	return float64(ascii)/float64(total) >= f.ASCIIThreshold
}

// collectComments fans out comment retrieval across a bounded worker pool,
// filters and tags each video's comments, and keeps only videos that ended
// up with slang-bearing comments.
func (f *Fetcher) collectComments(ctx context.Context, videos []youtube.Video, commentsPerShort int, terms []string) ([]shorts.Video, error) {
	if len(videos) == 0 {
		return nil, nil
	}

	workers := f.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	tagged := make([]shorts.Video, len(videos))
	kept := make([]bool, len(videos))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		quotaErr error
	)
	sem := make(chan struct{}, workers)

	for i, v := range videos {
		wg.Add(1)
		go func(i int, v youtube.Video) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			aborted := quotaErr != nil
			mu.Unlock()
			if aborted || ctx.Err() != nil {
				return
			}

			raw, err := f.api.Comments(ctx, v.ID, commentsPerShort)
			if err != nil {
				if errors.Is(err, internalerr.ErrQuotaExceeded) {
					mu.Lock()
					quotaErr = err
					mu.Unlock()
					return
				}
				f.log.WithField("video", v.ID).WithError(err).Warn("comment fetch failed, skipping video")
				return
			}

			slangComments := f.tagComments(raw, terms)
			if len(slangComments) == 0 {
				return
			}
			tagged[i] = toVideo(v, slangComments)
			kept[i] = true
		}(i, v)
	}
	wg.Wait()

	if quotaErr != nil {
		return nil, quotaErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []shorts.Video
	for i := range tagged {
		if kept[i] {
			out = append(out, tagged[i])
		}
	}
	return out, nil
}

func (f *Fetcher) tagComments(raw []youtube.Comment, terms []string) []shorts.Comment {
	var out []shorts.Comment
	for _, c := range raw {
		if !f.looksEnglish(c.Text) {
			continue
		}
		detected := match.Detect(c.Text, terms)
		if len(detected) == 0 {
			continue
		}
		out = append(out, shorts.Comment{
			ID:            c.ID,
			Text:          c.Text,
			Author:        c.Author,
			LikeCount:     c.LikeCount,
			PublishedAt:   c.PublishedAt,
			ReplyCount:    c.ReplyCount,
			DetectedTerms: detected,
		})
	}
	return out
}

func toVideo(v youtube.Video, comments []shorts.Comment) shorts.Video {
	return shorts.Video{
		ID:              v.ID,
		Title:           v.Title,
		Description:     v.Description,
		Channel:         v.ChannelTitle,
		Thumbnail:       v.ThumbnailURL,
		URL:             "https://www.youtube.com/shorts/" + v.ID,
		DurationSeconds: v.DurationSeconds,
		ViewCount:       v.ViewCount,
		LikeCount:       v.LikeCount,
		CommentCount:    v.CommentCount,
		Comments:        comments,
	}
}

func (f *Fetcher) shuffle(videos []shorts.Video) {
	if len(videos) < 2 {
		return
	}
	if f.rng != nil {
		f.rng.Shuffle(len(videos), func(i, j int) { videos[i], videos[j] = videos[j], videos[i] })
		return
	}
	rand.Shuffle(len(videos), func(i, j int) { videos[i], videos[j] = videos[j], videos[i] })
}
