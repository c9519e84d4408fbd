// Package shorts defines the video and comment records exchanged between
// the fetcher, the cache, and the discovery pipeline.
package shorts

import "time"

// Comment is a single top-level comment fetched from the video platform.
// It is immutable once fetched; DetectedTerms is computed exactly once by
// the text matcher and never mutated afterward.
type Comment struct {
	ID            string    `json:"comment_id"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	LikeCount     int       `json:"like_count"`
	PublishedAt   time.Time `json:"published_at"`
	ReplyCount    int       `json:"reply_count"`
	DetectedTerms []string  `json:"detected_slang,omitempty"`
}

// Video is a short-form video with its slang-bearing comments.
type Video struct {
	ID              string    `json:"video_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Channel         string    `json:"channel"`
	Thumbnail       string    `json:"thumbnail"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	Comments        []Comment `json:"comments_with_slang"`
}

// UniqueTerms returns the distinct slang terms detected across the video's
// comments, in first-seen order.
func (v Video) UniqueTerms() []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, c := range v.Comments {
		for _, t := range c.DetectedTerms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			terms = append(terms, t)
		}
	}
	return terms
}
