package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
)

// DefaultBaseURL is the public Data API v3 endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client talks to the YouTube Data API v3. Zero-value optional fields fall
// back to sane defaults; tests point BaseURL at an httptest server.
type Client struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
	Limiter    *rate.Limiter

	// MaxRetries bounds retry attempts for transient failures (network
	// errors and 5xx responses). Quota exhaustion is never retried.
	MaxRetries int
	RetryDelay time.Duration

	Log logrus.FieldLogger
}

// New returns a client with a conservative request rate. The public API
// tolerates far more, but shorts fetching fans out across many videos and
// a steady trickle keeps quota burn predictable.
func New(apiKey string, log logrus.FieldLogger) *Client {
	return &Client{
		APIKey:     apiKey,
		Limiter:    rate.NewLimiter(rate.Limit(8), 4),
		MaxRetries: 2,
		Log:        log,
	}
}

// SearchResult is one hit from a short-form video search.
type SearchResult struct {
	VideoID string
	Title   string
}

// Video is the metadata needed to judge eligibility and present a result.
type Video struct {
	ID                   string
	Title                string
	Description          string
	ChannelTitle         string
	ThumbnailURL         string
	DurationSeconds      int
	ViewCount            int64
	LikeCount            int64
	CommentCount         int64
	Embeddable           bool
	DefaultLanguage      string
	DefaultAudioLanguage string
}

// Comment is a top-level comment on a video.
type Comment struct {
	ID          string
	Text        string
	Author      string
	LikeCount   int
	ReplyCount  int
	PublishedAt time.Time
}

// Search returns short-form video hits for the query, ordered by view count,
// plus the token for the next results page ("" when exhausted).
func (c *Client) Search(ctx context.Context, query string, maxResults int, pageToken string) ([]SearchResult, string, error) {
	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoDuration", "short")
	params.Set("order", "viewCount")
	params.Set("relevanceLanguage", "en")
	params.Set("regionCode", "US")
	params.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var payload struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, "search", params, &payload); err != nil {
		return nil, "", err
	}

	results := make([]SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{VideoID: item.ID.VideoID, Title: item.Snippet.Title})
	}
	return results, payload.NextPageToken, nil
}

// Videos fetches full metadata for up to 50 video IDs in one request.
func (c *Client) Videos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics,status")
	params.Set("id", strings.Join(ids, ","))

	var payload struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title                string          `json:"title"`
				Description          string          `json:"description"`
				ChannelTitle         string          `json:"channelTitle"`
				Thumbnails           map[string]thumb `json:"thumbnails"`
				DefaultLanguage      string          `json:"defaultLanguage"`
				DefaultAudioLanguage string          `json:"defaultAudioLanguage"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
			Status struct {
				Embeddable bool `json:"embeddable"`
			} `json:"status"`
		} `json:"items"`
	}
	if err := c.get(ctx, "videos", params, &payload); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(payload.Items))
	for _, item := range payload.Items {
		videos = append(videos, Video{
			ID:                   item.ID,
			Title:                item.Snippet.Title,
			Description:          item.Snippet.Description,
			ChannelTitle:         item.Snippet.ChannelTitle,
			ThumbnailURL:         bestThumbnail(item.Snippet.Thumbnails),
			DurationSeconds:      ParseDuration(item.ContentDetails.Duration),
			ViewCount:            parseCount(item.Statistics.ViewCount),
			LikeCount:            parseCount(item.Statistics.LikeCount),
			CommentCount:         parseCount(item.Statistics.CommentCount),
			Embeddable:           item.Status.Embeddable,
			DefaultLanguage:      item.Snippet.DefaultLanguage,
			DefaultAudioLanguage: item.Snippet.DefaultAudioLanguage,
		})
	}
	return videos, nil
}

// Comments fetches the most relevant top-level comments for a video.
func (c *Client) Comments(ctx context.Context, videoID string, maxResults int) ([]Comment, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("textFormat", "plainText")
	params.Set("order", "relevance")

	var payload struct {
		Items []struct {
			Snippet struct {
				TotalReplyCount int `json:"totalReplyCount"`
				TopLevelComment struct {
					ID      string `json:"id"`
					Snippet struct {
						TextDisplay       string `json:"textDisplay"`
						AuthorDisplayName string `json:"authorDisplayName"`
						LikeCount         int    `json:"likeCount"`
						PublishedAt       string `json:"publishedAt"`
					} `json:"snippet"`
				} `json:"topLevelComment"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, "commentThreads", params, &payload); err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(payload.Items))
	for _, item := range payload.Items {
		top := item.Snippet.TopLevelComment
		text := cleanText(top.Snippet.TextDisplay)
		if text == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, top.Snippet.PublishedAt)
		comments = append(comments, Comment{
			ID:          top.ID,
			Text:        text,
			Author:      top.Snippet.AuthorDisplayName,
			LikeCount:   top.Snippet.LikeCount,
			ReplyCount:  item.Snippet.TotalReplyCount,
			PublishedAt: published,
		})
	}
	return comments, nil
}

type thumb struct {
	URL string `json:"url"`
}

// bestThumbnail picks the highest-resolution variant the API provided.
func bestThumbnail(thumbs map[string]thumb) string {
	for _, key := range []string{"maxres", "high", "medium", "default"} {
		if t, ok := thumbs[key]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (e *apiError) quotaExhausted() bool {
	for _, inner := range e.Error.Errors {
		switch inner.Reason {
		case "quotaExceeded", "rateLimitExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	params.Set("key", c.APIKey)
	endpoint := c.baseURL() + "/" + resource + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay() * time.Duration(attempt)):
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			lastErr = fmt.Errorf("youtube %s: %w", resource, err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("youtube %s: read body: %w", resource, err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("youtube %s: decode: %w", resource, err)
			}
			return nil
		}

		var ae apiError
		_ = json.Unmarshal(body, &ae)
		if resp.StatusCode == http.StatusForbidden && ae.quotaExhausted() {
			return fmt.Errorf("youtube %s: %w", resource, internalerr.ErrQuotaExceeded)
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("youtube %s: HTTP %d", resource, resp.StatusCode)
			if c.Log != nil {
				c.Log.WithField("resource", resource).WithField("status", resp.StatusCode).Warn("transient API failure, retrying")
			}
			continue
		}
		if ae.Error.Message != "" {
			return fmt.Errorf("youtube %s: HTTP %d: %s", resource, resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("youtube %s: HTTP %d", resource, resp.StatusCode)
	}
	return lastErr
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 8 * time.Second}
}

func (c *Client) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 0
}

func (c *Client) retryDelay() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return 500 * time.Millisecond
}

// cleanText strips residual HTML markup and entities from comment text. The
// API is asked for plain text, but older comments still surface tags.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)
	return strings.TrimSpace(buf.String())
}
