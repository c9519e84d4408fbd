package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{APIKey: "test-key", BaseURL: srv.URL}
}

func TestSearch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Fatalf("missing api key")
		}
		if q.Get("videoDuration") != "short" || q.Get("order") != "viewCount" {
			t.Fatalf("unexpected search params: %v", q)
		}
		if q.Get("regionCode") != "US" || q.Get("relevanceLanguage") != "en" {
			t.Fatalf("unexpected locale params: %v", q)
		}
		fmt.Fprint(w, `{
			"nextPageToken": "page2",
			"items": [
				{"id": {"videoId": "abc"}, "snippet": {"title": "First"}},
				{"id": {"videoId": ""}, "snippet": {"title": "Channel hit"}},
				{"id": {"videoId": "def"}, "snippet": {"title": "Second"}}
			]
		}`)
	}))

	results, next, err := client.Search(context.Background(), "slang shorts", 25, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if next != "page2" {
		t.Fatalf("next page token = %q", next)
	}
	if len(results) != 2 || results[0].VideoID != "abc" || results[1].VideoID != "def" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchPageToken(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pageToken"); got != "page2" {
			t.Fatalf("pageToken = %q", got)
		}
		fmt.Fprint(w, `{"items": []}`)
	}))
	if _, _, err := client.Search(context.Background(), "q", 10, "page2"); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestVideos(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "abc,def" {
			t.Fatalf("id param = %q", got)
		}
		fmt.Fprint(w, `{
			"items": [{
				"id": "abc",
				"snippet": {
					"title": "Skibidi compilation",
					"description": "desc",
					"channelTitle": "Shorts Central",
					"thumbnails": {
						"default": {"url": "https://img/default.jpg"},
						"high": {"url": "https://img/high.jpg"}
					},
					"defaultAudioLanguage": "en-US"
				},
				"contentDetails": {"duration": "PT45S"},
				"statistics": {"viewCount": "120000", "likeCount": "900", "commentCount": "150"},
				"status": {"embeddable": true}
			}]
		}`)
	}))

	videos, err := client.Videos(context.Background(), []string{"abc", "def"})
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}
	v := videos[0]
	if v.DurationSeconds != 45 {
		t.Fatalf("duration = %d", v.DurationSeconds)
	}
	if v.ViewCount != 120000 || v.CommentCount != 150 {
		t.Fatalf("counts not parsed: %+v", v)
	}
	if v.ThumbnailURL != "https://img/high.jpg" {
		t.Fatalf("thumbnail = %s", v.ThumbnailURL)
	}
	if !v.Embeddable || v.DefaultAudioLanguage != "en-US" {
		t.Fatalf("status fields: %+v", v)
	}
}

func TestVideosEmptyIDs(t *testing.T) {
	client := &Client{APIKey: "k", BaseURL: "http://unused.invalid"}
	videos, err := client.Videos(context.Background(), nil)
	if err != nil || videos != nil {
		t.Fatalf("expected no-op, got %v %v", videos, err)
	}
}

func TestComments(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/commentThreads" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("textFormat") != "plainText" || q.Get("order") != "relevance" {
			t.Fatalf("unexpected comment params: %v", q)
		}
		fmt.Fprint(w, `{
			"items": [
				{"snippet": {"totalReplyCount": 3, "topLevelComment": {"id": "c1", "snippet": {
					"textDisplay": "this is bussin fr", "authorDisplayName": "viewer1",
					"likeCount": 12, "publishedAt": "2024-05-01T10:00:00Z"
				}}}},
				{"snippet": {"topLevelComment": {"id": "c2", "snippet": {
					"textDisplay": "no &lt;b&gt;cap&lt;/b&gt;", "authorDisplayName": "viewer2"
				}}}},
				{"snippet": {"topLevelComment": {"id": "c3", "snippet": {"textDisplay": "   "}}}}
			]
		}`)
	}))

	comments, err := client.Comments(context.Background(), "abc", 100)
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Text != "this is bussin fr" || comments[0].ReplyCount != 3 {
		t.Fatalf("first comment: %+v", comments[0])
	}
	if comments[1].Text != "no cap" {
		t.Fatalf("HTML not stripped: %q", comments[1].Text)
	}
}

func TestQuotaExceeded(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "quota", "errors": [{"reason": "quotaExceeded"}]}}`)
	}))
	_, _, err := client.Search(context.Background(), "q", 10, "")
	if !errors.Is(err, internalerr.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestForbiddenWithoutQuotaReason(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "comments disabled", "errors": [{"reason": "commentsDisabled"}]}}`)
	}))
	_, err := client.Comments(context.Background(), "abc", 10)
	if err == nil || errors.Is(err, internalerr.ErrQuotaExceeded) {
		t.Fatalf("expected plain API error, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"items": []}`)
	}))
	client.MaxRetries = 2
	client.RetryDelay = 1

	if _, _, err := client.Search(context.Background(), "q", 10, ""); err != nil {
		t.Fatalf("Search after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetriesExhausted(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	client.MaxRetries = 2
	client.RetryDelay = 1

	if _, _, err := client.Search(context.Background(), "q", 10, ""); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"PT45S", 45},
		{"PT1M", 60},
		{"PT1M30S", 90},
		{"PT1H2M3S", 3723},
		{"PT0S", 0},
		{"", 0},
		{"P1DT2H", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := ParseDuration(tc.in); got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBestThumbnail(t *testing.T) {
	thumbs := map[string]thumb{
		"default": {URL: "d"},
		"medium":  {URL: "m"},
		"maxres":  {URL: "x"},
	}
	if got := bestThumbnail(thumbs); got != "x" {
		t.Fatalf("bestThumbnail = %q", got)
	}
	delete(thumbs, "maxres")
	if got := bestThumbnail(thumbs); got != "m" {
		t.Fatalf("bestThumbnail = %q", got)
	}
	if got := bestThumbnail(nil); got != "" {
		t.Fatalf("bestThumbnail(nil) = %q", got)
	}
}
