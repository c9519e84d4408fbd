package memcache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/cache"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

func fp(topics ...string) cache.Fingerprint {
	return cache.Fingerprint{Topics: topics, ShortsPerTopic: 5, CommentsPerShort: 30}
}

func videos(ids ...string) []shorts.Video {
	out := make([]shorts.Video, len(ids))
	for i, id := range ids {
		out[i] = shorts.Video{
			ID:       id,
			Title:    "video " + id,
			Comments: []shorts.Comment{{ID: id + "-c", Text: "fr", DetectedTerms: []string{"fr"}}},
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()
	want := videos("v1", "v2")

	if err := c.Put(ctx, fp("gaming"), want, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, fp("gaming"))
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, ok, _ := c.Get(ctx, fp("pets")); ok {
		t.Fatal("fingerprint isolation violated")
	}
}

func TestPutCopiesInput(t *testing.T) {
	c := New()
	ctx := context.Background()
	in := videos("v1")

	if err := c.Put(ctx, fp("gaming"), in, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	in[0].Title = "mutated"
	in[0].Comments[0].Text = "mutated"

	got, _, _ := c.Get(ctx, fp("gaming"))
	if got[0].Title == "mutated" || got[0].Comments[0].Text == "mutated" {
		t.Fatal("cache shares mutable state with caller")
	}
}

func TestExpiryAndEviction(t *testing.T) {
	m := New().(*memCache)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	ctx := context.Background()

	if err := m.Put(ctx, fp("gaming"), videos("v1"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Put(ctx, fp("pets"), videos("v2"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, ok, _ := m.Get(ctx, fp("gaming")); ok {
		t.Fatal("expired entry returned")
	}
	if _, ok, _ := m.Get(ctx, fp("pets")); !ok {
		t.Fatal("fresh entry missing")
	}

	removed, err := m.EvictExpired(ctx)
	if err != nil {
		t.Fatalf("EvictExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	st, _ := m.Stats(ctx)
	if st.Entries != 1 || st.Videos != 1 || st.Comments != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestGetAnyRecencyAndLimit(t *testing.T) {
	m := New().(*memCache)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	ctx := context.Background()

	if err := m.Put(ctx, fp("old"), videos("old1", "old2"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	current = current.Add(time.Minute)
	if err := m.Put(ctx, fp("new"), videos("new1"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := m.GetAny(ctx, 2)
	if err != nil {
		t.Fatalf("GetAny: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit not honored: %d", len(got))
	}
	if got[0].ID != "new1" {
		t.Fatalf("most recent entry should come first, got %s", got[0].ID)
	}
}

func TestGetAnyEmpty(t *testing.T) {
	c := New()
	got, err := c.GetAny(context.Background(), 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty, got %v err %v", got, err)
	}
}
