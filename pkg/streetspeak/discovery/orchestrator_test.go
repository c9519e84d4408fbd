package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/candidates"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
)

// stubVerifier confirms every candidate whose text is in its approve set.
type stubVerifier struct {
	approve map[string]bool
	calls   int
	fail    map[int]bool // batches (by call index) that error out
}

func (s *stubVerifier) Verify(_ context.Context, batch []candidates.Candidate) ([]slangstore.Term, error) {
	call := s.calls
	s.calls++
	if s.fail[call] {
		return nil, errors.New("simulated verifier outage")
	}
	var terms []slangstore.Term
	for _, c := range batch {
		if s.approve[c.Text] {
			terms = append(terms, slangstore.Term{
				Term:       c.Text,
				Definition: "def of " + c.Text,
				Category:   slangstore.CategoryExpression,
				Example:    "example " + c.Text,
			})
		}
	}
	return terms, nil
}

// filler words used by the test corpora; passing them as common words keeps
// unwanted unigrams and bigrams out of the candidate set.
var testCommonWords = []string{
	"this", "is", "yes", "wow", "nice", "totally", "vibes", "here", "honestly",
}

func newTestOrchestrator(t *testing.T, v Verifier) (*Orchestrator, *slangstore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slang.json")
	store, err := slangstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	extractor := candidates.NewExtractor(candidates.DefaultConfig(), testCommonWords, nil)
	o := New(extractor, v, store, nil)
	o.BatchDelay = 0
	return o, store, path
}

func bussinCorpus() []shorts.Comment {
	texts := []string{
		"this is bussin ngl", "bussin fr", "bussin omg", "bussin yes",
		"bussin!", "bussin wow", "bussin nice",
	}
	out := make([]shorts.Comment, len(texts))
	for i, txt := range texts {
		out[i] = shorts.Comment{ID: fmt.Sprintf("c%d", i), Text: txt}
	}
	return out
}

// wideCorpus yields n qualifying candidates, each appearing in 8 comments.
func wideCorpus(n int) ([]shorts.Comment, map[string]bool) {
	approve := make(map[string]bool)
	var comments []shorts.Comment
	for i := 0; i < n; i++ {
		word := fmt.Sprintf("slang%02d", i)
		approve[word] = true
		for j := 0; j < 8; j++ {
			comments = append(comments, shorts.Comment{
				ID:   fmt.Sprintf("c%d-%d", i, j),
				Text: fmt.Sprintf("totally %s vibes here honestly", word),
			})
		}
	}
	return comments, approve
}

func TestRunPromotesConfirmedTerm(t *testing.T) {
	v := &stubVerifier{approve: map[string]bool{"bussin": true}}
	o, store, path := newTestOrchestrator(t, v)

	// "bussin" is seeded; delete it so the corpus can rediscover it.
	if err := store.Delete("bussin"); err != nil {
		t.Fatal(err)
	}

	terms, err := o.Run(context.Background(), bussinCorpus())
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 1 || terms[0].Term != "bussin" {
		t.Fatalf("Run = %+v, want exactly the confirmed 'bussin'", terms)
	}
	if !store.Has("bussin") {
		t.Error("confirmed term should be added to the store")
	}

	// Persisted after the batch: a reopened store sees it.
	reopened, err := slangstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.Has("bussin") {
		t.Error("confirmed term should be persisted to disk")
	}
}

func TestRunIdempotent(t *testing.T) {
	v := &stubVerifier{approve: map[string]bool{"bussin": true}}
	o, store, _ := newTestOrchestrator(t, v)
	if err := store.Delete("bussin"); err != nil {
		t.Fatal(err)
	}

	first, err := o.Run(context.Background(), bussinCorpus())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("first run confirmed %d terms, want 1", len(first))
	}

	// Second run over the same corpus: "bussin" is now known, so it is
	// excluded from candidates and nothing new is confirmed.
	second, err := o.Run(context.Background(), bussinCorpus())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("second run should confirm nothing, got %+v", second)
	}
}

func TestRunContinuesAfterBatchFailure(t *testing.T) {
	// 12 candidates span two batches of 10; the first batch fails.
	comments, approve := wideCorpus(12)
	v := &stubVerifier{approve: approve, fail: map[int]bool{0: true}}
	o, store, _ := newTestOrchestrator(t, v)

	terms, err := o.Run(context.Background(), comments)
	if err != nil {
		t.Fatal(err)
	}
	if v.calls != 2 {
		t.Fatalf("expected 2 verification batches, got %d", v.calls)
	}
	// Only the surviving batch's terms land.
	if len(terms) != 2 {
		t.Errorf("confirmed %d terms, want 2 from the surviving batch", len(terms))
	}
	for _, term := range terms {
		if !store.Has(term.Term) {
			t.Errorf("confirmed term %q missing from store", term.Term)
		}
	}
}

func TestRunSleepsBetweenBatches(t *testing.T) {
	comments, approve := wideCorpus(12)
	v := &stubVerifier{approve: approve}
	o, _, _ := newTestOrchestrator(t, v)
	o.BatchDelay = time.Second

	var slept []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	if _, err := o.Run(context.Background(), comments); err != nil {
		t.Fatal(err)
	}
	// Two batches: exactly one inter-batch delay.
	if len(slept) != 1 || slept[0] != time.Second {
		t.Errorf("slept = %v, want one 1s delay between batches", slept)
	}
}

func TestRunEmptyCorpus(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &stubVerifier{})
	terms, err := o.Run(context.Background(), nil)
	if err != nil || terms != nil {
		t.Errorf("empty corpus should be a no-op, got %v, %v", terms, err)
	}
}
