// Package verify confirms candidate terms as genuine slang through an
// external LLM collaborator and enriches them with learner-facing metadata.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/candidates"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
)

// Defaults for batching and request sizing.
const (
	DefaultMaxBatch   = 10
	DefaultMaxContext = 150
)

// ChatClient sends one prompt to the external LLM and returns its raw text
// response. internal/llm.Client satisfies this.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Verifier batches candidates into single LLM requests and parses the
// structured response. It never writes to the slang store itself; confirmed
// terms are handed back to the caller.
type Verifier struct {
	client ChatClient
	log    logrus.FieldLogger

	// MaxContext bounds the context example length per candidate to keep
	// request size under external limits.
	MaxContext int
}

// New creates a verifier around the given chat client.
func New(client ChatClient, log logrus.FieldLogger) *Verifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Verifier{client: client, log: log, MaxContext: DefaultMaxContext}
}

// Verify sends one batched request for the given candidates and returns the
// subset the LLM confirmed as genuine slang, enriched with definition,
// category, and example. Unconfirmed candidates are silently dropped. A
// malformed response is logged and treated as zero confirmations; only the
// external call itself failing is returned as an error.
func (v *Verifier) Verify(ctx context.Context, batch []candidates.Candidate) ([]slangstore.Term, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	raw, err := v.client.Chat(ctx, systemPrompt, v.buildPrompt(batch))
	if err != nil {
		return nil, fmt.Errorf("verify batch of %d: %w", len(batch), err)
	}

	result := Parse(raw)
	if result.Unparseable {
		v.log.WithField("response_len", len(result.Raw)).
			Warn("unparseable verification response, dropping batch")
		return nil, nil
	}

	// Only keep confirmations that correspond to a submitted candidate;
	// the model occasionally invents extras.
	submitted := make(map[string]struct{}, len(batch))
	for _, c := range batch {
		submitted[strings.ToLower(c.Text)] = struct{}{}
	}
	var confirmed []slangstore.Term
	for _, term := range result.Confirmed {
		if _, ok := submitted[strings.ToLower(term.Term)]; ok {
			confirmed = append(confirmed, term)
		}
	}
	return confirmed, nil
}

const systemPrompt = "You are a slang lexicographer for a language-learning app. " +
	"You judge whether candidate words from social-media comments are genuine " +
	"internet or youth slang, and define the ones that are. Respond only with JSON."

func (v *Verifier) buildPrompt(batch []candidates.Candidate) string {
	maxContext := v.MaxContext
	if maxContext <= 0 {
		maxContext = DefaultMaxContext
	}

	var b strings.Builder
	b.WriteString("Candidate terms from short-video comments:\n\n")
	for i, c := range batch {
		context := ""
		if len(c.Samples) > 0 {
			context = truncate(c.Samples[0], maxContext)
		}
		fmt.Fprintf(&b, "%d. %q (seen in: %q)\n", i+1, c.Text, context)
	}
	b.WriteString("\nFor each candidate that is genuine informal slang (not a normal " +
		"English word, proper name, or brand), include it in the response. Omit the rest.\n" +
		"Respond with JSON exactly like:\n" +
		`{"confirmed": [{"term": "...", "definition": "max 12 words", ` +
		`"category": "positive|negative|agreement|descriptive|expression", "example": "short sentence"}]}`)
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
