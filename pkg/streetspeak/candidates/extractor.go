// Package candidates extracts frequency-ranked unigram and bigram slang
// candidates from a comment corpus, excluding known terms and common words.
package candidates

import (
	"sort"
	"strings"
	"unicode"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/match"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
)

// Defaults for extraction thresholds.
const (
	DefaultMinFrequency   = 7
	DefaultMaxCandidates  = 30
	DefaultMinUnigramLen  = 3
	DefaultMaxUnigramLen  = 11
	DefaultMaxSamples     = 5
)

// Candidate is a transient, unverified token or phrase pending LLM
// confirmation. Only promoted terms are ever persisted.
type Candidate struct {
	Text      string
	Frequency int
	// Samples holds up to MaxSamples source comment texts in their
	// original casing, for LLM context.
	Samples []string
}

// Config tunes the extractor.
type Config struct {
	MinFrequency  int
	MaxCandidates int
	MinUnigramLen int
	MaxUnigramLen int
	MaxSamples    int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MinFrequency:  DefaultMinFrequency,
		MaxCandidates: DefaultMaxCandidates,
		MinUnigramLen: DefaultMinUnigramLen,
		MaxUnigramLen: DefaultMaxUnigramLen,
		MaxSamples:    DefaultMaxSamples,
	}
}

// Extractor finds candidate terms. Construct once with the common-word and
// common-bigram exclusion lists; Extract is then safe to call repeatedly.
type Extractor struct {
	cfg           Config
	commonWords   map[string]struct{}
	commonBigrams map[string]struct{}
}

// NewExtractor creates an extractor with the given exclusion lists.
func NewExtractor(cfg Config, commonWords, commonBigrams []string) *Extractor {
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = DefaultMinFrequency
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.MinUnigramLen <= 0 {
		cfg.MinUnigramLen = DefaultMinUnigramLen
	}
	if cfg.MaxUnigramLen <= 0 {
		cfg.MaxUnigramLen = DefaultMaxUnigramLen
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}

	words := make(map[string]struct{}, len(commonWords))
	for _, w := range commonWords {
		words[strings.ToLower(w)] = struct{}{}
	}
	bigrams := make(map[string]struct{}, len(commonBigrams))
	for _, b := range commonBigrams {
		bigrams[strings.Join(strings.Fields(strings.ToLower(b)), " ")] = struct{}{}
	}

	return &Extractor{cfg: cfg, commonWords: words, commonBigrams: bigrams}
}

// Extract returns candidates ranked by frequency. A candidate's frequency is
// the number of distinct comments containing it, which keeps one spammy
// comment from promoting a term on its own. Output order is deterministic:
// frequency descending, ties broken by first-seen order. Empty input yields
// an empty result.
func (e *Extractor) Extract(comments []shorts.Comment, knownTerms []string) []Candidate {
	known := make(map[string]struct{}, len(knownTerms))
	for _, t := range knownTerms {
		known[strings.ToLower(t)] = struct{}{}
	}

	counts := make(map[string]*Candidate)
	var order []string

	for _, comment := range comments {
		tokens := match.Tokenize(comment.Text)

		// Collect this comment's candidates in token order so first-seen
		// tie-breaking stays deterministic.
		var inComment []string
		seen := make(map[string]struct{})
		add := func(text string) {
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			inComment = append(inComment, text)
		}

		for i, tok := range tokens {
			if e.keepUnigram(tok, known) {
				add(tok)
			}
			if i+1 < len(tokens) {
				bigram := tok + " " + tokens[i+1]
				if e.keepBigram(tok, tokens[i+1], bigram, known) {
					add(bigram)
				}
			}
		}

		for _, text := range inComment {
			cand, ok := counts[text]
			if !ok {
				cand = &Candidate{Text: text}
				counts[text] = cand
				order = append(order, text)
			}
			cand.Frequency++
			if len(cand.Samples) < e.cfg.MaxSamples {
				cand.Samples = append(cand.Samples, comment.Text)
			}
		}
	}

	// Rebuild first-seen order; map iteration above is unordered so the
	// tie-break must come from the order slice, not insertion.
	firstSeen := make(map[string]int, len(order))
	for i, text := range order {
		firstSeen[text] = i
	}

	var result []Candidate
	for _, text := range order {
		if cand := counts[text]; cand.Frequency >= e.cfg.MinFrequency {
			result = append(result, *cand)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Frequency != result[j].Frequency {
			return result[i].Frequency > result[j].Frequency
		}
		return firstSeen[result[i].Text] < firstSeen[result[j].Text]
	})

	if len(result) > e.cfg.MaxCandidates {
		result = result[:e.cfg.MaxCandidates]
	}
	return result
}

func (e *Extractor) keepUnigram(tok string, known map[string]struct{}) bool {
	if _, ok := known[tok]; ok {
		return false
	}
	if _, ok := e.commonWords[tok]; ok {
		return false
	}
	n := len([]rune(tok))
	if n < e.cfg.MinUnigramLen || n > e.cfg.MaxUnigramLen {
		return false
	}
	if isNumericOnly(tok) {
		return false
	}
	return true
}

func (e *Extractor) keepBigram(first, second, bigram string, known map[string]struct{}) bool {
	if _, ok := known[bigram]; ok {
		return false
	}
	if _, ok := e.commonWords[first]; ok {
		return false
	}
	if _, ok := e.commonWords[second]; ok {
		return false
	}
	if _, ok := e.commonBigrams[bigram]; ok {
		return false
	}
	return true
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
