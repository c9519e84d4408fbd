// Package slangstore is the durable, file-backed mapping of approved slang
// terms to their metadata. It exclusively owns the canonical term set.
package slangstore

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
)

// Category classifies how a slang term is used.
type Category string

const (
	CategoryPositive    Category = "positive"
	CategoryNegative    Category = "negative"
	CategoryAgreement   Category = "agreement"
	CategoryDescriptive Category = "descriptive"
	CategoryExpression  Category = "expression"
	CategoryUnknown     Category = "unknown"
)

// ParseCategory maps a free-form category string onto the enum,
// defaulting to CategoryUnknown.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryPositive:
		return CategoryPositive
	case CategoryNegative:
		return CategoryNegative
	case CategoryAgreement:
		return CategoryAgreement
	case CategoryDescriptive:
		return CategoryDescriptive
	case CategoryExpression:
		return CategoryExpression
	default:
		return CategoryUnknown
	}
}

// Term is an approved slang term with its learner-facing metadata.
type Term struct {
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Category   Category `json:"category"`
	Example    string   `json:"example"`
}

// Term length bounds. Single-character entries ("w", "l") are allowed for
// the seed set but discovered terms shorter than 2 runes or longer than
// maxTermLen are rejected as pathological.
const (
	minTermLen = 2
	maxTermLen = 32
)

// Store holds the in-memory term mapping and knows how to persist it.
// It is not safe for concurrent mutation; the design assumes a single
// discovery run at a time.
type Store struct {
	path  string
	terms map[string]Term
}

// Open loads the store from path. A missing file initializes the store with
// the seed term set and persists it; a corrupted file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, terms: make(map[string]Term)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.terms = seedTerms()
		if perr := s.Persist(); perr != nil {
			return nil, fmt.Errorf("seed slang store: %w", perr)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slang store %s: %w", path, err)
	}

	if uerr := json.Unmarshal(data, &s.terms); uerr != nil {
		// Corrupted file: start over rather than fail the process.
		s.terms = make(map[string]Term)
	}
	return s, nil
}

// Has reports whether term is already known (case-insensitive).
func (s *Store) Has(term string) bool {
	_, ok := s.terms[normalize(term)]
	return ok
}

// Get returns the metadata for a term.
func (s *Store) Get(term string) (Term, bool) {
	t, ok := s.terms[normalize(term)]
	return t, ok
}

// Add inserts or replaces a term in the in-memory mapping. The key is
// case-normalized; the entry must be one or two whitespace-separated tokens
// within the length bounds. Add does not persist.
func (s *Store) Add(t Term) error {
	key := normalize(t.Term)
	if key == "" {
		return fmt.Errorf("%w: empty term", internalerr.ErrInvalidInput)
	}
	if n := len(strings.Fields(key)); n < 1 || n > 2 {
		return fmt.Errorf("%w: term %q must be one or two words", internalerr.ErrInvalidInput, t.Term)
	}
	if n := len([]rune(key)); n < minTermLen || n > maxTermLen {
		return fmt.Errorf("%w: term %q length out of bounds", internalerr.ErrInvalidInput, t.Term)
	}
	t.Term = key
	if t.Category == "" {
		t.Category = CategoryUnknown
	}
	s.terms[key] = t
	return nil
}

// Delete removes a term. Returns internalerr.ErrNotFound if absent.
func (s *Store) Delete(term string) error {
	key := normalize(term)
	if _, ok := s.terms[key]; !ok {
		return fmt.Errorf("slang term %q: %w", term, internalerr.ErrNotFound)
	}
	delete(s.terms, key)
	return nil
}

// AllTerms returns the set of known term strings.
func (s *Store) AllTerms() []string {
	terms := make([]string, 0, len(s.terms))
	for t := range s.terms {
		terms = append(terms, t)
	}
	return terms
}

// All returns every stored entry.
func (s *Store) All() []Term {
	out := make([]Term, 0, len(s.terms))
	for _, t := range s.terms {
		out = append(out, t)
	}
	return out
}

// Len returns the number of stored terms.
func (s *Store) Len() int { return len(s.terms) }

// Persist writes the full current mapping to disk, overwriting prior
// contents. It is not an append log.
func (s *Store) Persist() error {
	data, err := json.MarshalIndent(s.terms, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write slang store %s: %w", s.path, err)
	}
	return nil
}

func normalize(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// seedTerms is the starter vocabulary used when no store file exists yet.
func seedTerms() map[string]Term {
	seeds := []Term{
		{Term: "fr", Definition: "For real - emphasizing truth or agreement", Category: CategoryAgreement, Example: "That was amazing fr"},
		{Term: "ngl", Definition: "Not gonna lie - introducing honest opinion", Category: CategoryExpression, Example: "Ngl this is really good"},
		{Term: "bussin", Definition: "Really good, especially about food", Category: CategoryPositive, Example: "These tacos are bussin"},
		{Term: "bruh", Definition: "Expression of disbelief or frustration", Category: CategoryExpression, Example: "Bruh what just happened"},
		{Term: "bet", Definition: "Agreement or confirmation, like saying okay", Category: CategoryAgreement, Example: "Bet, see you there"},
	}
	m := make(map[string]Term, len(seeds))
	for _, t := range seeds {
		m[t.Term] = t
	}
	return m
}
