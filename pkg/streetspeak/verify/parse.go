package verify

import (
	"encoding/json"
	"strings"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
)

// ParseResult is the tagged outcome of decoding an LLM verification
// response: either a list of confirmed terms, or the raw text when no
// structured list could be located.
type ParseResult struct {
	Confirmed   []slangstore.Term
	Unparseable bool
	Raw         string
}

type confirmedEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
	Example    string `json:"example"`
}

// Parse decodes a verification response. The response is contractually a
// JSON object with a list of confirmed entries, but the list may sit under
// varying key names, arrive as a bare array, or be wrapped in markdown
// fences. Parse locates the first array-valued field heuristically; all
// fallback logic lives here, at the adapter boundary.
func Parse(raw string) ParseResult {
	cleaned := stripFences(raw)

	// Bare array response.
	if entries, ok := decodeEntries([]byte(cleaned)); ok {
		return ParseResult{Confirmed: toTerms(entries)}
	}

	fields, ok := objectFields([]byte(cleaned))
	if !ok {
		return ParseResult{Unparseable: true, Raw: raw}
	}

	// Prefer the documented key, then fall back to the first list-valued
	// field in document order.
	for _, f := range fields {
		if f.key != "confirmed" {
			continue
		}
		if entries, ok := decodeEntries(f.raw); ok {
			return ParseResult{Confirmed: toTerms(entries)}
		}
	}
	for _, f := range fields {
		if entries, ok := decodeEntries(f.raw); ok {
			return ParseResult{Confirmed: toTerms(entries)}
		}
	}
	return ParseResult{Unparseable: true, Raw: raw}
}

type field struct {
	key string
	raw json.RawMessage
}

// objectFields returns the top-level fields of a JSON object in document
// order. A map decode would randomize field order across runs.
func objectFields(data []byte) ([]field, bool) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}
	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}
		fields = append(fields, field{key: key, raw: raw})
	}
	return fields, true
}

func decodeEntries(data []byte) ([]confirmedEntry, bool) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var entries []confirmedEntry
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func toTerms(entries []confirmedEntry) []slangstore.Term {
	var terms []slangstore.Term
	for _, e := range entries {
		term := strings.TrimSpace(strings.ToLower(e.Term))
		if term == "" {
			continue
		}
		definition := strings.TrimSpace(e.Definition)
		if definition == "" {
			definition = "Popular slang term used in casual conversation"
		}
		example := strings.TrimSpace(e.Example)
		if example == "" {
			example = "That's so " + term
		}
		terms = append(terms, slangstore.Term{
			Term:       term,
			Definition: definition,
			Category:   slangstore.ParseCategory(e.Category),
			Example:    example,
		})
	}
	return terms
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", etc.) if present.
		first := strings.TrimSpace(s[:idx])
		if first == "" || isWord(first) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isWord(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
