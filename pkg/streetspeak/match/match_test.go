package match

import (
	"reflect"
	"testing"
)

func TestDetectWholeWord(t *testing.T) {
	terms := []string{"cap", "sus", "bet"}

	found := Detect("no cap that was sus", terms)
	want := []string{"cap", "sus"}
	if !reflect.DeepEqual(found, want) {
		t.Errorf("Detect = %v, want %v", found, want)
	}
}

func TestDetectRejectsEmbeddedSubstring(t *testing.T) {
	// "cap" inside "capable" is not boundary-aligned
	found := Detect("she is very capable", []string{"cap"})
	if len(found) != 0 {
		t.Errorf("'cap' should not match inside 'capable', got %v", found)
	}

	found = Detect("a sustained effort", []string{"sus"})
	if len(found) != 0 {
		t.Errorf("'sus' should not match inside 'sustained', got %v", found)
	}
}

func TestDetectCaseInsensitive(t *testing.T) {
	found := Detect("BUSSIN fr FR", []string{"bussin", "fr"})
	if len(found) != 2 {
		t.Errorf("expected case-insensitive match, got %v", found)
	}
}

func TestDetectMultiWordPhrase(t *testing.T) {
	terms := []string{"hits different"}

	found := Detect("this really hits different today", terms)
	if len(found) != 1 || found[0] != "hits different" {
		t.Errorf("expected phrase match, got %v", found)
	}

	// Word-boundary failure on the second word
	found = Detect("hits differently", terms)
	if len(found) != 0 {
		t.Errorf("'hits differently' should not match, got %v", found)
	}

	// Non-contiguous occurrence must not match
	found = Detect("hits me so different", terms)
	if len(found) != 0 {
		t.Errorf("non-contiguous phrase should not match, got %v", found)
	}
}

func TestDetectPunctuationBoundaries(t *testing.T) {
	found := Detect("bussin! no-cap, fr.", []string{"bussin", "cap", "fr"})
	if len(found) != 3 {
		t.Errorf("punctuation should act as a boundary, got %v", found)
	}
}

func TestDetectResultIsSubsetOfTerms(t *testing.T) {
	terms := []string{"fr", "ngl", "goat"}
	found := Detect("fr fr this is the goat ngl", terms)

	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	for _, f := range found {
		if _, ok := set[f]; !ok {
			t.Errorf("Detect returned %q which is not in the term set", f)
		}
	}
}

func TestDetectEmptyInputs(t *testing.T) {
	if got := Detect("some text", nil); got != nil {
		t.Errorf("empty term set should yield nil, got %v", got)
	}
	if got := Detect("", []string{"fr"}); got != nil {
		t.Errorf("empty text should yield nil, got %v", got)
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("This is BUSSIN, fr!")
	want := []string{"this", "is", "bussin", "fr"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokenize = %v, want %v", tokens, want)
	}
}
