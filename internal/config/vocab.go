package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary configures the candidate extractor's exclusion lists and the
// fetcher's supplemental topic mix.
type Vocabulary struct {
	CommonWords        []string `yaml:"common_words"`
	CommonBigrams      []string `yaml:"common_bigrams"`
	SupplementalTopics []string `yaml:"supplemental_topics"`
}

// LoadVocabulary loads a vocabulary from a YAML file. An empty path returns
// the built-in defaults; fields left empty in the file also fall back to
// the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	defaults := DefaultVocabulary()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	if len(v.CommonWords) == 0 {
		v.CommonWords = defaults.CommonWords
	}
	if len(v.CommonBigrams) == 0 {
		v.CommonBigrams = defaults.CommonBigrams
	}
	if len(v.SupplementalTopics) == 0 {
		v.SupplementalTopics = defaults.SupplementalTopics
	}
	return &v, nil
}

// DefaultVocabulary returns the built-in lists: frequent English words that
// are definitely not slang, bigrams of mundane phrasing, and the stock
// topic mix.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		CommonWords: []string{
			"the", "is", "at", "which", "on", "a", "an", "as", "are", "was", "were",
			"been", "be", "have", "has", "had", "do", "does", "did", "will", "would",
			"could", "should", "may", "might", "must", "can", "to", "of", "in", "for",
			"with", "from", "by", "about", "like", "through", "over", "before", "after",
			"but", "or", "and", "not", "so", "than", "too", "very", "just", "also",
			"this", "that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
			"me", "him", "her", "us", "them", "my", "your", "his", "its", "our", "their",
			"what", "when", "where", "who", "why", "how", "all", "each", "every", "both",
			"few", "more", "most", "other", "some", "such", "no", "nor", "only", "own",
			"same", "then", "there", "now", "get", "got", "go", "going", "make", "made",
			"know", "think", "see", "look", "want", "give", "use", "find", "tell", "ask",
			"work", "seem", "feel", "try", "leave", "call", "good", "new", "first", "last",
			"long", "great", "little", "old", "right", "big", "high", "small",
			"yeah", "yes", "okay", "ok", "thanks", "thank", "please", "sorry",
			"hello", "hi", "hey", "bye", "wow", "oh", "ah", "um", "uh", "really", "much",
			"even", "back", "still", "way", "well", "down", "up", "out", "if",
		},
		CommonBigrams: []string{
			"right now", "thank you", "love this", "so good", "this video",
			"the best", "so funny", "oh my", "my god", "every time",
		},
		SupplementalTopics: []string{"gaming", "food review", "funny moments", "dance", "pets"},
	}
}
