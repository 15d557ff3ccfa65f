package sentiment

import (
	"strings"
	"sync/atomic"
)

// Label 表示一条消息的情绪分类结果。
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
	Crisis   Label = "crisis"
)

// Valid reports whether l is one of the four known labels.
func (l Label) Valid() bool {
	switch l {
	case Positive, Neutral, Negative, Crisis:
		return true
	default:
		return false
	}
}

// Classifier maps free text to a Label using substring keyword matching.
// It is safe for concurrent use; Reload swaps the keyword sets atomically so
// a single Classify call always sees one consistent lexicon.
type Classifier struct {
	keywords atomic.Pointer[keywordSet]
}

type keywordSet struct {
	crisis   []string
	positive []string
	negative []string
}

// NewClassifier builds a classifier from the supplied lexicon. Keywords are
// lower-cased and blank entries dropped.
func NewClassifier(lex Lexicon) *Classifier {
	c := &Classifier{}
	c.keywords.Store(newKeywordSet(lex))
	return c
}

func newKeywordSet(lex Lexicon) *keywordSet {
	return &keywordSet{
		crisis:   normalizeKeywords(lex.Crisis),
		positive: normalizeKeywords(lex.Positive),
		negative: normalizeKeywords(lex.Negative),
	}
}

// Reload replaces the keyword sets. A lexicon without crisis keywords is
// rejected and the current sets stay in place.
func (c *Classifier) Reload(lex Lexicon) error {
	set := newKeywordSet(lex)
	if len(set.crisis) == 0 {
		return ErrEmptyCrisisList
	}
	c.keywords.Store(set)
	return nil
}

// NewDefaultClassifier 使用内置词表创建分类器。
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultLexicon())
}

// Classify 根据关键词判断情绪。危机词优先级最高，命中即返回 Crisis。
func (c *Classifier) Classify(text string) Label {
	normalized := strings.ToLower(text)
	set := c.keywords.Load()

	if containsAny(normalized, set.crisis) {
		return Crisis
	}

	positive := countMatches(normalized, set.positive)
	negative := countMatches(normalized, set.negative)

	switch {
	case positive > negative:
		return Positive
	case negative > positive:
		return Negative
	default:
		return Neutral
	}
}

// IsCrisis is shorthand for Classify(text) == Crisis.
func (c *Classifier) IsCrisis(text string) bool {
	return containsAny(strings.ToLower(text), c.keywords.Load().crisis)
}

func containsAny(text string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// countMatches counts the keywords present in text, not their repetitions.
func countMatches(text string, keywords []string) int {
	count := 0
	for _, word := range keywords {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

func normalizeKeywords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		out = append(out, word)
	}
	return out
}
