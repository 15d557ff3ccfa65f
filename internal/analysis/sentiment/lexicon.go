package sentiment

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCrisisList is returned when a lexicon file disables crisis detection.
var ErrEmptyCrisisList = errors.New("lexicon must contain at least one crisis keyword")

// Lexicon holds the keyword sets the classifier matches against.
type Lexicon struct {
	Crisis   []string `yaml:"crisis" json:"crisis"`
	Positive []string `yaml:"positive" json:"positive"`
	Negative []string `yaml:"negative" json:"negative"`
}

// DefaultLexicon returns a fresh copy of the built-in keyword sets.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Crisis: []string{
			"suicide", "kill myself", "end it all", "hurt myself", "self harm", "die",
			"hopeless", "worthless", "better off dead", "cutting", "overdose",
			"want to die", "no point living", "end my life", "harm myself",
		},
		Positive: []string{
			"happy", "good", "great", "wonderful", "excited", "grateful", "thankful",
			"accomplished", "proud", "calm", "peaceful", "loved", "better", "improving",
		},
		Negative: []string{
			"sad", "depressed", "anxious", "worried", "stressed", "overwhelmed", "lonely",
			"tired", "exhausted", "angry", "frustrated", "scared", "upset", "down",
		},
	}
}

// LoadLexicon 从 YAML 文件读取词表。文件中缺省的分组沿用内置词表。
func LoadLexicon(path string) (Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(raw)
}

// ParseLexicon decodes a YAML lexicon. Groups that are absent from the
// document keep their default keywords; an explicitly empty crisis list is
// rejected.
func ParseLexicon(raw []byte) (Lexicon, error) {
	var doc struct {
		Crisis   *[]string `yaml:"crisis"`
		Positive *[]string `yaml:"positive"`
		Negative *[]string `yaml:"negative"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}

	lex := DefaultLexicon()
	if doc.Crisis != nil {
		lex.Crisis = *doc.Crisis
	}
	if doc.Positive != nil {
		lex.Positive = *doc.Positive
	}
	if doc.Negative != nil {
		lex.Negative = *doc.Negative
	}

	if len(normalizeKeywords(lex.Crisis)) == 0 {
		return Lexicon{}, ErrEmptyCrisisList
	}
	return lex, nil
}
