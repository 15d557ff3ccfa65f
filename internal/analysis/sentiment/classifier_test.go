package sentiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyReferenceSentences(t *testing.T) {
	c := NewDefaultClassifier()

	cases := []struct {
		text string
		want Label
	}{
		{"I am so happy and grateful today", Positive},
		{"I feel anxious and overwhelmed", Negative},
		{"The sky is blue", Neutral},
		{"", Neutral},
		{"I AM SO HAPPY", Positive},
		{"happy but sad", Neutral},
	}

	for _, tc := range cases {
		if got := c.Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyCrisisWinsOverOtherWords(t *testing.T) {
	c := NewDefaultClassifier()

	for _, text := range []string{
		"I feel great but I want to kill myself",
		"I want to end my life",
		"Everything is wonderful, I'm grateful and proud, but I feel HOPELESS",
	} {
		if got := c.Classify(text); got != Crisis {
			t.Fatalf("Classify(%q) = %s, want crisis", text, got)
		}
		if !c.IsCrisis(text) {
			t.Fatalf("IsCrisis(%q) = false", text)
		}
	}
}

func TestClassifyMatchesSubstrings(t *testing.T) {
	c := NewDefaultClassifier()

	// "unhappy" contains "happy"; substring matching is the accepted behaviour.
	if got := c.Classify("I am unhappy"); got != Positive {
		t.Fatalf("expected substring match to yield positive, got %s", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewDefaultClassifier()
	text := "I'm stressed and tired but proud of myself"

	first := c.Classify(text)
	second := c.Classify(text)
	if first != second {
		t.Fatalf("classification changed between calls: %s then %s", first, second)
	}
	if !first.Valid() {
		t.Fatalf("unexpected label %q", first)
	}
}

func TestClassifierUsesSuppliedLexicon(t *testing.T) {
	c := NewClassifier(Lexicon{
		Crisis:   []string{"  Give Up Forever "},
		Positive: []string{"sunny", ""},
		Negative: []string{"rain"},
	})

	if got := c.Classify("I want to give up forever"); got != Crisis {
		t.Fatalf("expected crisis, got %s", got)
	}
	if got := c.Classify("a sunny morning"); got != Positive {
		t.Fatalf("expected positive, got %s", got)
	}
	if got := c.Classify("rain again"); got != Negative {
		t.Fatalf("expected negative, got %s", got)
	}
	if got := c.Classify("I feel happy"); got != Neutral {
		t.Fatalf("default keywords should not apply, got %s", got)
	}
}

func TestParseLexiconKeepsDefaultsForMissingGroups(t *testing.T) {
	lex, err := ParseLexicon([]byte("positive:\n  - sunny\n"))
	if err != nil {
		t.Fatalf("ParseLexicon err: %v", err)
	}

	if len(lex.Positive) != 1 || lex.Positive[0] != "sunny" {
		t.Fatalf("unexpected positive list: %v", lex.Positive)
	}
	if len(lex.Crisis) != len(DefaultLexicon().Crisis) {
		t.Fatalf("crisis list should fall back to defaults, got %v", lex.Crisis)
	}
}

func TestParseLexiconRejectsEmptyCrisisList(t *testing.T) {
	_, err := ParseLexicon([]byte("crisis: []\n"))
	if !errors.Is(err, ErrEmptyCrisisList) {
		t.Fatalf("expected ErrEmptyCrisisList, got %v", err)
	}
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "crisis:\n  - no way out\nnegative:\n  - gloomy\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon err: %v", err)
	}

	c := NewClassifier(lex)
	if got := c.Classify("there is no way out"); got != Crisis {
		t.Fatalf("expected crisis, got %s", got)
	}
	if got := c.Classify("a gloomy week"); got != Negative {
		t.Fatalf("expected negative, got %s", got)
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing lexicon file")
	}
}

func TestReloadSwapsKeywords(t *testing.T) {
	c := NewDefaultClassifier()

	if err := c.Reload(Lexicon{Crisis: []string{"no way out"}, Negative: []string{"gloomy"}}); err != nil {
		t.Fatalf("Reload err: %v", err)
	}
	if got := c.Classify("a gloomy week"); got != Negative {
		t.Fatalf("expected negative after reload, got %s", got)
	}
	if got := c.Classify("I feel hopeless"); got != Neutral {
		t.Fatalf("old crisis keywords should be gone, got %s", got)
	}
}

func TestReloadRejectsEmptyCrisisList(t *testing.T) {
	c := NewDefaultClassifier()

	if err := c.Reload(Lexicon{Positive: []string{"sunny"}}); !errors.Is(err, ErrEmptyCrisisList) {
		t.Fatalf("expected ErrEmptyCrisisList, got %v", err)
	}
	if got := c.Classify("I feel hopeless"); got != Crisis {
		t.Fatalf("previous keywords should stay active, got %s", got)
	}
}
