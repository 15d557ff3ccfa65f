package sentiment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte("negative:\n  - gloomy\n"), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon err: %v", err)
	}
	c := NewClassifier(lex)

	w, err := NewWatcher(path, c)
	if err != nil {
		t.Fatalf("NewWatcher err: %v", err)
	}
	reloaded := make(chan error, 4)
	w.OnReload(func(err error) { reloaded <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("negative:\n  - drizzle\n"), 0o600); err != nil {
		t.Fatalf("rewrite lexicon: %v", err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := c.Classify("more drizzle"); got != Negative {
		t.Fatalf("expected reloaded keyword to apply, got %s", got)
	}
}

func TestWatcherKeepsKeywordsOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte("negative:\n  - gloomy\n"), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	c := NewDefaultClassifier()

	w, err := NewWatcher(path, c)
	if err != nil {
		t.Fatalf("NewWatcher err: %v", err)
	}
	reloaded := make(chan error, 4)
	w.OnReload(func(err error) { reloaded <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("crisis: []\n"), 0o600); err != nil {
		t.Fatalf("rewrite lexicon: %v", err)
	}

	select {
	case err := <-reloaded:
		if err == nil {
			t.Fatal("expected reload error for empty crisis list")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := c.Classify("I feel hopeless"); got != Crisis {
		t.Fatalf("previous keywords should stay active, got %s", got)
	}
}
