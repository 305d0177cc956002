package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, files ...string) *Watcher {
	t.Helper()
	w, err := NewWatcher(files, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w
}

func expectEvent(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Events():
		if got != want {
			t.Errorf("Expected event for %s, got %s", want, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("No event for %s", want)
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notes.txt")
	writeFile(t, target, "one")

	w := startWatcher(t, target)
	writeFile(t, filepath.Join(dir, "other.txt"), "ignored")
	writeFile(t, target, "two")

	expectEvent(t, w, target)
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notes.txt")
	writeFile(t, target, "one")

	w := startWatcher(t, target)
	for _, text := range []string{"a", "b", "c"} {
		writeFile(t, target, text)
	}

	expectEvent(t, w, target)
	select {
	case got := <-w.Events():
		t.Errorf("Expected a single event, got another for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSeesReplacedFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	writeFile(t, target, "a = 1")

	w := startWatcher(t, target)
	tmp := filepath.Join(dir, "config.toml.tmp")
	writeFile(t, tmp, "a = 2")
	if err := os.Rename(tmp, target); err != nil {
		t.Fatalf("rename: %v", err)
	}

	expectEvent(t, w, target)
}

func TestWatcherRequiresFiles(t *testing.T) {
	if _, err := NewWatcher(nil, 0); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Expected ErrNoFiles, got %v", err)
	}
}
