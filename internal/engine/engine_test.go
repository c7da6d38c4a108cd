package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ignitekv/ignitekv/internal/storage"
	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/logger"
	"github.com/ignitekv/ignitekv/pkg/options"
)

func openTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir

	e, err := New(&Config{Options: &opts, Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestSetGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	if err := e.Set("key1", "value1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := e.Get("key1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "value1" {
		t.Fatalf("got %q, want %q", got, "value1")
	}
}

func TestGetMissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	_, err := e.Get("missing")
	if !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestSetOverwritesValue(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	e.Set("key", "first")
	e.Set("key", "second")

	got, err := e.Get("key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "second" {
		t.Fatalf("got %q, want %q", got, "second")
	}
}

func TestRemoveDeletesKey(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	e.Set("key", "value")
	if err := e.Remove("key"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := e.Get("key"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected key to be gone, got err %v", err)
	}
}

func TestRemoveMissingKeyFailsWithoutIO(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	sizeBefore, err := e.storage.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}

	if err := e.Remove("missing"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError, got %v", err)
	}

	sizeAfter, err := e.storage.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if sizeAfter != sizeBefore {
		t.Fatalf("expected no I/O for a failed Remove, log grew from %d to %d", sizeBefore, sizeAfter)
	}
}

func TestRecoveryRebuildsIndexAfterReopen(t *testing.T) {
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := e.Set(key, key+"-value"); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := e.Remove("key-3"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openTestEngine(t, dir)
	defer reopened.Close()

	if _, err := reopened.Get("key-3"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected key-3 to stay removed across reopen, got %v", err)
	}

	for i := 0; i < 10; i++ {
		if i == 3 {
			continue
		}
		key := fmt.Sprintf("key-%d", i)
		got, err := reopened.Get(key)
		if err != nil {
			t.Fatalf("Get %s: %v", key, err)
		}
		if got != key+"-value" {
			t.Fatalf("key %s: got %q", key, got)
		}
	}
}

func TestCompactionFiresAfterEnoughStaleWrites(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.CompactionRatio = 2

	e, err := New(&Config{Options: &opts, Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	for i := 0; i < 1000; i++ {
		if err := e.Set("hot-key", fmt.Sprintf("value-%d", i)); err != nil {
			t.Fatalf("Set #%d: %v", i, err)
		}
	}

	size, err := e.storage.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}

	// One live key's record is at most a few dozen bytes; if compaction
	// never fired the log would instead hold 1000 stale records.
	if size > 4096 {
		t.Fatalf("expected compaction to bound log size, got %d bytes", size)
	}

	got, err := e.Get("hot-key")
	if err != nil {
		t.Fatalf("Get after compaction: %v", err)
	}
	if got != "value-999" {
		t.Fatalf("got %q, want %q", got, "value-999")
	}
}

// TestTornTailSurvivesReopenAndCompacts exercises spec scenario 6: a clean
// close, a few stray bytes appended to the log afterward (simulating a
// crash mid-write on the next process), a reopen, and a compaction that
// leaves the log holding exactly the keys that were live before the tear.
func TestTornTailSurvivesReopenAndCompacts(t *testing.T) {
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := e.Set(key, key+"-value"); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	logPath := filepath.Join(dir, storage.ActiveLogName)
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open log for tearing: %v", err)
	}
	if _, err := f.Write([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}); err != nil {
		t.Fatalf("write torn bytes: %v", err)
	}
	f.Close()

	reopened := openTestEngine(t, dir)
	defer reopened.Close()

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		got, err := reopened.Get(key)
		if err != nil {
			t.Fatalf("Get %s after torn tail: %v", key, err)
		}
		if got != key+"-value" {
			t.Fatalf("key %s: got %q", key, got)
		}
	}

	// Force the compaction check to fire regardless of the configured
	// ratio, the way it eventually would under enough further writes, and
	// confirm the rewritten log holds exactly the 100 keys that survived
	// the torn tail.
	reopened.commandsTotal.Store(1_000_000)
	reopened.mu.Lock()
	err = reopened.maybeCompact()
	reopened.mu.Unlock()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if reopened.commandsTotal.Load() != 100 {
		t.Fatalf("expected exactly 100 commands after compaction, got %d", reopened.commandsTotal.Load())
	}
}

// TestBoundaryKeysAndValuesRoundTrip exercises the spec's explicit
// boundary behaviors: empty keys and values, and keys containing NULs,
// newlines, and non-ASCII UTF-8.
func TestBoundaryKeysAndValuesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	cases := []struct{ key, value string }{
		{"", "value-for-empty-key"},
		{"key-for-empty-value", ""},
		{"", ""},
		{"line1\nline2", "v"},
		{"has\x00nul", "v"},
		{"日本語キー", "日本語値"},
	}

	for _, c := range cases {
		if err := e.Set(c.key, c.value); err != nil {
			t.Fatalf("Set(%q, %q): %v", c.key, c.value, err)
		}
	}
	for _, c := range cases {
		got, err := e.Get(c.key)
		if err != nil {
			t.Fatalf("Get(%q): %v", c.key, err)
		}
		if got != c.value {
			t.Fatalf("Get(%q): got %q, want %q", c.key, got, c.value)
		}
	}
}

// TestRemoveOnEmptyDatabaseFails matches the spec's literal boundary case:
// a remove on a freshly opened, never-written-to database fails with a
// key-not-found error.
func TestRemoveOnEmptyDatabaseFails(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)
	defer e.Close()

	if err := e.Remove("anything"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError on an empty database, got %v", err)
	}
}
