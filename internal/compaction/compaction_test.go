package compaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ignitekv/ignitekv/internal/record"
	"github.com/ignitekv/ignitekv/internal/storage"
	"github.com/ignitekv/ignitekv/pkg/capability"
	"github.com/ignitekv/ignitekv/pkg/logger"
	"github.com/ignitekv/ignitekv/pkg/options"
)

func setup(t *testing.T) (*storage.Log, *Compaction, string) {
	t.Helper()
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir

	l, err := storage.Open(&storage.Config{Options: &opts, Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	c, err := New(&Config{DataDir: dir, Logger: logger.New("test")})
	if err != nil {
		t.Fatalf("compaction.New: %v", err)
	}

	return l, c, dir
}

func TestRunDropsStaleRecordsAndShrinksLog(t *testing.T) {
	l, c, dir := setup(t)

	live := make(map[string]capability.Extent)

	// Write "key" 50 times; only the last write should survive compaction.
	var lastExt capability.Extent
	for i := 0; i < 50; i++ {
		buf, _ := record.Encode(record.NewSet("key", "value"))
		off, err := l.Append(buf)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		lastExt = capability.Extent{Offset: off, Length: int64(len(buf))}
	}
	live["key"] = lastExt

	sizeBefore, _ := l.Size()

	newExtents, err := c.Run(l, live)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sizeAfter, _ := l.Size()
	if sizeAfter >= sizeBefore {
		t.Fatalf("expected compaction to shrink the log: before=%d after=%d", sizeBefore, sizeAfter)
	}

	ext, ok := newExtents["key"]
	if !ok {
		t.Fatalf("expected key to survive compaction")
	}

	raw, err := l.ReadAt(ext)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	cmd, err := record.DecodeExact(raw)
	if err != nil {
		t.Fatalf("DecodeExact: %v", err)
	}
	if cmd != record.NewSet("key", "value") {
		t.Fatalf("got %+v", cmd)
	}

	if _, err := os.Stat(filepath.Join(dir, BackupLogName)); !os.IsNotExist(err) {
		t.Fatalf("expected backup file to be gone after successful compaction, stat err: %v", err)
	}
}

func TestRunPreservesMultipleLiveKeys(t *testing.T) {
	l, c, _ := setup(t)

	live := make(map[string]capability.Extent)
	for _, kv := range []struct{ k, v string }{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		buf, _ := record.Encode(record.NewSet(kv.k, kv.v))
		off, err := l.Append(buf)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		live[kv.k] = capability.Extent{Offset: off, Length: int64(len(buf))}
	}

	newExtents, err := c.Run(l, live)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(newExtents) != 3 {
		t.Fatalf("expected 3 live keys after compaction, got %d", len(newExtents))
	}

	for _, kv := range []struct{ k, v string }{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		ext := newExtents[kv.k]
		raw, err := l.ReadAt(ext)
		if err != nil {
			t.Fatalf("ReadAt %s: %v", kv.k, err)
		}
		cmd, err := record.DecodeExact(raw)
		if err != nil {
			t.Fatalf("DecodeExact %s: %v", kv.k, err)
		}
		if cmd.Value != kv.v {
			t.Fatalf("key %s: got value %q, want %q", kv.k, cmd.Value, kv.v)
		}
	}
}
