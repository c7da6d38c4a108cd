package ignitekv

import (
	"testing"

	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
	"github.com/ignitekv/ignitekv/pkg/options"
)

func TestOpenSetGetRemove(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := db.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}

	if err := db.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := db.Get("k"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError after Remove, got %v", err)
	}
}

func TestOpenRejectsSecondOwner(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := Open(dir); !ignerrors.IsValidationError(err) {
		t.Fatalf("expected ValidationError for a second concurrent Open, got %v", err)
	}
}

// TestOpenAfterUncleanExitRecovers simulates spec.md's scenario 2 / P2: a
// process writes a value and disappears without calling Close, leaving the
// lock file on disk but nobody holding its flock. A fresh Open against the
// same directory must still succeed and see the written data, because the
// OS released the advisory lock the moment the first process went away.
func TestOpenAfterUncleanExitRecovers(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Release only the lock, not the store, modeling what the kernel does
	// to a crashed process: the flock is dropped the instant its last file
	// descriptor closes, while the lock file itself stays on disk.
	if err := db.lock.Release(); err != nil {
		t.Fatalf("simulate unclean exit: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open after unclean exit should recover, got %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}

func TestOpenWithSledEngineUsesBoltBackend(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, options.WithEngine(options.EngineSled))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := db.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}
