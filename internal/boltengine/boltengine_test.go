package boltengine

import (
	"testing"

	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
)

func TestSetGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if err := e.Set("key", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := e.Get("key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "value" {
		t.Fatalf("got %q, want %q", got, "value")
	}
}

func TestGetMissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if _, err := e.Get("missing"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

// TestGetEmptyValueIsNotMistakenForMiss guards against inferring existence
// from the returned byte slice: a key set to "" must read back as ("", nil),
// not as a key-not-found error, matching engine_test.go's
// TestBoundaryKeysAndValuesRoundTrip coverage of the native engine.
func TestGetEmptyValueIsNotMistakenForMiss(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if err := e.Set("empty", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := e.Get("empty")
	if err != nil {
		t.Fatalf("Get on a key with an empty value should succeed, got %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestRemoveMissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if err := e.Remove("missing"); !ignerrors.IsIndexError(err) {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := e.Set("persisted", "yes"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("persisted")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "yes" {
		t.Fatalf("got %q, want %q", got, "yes")
	}
}
