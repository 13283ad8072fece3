package sinks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesAndTruncates(t *testing.T) {
	dir := t.TempDir()
	fresh := filepath.Join(dir, "fresh.out")
	stale := filepath.Join(dir, "stale.out")

	if err := os.WriteFile(stale, []byte("old contents"), 0666); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	table, err := Open([]string{fresh, stale})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer table.Close()

	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("expected %s to be created: %v", fresh, err)
	}

	info, err := os.Stat(stale)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("existing file size = %d, want 0 after truncation", info.Size())
	}
}

func TestOpenTableOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.out"),
		filepath.Join(dir, "b.out"),
		filepath.Join(dir, "c.out"),
	}

	table, err := Open(paths)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer table.Close()

	got := table.Sinks()
	if len(got) != len(paths) {
		t.Fatalf("len(Sinks()) = %d, want %d", len(got), len(paths))
	}
	for i, s := range got {
		if s.Name != paths[i] {
			t.Errorf("sink %d name = %s, want %s", i, s.Name, paths[i])
		}
		if s.PosWritten != 0 || s.PosToWrite != 0 {
			t.Errorf("sink %d cursors = (%d, %d), want (0, 0)", i, s.PosWritten, s.PosToWrite)
		}
		if !s.Active {
			t.Errorf("sink %d should start active", i)
		}
		if s.FD <= 0 {
			t.Errorf("sink %d fd = %d, want a valid descriptor", i, s.FD)
		}
	}
}

func TestOpenFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.out")
	bad := filepath.Join(dir, "missing", "nested.out")

	if _, err := Open([]string{ok, bad}); err == nil {
		t.Fatal("Open() expected error for unreachable path")
	}
}

func TestActiveCount(t *testing.T) {
	dir := t.TempDir()
	table, err := Open([]string{
		filepath.Join(dir, "a.out"),
		filepath.Join(dir, "b.out"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer table.Close()

	if got := table.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}

	table.Sinks()[0].Active = false
	if got := table.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1", got)
	}
}

func TestFromFiles(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}
	defer r.Close()
	defer w.Close()

	table := FromFiles([]*os.File{w})
	got := table.Sinks()
	if len(got) != 1 {
		t.Fatalf("len(Sinks()) = %d, want 1", len(got))
	}
	if got[0].FD != int(w.Fd()) {
		t.Errorf("fd = %d, want %d", got[0].FD, int(w.Fd()))
	}

	// Close must not touch caller-owned descriptors.
	if err := table.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Errorf("caller descriptor should remain writable: %v", err)
	}
}
