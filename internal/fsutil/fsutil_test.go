package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.toml")
	if err := AtomicWrite(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := AtomicWrite(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("content = %q, want v2", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover tmp files, got %v", entries)
	}
}

func TestAtomicWriteMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "doc.toml")
	if err := AtomicWrite(path, []byte("x"), 0o644); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestIsManagedFile(t *testing.T) {
	if !IsManagedFile([]byte("# ftk:managed (do not edit)\nservers: {}\n")) {
		t.Fatalf("expected marker to be detected")
	}
	if IsManagedFile([]byte("servers: {}\n")) {
		t.Fatalf("expected unmarked file to be unmanaged")
	}
}
