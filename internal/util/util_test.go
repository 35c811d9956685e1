package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")

	if DirExists(nested) {
		t.Fatal("nested dir should not exist yet")
	}
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	if !DirExists(nested) {
		t.Fatal("EnsureDir did not create directory")
	}
	// Idempotent.
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(file); err == nil {
		t.Error("expected error for a regular file")
	}
}
