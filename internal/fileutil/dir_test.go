package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b", "c")
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() error = %v", err)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	})

	t.Run("idempotent on existing directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := EnsureDir(dir); err != nil {
			t.Errorf("EnsureDir() on existing dir error = %v", err)
		}
	})

	t.Run("fails when path is a file", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "occupied")
		if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := EnsureDir(file); err == nil {
			t.Error("EnsureDir() over a regular file should fail")
		}
	})
}

func TestEnsureDirForFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache", "metadata.db")
	if err := EnsureDirForFile(path); err != nil {
		t.Fatalf("EnsureDirForFile() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}
