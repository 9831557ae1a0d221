package xxlsort

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileIDDefaultsToNoAutoUnlink(t *testing.T) {
	id := NewFileID("/some/path")
	if id.AutoUnlink() {
		t.Fatal("explicit paths must not auto-unlink by default")
	}
	if id.Path() != "/some/path" {
		t.Fatalf("Path() = %q", id.Path())
	}
}

func TestNewTempFileIDCreatesFileAndAutoUnlinks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	t.Setenv("TMP", "")
	t.Setenv("TEMP", "")

	id, err := NewTempFileID("xxlsort-run")
	if err != nil {
		t.Fatalf("NewTempFileID: %v", err)
	}
	if !id.AutoUnlink() {
		t.Fatal("temp files must auto-unlink by default")
	}
	if filepath.Dir(id.Path()) != dir {
		t.Fatalf("temp file created in %q, want %q", filepath.Dir(id.Path()), dir)
	}
	if _, err := os.Stat(id.Path()); err != nil {
		t.Fatalf("temp file missing after creation: %v", err)
	}

	if err := id.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(id.Path()); !os.IsNotExist(err) {
		t.Fatalf("file still exists after Cleanup: err=%v", err)
	}
}

func TestFileIDCleanupRespectsAutoUnlinkFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kept")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	id := NewFileID(path)
	id.SetAutoUnlink(false)
	if err := id.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file should still exist: %v", err)
	}

	id.SetAutoUnlink(true)
	if err := id.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should be gone after enabling auto-unlink and cleaning up")
	}
}

func TestFileIDCleanupIsIdempotent(t *testing.T) {
	id := NewFileID(filepath.Join(t.TempDir(), "missing"))
	id.SetAutoUnlink(true)
	if err := id.Cleanup(); err != nil {
		t.Fatalf("Cleanup on a missing file must not error: %v", err)
	}
	if err := id.Cleanup(); err != nil {
		t.Fatalf("second Cleanup must not error: %v", err)
	}
}

func TestNilFileIDCleanupIsNoop(t *testing.T) {
	var id *FileID
	if err := id.Cleanup(); err != nil {
		t.Fatalf("nil FileID Cleanup must be a no-op: %v", err)
	}
	if id.AutoUnlink() {
		t.Fatal("nil FileID must report AutoUnlink() == false")
	}
	if id.Path() != "" {
		t.Fatal("nil FileID must report empty Path()")
	}
}

func TestProbeTempDirPrecedence(t *testing.T) {
	t.Setenv("TMP", "/tmp-from-tmp")
	t.Setenv("TEMP", "/tmp-from-temp")
	t.Setenv("TMPDIR", "/tmp-from-tmpdir")
	if got := probeTempDir(); got != "/tmp-from-tmp" {
		t.Fatalf("probeTempDir() = %q, want TMP to win", got)
	}

	t.Setenv("TMP", "")
	if got := probeTempDir(); got != "/tmp-from-temp" {
		t.Fatalf("probeTempDir() = %q, want TEMP to win", got)
	}

	t.Setenv("TEMP", "")
	if got := probeTempDir(); got != "/tmp-from-tmpdir" {
		t.Fatalf("probeTempDir() = %q, want TMPDIR to win", got)
	}

	t.Setenv("TMPDIR", "")
	if got := probeTempDir(); got != "/tmp" {
		t.Fatalf("probeTempDir() = %q, want /tmp fallback", got)
	}
}
