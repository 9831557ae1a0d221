package xxlsort

import (
	"fmt"
	"os"
)

// FileID identifies a file on disk, as opposed to an open handle to it.
// A FileID can be marked auto-unlink: Cleanup then removes the
// underlying path. There is no destructor in Go, so — unlike the
// original's refcounted file_id — callers must call Cleanup explicitly
// at the point where the identity's last reference would have dropped:
// the merger (C9) does this for each transient run as it is fully
// consumed, and the orchestrator (C10) does it for the destination and
// any still-queued runs on every error path via errors.Join, mirroring
// the teacher's own errors.Join(primaryErr, iw.close(),
// os.Remove(output)) cleanup idiom.
type FileID struct {
	path       string
	autoUnlink bool
}

// NewFileID identifies a file by an explicit, caller-chosen path.
// Auto-unlink starts disabled.
func NewFileID(path string) *FileID {
	return &FileID{path: path}
}

// NewTempFileID creates a new, empty temporary file named
// "<tmpdir>/<nameTemplate>-XXXXXX" (spec §6) in the directory selected
// by probing TMP, TEMP, TMPDIR in order, falling back to /tmp. The file
// is created with user-only permissions and the creating descriptor is
// closed at once; callers open the file again by path through Open,
// matching the original's mkstemp()-then-reopen contract. Auto-unlink
// starts enabled, since temporary files are cleaned up by default.
func NewTempFileID(nameTemplate string) (*FileID, error) {
	dir := probeTempDir()
	pattern := nameTemplate + "-*"

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	path := f.Name()
	if cerr := f.Close(); cerr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close temp file %s: %w", path, cerr)
	}

	// Confirm the path still names a file: callers reopen it by path
	// later, so the contract is that a path-addressable file exists,
	// not that a descriptor is carried over from creation.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat temp file %s: %w", path, err)
	}

	return &FileID{path: path, autoUnlink: true}, nil
}

// probeTempDir selects a temp directory per spec §6: the first
// non-empty of TMP, TEMP, TMPDIR, else /tmp.
func probeTempDir() string {
	for _, v := range []string{"TMP", "TEMP", "TMPDIR"} {
		if d := os.Getenv(v); d != "" {
			return d
		}
	}
	return "/tmp"
}

// Path returns the file's path on disk.
func (id *FileID) Path() string {
	if id == nil {
		return ""
	}
	return id.path
}

// SetAutoUnlink enables or disables removal of the underlying file on
// Cleanup. The destination file is created with auto-unlink enabled and
// the flag is cleared only once the orchestrator commits (step 7 of
// C10), so that any failure in between removes the partial output.
func (id *FileID) SetAutoUnlink(enabled bool) {
	if id == nil {
		return
	}
	id.autoUnlink = enabled
}

// AutoUnlink reports whether Cleanup will remove the file.
func (id *FileID) AutoUnlink() bool {
	return id != nil && id.autoUnlink
}

// Cleanup removes the underlying file if auto-unlink is enabled.
// Idempotent: a missing file is not an error. Safe to call on a nil
// FileID (no-op), which happens for the zero-value "no file" identity.
func (id *FileID) Cleanup() error {
	if id == nil || !id.autoUnlink || id.path == "" {
		return nil
	}
	if err := os.Remove(id.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlink %s: %w", id.path, err)
	}
	return nil
}
