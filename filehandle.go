package xxlsort

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// OpenMode selects how FileHandle opens the underlying descriptor.
type OpenMode int

const (
	ReadOnly OpenMode = iota
	WriteCreate
)

// FileHandle is an owning wrapper over an open file descriptor with its
// own position tracking, independent of the kernel's. Reads and writes
// retry on EINTR and report short transfers explicitly rather than
// silently looping past end-of-file.
type FileHandle struct {
	id            *FileID
	f             *os.File
	pos           uint64
	seekable      bool
	seekableKnown bool
}

// Open opens id for reading or writing. WriteCreate truncates an
// existing file at the same path.
func Open(id *FileID, mode OpenMode) (*FileHandle, error) {
	if id == nil || id.path == "" {
		return nil, fmt.Errorf("open: %w", xerrors.ErrNilFileID)
	}
	var f *os.File
	var err error
	switch mode {
	case ReadOnly:
		f, err = os.OpenFile(id.path, os.O_RDONLY, 0)
	case WriteCreate:
		f, err = os.OpenFile(id.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	default:
		return nil, fmt.Errorf("open %s: %w", id.path, xerrors.ErrInternal)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id.path, err)
	}
	return &FileHandle{id: id, f: f}, nil
}

// WrapOpenFile adapts an already-open *os.File — typically os.Stdin or
// os.Stdout in a CLI front-end — to a FileHandle, for callers that
// don't own the file's lifecycle through a FileID and must not reopen
// or truncate it by path.
func WrapOpenFile(f *os.File, path string) *FileHandle {
	return &FileHandle{id: NewFileID(path), f: f}
}

// ID returns the file identity this handle was opened from.
func (fh *FileHandle) ID() *FileID { return fh.id }

// Path is a shortcut for fh.ID().Path().
func (fh *FileHandle) Path() string { return fh.id.Path() }

// Pos returns the handle's tracked position.
func (fh *FileHandle) Pos() uint64 { return fh.pos }

// Read fills as much of dst as the file has remaining, retrying on
// EINTR. The returned slice is the populated prefix of dst; ok is false
// only when zero bytes could be read (end of file). A short read that
// still returns at least one byte is not an error — callers combine it
// with a follow-up read or treat it as a truncated record per C5/C6.
func (fh *FileHandle) Read(dst Slice) (filled Slice, ok bool, err error) {
	buf := dst.Bytes()
	total := 0
	for total < len(buf) {
		n, rerr := fh.f.Read(buf[total:])
		if n > 0 {
			total += n
			fh.pos += uint64(n)
		}
		if rerr != nil {
			if errors.Is(rerr, syscall.EINTR) {
				continue
			}
			if rerr == io.EOF {
				break
			}
			return dst.SubSlice(0, total), total > 0, fmt.Errorf("read %s: %w", fh.id.Path(), rerr)
		}
		if n == 0 {
			break
		}
	}
	return dst.SubSlice(0, total), total > 0, nil
}

// Write writes all of src, retrying on EINTR and on any non-error short
// write, which should not happen for regular files but is not assumed.
func (fh *FileHandle) Write(src Slice) error {
	buf := src.Bytes()
	total := 0
	for total < len(buf) {
		n, err := fh.f.Write(buf[total:])
		if n > 0 {
			total += n
			fh.pos += uint64(n)
		}
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("write %s: %w", fh.id.Path(), err)
		}
		if n == 0 {
			return fmt.Errorf("write %s: %w", fh.id.Path(), xerrors.ErrShortWrite)
		}
	}
	return nil
}

// SetPos repositions the handle. A no-op if already at p. Returns
// ErrNotSeekable for pipes and other non-seekable streams, per C2.3.
func (fh *FileHandle) SetPos(p uint64) error {
	if p == fh.pos {
		return nil
	}
	if !fh.IsSeekable() {
		return fmt.Errorf("seek %s: %w", fh.id.Path(), xerrors.ErrNotSeekable)
	}
	if _, err := fh.f.Seek(int64(p), io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", fh.id.Path(), err)
	}
	fh.pos = p
	return nil
}

// IsSeekable reports whether the underlying file supports random
// access. Determined once, from the descriptor's mode, and cached.
func (fh *FileHandle) IsSeekable() bool {
	if fh.seekableKnown {
		return fh.seekable
	}
	fi, err := fh.f.Stat()
	fh.seekable = err == nil && fi.Mode().IsRegular()
	fh.seekableKnown = true
	return fh.seekable
}

// Flush fsyncs the file. EINVAL and ENOTTY (raised for pipes and other
// descriptors that do not support fsync) are treated as success, since
// there is nothing to durably flush.
func (fh *FileHandle) Flush() error {
	if err := fh.f.Sync(); err != nil {
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
			return nil
		}
		return fmt.Errorf("fsync %s: %w", fh.id.Path(), err)
	}
	return nil
}

// Preallocate reserves size bytes of disk space up front (C8 calls this
// before writing a run or the final output, sized to the pass's
// worst case).
func (fh *FileHandle) Preallocate(size int64) error {
	return fallocateFile(fh.f, size)
}

// Truncate sets the file's length to size, used to shrink a
// preallocated run back down to its actual written length: fallocate
// sizes the file to a worst-case upper bound, which is normally larger
// than what ends up written.
func (fh *FileHandle) Truncate(size int64) error {
	if err := fh.f.Truncate(size); err != nil {
		return fmt.Errorf("truncate %s: %w", fh.id.Path(), err)
	}
	return nil
}

// AdviseSequential hints to the kernel that reads from this handle will
// proceed strictly forward, used by the merger when opening a run.
func (fh *FileHandle) AdviseSequential() {
	fadviseSequential(int(fh.f.Fd()), 0, 0)
}

// Close releases the descriptor. It does not unlink the file: unlinking
// is governed by the file's FileID and triggered explicitly by callers
// (see FileID.Cleanup), since an open handle and the file's identity
// have independent lifetimes.
func (fh *FileHandle) Close() error {
	if fh.f == nil {
		return nil
	}
	err := fh.f.Close()
	fh.f = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", fh.id.Path(), err)
	}
	return nil
}
