package xxlsort

import (
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// ParseBuffer is a buffered reader over a file into a memory slice
// (C4), symmetric to RenderBuffer. mem must already be a multiple of
// maxAlignment bytes and start at a maxAlignment-aligned address, same
// precondition as RenderBuffer, for the same reason.
type ParseBuffer struct {
	f    *FileHandle
	mem  Slice
	data Slice // the unconsumed tail of the current window
}

// NewParseBuffer creates a parse buffer reading from f into mem.
func NewParseBuffer(mem Slice, f *FileHandle) *ParseBuffer {
	return &ParseBuffer{f: f, mem: mem}
}

// FilePos returns the logical offset of the next unread byte: the
// file's read position minus however much is still buffered ahead of
// it.
func (pb *ParseBuffer) FilePos() uint64 {
	return pb.f.Pos() - uint64(pb.data.Size())
}

// Read fills as much of dst as the stream has remaining, refilling the
// internal window from the file on demand. Returns the populated
// prefix of dst; ok is false only when nothing at all could be read
// (end of stream).
func (pb *ParseBuffer) Read(dst Slice) (filled Slice, ok bool, err error) {
	total := 0
	for total < dst.Size() {
		if pb.data.Empty() {
			if err := pb.refill(); err != nil {
				return dst.SubSlice(0, total), total > 0, err
			}
			if pb.data.Empty() {
				break
			}
		}
		n := dst.Size() - total
		if n > pb.data.Size() {
			n = pb.data.Size()
		}
		chunk, rest := pb.data.SplitAt(n)
		copy(dst.SubSlice(total, n).Bytes(), chunk.Bytes())
		pb.data = rest
		total += n
	}
	return dst.SubSlice(0, total), total > 0, nil
}

// refill re-anchors the window at file_pos mod maxAlignment into mem —
// so the in-memory and on-disk byte offsets of the window agree modulo
// maxAlignment — then reads as much as the file offers into it.
func (pb *ParseBuffer) refill() error {
	offset := int(pb.f.Pos() % maxAlignment)
	window := pb.mem.SubSlice(offset, pb.mem.Size()-offset)
	filled, _, err := pb.f.Read(window)
	if err != nil {
		return err
	}
	pb.data = filled
	return nil
}

// Skip advances n bytes forward, draining the buffered window first
// and seeking the underlying file for any remainder.
func (pb *ParseBuffer) Skip(n uint64) error {
	if n <= uint64(pb.data.Size()) {
		pb.data = pb.data.SubSlice(int(n), pb.data.Size()-int(n))
		return nil
	}
	n -= uint64(pb.data.Size())
	pb.data = Slice{}
	return pb.f.SetPos(pb.f.Pos() + n)
}

// Align skips the minimum number of bytes needed to reach an
// n-aligned on-disk offset. n must be a power of two in
// [1, maxAlignment].
func (pb *ParseBuffer) Align(n uintptr) error {
	if n == 1 {
		return nil
	}
	return pb.Skip(padTo(pb.FilePos(), n))
}

// Get decodes a T per trait, aligning first if trait.Align != 1. ok is
// false only for a clean end of stream (zero bytes read). A read that
// returns fewer bytes than trait.Size but more than zero is a
// truncated value — EOF mid-header — and is reported as ErrDataCorrupt
// rather than folded into the clean-EOF case.
func Get[T any](pb *ParseBuffer, trait Trait[T]) (v T, ok bool, err error) {
	if trait.Align != 1 {
		if err := pb.Align(trait.Align); err != nil {
			return v, false, err
		}
	}
	buf := make([]byte, trait.Size)
	filled, readOK, err := pb.Read(SliceOf(buf))
	if err != nil {
		return v, false, err
	}
	if !readOK {
		return v, false, nil
	}
	if filled.Size() != trait.Size {
		return v, false, fmt.Errorf("xxlsort: truncated value ending at offset %d: got %d of %d bytes: %w",
			pb.FilePos(), filled.Size(), trait.Size, xerrors.ErrDataCorrupt)
	}
	return trait.Decode(buf), true, nil
}
