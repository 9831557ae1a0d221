package xxlsort

import (
	"unsafe"

	"github.com/mejedi/yndx-xxlsort/internal/align"
)

// Slice is a bounded view over a raw byte region. Its identity is the
// underlying storage, not a copy: two Slices referring to overlapping
// bytes observe each other's writes. Sub-slicing is O(1).
//
// This is the Go analogue of the original's mem_chunk: a (pointer,
// length) pair rather than a Go []byte, because the run-former (C8)
// needs the bidirectional-arena trick — building a sort-element array
// from the high end of a buffer while record bytes grow from the low
// end — which requires comparing and arithmetic over raw addresses, not
// just slice headers.
type Slice struct {
	p   unsafe.Pointer
	len int
}

// SliceOf wraps an existing []byte as a Slice. The caller must keep the
// backing array alive for as long as the Slice (and any Slice derived
// from it) is in use; for arena-backed slices this is guaranteed by the
// arena's own lifetime.
func SliceOf(b []byte) Slice {
	if len(b) == 0 {
		return Slice{}
	}
	return Slice{p: unsafe.Pointer(&b[0]), len: len(b)}
}

// Bytes returns a []byte view of the slice. Mutations through the
// returned slice are visible through s and vice versa.
func (s Slice) Bytes() []byte {
	if s.len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.p), s.len)
}

// Begin returns the address of the first byte (undefined if Empty()).
func (s Slice) Begin() unsafe.Pointer { return s.p }

// End returns the address one past the last byte.
func (s Slice) End() unsafe.Pointer {
	if s.p == nil {
		return nil
	}
	return unsafe.Add(s.p, s.len)
}

// Size returns the number of bytes in the slice.
func (s Slice) Size() int { return s.len }

// Empty reports whether the slice has zero length.
func (s Slice) Empty() bool { return s.len == 0 }

// SubSlice returns the sub-slice [offset, offset+length), saturating
// against the slice's own bounds. A zero-length result still starts at
// offset, so it marks a position within s.
func (s Slice) SubSlice(offset, length int) Slice {
	if offset < 0 {
		offset = 0
	}
	if offset > s.len {
		offset = s.len
	}
	remaining := s.len - offset
	if length > remaining {
		length = remaining
	}
	if length < 0 {
		length = 0
	}
	return Slice{p: unsafe.Add(s.p, offset), len: length}
}

// SplitAt splits the slice at pos (saturated to the slice's length) into
// two adjacent, non-overlapping sub-slices.
func (s Slice) SplitAt(pos int) (left, right Slice) {
	if pos < 0 {
		pos = 0
	}
	if pos > s.len {
		pos = s.len
	}
	left = Slice{p: s.p, len: pos}
	remaining := s.len - pos
	if remaining == 0 {
		return left, Slice{}
	}
	return left, Slice{p: unsafe.Add(s.p, pos), len: remaining}
}

// Append grows s in place by the bytes of other. If other's storage
// already immediately follows s's storage, no copy happens — s's length
// is simply extended. Otherwise other's bytes are copied into the
// region immediately following s.
//
// The caller must ensure the follow-on storage belongs to the same
// arena and has not yet been written by anything else; this is not
// checked (mirrors the original's append contract).
func (s *Slice) Append(other Slice) {
	if other.len == 0 {
		return
	}
	if s.End() != other.Begin() {
		dst := unsafe.Slice((*byte)(s.End()), other.len)
		copy(dst, other.Bytes())
	}
	s.len += other.len
}

// ZeroMemory overwrites the slice with zero bytes.
func (s Slice) ZeroMemory() {
	if s.len == 0 {
		return
	}
	clear(s.Bytes())
}

// Aligned rounds the starting address up to an n-byte boundary and the
// resulting length down to a multiple of n. n must be a power of two,
// 1 <= n <= 65536.
func (s Slice) Aligned(n uintptr) Slice {
	if s.len == 0 || s.p == nil {
		return Slice{}
	}
	addr := uintptr(s.p)
	newAddr := align.Up(addr, n)
	delta := newAddr - addr
	if delta >= uintptr(s.len) {
		return Slice{}
	}
	newLen := align.Down(uintptr(s.len)-delta, n)
	if newLen == 0 {
		return Slice{}
	}
	return Slice{p: unsafe.Add(s.p, delta), len: int(newLen)}
}

// OffsetFrom returns the byte offset of s's start relative to base's
// start. Used by the sort element (C7) to compute base-relative
// 32-bit record offsets.
func (s Slice) OffsetFrom(base Slice) uint64 {
	return uint64(uintptr(s.p) - uintptr(base.p))
}

// Addr returns the sub-slice starting offset bytes relative to base,
// with length bytes. Used to reconstruct a Slice from a base-relative
// offset (the inverse of OffsetFrom).
func AddrAt(base Slice, offset uint64, length int) Slice {
	return Slice{p: unsafe.Add(base.p, offset), len: length}
}
