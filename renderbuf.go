package xxlsort

import "fmt"

// maxAlignment bounds every alignment request accepted anywhere in the
// buffered I/O layer (C3/C4): arena buffers are always carved at a
// multiple of maxAlignment bytes, which is what lets a buffer wrap its
// memory window back to the start on refill and still keep memory
// address and file offset in agreement modulo this many bytes.
const maxAlignment = 65536

// Trait describes how to encode/decode a fixed-layout value T for
// RenderBuffer.Put / ParseBuffer.Get, mirroring the original's
// repr_traits<T>: declared size and alignment, not the host compiler's
// native sizeof/alignof, so the wire format is decoupled from Go's own
// struct layout rules.
type Trait[T any] struct {
	Size   int
	Align  uintptr
	Encode func(T, []byte)
	Decode func([]byte) T
}

// RenderBuffer is an append-only buffered writer over a memory slice,
// periodically flushed to a file (C3). Two distinct uses occur in this
// codebase: as the run-former's in-memory staging area (no backing
// file — records accumulate until the pass is full, then get sorted
// and written out separately), and as a genuine streaming writer over
// a run or output file. written is the prefix of mem filled so far; it
// always starts as a sub-slice of mem, never copied elsewhere, which is
// what lets write() report a byte's address as a plain offset into mem.
type RenderBuffer struct {
	f       *FileHandle
	mem     Slice
	written Slice
}

// NewRenderBuffer creates a render buffer over mem, optionally backed
// by an output file handle. mem must already be a multiple of
// maxAlignment bytes and start at a maxAlignment-aligned address — the
// orchestrator's arena carving guarantees this — so that wrapping the
// window on refill preserves the memory↔file alignment relation. A nil
// handle is legal only when the caller never overruns mem (the
// run-former's staging use): Flush on a nil-backed buffer with pending
// bytes returns an error.
func NewRenderBuffer(mem Slice, f *FileHandle) *RenderBuffer {
	return &RenderBuffer{f: f, mem: mem, written: mem.SubSlice(0, 0)}
}

// FilePos returns the logical end-of-stream offset: bytes already
// flushed plus bytes buffered but not yet flushed.
func (rb *RenderBuffer) FilePos() uint64 {
	if rb.f == nil {
		return uint64(rb.written.Size())
	}
	return rb.f.Pos() + uint64(rb.written.Size())
}

// GetFreeMem returns the unwritten tail of the buffer, flushing the
// written prefix and wrapping the window back to mem's start first if
// the tail is currently empty.
func (rb *RenderBuffer) GetFreeMem() (Slice, error) {
	endOffset := int(rb.written.OffsetFrom(rb.mem)) + rb.written.Size()
	free := rb.mem.SubSlice(endOffset, rb.mem.Size()-endOffset)
	if free.Empty() {
		if err := rb.flushWritten(); err != nil {
			return Slice{}, err
		}
		rb.written = rb.mem.SubSlice(0, 0)
		free = rb.mem
	}
	return free, nil
}

// Write copies data into the buffer, pulling fresh free memory (and
// flushing/wrapping as needed) until all of data has been placed.
// Returns the address at which the first byte landed, as a sub-slice of
// the buffer's backing memory, so callers can record in-memory record
// locations (e.g. C8 deriving a sort element's base-relative offset).
func (rb *RenderBuffer) Write(data Slice) (Slice, error) {
	if data.Empty() {
		return Slice{}, nil
	}
	startOffset := int(rb.written.OffsetFrom(rb.mem)) + rb.written.Size()
	remaining := data
	for !remaining.Empty() {
		free, err := rb.GetFreeMem()
		if err != nil {
			return Slice{}, err
		}
		n := remaining.Size()
		if n > free.Size() {
			n = free.Size()
		}
		chunk, rest := remaining.SplitAt(n)
		rb.written.Append(chunk)
		remaining = rest
	}
	return rb.mem.SubSlice(startOffset, data.Size()), nil
}

// Skip writes n zero bytes.
func (rb *RenderBuffer) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	for n > 0 {
		free, err := rb.GetFreeMem()
		if err != nil {
			return err
		}
		chunk := free.SubSlice(0, n)
		chunk.ZeroMemory()
		if _, err := rb.Write(chunk); err != nil {
			return err
		}
		n -= chunk.Size()
	}
	return nil
}

// Align writes zero bytes until the buffer's logical file position is
// a multiple of n. n must be a power of two in [1, maxAlignment].
func (rb *RenderBuffer) Align(n uintptr) error {
	if n == 1 {
		return nil
	}
	return rb.Skip(int(padTo(rb.FilePos(), n)))
}

// Flush writes the buffered prefix to the file and fsyncs it. Unlike
// the internal wrap performed by GetFreeMem, an explicit Flush does not
// rewind to mem's start: the written marker slides forward to sit right
// after the flushed bytes, preserving the memory↔file alignment
// relation for whatever gets written next.
func (rb *RenderBuffer) Flush() error {
	if err := rb.flushWritten(); err != nil {
		return err
	}
	endOffset := int(rb.written.OffsetFrom(rb.mem)) + rb.written.Size()
	rb.written = rb.mem.SubSlice(endOffset, 0)
	return nil
}

func (rb *RenderBuffer) flushWritten() error {
	if rb.written.Empty() {
		return nil
	}
	if rb.f == nil {
		return fmt.Errorf("xxlsort: render buffer exhausted with no backing file")
	}
	if err := rb.f.Write(rb.written); err != nil {
		return err
	}
	return rb.f.Flush()
}

// Put encodes v per trait, aligning first if trait.Align != 1, and
// returns the address at which it was placed.
func Put[T any](rb *RenderBuffer, trait Trait[T], v T) (Slice, error) {
	if trait.Align != 1 {
		if err := rb.Align(trait.Align); err != nil {
			return Slice{}, err
		}
	}
	buf := make([]byte, trait.Size)
	trait.Encode(v, buf)
	return rb.Write(SliceOf(buf))
}

// padTo returns the number of bytes needed to advance pos to the next
// multiple of n.
func padTo(pos uint64, n uintptr) uint64 {
	m := uint64(n)
	return (m - pos%m) % m
}
