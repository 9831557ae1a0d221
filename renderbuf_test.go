package xxlsort

import (
	"encoding/binary"
	"path/filepath"
	"testing"
)

func u64Trait() Trait[uint64] {
	return Trait[uint64]{
		Size:  8,
		Align: 8,
		Encode: func(v uint64, b []byte) { binary.NativeEndian.PutUint64(b, v) },
		Decode: func(b []byte) uint64 { return binary.NativeEndian.Uint64(b) },
	}
}

func newTestArena(t *testing.T, size int) Slice {
	buf := make([]byte, size+2*maxAlignment)
	s := SliceOf(buf).Aligned(maxAlignment)
	return s.SubSlice(0, size)
}

func TestRenderBufferWriteWithinWindow(t *testing.T) {
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)

	placed, err := rb.Write(SliceOf([]byte("hello")))
	if err != nil {
		t.Fatal(err)
	}
	if string(placed.Bytes()) != "hello" {
		t.Fatalf("placed = %q", placed.Bytes())
	}
	if rb.FilePos() != 5 {
		t.Fatalf("FilePos() = %d, want 5", rb.FilePos())
	}

	placed2, err := rb.Write(SliceOf([]byte("world")))
	if err != nil {
		t.Fatal(err)
	}
	if string(placed2.Bytes()) != "world" {
		t.Fatalf("placed2 = %q", placed2.Bytes())
	}
	if placed2.Begin() != placed.End() {
		t.Fatal("consecutive writes must land contiguously within the window")
	}
}

func TestRenderBufferFlushWrapsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run")
	id := NewFileID(path)
	fh, err := Open(id, WriteCreate)
	if err != nil {
		t.Fatal(err)
	}

	windowSize := maxAlignment
	mem := newTestArena(t, windowSize)
	rb := NewRenderBuffer(mem, fh)

	payload := make([]byte, windowSize+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	if _, err := rb.Write(SliceOf(payload)); err != nil {
		t.Fatal(err)
	}
	if err := rb.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}

	rfh, err := Open(id, ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer rfh.Close()
	got := make([]byte, len(payload))
	filled, ok, err := rfh.Read(SliceOf(got))
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if filled.Size() != len(payload) {
		t.Fatalf("read back %d bytes, want %d", filled.Size(), len(payload))
	}
	for i, b := range filled.Bytes() {
		if b != payload[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, b, payload[i])
		}
	}
}

func TestRenderBufferPutAligns(t *testing.T) {
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)

	if _, err := rb.Write(SliceOf([]byte{0xAA, 0xBB, 0xCC})); err != nil {
		t.Fatal(err)
	}
	placed, err := Put(rb, u64Trait(), uint64(0x1122334455667788))
	if err != nil {
		t.Fatal(err)
	}
	off := placed.OffsetFrom(mem)
	if off%8 != 0 {
		t.Fatalf("Put did not align: offset=%d", off)
	}
	if binary.NativeEndian.Uint64(placed.Bytes()) != 0x1122334455667788 {
		t.Fatalf("encoded value mismatch")
	}
}

func TestRenderBufferSkipZeroesBytes(t *testing.T) {
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)
	if err := rb.Skip(10); err != nil {
		t.Fatal(err)
	}
	if rb.FilePos() != 10 {
		t.Fatalf("FilePos() = %d, want 10", rb.FilePos())
	}
	placed, _ := rb.Write(SliceOf([]byte{1}))
	for _, b := range mem.SubSlice(0, 10).Bytes() {
		if b != 0 {
			t.Fatal("skipped bytes must be zero")
		}
	}
	if placed.OffsetFrom(mem) != 10 {
		t.Fatalf("write after skip landed at offset %d, want 10", placed.OffsetFrom(mem))
	}
}

func TestRenderBufferExhaustedNilBackedErrors(t *testing.T) {
	mem := newTestArena(t, 8)
	rb := NewRenderBuffer(mem, nil)
	if _, err := rb.Write(SliceOf(make([]byte, 8))); err != nil {
		t.Fatal(err)
	}
	if _, err := rb.Write(SliceOf([]byte{1})); err == nil {
		t.Fatal("overrunning a nil-backed render buffer must error")
	}
}
