package xxlsort

import (
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// HeaderDecoder reads one header from buf and reports how many body
// bytes follow it. ok is false at end of stream. This is the Go
// analogue of the original's free-standing parse_header function: it
// is supplied by the caller rather than selected via a second template
// parameter, since Go generics don't support per-instantiation
// function overloading the way C++ templates do.
type HeaderDecoder[T any] func(buf *ParseBuffer, path string) (hd T, bodySize uint64, ok bool, err error)

// Parser iterates (header, body) pairs out of a record stream (C6),
// separating the wire format a HeaderDecoder understands from the
// logical header type T callers work with.
type Parser[T any] struct {
	buf           *ParseBuffer
	path          string
	decode        HeaderDecoder[T]
	hd            T
	hdValid       bool
	bodyBytesLeft uint64
}

// NewParser creates a parser reading from f through mem, and parses
// the first header immediately.
func NewParser[T any](mem Slice, f *FileHandle, path string, decode HeaderDecoder[T]) (*Parser[T], error) {
	p := &Parser[T]{buf: NewParseBuffer(mem, f), path: path, decode: decode}
	if err := p.ParseNext(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseNext skips over whatever remains of the current record's body,
// if any, and parses the next header. Returns nil with IsHeaderValid
// false at end of stream; a non-nil error only for I/O or data-corrupt
// failures.
func (p *Parser[T]) ParseNext() error {
	if err := p.buf.Skip(p.bodyBytesLeft); err != nil {
		return err
	}
	p.bodyBytesLeft = 0
	hd, bodySize, ok, err := p.decode(p.buf, p.path)
	if err != nil {
		return err
	}
	p.hd, p.hdValid, p.bodyBytesLeft = hd, ok, bodySize
	return nil
}

// IsHeaderValid reports whether the most recent ParseNext (including
// the implicit one in NewParser) produced a record.
func (p *Parser[T]) IsHeaderValid() bool { return p.hdValid }

// Header returns the current record's header. Precondition:
// IsHeaderValid().
func (p *Parser[T]) Header() T { return p.hd }

// ReadBody reads up to dst's length of the current record's remaining
// body into dst. ok is false once the body is exhausted. A short read
// mid-body (file ends before the declared body_size is satisfied) is
// reported as ErrDataCorrupt.
func (p *Parser[T]) ReadBody(dst Slice) (filled Slice, ok bool, err error) {
	n := dst.Size()
	if uint64(n) > p.bodyBytesLeft {
		n = int(p.bodyBytesLeft)
	}
	if n == 0 {
		return Slice{}, false, nil
	}
	chunk := dst.SubSlice(0, n)
	filled, _, err = p.buf.Read(chunk)
	if err != nil {
		return Slice{}, false, err
	}
	if filled.Size() != n {
		return Slice{}, false, fmt.Errorf("xxlsort: %s: truncated record body: %w", p.path, xerrors.ErrDataCorrupt)
	}
	p.bodyBytesLeft -= uint64(n)
	return filled, true, nil
}

// BodyBytesLeft reports how many body bytes remain unread for the
// current record.
func (p *Parser[T]) BodyBytesLeft() uint64 { return p.bodyBytesLeft }

// ExternalHeaderDecoder reads the original input's 88-byte external
// header and promotes it to an InternalHeader with IsBodyPresent set
// and BodyPos recording the body's offset in this same stream — used
// by the run-former (C8) when staging records from the original input.
func ExternalHeaderDecoder() HeaderDecoder[InternalHeader] {
	return func(buf *ParseBuffer, path string) (InternalHeader, uint64, bool, error) {
		h, ok, err := Get(buf, HeaderTrait())
		if err != nil || !ok {
			return InternalHeader{}, 0, ok, err
		}
		bodyPos := buf.FilePos()
		if err := ValidateBodySize(h.BodySize, path, bodyPos); err != nil {
			return InternalHeader{}, 0, false, err
		}
		return InternalHeader{Header: h, BodyPos: bodyPos, IsBodyPresent: true}, h.BodySize, true, nil
	}
}

// InternalHeaderDecoder reads a run's 97-byte internal header verbatim.
// When IsBodyPresent is false (large-body deferral), the reported body
// size is zero: the body lives in the original input, not this run,
// and is re-fetched by BodyPos at final-emission time (C9).
func InternalHeaderDecoder() HeaderDecoder[InternalHeader] {
	return func(buf *ParseBuffer, path string) (InternalHeader, uint64, bool, error) {
		ih, ok, err := Get(buf, InternalHeaderTrait())
		if err != nil || !ok {
			return InternalHeader{}, 0, ok, err
		}
		bodySize := uint64(0)
		if ih.IsBodyPresent {
			bodySize = ih.BodySize
		}
		return ih, bodySize, true, nil
	}
}
