package xxlsort

import (
	"encoding/binary"
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// KeySize is the fixed width of a record's sort key.
const KeySize = 64

// MaxBodySize is the largest body a record may carry (spec invariant).
const MaxBodySize = 100 * 1024 * 1024

// ExternalHeaderSize is the on-disk size of Header: KeySize + 3 uint64
// fields, no padding.
const ExternalHeaderSize = KeySize + 8 + 8 + 8

// InternalHeaderSize is the on-disk size of InternalHeader: Header plus
// an 8-byte body_pos and a 1-byte is_body_present flag.
const InternalHeaderSize = ExternalHeaderSize + 8 + 1

// internalHeaderAlign is the alignment at which internal-format headers
// are written inside a run (spec §3).
const internalHeaderAlign uintptr = 16

// Header is the fixed 88-byte record header as it appears in the
// external (input/output) format. Integer fields use host byte order;
// the wire layout carries no padding.
type Header struct {
	Key      [KeySize]byte
	Flags    uint64
	CRC      uint64
	BodySize uint64
}

// InternalHeader is the extended header used only inside intermediate
// runs: it adds the body's offset in the original input and whether
// the body is actually stored alongside this header, to support
// large-body deferral (C8).
type InternalHeader struct {
	Header
	BodyPos       uint64
	IsBodyPresent bool
}

// ValidateBodySize checks the external-format invariant body_size <=
// MaxBodySize, returning a data-corrupt error with path/offset context
// if it's violated.
func ValidateBodySize(bodySize uint64, path string, offset uint64) error {
	if bodySize > MaxBodySize {
		return fmt.Errorf("xxlsort: %s at offset %d: body_size %d exceeds %d: %w",
			path, offset, bodySize, MaxBodySize, xerrors.ErrDataCorrupt)
	}
	return nil
}

func encodeHeader(h Header, b []byte) {
	copy(b[0:KeySize], h.Key[:])
	binary.NativeEndian.PutUint64(b[KeySize:], h.Flags)
	binary.NativeEndian.PutUint64(b[KeySize+8:], h.CRC)
	binary.NativeEndian.PutUint64(b[KeySize+16:], h.BodySize)
}

func decodeHeader(b []byte) Header {
	var h Header
	copy(h.Key[:], b[0:KeySize])
	h.Flags = binary.NativeEndian.Uint64(b[KeySize:])
	h.CRC = binary.NativeEndian.Uint64(b[KeySize+8:])
	h.BodySize = binary.NativeEndian.Uint64(b[KeySize+16:])
	return h
}

func encodeInternalHeader(h InternalHeader, b []byte) {
	encodeHeader(h.Header, b)
	binary.NativeEndian.PutUint64(b[ExternalHeaderSize:], h.BodyPos)
	if h.IsBodyPresent {
		b[ExternalHeaderSize+8] = 1
	} else {
		b[ExternalHeaderSize+8] = 0
	}
}

func decodeInternalHeader(b []byte) InternalHeader {
	return InternalHeader{
		Header:        decodeHeader(b),
		BodyPos:       binary.NativeEndian.Uint64(b[ExternalHeaderSize:]),
		IsBodyPresent: b[ExternalHeaderSize+8] != 0,
	}
}

// HeaderTrait is the Trait for the external-format header: no
// alignment padding on the wire.
func HeaderTrait() Trait[Header] {
	return Trait[Header]{
		Size:   ExternalHeaderSize,
		Align:  1,
		Encode: encodeHeader,
		Decode: decodeHeader,
	}
}

// InternalHeaderTrait is the Trait for the internal extended-format
// header: written at a 16-byte boundary inside a run.
func InternalHeaderTrait() Trait[InternalHeader] {
	return Trait[InternalHeader]{
		Size:   InternalHeaderSize,
		Align:  internalHeaderAlign,
		Encode: encodeInternalHeader,
		Decode: decodeInternalHeader,
	}
}
