// Package errors defines all exported error sentinels for the xxlsort
// module.
//
// This is the single source of truth for error values. Every package in
// the module that raises or classifies errors imports from here,
// ensuring errors.Is checks work across package boundaries regardless
// of which layer raised the error.
package errors

import "errors"

// Usage errors (spec §7): bad CLI args, bad AVAILABLE_MEM.
var (
	ErrUsage           = errors.New("xxlsort: usage error")
	ErrBadMemSpec      = errors.New("xxlsort: malformed AVAILABLE_MEM setting")
	ErrNegativeMemSpec = errors.New("xxlsort: AVAILABLE_MEM must not be negative")
)

// I/O errors: open/read/write/seek/fsync/unlink failures.
var (
	ErrNotSeekable = errors.New("xxlsort: file is not seekable")
	ErrShortRead   = errors.New("xxlsort: short read")
	ErrShortWrite  = errors.New("xxlsort: short write")
)

// Data-corrupt errors: short read mid-record, body_size out of bounds.
var (
	ErrMalformedData = errors.New("xxlsort: malformed data")
	ErrDataCorrupt   = errors.New("xxlsort: data corrupt")
)

// Resource-exhaustion errors: arena allocation failure.
var (
	ErrArenaTooLarge = errors.New("xxlsort: failed to allocate memory arena")
	ErrArenaTooSmall = errors.New("xxlsort: memory arena too small for a single pass")
)

// Logic errors: internal precondition violations, reported separately
// from user-facing errors at the top-level handler.
var (
	ErrInternal      = errors.New("xxlsort: internal error")
	ErrNilFileID     = errors.New("xxlsort: operation on a null file identity")
	ErrClosed        = errors.New("xxlsort: operation on a closed object")
)
