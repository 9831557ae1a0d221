package xxlsort

import (
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// exportRecordScratchSize bounds the temporary buffer used to stream a
// deferred body from the source file into a render buffer. It is a
// small, short-lived allocation outside the arena, not a bulk buffer.
const exportRecordScratchSize = 64 * 1024

// exportRecord writes one record in external format: the 88-byte
// header, then its body — either inlineBody verbatim, or (when the
// header says the body was deferred) the bytes fetched by seeking src
// to BodyPos. Used by the run-former's single-pass shortcut; the
// merger's final pass writes external format through
// exportMergedRecord instead.
func exportRecord(rb *RenderBuffer, src *FileHandle, ih InternalHeader, inlineBody Slice) error {
	if _, err := Put(rb, HeaderTrait(), ih.Header); err != nil {
		return err
	}
	if ih.IsBodyPresent {
		_, err := rb.Write(inlineBody)
		return err
	}
	return fetchDeferredBody(rb, src, ih.BodyPos, ih.BodySize)
}

// fetchDeferredBody seeks src to pos and streams size bytes through rb.
// Requires src to be seekable, which is guaranteed by the run-former
// never deferring bodies on a non-seekable source.
func fetchDeferredBody(rb *RenderBuffer, src *FileHandle, pos uint64, size uint64) error {
	if err := src.SetPos(pos); err != nil {
		return err
	}
	buf := make([]byte, exportRecordScratchSize)
	remaining := size
	for remaining > 0 {
		n := uint64(len(buf))
		if n > remaining {
			n = remaining
		}
		filled, ok, err := src.Read(SliceOf(buf[:n]))
		if err != nil {
			return err
		}
		if !ok || uint64(filled.Size()) != n {
			return fmt.Errorf("xxlsort: %s: truncated deferred body at %d: %w", src.Path(), pos, xerrors.ErrDataCorrupt)
		}
		if _, err := rb.Write(filled); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}
