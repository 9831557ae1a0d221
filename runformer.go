package xxlsort

import (
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// inputBufferSize is the run-former's fixed input read buffer, carved
// once from the arena and reused across every pass.
const inputBufferSize = 4 * 1024 * 1024

// outputBufferSize is the run-former's per-pass output write buffer.
const outputBufferSize = 25 * 1024 * 1024

// largeBodyThreshold: bodies at or above this size are deferred
// (is_body_present = 0) rather than copied into the workspace, when
// the source is seekable.
const largeBodyThreshold = 1 * 1024 * 1024

// maxPassWorkspace bounds a single pass's sort workspace so every
// record within it can be addressed by a 32-bit base-relative offset
// (C7's sort element packs one). AVAILABLE_MEM may exceed this by a
// wide margin; the excess simply goes unused within any one pass.
const maxPassWorkspace = (1 << 32) - maxAlignment

// tempFileNameTemplate is the temp file naming prefix required by
// spec §6.
const tempFileNameTemplate = "yndx-xxlsort"

// RunFormer is the split-and-sort phase (C8): it consumes the source
// file, stages records in a workspace whose budget is shared with the
// pass's sort elements, sorts each pass, and writes either a temp run (more
// passes to come) or the final output directly (single-pass
// shortcut).
type RunFormer struct {
	arena   Slice
	src     *FileHandle
	srcPath string
	destID  *FileID
}

// NewRunFormer creates a run-former operating over arena, reading from
// src (already open) and, on the single-pass shortcut, writing
// directly to the file identified by destID.
func NewRunFormer(arena Slice, src *FileHandle, srcPath string, destID *FileID) *RunFormer {
	return &RunFormer{arena: arena, src: src, srcPath: srcPath, destID: destID}
}

// Run drives split-and-sort to completion, appending one FileID to
// *queue per non-final pass. wroteDirectly reports whether the single
// pass's output went straight to the destination (queue is left
// empty) rather than through the merger.
func (rf *RunFormer) Run(queue *[]*FileID) (wroteDirectly bool, err error) {
	inputBuf, rest := rf.arena.SplitAt(inputBufferSize)
	outputBuf, workspaceFull := rest.SplitAt(outputBufferSize)
	workspace := workspaceFull
	if workspace.Size() > maxPassWorkspace {
		workspace = workspace.SubSlice(0, maxPassWorkspace)
	}

	threshold := uint64(largeBodyThreshold)
	if !rf.src.IsSeekable() {
		threshold = ^uint64(0) // never defer: deferral needs to re-seek into src later
	}

	parser, err := NewParser(inputBuf, rf.src, rf.srcPath, ExternalHeaderDecoder())
	if err != nil {
		return false, err
	}

	for pass := 0; ; pass++ {
		se, err := fillPass(parser, workspace, threshold)
		if err != nil {
			return false, err
		}
		exhausted := !parser.IsHeaderValid()

		if pass == 0 && exhausted {
			if err := writeExternalRun(se, workspace, outputBuf, rf.destID, rf.src); err != nil {
				return false, err
			}
			return true, nil
		}

		id, err := NewTempFileID(tempFileNameTemplate)
		if err != nil {
			return false, err
		}
		if err := writeInternalRun(se, workspace, outputBuf, id); err != nil {
			id.Cleanup()
			return false, err
		}
		*queue = append(*queue, id)

		if exhausted {
			return false, nil
		}
	}
}

// fillPass stages records from parser into workspace, growing headers
// and inline bodies upward from its start, until the space left after
// those bytes and the sort elements so far can no longer hold
// (alignment padding + header + inline body + one more sort element),
// then sorts the result. The sort elements are kept in a separate Go
// slice, not in the workspace's high end; only their size is charged
// against the workspace. It never consumes
// the record that doesn't fit — that record starts the next pass.
func fillPass(parser *Parser[InternalHeader], workspace Slice, threshold uint64) (*SortElements, error) {
	rb := NewRenderBuffer(workspace, nil)
	var elems []SortElement

	for parser.IsHeaderValid() {
		hd := parser.Header()
		inline := hd.BodySize < threshold

		pad := padTo(rb.FilePos(), internalHeaderAlign)
		needed := pad + uint64(InternalHeaderSize) + uint64(sortElementSize)
		if inline {
			needed += hd.BodySize
		}
		lowUsed := rb.FilePos()
		highUsed := uint64(len(elems) * sortElementSize)
		free := uint64(workspace.Size()) - lowUsed - highUsed
		if free < needed {
			if len(elems) == 0 {
				return nil, fmt.Errorf("xxlsort: record requires %d bytes, workspace holds %d: %w",
					needed, workspace.Size(), xerrors.ErrArenaTooSmall)
			}
			break
		}

		ih := InternalHeader{Header: hd.Header, BodyPos: hd.BodyPos, IsBodyPresent: inline}
		placed, err := Put(rb, InternalHeaderTrait(), ih)
		if err != nil {
			return nil, err
		}
		if inline {
			if err := copyBody(parser, rb, hd.BodySize); err != nil {
				return nil, err
			}
		}
		elems = append(elems, NewSortElement(workspace, placed, ih.Key))

		if err := parser.ParseNext(); err != nil {
			return nil, err
		}
	}

	se := &SortElements{Base: workspace, Elems: elems}
	se.Sort()
	return se, nil
}

// copyBody streams n bytes of the current record's body out of parser
// and into rb.
func copyBody(parser *Parser[InternalHeader], rb *RenderBuffer, n uint64) error {
	buf := make([]byte, exportRecordScratchSize)
	remaining := n
	for remaining > 0 {
		chunkLen := uint64(len(buf))
		if chunkLen > remaining {
			chunkLen = remaining
		}
		filled, ok, err := parser.ReadBody(SliceOf(buf[:chunkLen]))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("xxlsort: truncated body while staging: %w", xerrors.ErrDataCorrupt)
		}
		if _, err := rb.Write(filled); err != nil {
			return err
		}
		remaining -= uint64(filled.Size())
	}
	return nil
}

// internalRunWorstCaseSize bounds writeInternalRun's output from above:
// each record costs at most internalHeaderAlign-1 bytes of alignment
// padding plus its header and (if inline) its body. The true size is
// usually smaller, since consecutive records rarely all land at the
// worst possible padding offset; writeInternalRun truncates the file
// down to the exact length once it knows it.
func internalRunWorstCaseSize(se *SortElements, workspace Slice) int64 {
	var total int64
	for _, el := range se.Elems {
		ih := el.Header(workspace)
		total += int64(internalHeaderAlign-1) + int64(InternalHeaderSize)
		if ih.IsBodyPresent {
			total += int64(ih.BodySize)
		}
	}
	return total
}

// externalRunSize computes writeExternalRun's exact output size: the
// external header carries no alignment padding (HeaderTrait.Align==1),
// and every record's body — inline or deferred — ends up written in
// full, so the sum is exact rather than a bound.
func externalRunSize(se *SortElements, workspace Slice) int64 {
	var total int64
	for _, el := range se.Elems {
		total += int64(ExternalHeaderSize) + int64(el.Header(workspace).BodySize)
	}
	return total
}

// writeInternalRun writes se's elements, in sorted order, to a fresh
// run file in internal format. The file is fallocated to a worst-case
// upper bound first (C8), so a full disk surfaces immediately rather
// than mid-write, then truncated down to its real length once written.
func writeInternalRun(se *SortElements, workspace, outputBuf Slice, id *FileID) error {
	fh, err := Open(id, WriteCreate)
	if err != nil {
		return err
	}
	if err := fh.Preallocate(internalRunWorstCaseSize(se, workspace)); err != nil {
		fh.Close()
		return err
	}
	rb := NewRenderBuffer(outputBuf, fh)
	for _, el := range se.Elems {
		ih := el.Header(workspace)
		if _, err := Put(rb, InternalHeaderTrait(), ih); err != nil {
			fh.Close()
			return err
		}
		if ih.IsBodyPresent {
			if _, err := rb.Write(el.BodySlice(workspace, ih.BodySize)); err != nil {
				fh.Close()
				return err
			}
		}
	}
	if err := rb.Flush(); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Truncate(int64(fh.Pos())); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// writeExternalRun writes se's elements, in sorted order, straight to
// destID in external format, fetching deferred bodies from src. The
// file is fallocated to its exact final size up front (C8).
func writeExternalRun(se *SortElements, workspace, outputBuf Slice, destID *FileID, src *FileHandle) error {
	fh, err := Open(destID, WriteCreate)
	if err != nil {
		return err
	}
	if err := fh.Preallocate(externalRunSize(se, workspace)); err != nil {
		fh.Close()
		return err
	}
	rb := NewRenderBuffer(outputBuf, fh)
	for _, el := range se.Elems {
		ih := el.Header(workspace)
		var inlineBody Slice
		if ih.IsBodyPresent {
			inlineBody = el.BodySlice(workspace, ih.BodySize)
		}
		if err := exportRecord(rb, src, ih, inlineBody); err != nil {
			fh.Close()
			return err
		}
	}
	if err := rb.Flush(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
