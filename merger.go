package xxlsort

import (
	"bytes"
	"container/heap"
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// mergeOutputBufferSize is each merge pass's output write buffer.
const mergeOutputBufferSize = 40 * 1024 * 1024

// mergeInputBufferSize is the read buffer given to each run opened for
// a merge pass. Fan-in per pass is capped at roughly
// (arena size - mergeOutputBufferSize) / mergeInputBufferSize.
const mergeInputBufferSize = 25 * 1024 * 1024

// Merger is the k-way heap-merge phase (C9): it repeatedly opens a
// bounded number of runs, merges them by key into either another run
// or the final output, until the transient queue is empty.
type Merger struct {
	arena   Slice
	src     *FileHandle
	srcPath string
	destID  *FileID
}

// NewMerger creates a merger operating over arena. src must stay open
// for the merger's whole lifetime: deferred bodies are fetched by
// seeking it during the final pass.
func NewMerger(arena Slice, src *FileHandle, srcPath string, destID *FileID) *Merger {
	return &Merger{arena: arena, src: src, srcPath: srcPath, destID: destID}
}

// Run drains the transient queue, one merge pass at a time, until it
// is empty. A no-op if the queue starts empty (the run-former's
// single-pass shortcut already wrote the final output).
func (m *Merger) Run(queue *[]*FileID) error {
	for len(*queue) > 0 {
		if err := m.runPass(queue); err != nil {
			return err
		}
	}
	return nil
}

// mergeStream is one open run participating in a merge pass.
type mergeStream struct {
	id     *FileID
	fh     *FileHandle
	parser *Parser[InternalHeader]
}

// mergeHeap orders streams by their current record's full key, low to
// high. container/heap produces a min-heap from this ordering directly
// — unlike a C++ std::priority_queue, which defaults to a max-heap and
// would need its comparator inverted to get the smallest key on top.
type mergeHeap []*mergeStream

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i].parser.Header().Key, h[j].parser.Header().Key
	return bytes.Compare(a[:], b[:]) < 0
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)    { *h = append(*h, x.(*mergeStream)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// runPass carves a fresh output buffer and as many 25 MiB input
// buffers as fit, pops that many runs off the queue, and merges them
// down to nothing, producing one new run (or, if the queue is now
// empty, the final output).
func (m *Merger) runPass(queue *[]*FileID) error {
	outputBuf, rest := m.arena.SplitAt(mergeOutputBufferSize)

	var streams mergeHeap
	popped := 0
	avail := rest
	for avail.Size() >= mergeInputBufferSize && len(*queue) > 0 {
		id := (*queue)[0]
		*queue = (*queue)[1:]
		popped++

		streamMem, remaining := avail.SplitAt(mergeInputBufferSize)
		avail = remaining

		fh, err := Open(id, ReadOnly)
		if err != nil {
			cleanupStreams(streams)
			return err
		}
		fh.AdviseSequential()
		parser, err := NewParser(streamMem, fh, id.Path(), InternalHeaderDecoder())
		if err != nil {
			fh.Close()
			cleanupStreams(streams)
			return err
		}
		if !parser.IsHeaderValid() {
			fh.Close()
			id.Cleanup()
			continue
		}
		streams = append(streams, &mergeStream{id: id, fh: fh, parser: parser})
	}

	finalPass := len(*queue) == 0
	if !finalPass && popped < 2 {
		// A pass that consumes fewer than two runs and enqueues one
		// would never shrink the queue.
		cleanupStreams(streams)
		return fmt.Errorf("xxlsort: merge arena of %d bytes opens %d run(s) per pass: %w",
			m.arena.Size(), popped, xerrors.ErrArenaTooSmall)
	}

	var outID *FileID
	if finalPass {
		outID = m.destID
	} else {
		var err error
		outID, err = NewTempFileID(tempFileNameTemplate)
		if err != nil {
			cleanupStreams(streams)
			return err
		}
	}
	outFH, err := Open(outID, WriteCreate)
	if err != nil {
		if !finalPass {
			outID.Cleanup()
		}
		cleanupStreams(streams)
		return err
	}
	rb := NewRenderBuffer(outputBuf, outFH)

	heap.Init(&streams)
	for streams.Len() > 0 {
		top := heap.Pop(&streams).(*mergeStream)
		ih := top.parser.Header()

		var writeErr error
		if finalPass {
			writeErr = exportMergedRecord(rb, m.src, top.parser, ih)
		} else {
			writeErr = forwardInternalRecord(rb, top.parser, ih)
		}
		if writeErr != nil {
			top.fh.Close()
			top.id.Cleanup()
			cleanupStreams(streams)
			outFH.Close()
			if !finalPass {
				outID.Cleanup()
			}
			return writeErr
		}

		if err := top.parser.ParseNext(); err != nil {
			top.fh.Close()
			top.id.Cleanup()
			cleanupStreams(streams)
			outFH.Close()
			if !finalPass {
				outID.Cleanup()
			}
			return err
		}
		if top.parser.IsHeaderValid() {
			heap.Push(&streams, top)
		} else {
			top.fh.Close()
			top.id.Cleanup()
		}
	}

	if err := rb.Flush(); err != nil {
		outFH.Close()
		if !finalPass {
			outID.Cleanup()
		}
		return err
	}
	if err := outFH.Close(); err != nil {
		return err
	}
	if !finalPass {
		*queue = append(*queue, outID)
	}
	return nil
}

// cleanupStreams closes and unlinks every still-open stream, used when
// a pass aborts partway through.
func cleanupStreams(streams mergeHeap) {
	for _, s := range streams {
		s.fh.Close()
		s.id.Cleanup()
	}
}

// exportMergedRecord writes the current record in external format to
// the final output, fetching a deferred body from src if needed.
func exportMergedRecord(rb *RenderBuffer, src *FileHandle, parser *Parser[InternalHeader], ih InternalHeader) error {
	if _, err := Put(rb, HeaderTrait(), ih.Header); err != nil {
		return err
	}
	if ih.IsBodyPresent {
		return copyBody(parser, rb, ih.BodySize)
	}
	return fetchDeferredBody(rb, src, ih.BodyPos, ih.BodySize)
}

// forwardInternalRecord writes the current record unchanged, in
// internal format, to the next run.
func forwardInternalRecord(rb *RenderBuffer, parser *Parser[InternalHeader], ih InternalHeader) error {
	if _, err := Put(rb, InternalHeaderTrait(), ih); err != nil {
		return err
	}
	if ih.IsBodyPresent {
		return copyBody(parser, rb, ih.BodySize)
	}
	return nil
}
