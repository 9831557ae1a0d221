package xxlsort

import (
	"context"
	"errors"
)

// Orchestrator drives the run-former then the merger (C10), owning the
// process-wide arena and the source/destination file identities for
// the whole run.
type Orchestrator struct {
	inputPath    string
	outputPath   string
	availableMem int64
}

// NewOrchestrator configures a run over inputPath/outputPath with the
// given arena size (see ParseAvailableMem/AvailableMemFromEnv).
func NewOrchestrator(inputPath, outputPath string, availableMem int64) *Orchestrator {
	return &Orchestrator{inputPath: inputPath, outputPath: outputPath, availableMem: availableMem}
}

// Run executes the seven steps of C10. ctx is checked between the
// run-former and merger phases — not to cancel any concurrent work
// (there is none, per §5), but because it's the idiomatic way to let a
// caller abort a long synchronous operation between its natural phase
// boundaries.
//
// A failure from any step leaves the destination auto-unlinked and
// every transient run auto-unlinked; Run unlinks them itself rather
// than waiting on garbage collection, since Go has no destructors to
// do it implicitly.
func (o *Orchestrator) Run(ctx context.Context) error {
	arena, release, err := allocateArena(o.availableMem)
	if err != nil {
		return err
	}
	defer release()

	src, err := Open(NewFileID(o.inputPath), ReadOnly)
	if err != nil {
		return err
	}
	defer src.Close()

	destID := NewFileID(o.outputPath)
	destID.SetAutoUnlink(true)

	var queue []*FileID
	abort := func(cause error) error {
		var cleanupErrs []error
		for _, id := range queue {
			if cerr := id.Cleanup(); cerr != nil {
				cleanupErrs = append(cleanupErrs, cerr)
			}
		}
		if cerr := destID.Cleanup(); cerr != nil {
			cleanupErrs = append(cleanupErrs, cerr)
		}
		return errors.Join(append([]error{cause}, cleanupErrs...)...)
	}

	rf := NewRunFormer(arena, src, o.inputPath, destID)
	if _, err := rf.Run(&queue); err != nil {
		return abort(err)
	}

	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	mg := NewMerger(arena, src, o.inputPath, destID)
	if err := mg.Run(&queue); err != nil {
		return abort(err)
	}

	destID.SetAutoUnlink(false)
	return nil
}
