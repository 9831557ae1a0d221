package xxlsort

import (
	"fmt"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
	"golang.org/x/sys/unix"
)

// allocateArena reserves size bytes of anonymous memory via mmap, the
// same syscall family the orchestrator's single process-wide arena has
// used since spec §1 named "anonymous memory allocation" as the only
// OS abstraction beyond sequential/positional file I/O. The returned
// Slice is aligned down to the 64 KiB boundary per C10 step 3; release
// unmaps the original, unaligned mapping.
func allocateArena(size int64) (arena Slice, release func() error, err error) {
	raw, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Slice{}, nil, fmt.Errorf("mmap %d bytes: %w: %v", size, xerrors.ErrArenaTooLarge, err)
	}
	release = func() error {
		if uerr := unix.Munmap(raw); uerr != nil {
			return fmt.Errorf("munmap: %w", uerr)
		}
		return nil
	}
	aligned := SliceOf(raw).Aligned(maxAlignment)
	if aligned.Empty() {
		release()
		return Slice{}, nil, fmt.Errorf("arena of %d bytes leaves nothing after 64KiB alignment: %w", size, xerrors.ErrArenaTooSmall)
	}
	prefaultRegion(raw)
	return aligned, release, nil
}
