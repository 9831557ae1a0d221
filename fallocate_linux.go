//go:build linux

package xxlsort

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile pre-allocates disk blocks for a run or output file before
// the run-former (C8) starts writing it, so a full disk
// surfaces as an I/O error up front rather than a mid-write SIGBUS on a
// sparse file. On Linux, uses the fallocate syscall for efficient space
// reservation.
func fallocateFile(file *os.File, size int64) error {
	err := unix.Fallocate(int(file.Fd()), 0, 0, size)
	if err != nil {
		// Fallback to ftruncate if fallocate fails (e.g., NFS, some filesystems)
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// Fallocate allocates blocks but doesn't set file size - must also truncate
	return unix.Ftruncate(int(file.Fd()), size)
}
