// Command xxlsort sorts a flat file of fixed-header, variable-body
// records by their 64-byte key, using a bounded memory budget.
//
// Usage:
//
//	xxlsort <input> <output>
//
// The arena size is read from AVAILABLE_MEM (default 8 GiB); see
// xxlsort.ParseAvailableMem for its syntax.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mejedi/yndx-xxlsort"
	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	prog := filepath.Base(args[0])
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "%s: usage: %s <input> <output>\n", prog, prog)
		return 1
	}

	availableMem, err := xxlsort.AvailableMemFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", prog, classify(err), err)
		return 1
	}

	o := xxlsort.NewOrchestrator(args[1], args[2], availableMem)
	if err := o.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", prog, classify(err), err)
		return 1
	}
	return 0
}

// classify maps an error to the taxonomy label it belongs to (spec §7),
// so the same underlying error string ("file.bin: ...") is prefixed
// consistently regardless of which layer raised it.
func classify(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrUsage), errors.Is(err, xerrors.ErrBadMemSpec), errors.Is(err, xerrors.ErrNegativeMemSpec):
		return "Usage error"
	case errors.Is(err, xerrors.ErrMalformedData), errors.Is(err, xerrors.ErrDataCorrupt):
		return "Malformed data"
	case errors.Is(err, xerrors.ErrArenaTooLarge), errors.Is(err, xerrors.ErrArenaTooSmall):
		return "Resource exhaustion error"
	case errors.Is(err, xerrors.ErrInternal), errors.Is(err, xerrors.ErrNilFileID), errors.Is(err, xerrors.ErrClosed):
		return "Internal error"
	default:
		return "I/O error"
	}
}
