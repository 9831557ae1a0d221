// Command xxlbinarize converts the sample-data text format into the
// binary record stream xxlsort reads.
//
// Each input line is whitespace-delimited:
//
//	KEY FLAGS CRC BODY_SIZE BODY_SEED
//
// KEY is up to 64 bytes of text, zero-padded if shorter and truncated
// (never read past) if longer; BODY is BODY_SIZE reproducible
// pseudo-random bytes derived from BODY_SEED. Malformed lines are
// reported to stderr and skipped, mirroring the original converter's
// "line ignored" behavior.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mejedi/yndx-xxlsort"
	"github.com/mejedi/yndx-xxlsort/internal/mtstream"
)

const outputBufferSize = 40 * 1024 * 1024

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "xxlbinarize: %v\n", err)
		os.Exit(1)
	}
}

func run(in *os.File, out *os.File) error {
	arena := make([]byte, outputBufferSize)
	fh := xxlsort.WrapOpenFile(out, fdPath(out))
	rb := xxlsort.NewRenderBuffer(xxlsort.SliceOf(arena), fh)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024), 1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		h, bodySize, bodySeed, ok := parseLine(scanner.Text())
		if !ok {
			fmt.Fprintf(os.Stderr, "Line %d ignored\n", lineNo)
			continue
		}
		if _, err := xxlsort.Put(rb, xxlsort.HeaderTrait(), h); err != nil {
			return err
		}
		if err := writeBody(rb, bodySize, bodySeed); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return rb.Flush()
}

// parseLine decodes "KEY FLAGS CRC BODY_SIZE BODY_SEED". ok is false
// for a malformed line or a body_size over xxlsort.MaxBodySize.
func parseLine(line string) (h xxlsort.Header, bodySize, bodySeed uint64, ok bool) {
	var key string
	n, err := fmt.Sscanf(line, "%s %d %d %d %d", &key, &h.Flags, &h.CRC, &bodySize, &bodySeed)
	if err != nil || n != 5 || bodySize > xxlsort.MaxBodySize {
		return xxlsort.Header{}, 0, 0, false
	}
	copy(h.Key[:], key) // zero-padded if short, truncated (never over-read) if long
	h.BodySize = bodySize
	return h, bodySize, bodySeed, true
}

func writeBody(rb *xxlsort.RenderBuffer, size, seed uint64) error {
	s := mtstream.New(seed)
	buf := make([]byte, 64*1024)
	for size > 0 {
		n := uint64(len(buf))
		if n > size {
			n = size
		}
		s.Read(buf[:n])
		if _, err := rb.Write(xxlsort.SliceOf(buf[:n])); err != nil {
			return err
		}
		size -= n
	}
	return nil
}

// fdPath lets xxlsort.FileID address an already-open *os.File's path
// via /dev/fd, matching the original converter's own use of
// /dev/fd/1 as its output path.
func fdPath(f *os.File) string {
	return fmt.Sprintf("/dev/fd/%d", f.Fd())
}
