package xxlsort

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

// DefaultAvailableMem is the arena size used when AVAILABLE_MEM is
// unset (spec §6).
const DefaultAvailableMem = 8 * 1024 * 1024 * 1024

// memSuffixes maps the recognized unit suffix to its byte multiplier.
// Only one of each case is accepted; 'k'/'K' both mean KiB, etc.
var memSuffixes = map[byte]int64{
	'k': 1024, 'K': 1024,
	'm': 1024 * 1024, 'M': 1024 * 1024,
	'g': 1024 * 1024 * 1024, 'G': 1024 * 1024 * 1024,
}

// ParseAvailableMem parses an AVAILABLE_MEM value: a decimal number
// optionally suffixed with one of kKmMgG (KiB, MiB, GiB); a bare number
// is bytes. Negative or malformed values are errors.
func ParseAvailableMem(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("AVAILABLE_MEM: empty value: %w", xerrors.ErrBadMemSpec)
	}

	mult := int64(1)
	digits := s
	last := s[len(s)-1]
	if mult2, ok := memSuffixes[last]; ok {
		mult = mult2
		digits = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("AVAILABLE_MEM %q: %w", s, xerrors.ErrBadMemSpec)
	}
	if n < 0 {
		return 0, fmt.Errorf("AVAILABLE_MEM %q: %w", s, xerrors.ErrNegativeMemSpec)
	}
	if n > (1<<63-1)/mult {
		return 0, fmt.Errorf("AVAILABLE_MEM %q: overflow: %w", s, xerrors.ErrBadMemSpec)
	}
	return n * mult, nil
}

// AvailableMemFromEnv reads AVAILABLE_MEM, defaulting to
// DefaultAvailableMem when unset.
func AvailableMemFromEnv() (int64, error) {
	v, ok := os.LookupEnv("AVAILABLE_MEM")
	if !ok {
		return DefaultAvailableMem, nil
	}
	return ParseAvailableMem(v)
}
