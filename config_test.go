package xxlsort

import (
	"errors"
	"os"
	"testing"

	xerrors "github.com/mejedi/yndx-xxlsort/errors"
)

func TestParseAvailableMemBareBytes(t *testing.T) {
	n, err := ParseAvailableMem("65536")
	if err != nil {
		t.Fatal(err)
	}
	if n != 65536 {
		t.Fatalf("got %d, want 65536", n)
	}
}

func TestParseAvailableMemSuffixes(t *testing.T) {
	cases := map[string]int64{
		"1k": 1024,
		"1K": 1024,
		"2m": 2 * 1024 * 1024,
		"1g": 1024 * 1024 * 1024,
		"64M": 64 * 1024 * 1024,
	}
	for in, want := range cases {
		got, err := ParseAvailableMem(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %d, want %d", in, got, want)
		}
	}
}

func TestParseAvailableMemNegative(t *testing.T) {
	_, err := ParseAvailableMem("-1")
	if !errors.Is(err, xerrors.ErrNegativeMemSpec) {
		t.Fatalf("got %v, want ErrNegativeMemSpec", err)
	}
}

func TestParseAvailableMemMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1x", "1.5g"} {
		if _, err := ParseAvailableMem(in); !errors.Is(err, xerrors.ErrBadMemSpec) {
			t.Fatalf("%q: got %v, want ErrBadMemSpec", in, err)
		}
	}
}

func TestAvailableMemFromEnvDefault(t *testing.T) {
	if v, ok := os.LookupEnv("AVAILABLE_MEM"); ok {
		os.Unsetenv("AVAILABLE_MEM")
		t.Cleanup(func() { os.Setenv("AVAILABLE_MEM", v) })
	}
	n, err := AvailableMemFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if n != DefaultAvailableMem {
		t.Fatalf("got %d, want default %d", n, DefaultAvailableMem)
	}
}
