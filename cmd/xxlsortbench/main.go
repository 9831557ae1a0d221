// Command xxlsortbench reproduces the ~4x speedup the sort element
// (C7) claims over a naive pointer+memcmp comparator, by sorting the
// same set of keys both ways and reporting wall-clock time for each.
//
// Usage:
//
//	go run ./cmd/xxlsortbench -keys 2000000
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/spaolacci/murmur3"
)

const keySize = 64
const prefixLen = 12

// naiveRecord is the pointer+memcmp baseline: a full copy of the key,
// compared byte for byte on every call, the way a record array without
// any prefix optimization would be sorted.
type naiveRecord struct {
	key [keySize]byte
}

type naiveRecords []naiveRecord

func (r naiveRecords) Len() int      { return len(r) }
func (r naiveRecords) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r naiveRecords) Less(i, j int) bool {
	return bytes.Compare(r[i].key[:], r[j].key[:]) < 0
}

// prefixElement mirrors xxlsort.SortElement's layout: a 12-byte prefix
// plus an index into a separate backing array, so most comparisons
// never touch the full key.
type prefixElement struct {
	prefix [prefixLen]byte
	idx    uint32
}

type prefixElements struct {
	elems []prefixElement
	full  [][keySize]byte
}

func (p *prefixElements) Len() int      { return len(p.elems) }
func (p *prefixElements) Swap(i, j int) { p.elems[i], p.elems[j] = p.elems[j], p.elems[i] }
func (p *prefixElements) Less(i, j int) bool {
	a, b := p.elems[i], p.elems[j]
	if c := bytes.Compare(a.prefix[:], b.prefix[:]); c != 0 {
		return c < 0
	}
	ka, kb := p.full[a.idx], p.full[b.idx]
	return bytes.Compare(ka[:], kb[:]) < 0
}

func main() {
	numKeys := flag.Int("keys", 2_000_000, "number of keys to sort")
	seed := flag.Uint64("seed", 0x1234, "murmur3 seed for key generation")
	flag.Parse()

	fmt.Printf("Generating %d keys (murmur3-derived)...\n", *numKeys)
	keys := generateKeys(*numKeys, uint32(*seed))

	naive := make(naiveRecords, *numKeys)
	for i, k := range keys {
		naive[i].key = k
	}
	naiveStart := time.Now()
	sort.Sort(naive)
	naiveDur := time.Since(naiveStart)

	pe := &prefixElements{elems: make([]prefixElement, *numKeys), full: keys}
	for i, k := range keys {
		copy(pe.elems[i].prefix[:], k[:prefixLen])
		pe.elems[i].idx = uint32(i)
	}
	prefixStart := time.Now()
	sort.Sort(pe)
	prefixDur := time.Since(prefixStart)

	fmt.Printf("naive pointer+memcmp:  %v\n", naiveDur)
	fmt.Printf("prefix+offset (C7):    %v\n", prefixDur)
	if prefixDur > 0 {
		fmt.Printf("speedup:               %.2fx\n", float64(naiveDur)/float64(prefixDur))
	}
}

// generateKeys fills n keys with high-entropy bytes by hashing
// PCG-generated 64-bit values with murmur3, the same key-generation
// approach the teacher's
// own cmd/bench/main.go uses to seed its benchmark inputs.
func generateKeys(n int, seed uint32) [][keySize]byte {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(n)))
	keys := make([][keySize]byte, n)
	var counter [8]byte
	for i := range keys {
		putUint64(counter[:], rng.Uint64())
		h1, h2 := murmur3.Sum128WithSeed(counter[:], seed)
		for j := 0; j < keySize; j += 16 {
			putUint64(keys[i][j:], h1)
			putUint64(keys[i][j+8:], h2)
		}
	}
	return keys
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
