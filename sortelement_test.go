package xxlsort

import (
	"encoding/binary"
	"math/rand/v2"
	"sort"
	"testing"
)

func fillRandomBytes(rng *rand.Rand, b []byte) {
	for len(b) >= 8 {
		binary.NativeEndian.PutUint64(b, rng.Uint64())
		b = b[8:]
	}
	for i := range b {
		b[i] = byte(rng.Uint64())
	}
}

func placeInternalHeader(t *testing.T, rb *RenderBuffer, key [KeySize]byte) Slice {
	t.Helper()
	ih := InternalHeader{Header: Header{Key: key}, IsBodyPresent: true}
	placed, err := Put(rb, InternalHeaderTrait(), ih)
	if err != nil {
		t.Fatal(err)
	}
	return placed
}

func TestSortElementsSortsByKey(t *testing.T) {
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)

	keys := [][KeySize]byte{}
	for _, b := range []byte{5, 1, 4, 2, 3} {
		var k [KeySize]byte
		k[0] = b
		keys = append(keys, k)
	}

	var se SortElements
	se.Base = mem
	for _, k := range keys {
		addr := placeInternalHeader(t, rb, k)
		se.Elems = append(se.Elems, NewSortElement(mem, addr, k))
	}

	se.Sort()

	if !sort.IsSorted(&se) {
		t.Fatal("SortElements not sorted after Sort()")
	}
	for i, elem := range se.Elems {
		if elem.Header(mem).Key[0] != byte(i+1) {
			t.Fatalf("position %d has key[0]=%d, want %d", i, elem.Header(mem).Key[0], i+1)
		}
	}
}

func TestSortElementsFallsBackPastPrefixTie(t *testing.T) {
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)

	var kBig, kSmall [KeySize]byte
	for i := 0; i < sortElementKeyPrefixLen; i++ {
		kBig[i] = 7
		kSmall[i] = 7
	}
	kBig[sortElementKeyPrefixLen] = 9
	kSmall[sortElementKeyPrefixLen] = 1

	addrBig := placeInternalHeader(t, rb, kBig)
	addrSmall := placeInternalHeader(t, rb, kSmall)

	se := SortElements{Base: mem, Elems: []SortElement{
		NewSortElement(mem, addrBig, kBig),
		NewSortElement(mem, addrSmall, kSmall),
	}}
	se.Sort()

	if se.Elems[0].Header(mem).Key[sortElementKeyPrefixLen] != 1 {
		t.Fatal("tie-breaking past the 12-byte prefix did not fall back to the full key")
	}
}

func TestSortElementsRandomPermutationProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	mem := newTestArena(t, maxAlignment)
	rb := NewRenderBuffer(mem, nil)

	const n = 200
	se := SortElements{Base: mem}
	for i := 0; i < n; i++ {
		var k [KeySize]byte
		fillRandomBytes(rng, k[:])
		addr := placeInternalHeader(t, rb, k)
		se.Elems = append(se.Elems, NewSortElement(mem, addr, k))
	}
	se.Sort()
	for i := 1; i < n; i++ {
		a := se.Elems[i-1].Header(mem).Key
		b := se.Elems[i].Header(mem).Key
		if string(a[:]) > string(b[:]) {
			t.Fatalf("not sorted at %d", i)
		}
	}
}
