package xxlsort

import (
	"bytes"
	"sort"
)

// sortElementSize is the packed, on-the-wire size of SortElement: 12
// bytes of key prefix plus a 4-byte offset. It never touches disk, but
// the run-former sizes its downward-growing array against this
// constant when deciding how much of the arena's free middle remains.
const sortElementSize = 16
const sortElementKeyPrefixLen = 12

// SortElement is a compact index entry: a prefix of the record's key
// plus a 32-bit offset to the full record, relative to the run-former
// pass's arena base. It does not own the record it points to — its
// lifetime is the run-former pass's arena.
//
// The offset is relative to a base Slice carried alongside the element
// (see SortElements), not a process-wide pointer: the original's
// sort_element::init binds a raw record_header* directly, which has no
// Go analogue once the base itself can vary per call; binding the base
// explicitly is the natural substitute.
type SortElement struct {
	prefix [sortElementKeyPrefixLen]byte
	offset uint32
}

// NewSortElement builds a sort element for the internal header placed
// at headerAddr within base's arena.
func NewSortElement(base Slice, headerAddr Slice, key [KeySize]byte) SortElement {
	var se SortElement
	copy(se.prefix[:], key[:sortElementKeyPrefixLen])
	se.offset = uint32(headerAddr.OffsetFrom(base))
	return se
}

// HeaderSlice returns the InternalHeader-sized slice this element
// points to, within base's arena.
func (se SortElement) HeaderSlice(base Slice) Slice {
	return AddrAt(base, uint64(se.offset), InternalHeaderSize)
}

// Header decodes the full internal header this element points to.
func (se SortElement) Header(base Slice) InternalHeader {
	return decodeInternalHeader(se.HeaderSlice(base).Bytes())
}

// BodySlice returns the size-byte inline body immediately following
// this element's header, within base's arena. Only meaningful when the
// header's IsBodyPresent is true.
func (se SortElement) BodySlice(base Slice, size uint64) Slice {
	return AddrAt(base, uint64(se.offset)+uint64(InternalHeaderSize), int(size))
}

// SortElements is a sort.Interface over a run-former pass's sort
// element array, resolving full keys against base on prefix ties.
type SortElements struct {
	Base Slice
	Elems []SortElement
}

func (s *SortElements) Len() int      { return len(s.Elems) }
func (s *SortElements) Swap(i, j int) { s.Elems[i], s.Elems[j] = s.Elems[j], s.Elems[i] }

// Less compares by prefix first; only on a tie does it fall back to
// the full 64-byte key via the pointed-to record, which is the whole
// point of carrying a prefix — most comparisons never touch memory
// outside the sort element array itself.
func (s *SortElements) Less(i, j int) bool {
	if c := bytes.Compare(s.Elems[i].prefix[:], s.Elems[j].prefix[:]); c != 0 {
		return c < 0
	}
	ki := s.Elems[i].Header(s.Base).Key
	kj := s.Elems[j].Header(s.Base).Key
	return bytes.Compare(ki[:], kj[:]) < 0
}

// Sort sorts the elements ascending by key. Stability is explicitly
// not guaranteed (spec non-goal): equal keys may be reordered.
func (s *SortElements) Sort() {
	sort.Sort(s)
}
