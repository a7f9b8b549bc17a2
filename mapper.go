package dartrie

import (
	"sort"

	set3 "github.com/TomTonic/Set3"
)

// invalidCode marks an unassigned slot in a CodeMapper's table. It is the
// widest value a uint16 table entry could hold before widening to u32 on
// read, matching the 65535-character alphabet ceiling spec.md §4.4 enforces
// at build time.
const invalidCode uint32 = 0xffff

// maxAlphabetSize is the largest number of distinct codes a CodeMapper may
// assign (spec.md §4.4).
const maxAlphabetSize = 65535

// CodeMapper is a bijection from characters seen during construction to
// dense, frequency-ranked codes. Code 0 is always reserved for the
// end-marker rune (runeEndMarker); every other code is assigned in order
// of descending frequency, ties broken by ascending rune value.
type CodeMapper struct {
	table        []uint32 // indexed by rune value; invalidCode if unassigned
	alphabetSize uint32
}

// runeEndMarker is the reserved end-marker character (spec.md §3, §9).
const runeEndMarker rune = 0

// newCodeMapper builds a CodeMapper from a frequency table indexed by rune
// value. freqs[runeEndMarker] must already be forced to the maximum
// possible frequency by the caller so the end-marker sorts first.
func newCodeMapper(freqs []uint32) (CodeMapper, error) {
	type entry struct {
		ch   rune
		freq uint32
	}
	var sorted []entry
	for ch, f := range freqs {
		if f != 0 {
			sorted = append(sorted, entry{ch: rune(ch), freq: f})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].freq != sorted[j].freq {
			return sorted[i].freq > sorted[j].freq
		}
		return sorted[i].ch < sorted[j].ch
	})
	if len(sorted) > maxAlphabetSize {
		return CodeMapper{}, inputError("# of character kinds must be no more than 65535")
	}

	table := make([]uint32, len(freqs))
	for i := range table {
		table[i] = invalidCode
	}
	for code, e := range sorted {
		table[e.ch] = uint32(code)
	}
	return CodeMapper{table: table, alphabetSize: uint32(len(sorted))}, nil
}

// AlphabetSize returns the number of distinct codes assigned, including the
// end-marker's code 0.
func (m CodeMapper) AlphabetSize() uint32 { return m.alphabetSize }

// Get returns the code assigned to ch, if ch appeared during construction.
func (m CodeMapper) Get(ch rune) (uint32, bool) {
	if ch < 0 || int(ch) >= len(m.table) {
		return 0, false
	}
	code := m.table[ch]
	if code == invalidCode {
		return 0, false
	}
	return code, true
}

// UsedCodes returns the set of all codes this mapper assigns, including
// code 0 for the end-marker.
func (m CodeMapper) UsedCodes() *set3.Set3[uint32] {
	codes := set3.EmptyWithCapacity[uint32](uint32(m.alphabetSize))
	for _, code := range m.table {
		if code != invalidCode {
			codes.Add(code)
		}
	}
	return codes
}

// HeapBytes returns the approximate heap footprint of the mapper's table.
func (m CodeMapper) HeapBytes() int { return len(m.table) * 4 }

// IOBytes returns the serialized size of the mapper in bytes.
func (m CodeMapper) IOBytes() int { return len(m.table)*2 + 4 + 4 }

// SerializeInto appends the mapper's little-endian wire encoding to dst:
// a u32 table length, table_len u16 codes (invalidCode, 0xFFFF, for
// unassigned runes), then a u32 alphabet size.
func (m CodeMapper) SerializeInto(dst []byte) []byte {
	dst = PackUint32(dst, uint32(len(m.table)), 4)
	for _, code := range m.table {
		dst = PackUint32(dst, code, 2)
	}
	dst = PackUint32(dst, m.alphabetSize, 4)
	return dst
}

// DeserializeCodeMapper reads a CodeMapper from the front of src and
// returns it along with the unread suffix of src.
func DeserializeCodeMapper(src []byte) (CodeMapper, []byte) {
	tableLen := UnpackUint32(src, 4)
	src = src[4:]
	table := make([]uint32, tableLen)
	for i := range table {
		table[i] = UnpackUint32(src, 2)
		src = src[2:]
	}
	alphabetSize := UnpackUint32(src, 4)
	src = src[4:]
	return CodeMapper{table: table, alphabetSize: alphabetSize}, src
}
