package dartrie

import (
	"encoding/binary"

	maphash "github.com/dolthub/maphash"
)

// tailHasher hashes a promoted leaf's packed tail codes down to a single
// byte fingerprint. It carries one process-wide seed (set once, when the
// package is initialized) so that a hash computed while building a trie and a hash computed
// while later querying it always agree; MpfTrie is not serializable (see
// DESIGN.md), so the seed never needs to outlive the process.
var tailHasher = maphash.NewHasher[string]()

// tailHash returns a one-byte fingerprint of codes.
func tailHash(codes []uint32) uint8 {
	buf := make([]byte, 4*len(codes))
	for i, c := range codes {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}
	return uint8(tailHasher.Hash(string(buf)))
}

// auxEntry is the per-promoted-leaf fingerprint MpfTrie keeps in place of
// MpTrie's full tail bytes: the suffix length and a one-byte hash of its
// codes.
type auxEntry struct {
	tailLen  uint8
	tailHash uint8
}

// MpfTrie is a fuzzy minimal-prefix trie (spec.md §9, "open questions"): it
// replaces MpTrie's full tail bytes with a (length, hash) fingerprint per
// promoted leaf, trading a smaller tail region for an explicit,
// documented false-positive rate. A collision between two distinct tails
// of the same length is possible, if rare (1/256 by construction); callers
// that cannot tolerate it should compare the returned value back against a
// side table, or use MpTrie instead. MpfTrie has no Release path back to
// the exact bytes it hashed, so unlike Trie and MpTrie it offers no
// SerializeToSlice — see DESIGN.md.
type MpfTrie struct {
	mapper CodeMapper
	nodes  []node
	ranks  []bool
	auxes  []auxEntry
}

func (t *MpfTrie) childIdx(nodeIdx, code uint32) (uint32, bool) {
	n := t.nodes[nodeIdx]
	if n.isLeaf() {
		return 0, false
	}
	childIdx := n.getBase() ^ code
	if int(childIdx) >= len(t.nodes) || t.nodes[childIdx].getCheck() != nodeIdx {
		return 0, false
	}
	return childIdx, true
}

func (t *MpfTrie) auxFor(nodeIdx uint32) auxEntry {
	if !t.ranks[nodeIdx] {
		panic("dartrie: node is not a fuzzy-tail leaf")
	}
	return t.auxes[nodeIdx]
}

// ExactMatchFuzzy returns the value associated with key, if key was
// present at construction time, and reports via verified whether the match
// was confirmed directly (the key ended at an internal node's end-marker
// leaf, so no fingerprint was consulted) or only via a (length, hash)
// fingerprint match. Every match that ends at a promoted leaf is reported
// unverified, even when its stored tail is empty. verified is only
// meaningful when ok is true; a hash collision on an unverified match is
// rare but possible.
func (t *MpfTrie) ExactMatchFuzzy(key string) (value uint32, ok bool, verified bool) {
	runes := []rune(key)
	nodeIdx := uint32(0)
	i := 0
	for i < len(runes) && !t.nodes[nodeIdx].isLeaf() {
		code, mapped := t.mapper.Get(runes[i])
		if !mapped {
			return 0, false, false
		}
		childIdx, ok2 := t.childIdx(nodeIdx, code)
		if !ok2 {
			return 0, false, false
		}
		nodeIdx = childIdx
		i++
	}

	n := t.nodes[nodeIdx]
	if !n.isLeaf() {
		if n.hasLeaf() && i == len(runes) {
			leafIdx := n.getBase() ^ endCode
			return t.nodes[leafIdx].value(), true, true
		}
		return 0, false, false
	}

	value = n.value()
	suffix := runes[i:]
	codes := make([]uint32, len(suffix))
	for j, c := range suffix {
		code, mapped := t.mapper.Get(c)
		if !mapped {
			return 0, false, false
		}
		codes[j] = code
	}

	aux := t.auxFor(nodeIdx)
	if int(aux.tailLen) != len(codes) || aux.tailHash != tailHash(codes) {
		return 0, false, false
	}
	return value, true, false
}

// FuzzyMatch is one hit yielded by an MpfCommonPrefixSearchIter: the
// stored value, the matched range measured in runes and bytes, and whether
// the match was confirmed directly or only via tail fingerprint.
type FuzzyMatch struct {
	Value     uint32
	CharStart int
	CharEnd   int
	ByteStart int
	ByteEnd   int
	Verified  bool
}

// MpfCommonPrefixSearcher holds a pre-mapped haystack for repeated
// common-prefix searches against an MpfTrie. It borrows its trie; a
// searcher must not outlive the trie it was created from.
type MpfCommonPrefixSearcher struct {
	trie *MpfTrie
	text mappedText
}

// CommonPrefixSearcher returns a searcher bound to t with no text loaded.
func (t *MpfTrie) CommonPrefixSearcher() *MpfCommonPrefixSearcher {
	return &MpfCommonPrefixSearcher{trie: t}
}

// SetText maps text for searching. It replaces any previously loaded text.
func (s *MpfCommonPrefixSearcher) SetText(text string) {
	s.text = mapText(&s.trie.mapper, text)
}

// Search returns an iterator over all stored keys that are a prefix of the
// loaded text starting at rune position from.
func (s *MpfCommonPrefixSearcher) Search(from int) *MpfCommonPrefixSearchIter {
	return &MpfCommonPrefixSearchIter{s: s, pos: from, start: from}
}

// MpfCommonPrefixSearchIter is a pull iterator yielding matches in order of
// increasing match length. It borrows its MpfCommonPrefixSearcher.
type MpfCommonPrefixSearchIter struct {
	s       *MpfCommonPrefixSearcher
	pos     int
	start   int
	nodeIdx uint32
	done    bool
}

// Next returns the next match, or (FuzzyMatch{}, false) once the walk
// fails, the tail fingerprint fails to match, or the text is exhausted.
func (it *MpfCommonPrefixSearchIter) Next() (FuzzyMatch, bool) {
	if it.done {
		return FuzzyMatch{}, false
	}
	t := it.s.trie
	text := it.s.text
	for it.pos < len(text.codes) {
		if !text.valid[it.pos] {
			it.done = true
			return FuzzyMatch{}, false
		}
		childIdx, ok := t.childIdx(it.nodeIdx, text.codes[it.pos])
		if !ok {
			it.done = true
			return FuzzyMatch{}, false
		}
		it.nodeIdx = childIdx
		it.pos++

		n := t.nodes[it.nodeIdx]
		if n.isLeaf() {
			it.done = true
			return it.fuzzyMatch(it.nodeIdx, n.value())
		}
		if n.hasLeaf() {
			leafIdx := n.getBase() ^ endCode
			return it.match(t.nodes[leafIdx].value(), true), true
		}
	}
	it.done = true
	return FuzzyMatch{}, false
}

func (it *MpfCommonPrefixSearchIter) fuzzyMatch(nodeIdx uint32, value uint32) (FuzzyMatch, bool) {
	t := it.s.trie
	text := it.s.text
	aux := t.auxFor(nodeIdx)
	tailLen := int(aux.tailLen)
	if it.pos+tailLen > len(text.codes) {
		return FuzzyMatch{}, false
	}
	codes := make([]uint32, tailLen)
	for j := 0; j < tailLen; j++ {
		if !text.valid[it.pos+j] {
			return FuzzyMatch{}, false
		}
		codes[j] = text.codes[it.pos+j]
	}
	if aux.tailHash != tailHash(codes) {
		return FuzzyMatch{}, false
	}
	it.pos += tailLen
	return it.match(value, false), true
}

func (it *MpfCommonPrefixSearchIter) match(value uint32, verified bool) FuzzyMatch {
	text := it.s.text
	return FuzzyMatch{
		Value:     value,
		CharStart: it.start,
		CharEnd:   it.pos,
		ByteStart: text.byteAt[it.start],
		ByteEnd:   text.byteAt[it.pos],
		Verified:  verified,
	}
}

// HeapBytes returns the approximate heap footprint of the trie.
func (t *MpfTrie) HeapBytes() int {
	return t.mapper.HeapBytes() + len(t.nodes)*nodeByteSize + len(t.ranks) + len(t.auxes)*2
}

// NumElems returns the number of stored keys.
func (t *MpfTrie) NumElems() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isLeaf() {
			n++
		}
	}
	return n
}

// NumVacants returns the number of unused node-array slots.
func (t *MpfTrie) NumVacants() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isVacant() {
			n++
		}
	}
	return n
}
