package dartrie

import "unicode/utf8"

// Trie is a dense, read-optimized double-array trie. Values are attached
// directly to the node array; there is no separate tail pool. A *Trie is
// immutable once released from a Builder and safe for unsynchronized
// concurrent reads.
type Trie struct {
	mapper CodeMapper
	nodes  []node
}

// ExactMatch returns the value associated with key, if key was present at
// construction time.
func (t *Trie) ExactMatch(key string) (uint32, bool) {
	nodeIdx := uint32(0)
	for _, c := range key {
		code, ok := t.mapper.Get(c)
		if !ok {
			return 0, false
		}
		childIdx, ok := t.childIdx(nodeIdx, code)
		if !ok {
			return 0, false
		}
		nodeIdx = childIdx
	}
	n := t.nodes[nodeIdx]
	if n.isLeaf() {
		return n.value(), true
	}
	if n.hasLeaf() {
		leafIdx := n.getBase() ^ endCode
		return t.nodes[leafIdx].value(), true
	}
	return 0, false
}

func (t *Trie) childIdx(nodeIdx, code uint32) (uint32, bool) {
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

// Match is one hit yielded by a CommonPrefixSearchIter: the stored value,
// the matched range measured in runes, and the same range measured in
// bytes of the original haystack string.
type Match struct {
	Value     uint32
	CharStart int
	CharEnd   int
	ByteStart int
	ByteEnd   int
}

// mappedText pre-maps a haystack string to per-rune codes once, so a
// single haystack can be searched from many starting positions without
// re-decoding or re-mapping it each time.
type mappedText struct {
	codes  []uint32
	valid  []bool
	byteAt []int
}

func mapText(m *CodeMapper, text string) mappedText {
	var mt mappedText
	byteOff := 0
	for _, r := range text {
		mt.byteAt = append(mt.byteAt, byteOff)
		code, ok := m.Get(r)
		mt.codes = append(mt.codes, code)
		mt.valid = append(mt.valid, ok)
		byteOff += utf8.RuneLen(r)
	}
	mt.byteAt = append(mt.byteAt, byteOff)
	return mt
}

// CommonPrefixSearcher holds a pre-mapped haystack for repeated
// common-prefix searches from different starting positions. It borrows
// its Trie; a searcher must not outlive the trie it was created from.
type CommonPrefixSearcher struct {
	trie *Trie
	text mappedText
}

// CommonPrefixSearcher returns a searcher bound to t with no text loaded.
func (t *Trie) CommonPrefixSearcher() *CommonPrefixSearcher {
	return &CommonPrefixSearcher{trie: t}
}

// SetText maps text for searching. It replaces any previously loaded text.
func (s *CommonPrefixSearcher) SetText(text string) {
	s.text = mapText(&s.trie.mapper, text)
}

// Search returns an iterator over all stored keys that are a prefix of
// the loaded text starting at rune position from.
func (s *CommonPrefixSearcher) Search(from int) *CommonPrefixSearchIter {
	return &CommonPrefixSearchIter{s: s, pos: from, start: from}
}

// CommonPrefixSearchIter is a pull iterator yielding matches in order of
// increasing match length. It borrows its CommonPrefixSearcher.
type CommonPrefixSearchIter struct {
	s       *CommonPrefixSearcher
	pos     int
	start   int
	nodeIdx uint32
	done    bool
}

// Next returns the next match, or (Match{}, false) once the walk fails or
// the text is exhausted.
func (it *CommonPrefixSearchIter) Next() (Match, bool) {
	if it.done {
		return Match{}, false
	}
	t := it.s.trie
	text := it.s.text
	for it.pos < len(text.codes) {
		if !text.valid[it.pos] {
			it.done = true
			return Match{}, false
		}
		childIdx, ok := t.childIdx(it.nodeIdx, text.codes[it.pos])
		if !ok {
			it.done = true
			return Match{}, false
		}
		it.nodeIdx = childIdx
		it.pos++

		n := t.nodes[it.nodeIdx]
		if n.isLeaf() {
			it.done = true
			return it.match(n.value()), true
		}
		if n.hasLeaf() {
			leafIdx := n.getBase() ^ endCode
			return it.match(t.nodes[leafIdx].value()), true
		}
	}
	it.done = true
	return Match{}, false
}

func (it *CommonPrefixSearchIter) match(value uint32) Match {
	text := it.s.text
	return Match{
		Value:     value,
		CharStart: it.start,
		CharEnd:   it.pos,
		ByteStart: text.byteAt[it.start],
		ByteEnd:   text.byteAt[it.pos],
	}
}

// HeapBytes returns the approximate heap footprint of the trie.
func (t *Trie) HeapBytes() int { return t.mapper.HeapBytes() + len(t.nodes)*nodeByteSize }

// IOBytes returns the serialized size of the trie in bytes.
func (t *Trie) IOBytes() int { return t.mapper.IOBytes() + 4 + len(t.nodes)*nodeByteSize }

// NumElems returns the number of stored keys.
func (t *Trie) NumElems() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isLeaf() {
			n++
		}
	}
	return n
}

// NumVacants returns the number of unused node-array slots.
func (t *Trie) NumVacants() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isVacant() {
			n++
		}
	}
	return n
}

// VacantRatio returns NumVacants divided by the total node count.
func (t *Trie) VacantRatio() float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	return float64(t.NumVacants()) / float64(len(t.nodes))
}

// SerializeToSlice encodes t as a flat, little-endian byte buffer.
func (t *Trie) SerializeToSlice() []byte {
	dst := t.mapper.SerializeInto(nil)
	dst = PackUint32(dst, uint32(len(t.nodes)), 4)
	for _, n := range t.nodes {
		dst = n.serializeInto(dst)
	}
	return dst
}

// DeserializeTrie reads a Trie from the front of src and returns it along
// with the unread suffix of src. It presumes src was produced by a
// compatible serializer (spec.md §7); a truncated or corrupt buffer is
// reported as an InputError rather than panicking.
func DeserializeTrie(src []byte) (trie *Trie, rest []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			trie, rest, err = nil, nil, inputError("truncated or corrupt serialized trie")
		}
	}()
	mapper, s := DeserializeCodeMapper(src)
	nodesLen := UnpackUint32(s, 4)
	s = s[4:]
	nodes := make([]node, nodesLen)
	for i := range nodes {
		nodes[i], s = deserializeNode(s)
	}
	return &Trie{mapper: mapper, nodes: nodes}, s, nil
}
