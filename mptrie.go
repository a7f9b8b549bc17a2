package dartrie

// MpTrie is a minimal-prefix double-array trie: a leaf at the end of a
// single-remaining-branch chain carries its leftover key suffix in a
// packed tail pool instead of spending further node-array slots on it,
// shrinking memory for long, low-fanout keys at the cost of a short linear
// scan per match. A *MpTrie is immutable once released from a Builder and
// safe for unsynchronized concurrent reads.
type MpTrie struct {
	mapper    CodeMapper
	nodes     []node
	tails     []byte
	codeSize  uint8
	valueSize uint8
}

func (t *MpTrie) childIdx(nodeIdx, code uint32) (uint32, bool) {
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

// ExactMatch returns the value associated with key, if key was present at
// construction time.
func (t *MpTrie) ExactMatch(key string) (uint32, bool) {
	runes := []rune(key)
	nodeIdx := uint32(0)
	i := 0
	for i < len(runes) && !t.nodes[nodeIdx].isLeaf() {
		code, ok := t.mapper.Get(runes[i])
		if !ok {
			return 0, false
		}
		childIdx, ok := t.childIdx(nodeIdx, code)
		if !ok {
			return 0, false
		}
		nodeIdx = childIdx
		i++
	}

	n := t.nodes[nodeIdx]
	if !n.isLeaf() {
		if n.hasLeaf() && i == len(runes) {
			leafIdx := n.getBase() ^ endCode
			return t.nodes[leafIdx].value(), true
		}
		return 0, false
	}

	tailPos := n.value()
	tailLen := int(t.tails[tailPos])
	tailPos++
	for j := 0; j < tailLen; j++ {
		if i >= len(runes) {
			return 0, false
		}
		code, ok := t.mapper.Get(runes[i])
		if !ok {
			return 0, false
		}
		if code != UnpackUint32(t.tails[tailPos:], t.codeSize) {
			return 0, false
		}
		tailPos += uint32(t.codeSize)
		i++
	}
	if i != len(runes) {
		return 0, false
	}
	return UnpackUint32(t.tails[tailPos:], t.valueSize), true
}

// MpCommonPrefixSearcher holds a pre-mapped haystack for repeated
// common-prefix searches against an MpTrie. It borrows its trie; a
// searcher must not outlive the trie it was created from.
type MpCommonPrefixSearcher struct {
	trie *MpTrie
	text mappedText
}

// CommonPrefixSearcher returns a searcher bound to t with no text loaded.
func (t *MpTrie) CommonPrefixSearcher() *MpCommonPrefixSearcher {
	return &MpCommonPrefixSearcher{trie: t}
}

// SetText maps text for searching. It replaces any previously loaded text.
func (s *MpCommonPrefixSearcher) SetText(text string) {
	s.text = mapText(&s.trie.mapper, text)
}

// Search returns an iterator over all stored keys that are a prefix of the
// loaded text starting at rune position from.
func (s *MpCommonPrefixSearcher) Search(from int) *MpCommonPrefixSearchIter {
	return &MpCommonPrefixSearchIter{s: s, pos: from, start: from}
}

// MpCommonPrefixSearchIter is a pull iterator yielding matches in order of
// increasing match length. It borrows its MpCommonPrefixSearcher.
type MpCommonPrefixSearchIter struct {
	s       *MpCommonPrefixSearcher
	pos     int
	start   int
	nodeIdx uint32
	done    bool
}

// Next returns the next match, or (Match{}, false) once the walk fails, the
// tail comparison fails, or the text is exhausted.
func (it *MpCommonPrefixSearchIter) Next() (Match, bool) {
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
			return it.tailMatch(n.value())
		}
		if n.hasLeaf() {
			leafIdx := n.getBase() ^ endCode
			return it.match(t.nodes[leafIdx].value()), true
		}
	}
	it.done = true
	return Match{}, false
}

func (it *MpCommonPrefixSearchIter) tailMatch(tailOffset uint32) (Match, bool) {
	t := it.s.trie
	text := it.s.text
	tailPos := tailOffset
	tailLen := int(t.tails[tailPos])
	tailPos++
	for j := 0; j < tailLen; j++ {
		if it.pos >= len(text.codes) || !text.valid[it.pos] {
			return Match{}, false
		}
		if text.codes[it.pos] != UnpackUint32(t.tails[tailPos:], t.codeSize) {
			return Match{}, false
		}
		tailPos += uint32(t.codeSize)
		it.pos++
	}
	value := UnpackUint32(t.tails[tailPos:], t.valueSize)
	return it.match(value), true
}

func (it *MpCommonPrefixSearchIter) match(value uint32) Match {
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
func (t *MpTrie) HeapBytes() int {
	return t.mapper.HeapBytes() + len(t.nodes)*nodeByteSize + len(t.tails)
}

// IOBytes returns the serialized size of the trie in bytes.
func (t *MpTrie) IOBytes() int {
	return t.mapper.IOBytes() + 4 + len(t.nodes)*nodeByteSize + 4 + len(t.tails) + 2
}

// NumElems returns the number of stored keys.
func (t *MpTrie) NumElems() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isLeaf() {
			n++
		}
	}
	return n
}

// NumVacants returns the number of unused node-array slots.
func (t *MpTrie) NumVacants() int {
	n := 0
	for _, nd := range t.nodes {
		if nd.isVacant() {
			n++
		}
	}
	return n
}

// VacantRatio returns NumVacants divided by the total node count.
func (t *MpTrie) VacantRatio() float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	return float64(t.NumVacants()) / float64(len(t.nodes))
}

// SerializeToSlice encodes t as a flat, little-endian byte buffer: the
// mapper and node array exactly as Trie.SerializeToSlice, followed by the
// tail pool and its two size descriptors (spec.md §4.7).
func (t *MpTrie) SerializeToSlice() []byte {
	dst := t.mapper.SerializeInto(nil)
	dst = PackUint32(dst, uint32(len(t.nodes)), 4)
	for _, n := range t.nodes {
		dst = n.serializeInto(dst)
	}
	dst = PackUint32(dst, uint32(len(t.tails)), 4)
	dst = append(dst, t.tails...)
	dst = append(dst, t.codeSize, t.valueSize)
	return dst
}

// DeserializeMpTrie reads an MpTrie from the front of src and returns it
// along with the unread suffix of src. It presumes src was produced by a
// compatible serializer; a truncated or corrupt buffer is reported as an
// InputError rather than panicking.
func DeserializeMpTrie(src []byte) (trie *MpTrie, rest []byte, err error) {
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
	tailsLen := UnpackUint32(s, 4)
	s = s[4:]
	tails := make([]byte, tailsLen)
	copy(tails, s[:tailsLen])
	s = s[tailsLen:]
	codeSize := s[0]
	valueSize := s[1]
	s = s[2:]
	return &MpTrie{mapper: mapper, nodes: nodes, tails: tails, codeSize: codeSize, valueSize: valueSize}, s, nil
}
