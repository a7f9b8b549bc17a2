package dartrie

import "math"

// Record is one (key, value) pair supplied to a Builder. Records must be
// given in strictly increasing key order with no duplicates; Builder
// enforces this and returns a typed InputError otherwise.
type Record struct {
	Key   []rune
	Value uint32
}

// suffix is the remaining, end-marker-stripped tail of a key recorded for
// a single-branch leaf promoted during minimal-prefix construction.
type suffix struct {
	key   []rune
	value uint32
}

// BuilderOption configures a Builder before construction begins.
type BuilderOption func(*Builder)

// WithMinimalPrefix configures the Builder to promote single-remaining-
// branch leaves into a packed tail pool, producing an MpTrie or MpfTrie on
// release instead of a dense Trie.
func WithMinimalPrefix() BuilderOption {
	return func(b *Builder) { b.minimalPrefix = true }
}

// Builder constructs a double-array trie from a sorted, duplicate-free set
// of records. A Builder is single-use: build the records with
// BuildFromKeys or BuildFromRecords, then call exactly one Release method.
// It is not safe for concurrent use.
type Builder struct {
	minimalPrefix bool
	records       []Record
	mapper        CodeMapper
	nodes         []node
	suffixes      []suffix
	labels        []uint32
	headIdx       uint32
	blockLen      uint32
}

// NewBuilder returns a Builder ready to accept records.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{headIdx: invalidIdx}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromKeys builds from a sorted, duplicate-free slice of keys,
// assigning each key its index as its value.
func (b *Builder) BuildFromKeys(keys []string) (*Builder, error) {
	records := make([]Record, len(keys))
	for i, k := range keys {
		records[i] = Record{Key: []rune(k), Value: uint32(i)}
	}
	return b.BuildFromRecords(records)
}

// BuildFromRecords builds from a sorted, duplicate-free slice of records.
// See spec.md §4.4 for the full list of rejected inputs.
func (b *Builder) BuildFromRecords(records []Record) (*Builder, error) {
	if len(records) == 0 {
		return nil, inputError("records must not be empty")
	}

	recs := make([]Record, len(records))
	for i, r := range records {
		if len(r.Key) == 0 {
			return nil, inputError("records must not contain an empty key")
		}
		if r.Value > maxValue {
			return nil, scaleError("input value", maxValue)
		}
		key := make([]rune, len(r.Key))
		copy(key, r.Key)
		recs[i] = Record{Key: key, Value: r.Value}
	}

	freqs, err := makeFreqs(recs)
	if err != nil {
		return nil, err
	}
	mapper, err := newCodeMapper(freqs)
	if err != nil {
		return nil, err
	}
	if err := makePrefixFree(recs); err != nil {
		return nil, err
	}

	b.records = recs
	b.mapper = mapper
	b.blockLen = blockLenFor(mapper.AlphabetSize())
	b.initArray()
	if err := b.arrangeNodes(0, uint32(len(recs)), 0, 0); err != nil {
		return nil, err
	}
	b.finish()
	return b, nil
}

// ReleaseTrie releases a dense, standard trie. It fails if the Builder was
// configured with WithMinimalPrefix.
func (b *Builder) ReleaseTrie() (*Trie, error) {
	if b.minimalPrefix {
		return nil, setupError("minimal_prefix must be disabled to release a Trie")
	}
	return &Trie{mapper: b.mapper, nodes: b.nodes}, nil
}

// ReleaseMpTrie releases a minimal-prefix trie whose promoted leaves carry
// their remaining suffix in a packed tail pool. It fails unless the
// Builder was configured with WithMinimalPrefix.
func (b *Builder) ReleaseMpTrie() (*MpTrie, error) {
	if !b.minimalPrefix {
		return nil, setupError("minimal_prefix must be enabled to release an MpTrie")
	}

	maxCode := uint32(0)
	if b.mapper.AlphabetSize() > 0 {
		maxCode = b.mapper.AlphabetSize() - 1
	}
	codeSize := PackSize(maxCode)

	maxVal := uint32(0)
	for _, s := range b.suffixes {
		if s.value > maxVal {
			maxVal = s.value
		}
	}
	valueSize := PackSize(maxVal)

	nodes := b.nodes
	var tails []byte
	for nodeIdx := uint32(0); nodeIdx < uint32(len(nodes)); nodeIdx++ {
		if nodes[nodeIdx].isVacant() || !nodes[nodeIdx].isLeaf() {
			continue
		}
		parentIdx := nodes[nodeIdx].getCheck()
		suf := b.suffixes[nodes[nodeIdx].value()]

		if nodes[parentIdx].hasLeaf() && nodes[parentIdx].getBase() == nodeIdx {
			nodes[nodeIdx].base = suf.value | msbFlag
			continue
		}

		nodes[nodeIdx].base = uint32(len(tails)) | msbFlag
		tails = append(tails, byte(len(suf.key)))
		for _, c := range suf.key {
			code, _ := b.mapper.Get(c)
			tails = PackUint32(tails, code, codeSize)
		}
		tails = PackUint32(tails, suf.value, valueSize)
	}

	return &MpTrie{mapper: b.mapper, nodes: nodes, tails: tails, codeSize: codeSize, valueSize: valueSize}, nil
}

// ReleaseMpfTrie releases a fuzzy minimal-prefix trie whose promoted
// leaves carry only a (length, hash) pair instead of the full tail bytes.
// It fails unless the Builder was configured with WithMinimalPrefix.
func (b *Builder) ReleaseMpfTrie() (*MpfTrie, error) {
	if !b.minimalPrefix {
		return nil, setupError("minimal_prefix must be enabled to release an MpfTrie")
	}

	nodes := b.nodes
	ranks := make([]bool, len(nodes))
	auxes := make([]auxEntry, len(nodes))

	for nodeIdx := uint32(0); nodeIdx < uint32(len(nodes)); nodeIdx++ {
		if nodes[nodeIdx].isVacant() || !nodes[nodeIdx].isLeaf() {
			continue
		}
		parentIdx := nodes[nodeIdx].getCheck()
		suf := b.suffixes[nodes[nodeIdx].value()]
		nodes[nodeIdx].base = suf.value | msbFlag

		if nodes[parentIdx].hasLeaf() && nodes[parentIdx].getBase() == nodeIdx {
			continue
		}

		codes := make([]uint32, len(suf.key))
		for i, c := range suf.key {
			code, _ := b.mapper.Get(c)
			codes[i] = code
		}
		ranks[nodeIdx] = true
		auxes[nodeIdx] = auxEntry{tailLen: uint8(len(suf.key)), tailHash: tailHash(codes)}
	}

	return &MpfTrie{mapper: b.mapper, nodes: nodes, ranks: ranks, auxes: auxes}, nil
}

func (b *Builder) numNodes() uint32 { return uint32(len(b.nodes)) }

func (b *Builder) initArray() {
	b.nodes = make([]node, b.blockLen)
	for i := uint32(0); i < b.blockLen; i++ {
		prev := i - 1
		if i == 0 {
			prev = b.blockLen - 1
		}
		next := i + 1
		if i == b.blockLen-1 {
			next = 0
		}
		b.setPrev(i, prev)
		b.setNext(i, next)
	}
	b.headIdx = 0
	b.fixNode(0)
}

// arrangeNodes recursively partitions records[spos:epos], all sharing a
// common prefix of length depth, rooted at node_idx.
func (b *Builder) arrangeNodes(spos, epos, depth, nodeIdx uint32) error {
	if b.minimalPrefix {
		if spos+1 == epos {
			sufIdx := uint32(len(b.suffixes))
			b.nodes[nodeIdx].base = sufIdx | msbFlag
			key := popEndMarker(b.records[spos].Key[depth:])
			sufKey := make([]rune, len(key))
			copy(sufKey, key)
			b.suffixes = append(b.suffixes, suffix{key: sufKey, value: b.records[spos].Value})
			return nil
		}
	} else if uint32(len(b.records[spos].Key)) == depth {
		b.nodes[nodeIdx].base = b.records[spos].Value | msbFlag
		return nil
	}

	b.fetchLabels(spos, epos, depth)
	base, err := b.defineNodes(nodeIdx)
	if err != nil {
		return err
	}

	lo := spos
	c1 := b.records[lo].Key[depth]
	for i := spos + 1; i < epos; i++ {
		c2 := b.records[i].Key[depth]
		if c1 != c2 {
			code, _ := b.mapper.Get(c1)
			if err := b.arrangeNodes(lo, i, depth+1, base^code); err != nil {
				return err
			}
			lo = i
			c1 = c2
		}
	}
	code, _ := b.mapper.Get(c1)
	return b.arrangeNodes(lo, epos, depth+1, base^code)
}

func (b *Builder) fetchLabels(spos, epos, depth uint32) {
	b.labels = b.labels[:0]
	c1 := b.records[spos].Key[depth]
	for i := spos + 1; i < epos; i++ {
		c2 := b.records[i].Key[depth]
		if c1 != c2 {
			code, _ := b.mapper.Get(c1)
			b.labels = append(b.labels, code)
			c1 = c2
		}
	}
	code, _ := b.mapper.Get(c1)
	b.labels = append(b.labels, code)
}

func (b *Builder) defineNodes(nodeIdx uint32) (uint32, error) {
	base := b.findBase(b.labels)
	if base >= b.numNodes() {
		if err := b.enlarge(); err != nil {
			return 0, err
		}
	}
	b.nodes[nodeIdx].base = base
	for _, l := range b.labels {
		childIdx := base ^ l
		b.fixNode(childIdx)
		b.nodes[childIdx].check = nodeIdx
	}
	return base, nil
}

func (b *Builder) findBase(labels []uint32) uint32 {
	if b.headIdx == invalidIdx {
		return b.numNodes() ^ labels[0]
	}
	nodeIdx := b.headIdx
	for {
		base := nodeIdx ^ labels[0]
		if b.verifyBase(base, labels) {
			return base
		}
		nodeIdx = b.getNext(nodeIdx)
		if nodeIdx == b.headIdx {
			break
		}
	}
	return b.numNodes() ^ labels[0]
}

func (b *Builder) verifyBase(base uint32, labels []uint32) bool {
	for _, l := range labels {
		if b.isFixed(base ^ l) {
			return false
		}
	}
	return true
}

func (b *Builder) finish() {
	b.nodes[0].check = offsetMask
	if b.headIdx != invalidIdx {
		nodeIdx := b.headIdx
		for {
			next := b.getNext(nodeIdx)
			b.nodes[nodeIdx] = vacantNode()
			nodeIdx = next
			if nodeIdx == b.headIdx {
				break
			}
		}
	}
	for nodeIdx := uint32(0); nodeIdx < b.numNodes(); nodeIdx++ {
		n := b.nodes[nodeIdx]
		if n.isVacant() || n.isLeaf() {
			continue
		}
		endIdx := n.getBase() ^ endCode
		if b.nodes[endIdx].getCheck() == nodeIdx {
			b.nodes[nodeIdx].check |= msbFlag
		}
	}
}

func (b *Builder) enlarge() error {
	oldLen := b.numNodes()
	newLen64 := uint64(oldLen) + uint64(b.blockLen)
	if newLen64 > (uint64(1) << 31) {
		return scaleError("num_nodes", 1<<31)
	}
	newLen := uint32(newLen64)

	b.nodes = append(b.nodes, make([]node, b.blockLen)...)
	for i := oldLen; i < newLen; i++ {
		b.setNext(i, i+1)
		b.setPrev(i, i-1)
	}

	if b.headIdx == invalidIdx {
		b.setPrev(oldLen, newLen-1)
		b.setNext(newLen-1, oldLen)
		b.headIdx = oldLen
	} else {
		tailIdx := b.getPrev(b.headIdx)
		b.setPrev(oldLen, tailIdx)
		b.setNext(tailIdx, oldLen)
		b.setNext(newLen-1, b.headIdx)
		b.setPrev(b.headIdx, newLen-1)
	}
	return nil
}

func (b *Builder) isFixed(i uint32) bool { return b.nodes[i].check&msbFlag == 0 }

func (b *Builder) setFixed(i uint32) {
	b.nodes[i].base = invalidIdx
	b.nodes[i].check &= offsetMask
}

func (b *Builder) getNext(i uint32) uint32 { return b.nodes[i].base & offsetMask }
func (b *Builder) getPrev(i uint32) uint32 { return b.nodes[i].check & offsetMask }
func (b *Builder) setNext(i, x uint32)     { b.nodes[i].base = x | msbFlag }
func (b *Builder) setPrev(i, x uint32)     { b.nodes[i].check = x | msbFlag }

func (b *Builder) fixNode(i uint32) {
	next := b.getNext(i)
	prev := b.getPrev(i)
	b.setNext(prev, next)
	b.setPrev(next, prev)
	b.setFixed(i)
	if b.headIdx == i {
		if next == i {
			b.headIdx = invalidIdx
		} else {
			b.headIdx = next
		}
	}
}

// makeFreqs counts character frequencies across all keys and forces the
// end-marker's slot to the maximum possible frequency so it always sorts
// first and receives code 0.
func makeFreqs(records []Record) ([]uint32, error) {
	maxCh := rune(0)
	for _, r := range records {
		for _, c := range r.Key {
			if c > maxCh {
				maxCh = c
			}
		}
	}
	freqs := make([]uint32, maxCh+1)
	for _, r := range records {
		for _, c := range r.Key {
			freqs[c]++
		}
	}
	if freqs[runeEndMarker] != 0 {
		return nil, inputError("END_MARKER must not be contained")
	}
	freqs[runeEndMarker] = math.MaxUint32
	return freqs, nil
}

// makePrefixFree appends the end-marker to any key that is a proper
// prefix of its successor, and rejects duplicate or out-of-order keys.
func makePrefixFree(records []Record) error {
	for i := 1; i < len(records); i++ {
		prev := records[i-1].Key
		next := records[i].Key
		lcp := LongestCommonPrefix(prev, next)
		switch {
		case lcp == len(prev) && lcp == len(next):
			return inputError("records must not contain duplicated keys")
		case lcp == len(prev):
			extended := make([]rune, lcp+1)
			copy(extended, prev)
			extended[lcp] = runeEndMarker
			records[i-1].Key = extended
		case lcp == len(next):
			return inputError("records must be sorted")
		case prev[lcp] > next[lcp]:
			return inputError("records must be sorted")
		}
	}
	return nil
}

// popEndMarker strips a trailing end-marker rune, if present.
func popEndMarker(key []rune) []rune {
	if len(key) > 0 && key[len(key)-1] == runeEndMarker {
		return key[:len(key)-1]
	}
	return key
}

// blockLenFor returns the smallest power of two strictly greater than
// alphabetSize-1, used both as the free-list growth increment and as the
// bound on XOR fan-out search during base resolution.
func blockLenFor(alphabetSize uint32) uint32 {
	maxCode := alphabetSize - 1
	shift := uint32(1)
	for (maxCode >> shift) != 0 {
		shift++
	}
	return 1 << shift
}
