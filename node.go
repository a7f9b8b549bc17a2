package dartrie

// offsetMask covers the low 31 bits of a node's base/check field; the
// high bit carries a flag (see node's doc comment).
const offsetMask uint32 = 0x7fff_ffff

// msbFlag is the high bit reserved for flags in a node's base/check field.
const msbFlag uint32 = ^offsetMask

// invalidIdx is used as a past-the-end / "no node" sentinel during
// construction; it is never a valid node index once a trie is released
// (OFFSET_MASK bounds every real index).
const invalidIdx uint32 = 0xffff_ffff

// endCode is the dense code always assigned to the end-marker character.
const endCode uint32 = 0

// maxValue is the largest value storable in a leaf's 31-bit payload.
const maxValue uint32 = offsetMask

// node is one element of a double array: a (base, check) pair of 32-bit
// fields whose most significant bit is overloaded to carry state.
//
//   - isLeaf  ⇔ MSB of base is set.  base & offsetMask is then the
//     associated value (dense trie) or tail-pool offset (minimal-prefix).
//   - hasLeaf ⇔ MSB of check is set. Means an end-marker child exists
//     carrying the value for the key spelled by this node itself.
//   - isVacant ⇔ both fields equal offsetMask exactly.
//   - Otherwise, base is the XOR basis for child addressing and check is
//     the parent's index.
type node struct {
	base  uint32
	check uint32
}

func (n node) isLeaf() bool { return n.base&msbFlag != 0 }

func (n node) hasLeaf() bool { return n.check&msbFlag != 0 }

func (n node) isVacant() bool { return n.base == offsetMask && n.check == offsetMask }

// value returns the payload of a leaf node (dense value or tail offset).
// Only meaningful when isLeaf() is true.
func (n node) value() uint32 { return n.base & offsetMask }

// getBase returns the XOR basis of a non-leaf node.
func (n node) getBase() uint32 { return n.base & offsetMask }

// getCheck returns the parent index of a non-root, non-vacant node.
func (n node) getCheck() uint32 { return n.check & offsetMask }

func leafNode(value uint32) node {
	return node{base: value | msbFlag}
}

func vacantNode() node {
	return node{base: offsetMask, check: offsetMask}
}

// serializeInto appends the 8-byte little-endian encoding of n to dst.
func (n node) serializeInto(dst []byte) []byte {
	dst = PackUint32(dst, n.base, 4)
	dst = PackUint32(dst, n.check, 4)
	return dst
}

// deserializeNode reads one node from the front of src and returns the
// remaining, unread suffix.
func deserializeNode(src []byte) (node, []byte) {
	base := UnpackUint32(src, 4)
	check := UnpackUint32(src[4:], 4)
	return node{base: base, check: check}, src[8:]
}

const nodeByteSize = 8
