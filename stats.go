package dartrie

// Statistics is implemented by every serializable released trie shape. It
// reports the structural occupancy and memory-footprint figures spec.md
// §6 names as part of the public surface.
type Statistics interface {
	HeapBytes() int
	IOBytes() int
	NumElems() int
	NumVacants() int
	VacantRatio() float64
}

var (
	_ Statistics = (*Trie)(nil)
	_ Statistics = (*MpTrie)(nil)
)
