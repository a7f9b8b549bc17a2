// Package dartrie implements a compact, read-optimized dictionary keyed by
// strings of Unicode scalar values, returning an unsigned 32-bit value per
// key. It is organized as a character-wise double-array trie: a pair of
// parallel uint32 arrays (base, check) such that a node's k-th child lives
// at a predictable, collision-checked index.
//
// Three release shapes are offered once a Builder finishes construction:
//
//   - Trie, a dense double array optimized for lookup latency.
//   - MpTrie, a minimal-prefix variant that packs the tails of low-fanout
//     branches into a side byte pool to shrink memory for long keys.
//   - MpfTrie, a fuzzy minimal-prefix variant that keeps only a (length,
//     hash) fingerprint per tail, so matches decided by a tail are
//     probabilistic.
//
// All three support exact-match lookup and common-prefix search over a
// haystack. Trie and MpTrie also serialize to/from a flat byte buffer;
// MpfTrie has no serialized form. None supports mutation
// after construction: build the whole key set up front via Builder, then
// Release the shape you need.
//
// Concurrency: a Builder is not safe for concurrent use while it is being
// built. A released Trie/MpTrie/MpfTrie is immutable and may be queried
// concurrently from any number of goroutines without synchronization.
package dartrie
