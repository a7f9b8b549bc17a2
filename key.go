package dartrie

import (
	"bufio"
	"io"

	"golang.org/x/text/unicode/norm"
)

// RunesFromString normalizes s to Unicode NFC and returns its runes. This
// is an opt-in convenience for callers turning arbitrary user strings into
// canonical trie keys; Builder itself performs no normalization — it takes
// keys exactly as given and rejects only the reserved end-marker rune.
func RunesFromString(s string) []rune {
	return []rune(norm.NFC.String(s))
}

// LongestCommonPrefix returns the length of the longest common prefix of a
// and b, measured in runes.
func LongestCommonPrefix(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// KeyReader reads sorted, newline-delimited keys from r, NFC-normalizing
// each line, and assigns values 0..n-1 in the order read. It is a thin
// decode-upstream helper for the common case of building records from a
// sorted word list file; it does not sort or deduplicate — Builder rejects
// unsorted or duplicate input with a typed error.
type KeyReader struct {
	scanner *bufio.Scanner
	next    uint32
}

// NewKeyReader returns a KeyReader over r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{scanner: bufio.NewScanner(r)}
}

// ReadAll consumes the remainder of the underlying reader and returns one
// Record per non-empty line, in the order read.
func (kr *KeyReader) ReadAll() ([]Record, error) {
	var records []Record
	for kr.scanner.Scan() {
		line := kr.scanner.Text()
		if line == "" {
			continue
		}
		records = append(records, Record{
			Key:   RunesFromString(line),
			Value: kr.next,
		})
		kr.next++
	}
	if err := kr.scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
