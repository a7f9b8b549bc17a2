package dartrie

import "testing"

func mustBuildTrie(t *testing.T, keys []string) *Trie {
	t.Helper()
	b, err := NewBuilder().BuildFromKeys(keys)
	if err != nil {
		t.Fatalf("BuildFromKeys(%v) failed: %v", keys, err)
	}
	trie, err := b.ReleaseTrie()
	if err != nil {
		t.Fatalf("ReleaseTrie failed: %v", err)
	}
	return trie
}

func mustBuildMpTrie(t *testing.T, keys []string) *MpTrie {
	t.Helper()
	b, err := NewBuilder(WithMinimalPrefix()).BuildFromKeys(keys)
	if err != nil {
		t.Fatalf("BuildFromKeys(%v) failed: %v", keys, err)
	}
	trie, err := b.ReleaseMpTrie()
	if err != nil {
		t.Fatalf("ReleaseMpTrie failed: %v", err)
	}
	return trie
}

func mustBuildMpfTrie(t *testing.T, keys []string) *MpfTrie {
	t.Helper()
	b, err := NewBuilder(WithMinimalPrefix()).BuildFromKeys(keys)
	if err != nil {
		t.Fatalf("BuildFromKeys(%v) failed: %v", keys, err)
	}
	trie, err := b.ReleaseMpfTrie()
	if err != nil {
		t.Fatalf("ReleaseMpfTrie failed: %v", err)
	}
	return trie
}

func TestBuilderRejectsEmptyInput(t *testing.T) {
	_, err := NewBuilder().BuildFromKeys(nil)
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for empty input, got %T (%v)", err, err)
	}
}

func TestBuilderRejectsEmptyKey(t *testing.T) {
	_, err := NewBuilder().BuildFromKeys([]string{""})
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for empty key, got %T (%v)", err, err)
	}
}

func TestBuilderRejectsUnsortedInput(t *testing.T) {
	// Scenario 4 (spec.md §8): ["BB", "AA"] unsorted.
	_, err := NewBuilder().BuildFromKeys([]string{"BB", "AA"})
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for unsorted input, got %T (%v)", err, err)
	}
}

func TestBuilderRejectsDuplicateKeys(t *testing.T) {
	// Scenario 5 (spec.md §8): ["AA", "AA"] duplicated.
	_, err := NewBuilder().BuildFromKeys([]string{"AA", "AA"})
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for duplicate keys, got %T (%v)", err, err)
	}
}

func TestBuilderRejectsEndMarkerInKey(t *testing.T) {
	bad := string(rune(0))
	_, err := NewBuilder().BuildFromKeys([]string{"a" + bad})
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for end-marker in key, got %T (%v)", err, err)
	}
}

func TestBuilderRejectsOversizedValue(t *testing.T) {
	records := []Record{{Key: []rune("a"), Value: maxValue + 1}}
	_, err := NewBuilder().BuildFromRecords(records)
	if se, ok := err.(*ScaleError); !ok {
		t.Fatalf("expected *ScaleError for oversized value, got %T (%v)", err, err)
	} else if se.Max != maxValue {
		t.Fatalf("ScaleError.Max = %d, want %d", se.Max, maxValue)
	}
}

func TestBuilderReleaseMismatch(t *testing.T) {
	b, err := NewBuilder().BuildFromKeys([]string{"a"})
	if err != nil {
		t.Fatalf("BuildFromKeys failed: %v", err)
	}
	if _, err := b.ReleaseMpTrie(); err == nil {
		t.Fatalf("ReleaseMpTrie should fail without WithMinimalPrefix")
	} else if _, ok := err.(*SetupError); !ok {
		t.Fatalf("expected *SetupError, got %T (%v)", err, err)
	}

	mb, err := NewBuilder(WithMinimalPrefix()).BuildFromKeys([]string{"a"})
	if err != nil {
		t.Fatalf("BuildFromKeys failed: %v", err)
	}
	if _, err := mb.ReleaseTrie(); err == nil {
		t.Fatalf("ReleaseTrie should fail with WithMinimalPrefix enabled")
	} else if _, ok := err.(*SetupError); !ok {
		t.Fatalf("expected *SetupError, got %T (%v)", err, err)
	}
}

func TestBuilderSingleKeySerializeRoundTrip(t *testing.T) {
	// Scenario 6 (spec.md §8).
	b, err := NewBuilder().BuildFromRecords([]Record{{Key: []rune("X"), Value: 0}})
	if err != nil {
		t.Fatalf("BuildFromRecords failed: %v", err)
	}
	trie, err := b.ReleaseTrie()
	if err != nil {
		t.Fatalf("ReleaseTrie failed: %v", err)
	}
	if v, ok := trie.ExactMatch("X"); !ok || v != 0 {
		t.Fatalf("ExactMatch(X) = (%d, %v), want (0, true)", v, ok)
	}

	buf := trie.SerializeToSlice()
	restored, rest, err := DeserializeTrie(buf)
	if err != nil {
		t.Fatalf("DeserializeTrie failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DeserializeTrie left %d unread bytes", len(rest))
	}
	if restored.NumElems() != trie.NumElems() {
		t.Fatalf("NumElems mismatch: got %d, want %d", restored.NumElems(), trie.NumElems())
	}
	if restored.IOBytes() != trie.IOBytes() {
		t.Fatalf("IOBytes mismatch: got %d, want %d", restored.IOBytes(), trie.IOBytes())
	}
	if v, ok := restored.ExactMatch("X"); !ok || v != 0 {
		t.Fatalf("restored ExactMatch(X) = (%d, %v), want (0, true)", v, ok)
	}
}

func TestBuilderAlphabetTooLarge(t *testing.T) {
	// Start well past the surrogate range (U+D800-U+DFFF), whose halves all
	// collapse to the same replacement rune under string conversion and
	// would otherwise look like duplicate keys instead of a big alphabet.
	const base = 0x10000
	keys := make([]string, 0, maxAlphabetSize+2)
	for i := 0; i < maxAlphabetSize+2; i++ {
		keys = append(keys, string(rune(base+i)))
	}
	_, err := NewBuilder().BuildFromKeys(keys)
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError for oversized alphabet, got %T (%v)", err, err)
	}
}

func TestBuilderExactMatchAllRecords(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "bc", "c"}
	trie := mustBuildTrie(t, keys)
	for i, k := range keys {
		v, ok := trie.ExactMatch(k)
		if !ok || v != uint32(i) {
			t.Fatalf("ExactMatch(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
	for _, k := range []string{"", "d", "ax", "abcd"} {
		if _, ok := trie.ExactMatch(k); ok {
			t.Fatalf("ExactMatch(%q) should fail", k)
		}
	}
}
