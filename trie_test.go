package dartrie

import (
	"testing"
	"unicode/utf8"
)

func collectMatches(t *testing.T, trie *Trie, haystack string) [][3]int {
	t.Helper()
	s := trie.CommonPrefixSearcher()
	s.SetText(haystack)
	var got [][3]int
	for i := 0; i < utf8.RuneCountInString(haystack); i++ {
		it := s.Search(i)
		for {
			m, ok := it.Next()
			if !ok {
				break
			}
			got = append(got, [3]int{int(m.Value), m.CharStart, m.CharEnd})
		}
	}
	return got
}

func assertMatches(t *testing.T, got, want [][3]int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v matches, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("match %d: got %v, want %v (full got=%v, want=%v)", i, got[i], want[i], got, want)
		}
	}
}

func TestTrieScenario1(t *testing.T) {
	keys := []string{"世界", "世界中", "国民"}
	trie := mustBuildTrie(t, keys)

	if v, ok := trie.ExactMatch("世界中"); !ok || v != 1 {
		t.Fatalf("ExactMatch(世界中) = (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := trie.ExactMatch("日本中"); ok {
		t.Fatalf("ExactMatch(日本中) should fail")
	}

	got := collectMatches(t, trie, "国民が世界中にて")
	want := [][3]int{{2, 0, 2}, {0, 3, 5}, {1, 3, 6}}
	assertMatches(t, got, want)
}

func TestTrieScenario2(t *testing.T) {
	keys := []string{"世界", "世界中", "世論調査", "統計調査"}
	trie := mustBuildTrie(t, keys)

	if _, ok := trie.ExactMatch("世論"); ok {
		t.Fatalf("ExactMatch(世論) should fail")
	}
	if _, ok := trie.ExactMatch("統計調"); ok {
		t.Fatalf("ExactMatch(統計調) should fail")
	}

	got := collectMatches(t, trie, "世界中の統計世論調査")
	want := [][3]int{{0, 0, 2}, {1, 0, 3}, {2, 6, 10}}
	assertMatches(t, got, want)
}

func TestTrieNegativeLookups(t *testing.T) {
	keys := []string{"世界", "世界中", "世論調査", "統計調査"}
	trie := mustBuildTrie(t, keys)
	for _, k := range []string{"世", "統計", "日本"} {
		if _, ok := trie.ExactMatch(k); ok {
			t.Fatalf("ExactMatch(%q) should fail", k)
		}
	}
}

func TestTrieSerializeRoundTrip(t *testing.T) {
	keys := []string{"世界", "世界中", "世論調査", "国民", "統計調査"}
	trie := mustBuildTrie(t, keys)

	buf := trie.SerializeToSlice()
	restored, rest, err := DeserializeTrie(buf)
	if err != nil {
		t.Fatalf("DeserializeTrie failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DeserializeTrie left %d unread bytes", len(rest))
	}
	for i, k := range keys {
		v, ok := restored.ExactMatch(k)
		if !ok || v != uint32(i) {
			t.Fatalf("restored ExactMatch(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
	if restored.NumElems() != len(keys) {
		t.Fatalf("NumElems() = %d, want %d", restored.NumElems(), len(keys))
	}
}

func TestTrieStatistics(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "bc"}
	trie := mustBuildTrie(t, keys)
	if trie.NumElems() != len(keys) {
		t.Fatalf("NumElems() = %d, want %d", trie.NumElems(), len(keys))
	}
	if got := trie.VacantRatio(); got < 0 || got > 1 {
		t.Fatalf("VacantRatio() = %f, want a value in [0, 1]", got)
	}
	if trie.HeapBytes() <= 0 {
		t.Fatalf("HeapBytes() should be positive")
	}
	if trie.IOBytes() != len(trie.SerializeToSlice()) {
		t.Fatalf("IOBytes() = %d, want %d", trie.IOBytes(), len(trie.SerializeToSlice()))
	}
}
