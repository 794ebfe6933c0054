package trigram

import (
	"reflect"
	"testing"
)

func TestPackFoldsASCIICase(t *testing.T) {
	got := ForString("AbCd")
	want := []T{Pack('a', 'b', 'c'), Pack('b', 'c', 'd')}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ForString(%q) = %#x, want %#x", "AbCd", got, want)
	}
	if want[0] != 0x636261 {
		t.Errorf("Pack('a','b','c') = %#x, want 0x636261", want[0])
	}
}

func TestForBytesShortInput(t *testing.T) {
	if got := ForBytes([]byte("ab")); got != nil {
		t.Errorf("ForBytes(short) = %v, want nil", got)
	}
}

func TestForBytesSortedDeduped(t *testing.T) {
	got := ForString("aaaa")
	want := []T{Pack('a', 'a', 'a')}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ForString(aaaa) = %#x, want %#x", got, want)
	}
}

func TestQueryTrigramsSubsetOfIndexingSet(t *testing.T) {
	inputs := []string{
		"query.rs", "src/commands/query.rs", "a", "ab", "abc", "abcd", "abcdefghij",
	}
	for _, s := range inputs {
		idx := ForString(s)
		idxSet := make(map[T]bool, len(idx))
		for _, tg := range idx {
			idxSet[tg] = true
		}
		for _, tg := range QueryTrigramsString(s) {
			if !idxSet[tg] {
				t.Errorf("QueryTrigrams(%q) contains %#x not in indexing set", s, tg)
			}
		}
	}
}

func TestQueryTrigramsStride(t *testing.T) {
	// "abcdefghi" has length 9; strides at 0,3,6 exactly hit the tail.
	got := QueryTrigramsString("abcdefghi")
	want := []T{Pack('a', 'b', 'c'), Pack('d', 'e', 'f'), Pack('g', 'h', 'i')}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QueryTrigrams(abcdefghi) = %#x, want %#x", got, want)
	}

	// "abcdefghij" has length 10; stride misses the tail "hij" so it's appended.
	got2 := QueryTrigramsString("abcdefghij")
	want2 := []T{Pack('a', 'b', 'c'), Pack('d', 'e', 'f'), Pack('g', 'h', 'i'), Pack('h', 'i', 'j')}
	if !reflect.DeepEqual(got2, want2) {
		t.Errorf("QueryTrigrams(abcdefghij) = %#x, want %#x", got2, want2)
	}
}
