package eval

import (
	"testing"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

func TestTermsMatchInOrder(t *testing.T) {
	cases := []struct {
		path  string
		terms []string
		want  bool
	}{
		{"/home/u/src/query.rs", []string{"src", "query"}, true},
		{"/home/u/query/src.rs", []string{"src", "query"}, false},
		{"/home/u/src/query.rs", []string{}, true},
		{"/home/u/src/query.rs", []string{"query", "src"}, false},
	}
	for _, c := range cases {
		if got := TermsMatchInOrder(c.path, c.terms); got != c.want {
			t.Errorf("TermsMatchInOrder(%q, %v) = %v, want %v", c.path, c.terms, got, c.want)
		}
	}
}

func TestApplyPathOrderFilterNoOpBelowTwoTerms(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "a/b.rs", false),
	})
	all := []index.FileId{0}
	q := query.Parse("b")
	got := ApplyPathOrderFilter(r, q, all)
	if len(got) != 1 {
		t.Fatalf("ApplyPathOrderFilter with <2 terms should be a no-op, got %v", got)
	}
}

func TestApplyPathOrderFilterEnforcesOrder(t *testing.T) {
	root := "/home/u"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "src/query.rs", false),
		fileRec(root, "query/src.rs", false),
	})

	q := query.Parse("src query")
	all := []index.FileId{0, 1}
	got := ApplyPathOrderFilter(r, q, all)
	names := namesOf(t, r, got)
	if len(names) != 1 {
		t.Fatalf("ApplyPathOrderFilter(src query) = %v, want exactly the src-then-query path", names)
	}
}
