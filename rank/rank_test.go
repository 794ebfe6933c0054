package rank

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
)

func buildTestIndex(t *testing.T, root string, records []index.FileRecord) *index.Reader {
	t.Helper()
	b := index.NewBuilder(root, 1700000000)
	for _, rec := range records {
		b.AddRecord(rec)
	}
	staged := b.Finish()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.blazeindex")
	if err := index.Write(path, staged, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := index.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func fileRec(root, rel string, isDir bool) index.FileRecord {
	path := root + "/" + rel
	name := rel
	for j := len(rel) - 1; j >= 0; j-- {
		if rel[j] == '/' {
			name = rel[j+1:]
			break
		}
	}
	ext := ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			ext = name[i+1:]
			break
		}
		if name[i] == '/' {
			break
		}
	}
	return index.FileRecord{
		Path:     path,
		Name:     name,
		Size:     100,
		Modified: 1700000000,
		Created:  1700000000,
		Ext:      ext,
		IsDir:    isDir,
	}
}

func TestRankNamePrefixBeatsSubstringMatch(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "query.rs", false),
		fileRec(root, "myqueryhelper.rs", false),
	})
	now := time.Now()
	q := query.Parse("query")
	hits := []index.FileId{0, 1}
	ranked := Rank(r, q, hits, now, -1)
	if len(ranked) != 2 || r.Name(ranked[0]) != "query.rs" {
		t.Fatalf("Rank() top result = %v, want query.rs first", namesOf(r, ranked))
	}
}

func TestRankRecencyZeroedInBuildDir(t *testing.T) {
	root := "/r"
	recentNoisy := fileRec(root, "target/debug/build/out.rs", false)
	recentNoisy.Modified = time.Now().Unix()
	recentClean := fileRec(root, "src/out.rs", false)
	recentClean.Modified = time.Now().Unix()
	r := buildTestIndex(t, root, []index.FileRecord{recentNoisy, recentClean})

	now := time.Now()
	q := query.Parse("out")
	hits := []index.FileId{0, 1}
	ranked := Rank(r, q, hits, now, -1)
	if len(ranked) != 2 {
		t.Fatalf("Rank() = %v, want 2 results", ranked)
	}
	// The clean src/ copy should outrank the build/-directory copy despite
	// identical name/recency, because noise penalties demote the latter.
	topPath, err := r.ReconstructPath(ranked[0])
	if err != nil {
		t.Fatalf("ReconstructPath: %v", err)
	}
	if topPath == root+"/target/debug/build/out.rs" {
		t.Errorf("Rank() ranked the noisy build/ copy first: %v", namesOf(r, ranked))
	}
}

func TestRankZeroLimitReturnsNil(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{fileRec(root, "a.txt", false)})
	got := Rank(r, query.Parse("a"), []index.FileId{0}, time.Now(), 0)
	if got != nil {
		t.Errorf("Rank(limit=0) = %v, want nil", got)
	}
}

func TestRankEmptyHitsReturnsNil(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{fileRec(root, "a.txt", false)})
	got := Rank(r, query.Parse("a"), nil, time.Now(), -1)
	if got != nil {
		t.Errorf("Rank(no hits) = %v, want nil", got)
	}
}

func TestPartialSelectMatchesFullSortPrefix(t *testing.T) {
	vals := []int{5, 3, 8, 1, 9, 2, 7, 4, 6, 0}
	cpy := append([]int(nil), vals...)
	partialSelect(cpy, 3, func(i, j int) bool { return cpy[i] < cpy[j] })
	top3 := append([]int(nil), cpy[:3]...)

	sorted := append([]int(nil), vals...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] < sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	wantSet := map[int]bool{}
	for _, v := range sorted[:3] {
		wantSet[v] = true
	}
	for _, v := range top3 {
		if !wantSet[v] {
			t.Errorf("partialSelect top-3 = %v, want a permutation of the 3 smallest %v", top3, sorted[:3])
		}
	}
}

func namesOf(r *index.Reader, ids []index.FileId) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.Name(id)
	}
	return out
}
