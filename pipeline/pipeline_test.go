package pipeline

import (
	"path/filepath"
	"testing"

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

func TestPipelineParseExecuteRank(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "query.rs", false),
		fileRec(root, "other.txt", false),
	})

	ranked := New(r).Parse("query").Execute().Rank(-1)
	entries := ranked.IterWithPaths()
	if len(entries) != 1 || entries[0].Path != root+"/query.rs" {
		t.Fatalf("pipeline result = %v, want just query.rs", entries)
	}
	if ranked.Count() != 1 {
		t.Errorf("Count() = %d, want 1", ranked.Count())
	}
}

func TestPipelineTimedRecordsMetrics(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{fileRec(root, "a.txt", false)})

	ranked := NewTimed(r).Parse("a").Execute().Rank(-1)
	m := ranked.Metrics()
	if m.Total() < m.ParseTime+m.ExecTime+m.RankTime {
		t.Errorf("Metrics().Total() = %v, want sum of stage times", m.Total())
	}
}

func TestPipelineWithQuerySkipsParseMetrics(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{fileRec(root, "a.txt", false)})

	parsed := NewTimed(r).WithQuery(query.Parse("a"))
	if parsed.Query().Expr == nil {
		t.Fatalf("WithQuery did not carry the supplied query through")
	}
	if m := parsed.Execute().Rank(-1).Metrics(); m.ParseTime != 0 {
		t.Errorf("Metrics().ParseTime = %v after WithQuery, want 0", m.ParseTime)
	}
}

func TestExecutedHitCountAndUnranked(t *testing.T) {
	root := "/r"
	r := buildTestIndex(t, root, []index.FileRecord{
		fileRec(root, "a.txt", false),
		fileRec(root, "b.txt", false),
	})

	executed := New(r).Parse("").Execute()
	if executed.HitCount() != len(executed.Hits()) {
		t.Fatalf("HitCount() = %d, want len(Hits()) = %d", executed.HitCount(), len(executed.Hits()))
	}

	ranked := executed.Unranked()
	if ranked.Count() != executed.HitCount() {
		t.Errorf("Unranked().Count() = %d, want %d", ranked.Count(), executed.HitCount())
	}
}
